package gormstore

import (
	"time"

	"github.com/lib/pq"
)

// Record types mirror the SQL schema in migrations/ so the pgx and GORM
// stores can run against the same database interchangeably.

type userRecord struct {
	ID           string `gorm:"primaryKey"`
	Email        string `gorm:"uniqueIndex;not null"`
	PasswordHash string `gorm:"not null;default:''"`
	CreatedAt    time.Time
}

func (userRecord) TableName() string { return "users" }

type keyRecord struct {
	ID          string `gorm:"primaryKey"`
	Name        string `gorm:"not null"`
	Value       string `gorm:"not null"`
	Description string
	Tags        pq.StringArray `gorm:"type:text[]"`
	Revoked     bool           `gorm:"not null;default:false"`
	OwnerID     string         `gorm:"index;not null"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (keyRecord) TableName() string { return "keys" }

type solutionRecord struct {
	ID          string `gorm:"primaryKey"`
	Name        string `gorm:"not null"`
	Description string
	OwnerID     string `gorm:"index;not null"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (solutionRecord) TableName() string { return "solutions" }

type solutionKeyRecord struct {
	SolutionID string `gorm:"primaryKey"`
	KeyID      string `gorm:"primaryKey"`
}

func (solutionKeyRecord) TableName() string { return "solution_keys" }

// memberRow is the flattened shape of the solution_keys join query.
type memberRow struct {
	SolutionID  string
	KeyID       string
	Name        string
	Value       string
	Description string
	Tags        pq.StringArray `gorm:"type:text[]"`
	Revoked     bool
	OwnerID     string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
