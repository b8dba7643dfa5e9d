package model

import "time"

// Solution represents a named, user-owned bundle of keys.
// Membership lives in the solution_keys join table; the Keys slice is
// populated by the store when listing or resolving a solution.
type Solution struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	OwnerID     string    `json:"ownerId"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`

	// Keys holds the resolved member keys. Secret values may be present
	// in memory; serialization goes through KeyRef or the env path only.
	Keys []*Key `json:"-"`
}

// Env materializes the solution's active keys as a name -> value map.
// Revoked keys are excluded even while still joined to the solution.
func (s *Solution) Env() map[string]string {
	env := make(map[string]string, len(s.Keys))
	for _, k := range s.Keys {
		if k.IsActive() {
			env[k.Name] = k.Value
		}
	}
	return env
}

// KeyRefs returns the redacted reference form of the member keys.
func (s *Solution) KeyRefs() []KeyRef {
	refs := make([]KeyRef, len(s.Keys))
	for i, k := range s.Keys {
		refs[i] = k.Ref()
	}
	return refs
}
