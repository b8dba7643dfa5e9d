// Package metrics provides lightweight hooks for instrumentation.
package metrics

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus, StatsD, etc.
type Recorder interface {
	// Key lifecycle
	IncKeyCreated()
	IncKeyRevoked()

	// Solution lifecycle
	IncSolutionCreated()

	// Env materialization
	IncEnvMaterialized()
	ObserveEnvSize(keys int)

	// Authentication outcomes: "success" or "failure"
	IncAuthAttempt(outcome string)
}
