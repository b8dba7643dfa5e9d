package metrics

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

// IncKeyCreated is a no-op.
func (n *NoopRecorder) IncKeyCreated() {}

// IncKeyRevoked is a no-op.
func (n *NoopRecorder) IncKeyRevoked() {}

// IncSolutionCreated is a no-op.
func (n *NoopRecorder) IncSolutionCreated() {}

// IncEnvMaterialized is a no-op.
func (n *NoopRecorder) IncEnvMaterialized() {}

// ObserveEnvSize is a no-op.
func (n *NoopRecorder) ObserveEnvSize(keys int) {}

// IncAuthAttempt is a no-op.
func (n *NoopRecorder) IncAuthAttempt(outcome string) {}
