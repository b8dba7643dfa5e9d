package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusRecorder implements Recorder backed by Prometheus collectors.
// Register it once at startup and expose the default registry via promhttp.
type PrometheusRecorder struct {
	keysCreated      prometheus.Counter
	keysRevoked      prometheus.Counter
	solutionsCreated prometheus.Counter
	envMaterialized  prometheus.Counter
	envSize          prometheus.Histogram
	authAttempts     *prometheus.CounterVec
}

// NewPrometheus returns a Recorder registered against the default registry.
func NewPrometheus() *PrometheusRecorder {
	return &PrometheusRecorder{
		keysCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "envbox_keys_created_total",
			Help: "Total number of keys created.",
		}),
		keysRevoked: promauto.NewCounter(prometheus.CounterOpts{
			Name: "envbox_keys_revoked_total",
			Help: "Total number of keys revoked.",
		}),
		solutionsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "envbox_solutions_created_total",
			Help: "Total number of solutions created.",
		}),
		envMaterialized: promauto.NewCounter(prometheus.CounterOpts{
			Name: "envbox_env_materialized_total",
			Help: "Total number of env materializations served.",
		}),
		envSize: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "envbox_env_size_keys",
			Help:    "Number of active keys per materialized env.",
			Buckets: []float64{0, 1, 2, 5, 10, 20, 50, 100},
		}),
		authAttempts: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "envbox_auth_attempts_total",
			Help: "Authentication attempts by outcome.",
		}, []string{"outcome"}),
	}
}

// IncKeyCreated increments the keys-created counter.
func (p *PrometheusRecorder) IncKeyCreated() { p.keysCreated.Inc() }

// IncKeyRevoked increments the keys-revoked counter.
func (p *PrometheusRecorder) IncKeyRevoked() { p.keysRevoked.Inc() }

// IncSolutionCreated increments the solutions-created counter.
func (p *PrometheusRecorder) IncSolutionCreated() { p.solutionsCreated.Inc() }

// IncEnvMaterialized increments the env-materializations counter.
func (p *PrometheusRecorder) IncEnvMaterialized() { p.envMaterialized.Inc() }

// ObserveEnvSize records the number of active keys in a materialized env.
func (p *PrometheusRecorder) ObserveEnvSize(keys int) { p.envSize.Observe(float64(keys)) }

// IncAuthAttempt increments the auth-attempts counter for an outcome.
func (p *PrometheusRecorder) IncAuthAttempt(outcome string) {
	p.authAttempts.WithLabelValues(outcome).Inc()
}
