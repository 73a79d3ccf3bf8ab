// Package metrics expone contadores e histogramas Prometheus del envío de e-CF.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Resultados de una autenticación con el conector.
const (
	AuthOK    = "ok"
	AuthError = "error"
)

// ECFMetrics métricas del conector e-CF. Un *ECFMetrics nil es válido y no registra nada.
type ECFMetrics struct {
	authRequests   *prometheus.CounterVec
	submissions    *prometheus.CounterVec
	submitDuration prometheus.Histogram
	retries        prometheus.Counter
}

// NewECFMetrics crea y registra las métricas en el registerer dado
// (prometheus.DefaultRegisterer si es nil).
func NewECFMetrics(registerer prometheus.Registerer, env string) *ECFMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	if env == "" {
		env = "unknown"
	}
	constLabels := prometheus.Labels{"service": "ecf-dgii", "env": env}

	m := &ECFMetrics{
		authRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "ecf_auth_requests_total",
			Help:        "Autenticaciones contra el conector e-CF por resultado.",
			ConstLabels: constLabels,
		}, []string{"result"}),
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "ecf_submissions_total",
			Help:        "Envíos de e-CF por decisión de la DGII o tipo de fallo.",
			ConstLabels: constLabels,
		}, []string{"outcome"}),
		submitDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:        "ecf_submit_duration_seconds",
			Help:        "Latencia del envío de un e-CF, incluida la reautenticación.",
			Buckets:     []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 30, 60, 120},
			ConstLabels: constLabels,
		}),
		retries: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "ecf_unauthorized_retries_total",
			Help:        "Reintentos tras un 401 del endpoint de procesamiento.",
			ConstLabels: constLabels,
		}),
	}
	registerer.MustRegister(m.authRequests, m.submissions, m.submitDuration, m.retries)
	return m
}

// ObserveAuth cuenta una autenticación.
func (m *ECFMetrics) ObserveAuth(err error) {
	if m == nil {
		return
	}
	result := AuthOK
	if err != nil {
		result = AuthError
	}
	m.authRequests.WithLabelValues(result).Inc()
}

// ObserveSubmission cuenta un envío con su resultado y duración.
func (m *ECFMetrics) ObserveSubmission(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.submissions.WithLabelValues(outcome).Inc()
	m.submitDuration.Observe(elapsed.Seconds())
}

// ObserveRetry cuenta un reintento por token vencido.
func (m *ECFMetrics) ObserveRetry() {
	if m == nil {
		return
	}
	m.retries.Inc()
}
