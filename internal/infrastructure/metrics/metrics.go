// Package metrics expone métricas Prometheus del flujo de envío DIAN.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contadores e histogramas del flujo DIAN.
// Un *Metrics nil es válido: todos los métodos son no-op.
type Metrics struct {
	SubmissionOutcomes *prometheus.CounterVec
	StatusTransitions  *prometheus.CounterVec
	TransportDuration  *prometheus.HistogramVec
}

// New registra las métricas en reg (prometheus.DefaultRegisterer si es nil).
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Metrics{
		SubmissionOutcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "dian_submission_outcomes_total",
			Help: "Resultados de envíos de facturas a la DIAN por estado final",
		}, []string{"status"}),
		StatusTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "dian_status_transitions_total",
			Help: "Cambios de estado reportados por la consulta de estado DIAN",
		}, []string{"from", "to"}),
		TransportDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "dian_transport_duration_seconds",
			Help:    "Duración de las llamadas al web service DIAN",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"operation", "outcome"}),
	}
}

// IncSubmissionOutcome registra el estado en que terminó un envío (ENVIADO, ERROR...).
func (m *Metrics) IncSubmissionOutcome(status string) {
	if m == nil {
		return
	}
	m.SubmissionOutcomes.WithLabelValues(status).Inc()
}

// IncStatusTransition registra un cambio de estado detectado en una consulta.
func (m *Metrics) IncStatusTransition(from, to string) {
	if m == nil {
		return
	}
	m.StatusTransitions.WithLabelValues(from, to).Inc()
}

// ObserveTransport registra la duración de una llamada al WS.
// Llamar con time.Now() tomado al inicio de la operación.
func (m *Metrics) ObserveTransport(operation string, ok bool, start time.Time) {
	if m == nil {
		return
	}
	outcome := "ok"
	if !ok {
		outcome = "error"
	}
	m.TransportDuration.WithLabelValues(operation, outcome).Observe(time.Since(start).Seconds())
}
