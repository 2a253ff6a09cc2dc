package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the custom Prometheus metrics for the quest subsystem
type Metrics struct {
	QuestsGenerated    *prometheus.CounterVec
	GenerationAttempts *prometheus.CounterVec
	GenerationLatency  prometheus.Histogram
	QuestsCompleted    *prometheus.CounterVec
	QuestsExpired      prometheus.Counter
	WorkoutsLogged     prometheus.Counter
}

var globalMetrics *Metrics

// NewMetrics registers the quest metrics with reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		// Quests persisted, by duration class
		QuestsGenerated: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "strive_quests_generated_total",
			Help: "Total number of quests persisted by duration",
		}, []string{"duration"}),

		// Generator calls by outcome: ok, malformed, conflict, error
		GenerationAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "strive_quest_generation_attempts_total",
			Help: "Total number of quest generation attempts by outcome",
		}, []string{"outcome"}),

		GenerationLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "strive_quest_generation_duration_seconds",
			Help:    "Latency of a single generator call in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		}),

		QuestsCompleted: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "strive_quests_completed_total",
			Help: "Total number of quests completed by duration",
		}, []string{"duration"}),

		QuestsExpired: factory.NewCounter(prometheus.CounterOpts{
			Name: "strive_quests_expired_total",
			Help: "Total number of quests moved to expired by sweeps",
		}),

		WorkoutsLogged: factory.NewCounter(prometheus.CounterOpts{
			Name: "strive_workouts_logged_total",
			Help: "Total number of workouts logged",
		}),
	}
}

// InitMetrics registers the metrics with the default registry and stores them globally
func InitMetrics() *Metrics {
	globalMetrics = NewMetrics(prometheus.DefaultRegisterer)
	return globalMetrics
}

// GetMetrics returns the global metrics instance
func GetMetrics() *Metrics {
	return globalMetrics
}

// RecordGenerated records a persisted batch
func (m *Metrics) RecordGenerated(duration string, count int) {
	if m == nil {
		return
	}
	m.QuestsGenerated.WithLabelValues(duration).Add(float64(count))
}

// RecordAttempt records one generator call outcome and its latency
func (m *Metrics) RecordAttempt(outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.GenerationAttempts.WithLabelValues(outcome).Inc()
	m.GenerationLatency.Observe(seconds)
}

// RecordConflict counts a commit that lost an exercise to a concurrent batch.
// No generator call happened, so latency is not observed.
func (m *Metrics) RecordConflict() {
	if m == nil {
		return
	}
	m.GenerationAttempts.WithLabelValues("conflict").Inc()
}

// RecordCompleted records a quest completion
func (m *Metrics) RecordCompleted(duration string) {
	if m == nil {
		return
	}
	m.QuestsCompleted.WithLabelValues(duration).Inc()
}

// RecordExpired records quests swept to expired
func (m *Metrics) RecordExpired(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.QuestsExpired.Add(float64(n))
}

// RecordWorkout records a logged workout
func (m *Metrics) RecordWorkout() {
	if m == nil {
		return
	}
	m.WorkoutsLogged.Inc()
}
