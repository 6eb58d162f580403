package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce          sync.Once
	essayRequestsTotal    *prometheus.CounterVec
	essayLatencySeconds   *prometheus.HistogramVec
	essayErrorsTotal      *prometheus.CounterVec
	gradingsTotal         *prometheus.CounterVec
	gradingFailuresTotal  *prometheus.CounterVec
	essayScoreTotal       prometheus.Histogram
	themeGenerationsTotal *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used by the essay API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		essayRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "essay_requests_total",
			Help: "Total number of essay API requests served.",
		}, []string{"method", "route", "status"})

		essayLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "essay_latency_seconds",
			Help:    "Latency distribution for essay API requests.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"method", "route"})

		essayErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "essay_errors_total",
			Help: "Total number of error responses returned by essay endpoints.",
		}, []string{"method", "route", "status"})

		gradingsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "essay_gradings_total",
			Help: "Completed essay gradings by topic classification.",
		}, []string{"classification", "modality"})

		gradingFailuresTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "essay_grading_failures_total",
			Help: "Essay gradings that ended without a persisted grade.",
		}, []string{"reason"})

		essayScoreTotal = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "essay_total_score",
			Help:    "Distribution of persisted essay total scores.",
			Buckets: []float64{0, 200, 400, 600, 700, 800, 900, 1000},
		})

		themeGenerationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "essay_theme_generations_total",
			Help: "Theme generations by source.",
		}, []string{"source"})

		prometheus.MustRegister(
			essayRequestsTotal,
			essayLatencySeconds,
			essayErrorsTotal,
			gradingsTotal,
			gradingFailuresTotal,
			essayScoreTotal,
			themeGenerationsTotal,
		)
	})
}

// EssayRequests exposes the counter for essay requests.
func EssayRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return essayRequestsTotal
}

// EssayLatency exposes the latency histogram for essay requests.
func EssayLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return essayLatencySeconds
}

// EssayErrors exposes the counter for essay error responses.
func EssayErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return essayErrorsTotal
}

// Gradings exposes the counter of persisted gradings.
func Gradings() *prometheus.CounterVec {
	RegisterMetrics()
	return gradingsTotal
}

// GradingFailures exposes the counter of failed gradings.
func GradingFailures() *prometheus.CounterVec {
	RegisterMetrics()
	return gradingFailuresTotal
}

// EssayScores exposes the total score histogram.
func EssayScores() prometheus.Histogram {
	RegisterMetrics()
	return essayScoreTotal
}

// ThemeGenerations exposes the counter of generated themes, labelled "ai" or "fallback".
func ThemeGenerations() *prometheus.CounterVec {
	RegisterMetrics()
	return themeGenerationsTotal
}
