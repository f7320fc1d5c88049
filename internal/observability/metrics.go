package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for the task pipeline. All helper
// methods accept a nil receiver so components can run without metrics.
type Metrics struct {
	Tasks         *prometheus.CounterVec
	StageDuration *prometheus.HistogramVec
	StageFailures *prometheus.CounterVec

	Steps        *prometheus.CounterVec
	StepDuration *prometheus.HistogramVec

	LLMCalls   *prometheus.CounterVec
	LLMLatency *prometheus.HistogramVec

	VerificationFallbacks prometheus.Counter
}

// NewMetrics creates a Metrics instance with all collectors registered on registry.
func NewMetrics(registry prometheus.Registerer) *Metrics {
	factory := promauto.With(registry)

	return &Metrics{
		Tasks: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "opsagent_tasks_total",
				Help: "Total number of processed tasks by final status",
			},
			[]string{"status"},
		),
		StageDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "opsagent_stage_duration_seconds",
				Help:    "Pipeline stage duration in seconds",
				Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
			},
			[]string{"stage"},
		),
		StageFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "opsagent_stage_failures_total",
				Help: "Total number of tasks terminated by a stage failure",
			},
			[]string{"stage"},
		),
		Steps: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "opsagent_steps_total",
				Help: "Total number of executed plan steps",
			},
			[]string{"action", "status"},
		),
		StepDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "opsagent_step_duration_seconds",
				Help:    "Plan step execution duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"action"},
		),
		LLMCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "opsagent_llm_calls_total",
				Help: "Total number of structured completion calls",
			},
			[]string{"provider", "purpose", "success"},
		),
		LLMLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "opsagent_llm_latency_seconds",
				Help:    "Structured completion latency in seconds",
				Buckets: []float64{0.1, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0, 60.0},
			},
			[]string{"provider"},
		),
		VerificationFallbacks: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "opsagent_verification_fallbacks_total",
				Help: "Total number of verifications answered by the deterministic fallback",
			},
		),
	}
}

func (m *Metrics) ObserveTask(status string) {
	if m == nil {
		return
	}
	m.Tasks.WithLabelValues(status).Inc()
}

func (m *Metrics) ObserveStage(stage string, elapsed time.Duration, failed bool) {
	if m == nil {
		return
	}
	m.StageDuration.WithLabelValues(stage).Observe(elapsed.Seconds())
	if failed {
		m.StageFailures.WithLabelValues(stage).Inc()
	}
}

func (m *Metrics) ObserveStep(action, status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.Steps.WithLabelValues(action, status).Inc()
	m.StepDuration.WithLabelValues(action).Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveLLM(provider, purpose string, ok bool, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.LLMCalls.WithLabelValues(provider, purpose, strconv.FormatBool(ok)).Inc()
	m.LLMLatency.WithLabelValues(provider).Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveVerificationFallback() {
	if m == nil {
		return
	}
	m.VerificationFallbacks.Inc()
}
