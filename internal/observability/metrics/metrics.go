package metrics

import "github.com/prometheus/client_golang/prometheus"

// ChatMetrics exposes counters/histograms for the dialogue engine.
type ChatMetrics struct {
	turnsTotal    *prometheus.CounterVec
	dispatchTotal *prometheus.CounterVec
	llmLatency    *prometheus.HistogramVec
}

func NewChatMetrics(reg prometheus.Registerer) *ChatMetrics {
	m := &ChatMetrics{
		turnsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "assistant",
			Subsystem: "chat",
			Name:      "turns_total",
			Help:      "Total chat turns by intent and outcome",
		}, []string{"intent", "outcome"}),
		dispatchTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "assistant",
			Subsystem: "chat",
			Name:      "calendar_dispatch_total",
			Help:      "Total calendar actions by kind and status",
		}, []string{"action", "status"}),
		llmLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "assistant",
			Subsystem: "chat",
			Name:      "llm_latency_seconds",
			Help:      "Latency of LLM completion round-trips",
			Buckets:   prometheus.DefBuckets,
		}, []string{"purpose"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.turnsTotal, m.dispatchTotal, m.llmLatency)
	return m
}

func (m *ChatMetrics) ObserveTurn(intent, outcome string) {
	if m == nil {
		return
	}
	m.turnsTotal.WithLabelValues(intent, outcome).Inc()
}

func (m *ChatMetrics) ObserveDispatch(action, status string) {
	if m == nil {
		return
	}
	m.dispatchTotal.WithLabelValues(action, status).Inc()
}

func (m *ChatMetrics) ObserveLLMLatency(purpose string, seconds float64) {
	if m == nil {
		return
	}
	m.llmLatency.WithLabelValues(purpose).Observe(seconds)
}
