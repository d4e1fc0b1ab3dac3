package cost

import "github.com/prometheus/client_golang/prometheus"

// Metrics exports cost and token counters to Prometheus alongside the
// in-memory Tracker.
type Metrics struct {
	costTotal   *prometheus.CounterVec
	tokensTotal *prometheus.CounterVec
}

// NewMetrics registers the cost counters against reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		costTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "chitragupta_llm_cost_usd_total",
			Help: "Cumulative USD cost of LLM completions, by model.",
		}, []string{"model"}),
		tokensTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "chitragupta_llm_tokens_total",
			Help: "Cumulative tokens consumed by LLM completions, by model and class.",
		}, []string{"model", "class"}),
	}
	reg.MustRegister(m.costTotal, m.tokensTotal)
	return m
}

// Observe records one priced entry against the exported counters.
func (m *Metrics) Observe(entry Entry) {
	if m == nil {
		return
	}
	m.costTotal.WithLabelValues(entry.ModelID).Add(entry.Cost)
	m.tokensTotal.WithLabelValues(entry.ModelID, "input").Add(float64(entry.Usage.InputTokens))
	m.tokensTotal.WithLabelValues(entry.ModelID, "output").Add(float64(entry.Usage.OutputTokens))
	m.tokensTotal.WithLabelValues(entry.ModelID, "cache_read").Add(float64(entry.Usage.CacheReadTokens))
	m.tokensTotal.WithLabelValues(entry.ModelID, "cache_write").Add(float64(entry.Usage.CacheWriteTokens))
}

