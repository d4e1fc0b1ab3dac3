package models

// StopReason explains why a provider stream terminated.
type StopReason string

const (
	StopEndTurn      StopReason = "end_turn"
	StopToolUse      StopReason = "tool_use"
	StopMaxTokens    StopReason = "max_tokens"
	StopCancelled    StopReason = "cancelled"
	StopError        StopReason = "error"
)

// Usage carries the token accounting for a single completion.
type Usage struct {
	InputTokens       int `json:"input_tokens"`
	OutputTokens      int `json:"output_tokens"`
	CacheReadTokens   int `json:"cache_read_tokens,omitempty"`
	CacheWriteTokens  int `json:"cache_write_tokens,omitempty"`
}

// Total returns the sum of all billed token classes.
func (u Usage) Total() int {
	return u.InputTokens + u.OutputTokens + u.CacheReadTokens + u.CacheWriteTokens
}

// Pricing holds per-million-token USD rates for one model.
type Pricing struct {
	InputPerMillion      float64 `json:"input_per_million"`
	OutputPerMillion     float64 `json:"output_per_million"`
	CacheReadPerMillion  float64 `json:"cache_read_per_million"`
	CacheWritePerMillion float64 `json:"cache_write_per_million"`
}

// Cost computes the USD cost of usage under this pricing.
func (p Pricing) Cost(u Usage) float64 {
	const million = 1_000_000.0
	return float64(u.InputTokens)*p.InputPerMillion/million +
		float64(u.OutputTokens)*p.OutputPerMillion/million +
		float64(u.CacheReadTokens)*p.CacheReadPerMillion/million +
		float64(u.CacheWriteTokens)*p.CacheWritePerMillion/million
}

// Model describes one routable model: its provider, context window, and
// pricing. Providers report their models through Models(), and Marga's
// pipeline takes them grouped by tier.
type Model struct {
	ID            string  `json:"id"`
	ProviderID    string  `json:"provider_id"`
	ContextWindow int     `json:"context_window"`
	Pricing       Pricing `json:"pricing"`
}
