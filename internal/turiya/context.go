package turiya

// ContextDim is the fixed dimensionality of Turiya's context vector.
const ContextDim = 7

// Context is the seven-dimensional request context Turiya conditions its
// tier choice on. Every field is normalized to [0, 1].
type Context struct {
	Complexity        float64
	Urgency           float64
	Creativity        float64
	Precision         float64
	CodeRatio         float64
	ConversationDepth float64
	MemoryLoad        float64
}

// Vector flattens c into the fixed-order slice LinUCB operates on.
func (c Context) Vector() []float64 {
	return []float64{
		clamp01(c.Complexity),
		clamp01(c.Urgency),
		clamp01(c.Creativity),
		clamp01(c.Precision),
		clamp01(c.CodeRatio),
		clamp01(c.ConversationDepth),
		clamp01(c.MemoryLoad),
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
