package learning

import "sync"

// MarkovChain tracks first-order transition counts between successive tool
// calls, plus a global frequency fallback for unseen predecessors.
type MarkovChain struct {
	mu          sync.Mutex
	transitions map[string]map[string]int
	globalFreq  map[string]int
}

// NewMarkovChain creates an empty chain.
func NewMarkovChain() *MarkovChain {
	return &MarkovChain{
		transitions: make(map[string]map[string]int),
		globalFreq:  make(map[string]int),
	}
}

// RecordTransition increments the from->to transition count and the global
// frequency of to.
func (m *MarkovChain) RecordTransition(from, to string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if from != "" {
		row, ok := m.transitions[from]
		if !ok {
			row = make(map[string]int)
			m.transitions[from] = row
		}
		row[to]++
	}
	m.globalFreq[to]++
}

// PredictNextTool returns a probability distribution over the tool most
// likely to follow last. Falls back to global call frequency when last has
// no recorded transitions.
func (m *MarkovChain) PredictNextTool(last string) map[string]float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if row, ok := m.transitions[last]; ok && len(row) > 0 {
		return normalize(row)
	}
	return normalize(m.globalFreq)
}

func normalize(counts map[string]int) map[string]float64 {
	total := 0
	for _, c := range counts {
		total += c
	}
	out := make(map[string]float64, len(counts))
	if total == 0 {
		return out
	}
	for k, c := range counts {
		out[k] = float64(c) / float64(total)
	}
	return out
}

// frequencyDistribution is the same shape as PredictNextTool's fallback,
// exposed directly for recommendation blending.
func (m *MarkovChain) frequencyDistribution() map[string]float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return normalize(m.globalFreq)
}

// markovSnapshot is the JSON wire shape for MarkovChain.
type markovSnapshot struct {
	Transitions map[string]map[string]int `json:"transitions"`
	GlobalFreq  map[string]int            `json:"globalFreq"`
}

// Serialize dumps the chain's learned transitions and frequencies.
func (m *MarkovChain) Serialize() markovSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	transitions := make(map[string]map[string]int, len(m.transitions))
	for from, row := range m.transitions {
		cp := make(map[string]int, len(row))
		for to, c := range row {
			cp[to] = c
		}
		transitions[from] = cp
	}
	freq := make(map[string]int, len(m.globalFreq))
	for k, v := range m.globalFreq {
		freq[k] = v
	}
	return markovSnapshot{Transitions: transitions, GlobalFreq: freq}
}

// Deserialize replaces the chain's contents with snap.
func (m *MarkovChain) Deserialize(snap markovSnapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if snap.Transitions == nil {
		snap.Transitions = make(map[string]map[string]int)
	}
	if snap.GlobalFreq == nil {
		snap.GlobalFreq = make(map[string]int)
	}
	m.transitions = snap.Transitions
	m.globalFreq = snap.GlobalFreq
}

// Recommend blends Markov prediction (weight 0.5), global frequency (0.3),
// and tool performance score (0.2) into a top-5 ranked recommendation list.
func Recommend(markov *MarkovChain, stats *StatsStore, lastTool string) []string {
	const (
		weightMarkov = 0.5
		weightFreq   = 0.3
		weightPerf   = 0.2
		topN         = 5
	)
	prediction := markov.PredictNextTool(lastTool)
	frequency := markov.frequencyDistribution()

	candidates := make(map[string]struct{}, len(prediction)+len(frequency))
	for k := range prediction {
		candidates[k] = struct{}{}
	}
	for k := range frequency {
		candidates[k] = struct{}{}
	}

	type scored struct {
		name  string
		score float64
	}
	ranked := make([]scored, 0, len(candidates))
	for name := range candidates {
		perf := neutralSatisfaction
		if st, ok := stats.Get(name); ok {
			perf = st.PerformanceScore()
		}
		score := weightMarkov*prediction[name] + weightFreq*frequency[name] + weightPerf*perf
		ranked = append(ranked, scored{name, score})
	}

	for i := 1; i < len(ranked); i++ {
		for j := i; j > 0 && ranked[j].score > ranked[j-1].score; j-- {
			ranked[j], ranked[j-1] = ranked[j-1], ranked[j]
		}
	}
	if len(ranked) > topN {
		ranked = ranked[:topN]
	}
	out := make([]string, len(ranked))
	for i, r := range ranked {
		out[i] = r.name
	}
	return out
}
