package multiagent

// SelectFunc picks a single slot to run task, given the current pool and its
// load. Used by the round-robin, least-loaded, and specialized strategies.
type SelectFunc func(o *Orchestrator, task Task) (*AgentSlot, error)

// StrategyName identifies one of the pluggable assignment strategies.
type StrategyName string

const (
	RoundRobin   StrategyName = "round-robin"
	LeastLoaded  StrategyName = "least-loaded"
	Specialized  StrategyName = "specialized"
	Hierarchical StrategyName = "hierarchical"
	Competitive  StrategyName = "competitive"
	Swarm        StrategyName = "swarm"
)

func roundRobinSelect(o *Orchestrator) (*AgentSlot, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.slots) == 0 {
		return nil, errNoSlots
	}
	slot := o.slots[o.rrCursor%len(o.slots)]
	o.rrCursor++
	return slot, nil
}

func leastLoadedSelect(o *Orchestrator) (*AgentSlot, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.slots) == 0 {
		return nil, errNoSlots
	}
	best := o.slots[0]
	for _, s := range o.slots[1:] {
		if s.load() < best.load() {
			best = s
		}
	}
	return best, nil
}

func specializedSelect(o *Orchestrator, task Task) (*AgentSlot, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.slots) == 0 {
		return nil, errNoSlots
	}
	var best *AgentSlot
	bestScore := -1.0
	for _, s := range o.slots {
		score := jaccard(task.RequiredCapabilities, s.Capabilities)
		if score > bestScore {
			bestScore = score
			best = s
		}
	}
	return best, nil
}

// jaccard is |A∩B| / |A∪B|, 0 when both sets are empty.
func jaccard(a, b []string) float64 {
	setA := toSet(a)
	setB := toSet(b)
	if len(setA) == 0 && len(setB) == 0 {
		return 0
	}
	intersection := 0
	for k := range setA {
		if _, ok := setB[k]; ok {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

func toSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, it := range items {
		set[it] = struct{}{}
	}
	return set
}
