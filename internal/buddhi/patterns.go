package buddhi

import "sort"

// GetDecisionPatterns groups project's decisions by category, computing
// count, average confidence (rounded to 3 places), success rate over
// recorded outcomes, and a representative description. Sorted count desc.
func (e *Engine) GetDecisionPatterns(project string) ([]CategoryPattern, error) {
	decisions, err := e.store.List(ListFilters{Project: project, Limit: -1})
	if err != nil {
		return nil, err
	}

	type agg struct {
		count          int
		confidenceSum  float64
		outcomes       int
		successes      int
		representative string
	}
	byCategory := make(map[Category]*agg)
	for _, d := range decisions {
		a, ok := byCategory[d.Category]
		if !ok {
			a = &agg{representative: d.Description}
			byCategory[d.Category] = a
		}
		a.count++
		a.confidenceSum += d.Confidence
		if d.Outcome != nil {
			a.outcomes++
			if d.Outcome.Success {
				a.successes++
			}
		}
	}

	out := make([]CategoryPattern, 0, len(byCategory))
	for cat, a := range byCategory {
		successRate := 0.0
		if a.outcomes > 0 {
			successRate = float64(a.successes) / float64(a.outcomes)
		}
		out = append(out, CategoryPattern{
			Category:              cat,
			Count:                 a.count,
			AverageConfidence:     round3(a.confidenceSum / float64(a.count)),
			SuccessRate:           round3(successRate),
			RepresentativeExample: a.representative,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out, nil
}

// GetSuccessRate aggregates outcomes for category across all projects,
// returning a rounded fraction, or 0 if no outcomes are recorded.
func (e *Engine) GetSuccessRate(category Category) (float64, error) {
	decisions, err := e.store.List(ListFilters{Category: category, Limit: -1})
	if err != nil {
		return 0, err
	}
	var total, successes int
	for _, d := range decisions {
		if d.Outcome == nil {
			continue
		}
		total++
		if d.Outcome.Success {
			successes++
		}
	}
	if total == 0 {
		return 0, nil
	}
	return round3(float64(successes) / float64(total)), nil
}

func round3(v float64) float64 {
	const scale = 1000.0
	if v >= 0 {
		return float64(int64(v*scale+0.5)) / scale
	}
	return float64(int64(v*scale-0.5)) / scale
}
