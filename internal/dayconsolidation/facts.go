package dayconsolidation

import (
	"math"
	"regexp"
	"strings"

	"github.com/sriinnu/chitragupta/pkg/models"
)

var (
	errorPattern      = regexp.MustCompile(`(?i)\b(error|failed|exception|panic)\b`)
	commitPattern     = regexp.MustCompile(`(?i)\b(commit|committed|pushed)\b`)
	decisionPattern   = regexp.MustCompile(`(?i)\b(decided to|chose to|will use|going with)\b`)
	preferencePattern = regexp.MustCompile(`(?i)\b(i prefer|always use|never use|please use)\b`)
	factPattern       = regexp.MustCompile(`(?i)\b(my name is|i work|i am|i live|i use)\b`)
)

// extractEventChain segments turns by rule-based pattern matching into a
// tool/decision/error/commit/fact/preference event chain.
func extractEventChain(sessionID string, turns []models.Turn) EventChain {
	chain := EventChain{SessionID: sessionID}
	for _, t := range turns {
		for _, part := range t.Content {
			if part.Type == models.PartToolCall {
				chain.ToolInvocations = append(chain.ToolInvocations, part.ToolCallName)
				continue
			}
			text := strings.TrimSpace(part.Text)
			if text == "" {
				continue
			}
			switch {
			case errorPattern.MatchString(text):
				chain.Errors = append(chain.Errors, text)
			case commitPattern.MatchString(text):
				chain.Commits = append(chain.Commits, text)
			case decisionPattern.MatchString(text):
				chain.Decisions = append(chain.Decisions, text)
			case preferencePattern.MatchString(text):
				chain.Preferences = append(chain.Preferences, text)
			case factPattern.MatchString(text):
				chain.Facts = append(chain.Facts, text)
			}
		}
	}
	return chain
}

// extractPersonalFacts collects every fact/preference sentence across
// chains and de-duplicates: an exact-text match is dropped outright; an
// embedding-cosine-similarity above dedupThreshold against an already-kept
// fact is also dropped. embedder may be nil, in which case only exact-text
// de-duplication applies.
func extractPersonalFacts(chains []EventChain, embedder EmbeddingProvider) []string {
	const dedupThreshold = 0.92

	var candidates []string
	for _, c := range chains {
		candidates = append(candidates, c.Facts...)
		candidates = append(candidates, c.Preferences...)
	}

	var kept []string
	var keptVectors [][]float64
	seen := make(map[string]bool)
	for _, candidate := range candidates {
		key := strings.ToLower(strings.TrimSpace(candidate))
		if key == "" || seen[key] {
			continue
		}

		var vec []float64
		if embedder != nil {
			v, err := embedder.Embed(candidate)
			if err == nil {
				vec = v
				duplicate := false
				for _, kv := range keptVectors {
					if cosineSimilarity(vec, kv) >= dedupThreshold {
						duplicate = true
						break
					}
				}
				if duplicate {
					seen[key] = true
					continue
				}
			}
		}

		seen[key] = true
		kept = append(kept, candidate)
		keptVectors = append(keptVectors, vec)
	}
	return kept
}

func cosineSimilarity(a, b []float64) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
