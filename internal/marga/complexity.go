package marga

import (
	"strings"

	"github.com/sriinnu/chitragupta/pkg/models"
)

// Complexity is a coarse difficulty bucket, ordered cheapest to hardest.
type Complexity string

const (
	ComplexityTrivial Complexity = "trivial"
	ComplexitySimple  Complexity = "simple"
	ComplexityModerate Complexity = "moderate"
	ComplexityComplex Complexity = "complex"
	ComplexityExpert  Complexity = "expert"
)

var complexityOrder = map[Complexity]int{
	ComplexityTrivial:  0,
	ComplexitySimple:   1,
	ComplexityModerate: 2,
	ComplexityComplex:  3,
	ComplexityExpert:   4,
}

// Less reports whether a is a cheaper (lower) complexity bucket than b.
func (a Complexity) Less(b Complexity) bool {
	return complexityOrder[a] < complexityOrder[b]
}

// ComplexityScore is the complexity scorer's output.
type ComplexityScore struct {
	Complexity Complexity
	Reason     string
	Confidence float64
}

var multiStepMarkers = []string{"step 1", "first,", "then,", "finally,", "after that"}
var retrievalMarkers = []string{"according to", "based on the document", "from the file", "cited", "reference"}

// ScoreComplexity scores the most recent user turn using token count, code
// presence, multi-step phrasing, and retrieval references.
func ScoreComplexity(history []models.Turn) ComplexityScore {
	content := lastUserText(history)
	lower := strings.ToLower(content)
	tokenEstimate := len(strings.Fields(content))

	score := 0
	var reasons []string

	if markdownFence.MatchString(content) || codePattern.MatchString(content) {
		score += 2
		reasons = append(reasons, "code present")
	}
	for _, m := range multiStepMarkers {
		if strings.Contains(lower, m) {
			score++
			reasons = append(reasons, "multi-step phrasing")
			break
		}
	}
	for _, m := range retrievalMarkers {
		if strings.Contains(lower, m) {
			score++
			reasons = append(reasons, "retrieval reference")
			break
		}
	}
	switch {
	case tokenEstimate > 300:
		score += 2
		reasons = append(reasons, "long request")
	case tokenEstimate > 120:
		score++
		reasons = append(reasons, "medium-length request")
	}

	complexity := bucketFor(score)
	if len(reasons) == 0 {
		reasons = []string{"short, plain-text request"}
	}
	return ComplexityScore{
		Complexity: complexity,
		Reason:     strings.Join(reasons, "; "),
		Confidence: confidenceFor(score),
	}
}

func bucketFor(score int) Complexity {
	switch {
	case score <= 0:
		return ComplexityTrivial
	case score == 1:
		return ComplexitySimple
	case score == 2:
		return ComplexityModerate
	case score == 3:
		return ComplexityComplex
	default:
		return ComplexityExpert
	}
}

func confidenceFor(score int) float64 {
	if score <= 0 || score >= 5 {
		return 0.85
	}
	return 0.6
}
