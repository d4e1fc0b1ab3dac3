package cost

import "github.com/sriinnu/chitragupta/pkg/models"

// charsPerToken is the conservative average used to estimate token counts
// from raw text without invoking a model-specific tokenizer.
const charsPerToken = 4.0

// toolOverheadTokens accounts for JSON framing around tool calls and
// results that raw character counts miss.
const toolOverheadTokens = 16

// EstimateTokens gives a conservative token estimate for text.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	return int(float64(len(text))/charsPerToken) + 1
}

// EstimateTurnTokens sums the estimated tokens across a turn's content
// parts.
func EstimateTurnTokens(turn models.Turn) int {
	total := 0
	for _, part := range turn.Content {
		switch part.Type {
		case models.PartText:
			total += EstimateTokens(part.Text)
		case models.PartToolCall:
			total += EstimateTokens(string(part.ToolCallArgs)) + toolOverheadTokens
		case models.PartToolResult:
			total += EstimateTokens(part.ToolResultContent) + toolOverheadTokens
		}
	}
	return total
}

// EstimateMessagesTokens sums estimated tokens across every turn.
func EstimateMessagesTokens(turns []models.Turn) int {
	total := 0
	for _, t := range turns {
		total += EstimateTurnTokens(t)
	}
	return total
}

// FitsInContext reports whether turns, plus a system prompt and a reserved
// completion budget, stay within model's context window.
func FitsInContext(turns []models.Turn, system string, maxTokens int, model models.Model) bool {
	used := EstimateMessagesTokens(turns) + EstimateTokens(system) + maxTokens
	return used <= model.ContextWindow
}

// ContextUsagePercent returns how much of model's context window turns plus
// system currently occupy, as a value in [0, 100+].
func ContextUsagePercent(turns []models.Turn, system string, model models.Model) float64 {
	if model.ContextWindow <= 0 {
		return 0
	}
	used := EstimateMessagesTokens(turns) + EstimateTokens(system)
	return float64(used) / float64(model.ContextWindow) * 100
}

// TrimOldest drops the oldest turns until the remaining set fits within
// budget tokens, always keeping the most recent turn. It returns the
// trimmed slice and the number of turns dropped.
func TrimOldest(turns []models.Turn, budget int) ([]models.Turn, int) {
	if len(turns) <= 1 {
		return turns, 0
	}
	dropped := 0
	for len(turns) > 1 && EstimateMessagesTokens(turns) > budget {
		turns = turns[1:]
		dropped++
	}
	return turns, dropped
}
