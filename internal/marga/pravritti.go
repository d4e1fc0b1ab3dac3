// Package marga classifies a request's task type and complexity, then
// routes it to the cheapest adequate model tier. Pravritti is the
// rule-based task-type classifier; the tier table and Turiya's learned
// bandit refine the final model choice on top of it.
package marga

import (
	"regexp"
	"strings"

	"github.com/sriinnu/chitragupta/pkg/models"
)

// TaskType is one of the fixed task-type buckets Pravritti classifies
// requests into.
type TaskType string

const (
	TaskChat        TaskType = "chat"
	TaskCodeGen     TaskType = "code-gen"
	TaskReasoning   TaskType = "reasoning"
	TaskSearch      TaskType = "search"
	TaskEmbedding   TaskType = "embedding"
	TaskVision      TaskType = "vision"
	TaskToolExec    TaskType = "tool-exec"
	TaskHeartbeat   TaskType = "heartbeat"
	TaskSmalltalk   TaskType = "smalltalk"
	TaskSummarize   TaskType = "summarize"
	TaskTranslate   TaskType = "translate"
	TaskMemory      TaskType = "memory"
	TaskFileOp      TaskType = "file-op"
	TaskAPICall     TaskType = "api-call"
	TaskCompaction  TaskType = "compaction"
)

// Resolution says whether a classified request needs an LLM call at all,
// and if so whether tools are in play.
type Resolution string

const (
	ResolutionSkipLLM      Resolution = "skip-llm"
	ResolutionLLMOnly      Resolution = "llm-only"
	ResolutionLLMWithTools Resolution = "llm-with-tools"
)

// Classification is Pravritti's output for one request.
type Classification struct {
	Type       TaskType
	Resolution Resolution
	Confidence float64
}

var (
	codePattern      = regexp.MustCompile("(?i)\\b(func|class|def|package|import|SELECT|INSERT|UPDATE|DELETE)\\b")
	markdownFence    = regexp.MustCompile("```")
	reasoningPattern = regexp.MustCompile("(?i)\\b(analyze|reason|think through|derive|prove|why|tradeoff|compare)\\b")
	searchPattern    = regexp.MustCompile("(?i)\\b(search|find|look up|lookup|grep|locate)\\b")
	translatePattern = regexp.MustCompile("(?i)\\b(translate|translation)\\b")
	summarizePattern = regexp.MustCompile("(?i)\\b(summarize|summarise|tl;dr|tldr)\\b")
	fileOpPattern    = regexp.MustCompile("(?i)\\b(read file|write file|create file|delete file|rename|mkdir)\\b")
	apiCallPattern   = regexp.MustCompile("(?i)\\b(call the api|http request|endpoint|webhook)\\b")
	memoryPattern    = regexp.MustCompile("(?i)\\b(remember|recall|what did (i|we) say|earlier you (said|mentioned))\\b")
	smalltalkPattern = regexp.MustCompile("(?i)^(hi|hello|hey|thanks|thank you|good morning|good night)\\b")
	embeddingPattern = regexp.MustCompile("(?i)\\b(embed|embedding|vector similarity|cosine similarity)\\b")
	visionPattern    = regexp.MustCompile("(?i)\\b(image|screenshot|photo|diagram)\\b")
)

// Classify classifies the most recent user turn in history. It performs
// zero LLM calls — keyword and structural heuristics only.
func Classify(history []models.Turn, hasTools bool, hasImageAttachment bool) Classification {
	content := strings.TrimSpace(lastUserText(history))
	if content == "" {
		return Classification{Type: TaskChat, Resolution: ResolutionLLMOnly, Confidence: 0.3}
	}

	switch {
	case hasImageAttachment || visionPattern.MatchString(content):
		return Classification{Type: TaskVision, Resolution: ResolutionLLMOnly, Confidence: 0.7}
	case embeddingPattern.MatchString(content):
		return Classification{Type: TaskEmbedding, Resolution: ResolutionSkipLLM, Confidence: 0.8}
	case fileOpPattern.MatchString(content):
		return withTools(TaskFileOp, hasTools, 0.7)
	case apiCallPattern.MatchString(content):
		return withTools(TaskAPICall, hasTools, 0.7)
	case memoryPattern.MatchString(content):
		return Classification{Type: TaskMemory, Resolution: ResolutionLLMOnly, Confidence: 0.6}
	case translatePattern.MatchString(content):
		return Classification{Type: TaskTranslate, Resolution: ResolutionLLMOnly, Confidence: 0.8}
	case summarizePattern.MatchString(content):
		return Classification{Type: TaskSummarize, Resolution: ResolutionLLMOnly, Confidence: 0.75}
	case markdownFence.MatchString(content) || codePattern.MatchString(content):
		return withTools(TaskCodeGen, hasTools, 0.8)
	case reasoningPattern.MatchString(content):
		return Classification{Type: TaskReasoning, Resolution: ResolutionLLMOnly, Confidence: 0.65}
	case searchPattern.MatchString(content):
		return withTools(TaskSearch, hasTools, 0.6)
	case smalltalkPattern.MatchString(content) && len(content) < 40:
		return Classification{Type: TaskSmalltalk, Resolution: ResolutionLLMOnly, Confidence: 0.6}
	default:
		return Classification{Type: TaskChat, Resolution: ResolutionLLMOnly, Confidence: 0.4}
	}
}

func withTools(t TaskType, hasTools bool, confidence float64) Classification {
	if hasTools {
		return Classification{Type: t, Resolution: ResolutionLLMWithTools, Confidence: confidence}
	}
	return Classification{Type: t, Resolution: ResolutionLLMOnly, Confidence: confidence}
}

func lastUserText(history []models.Turn) string {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == models.RoleUser {
			return history[i].Text()
		}
	}
	return ""
}
