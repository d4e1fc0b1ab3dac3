package learning

import (
	"strings"
	"sync"
)

const (
	maxFinishedSessions = 500
	currentWindowSize   = 20
	minNGramLen         = 2
	maxNGramLen         = 5
	minNGramCount       = 2
)

// namedWorkflows maps a recognizable tool-call subsequence signature to the
// workflow it represents. Matching is by subsequence against each entry's
// tool list, not exact equality.
var namedWorkflows = map[string][]string{
	"refactoring":       {"read_file", "edit_file", "run_tests"},
	"debugging":         {"run_tests", "read_file", "edit_file", "run_tests"},
	"exploration":       {"list_files", "read_file", "search"},
	"search-and-replace": {"search", "read_file", "edit_file"},
	"file-creation":     {"write_file", "read_file"},
	"testing":           {"edit_file", "run_tests"},
	"investigation":     {"search", "read_file", "read_file"},
}

// SequenceMiner retains recent finished sessions and the current session's
// sliding window of tool calls, to mine recurring n-grams and recognize
// named workflows.
type SequenceMiner struct {
	mu               sync.Mutex
	finishedSessions [][]string
	current          []string
}

// NewSequenceMiner creates an empty miner.
func NewSequenceMiner() *SequenceMiner {
	return &SequenceMiner{}
}

// RecordCall appends toolName to the current session, trimming to the
// sliding window size.
func (s *SequenceMiner) RecordCall(toolName string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = append(s.current, toolName)
	if len(s.current) > currentWindowSize {
		s.current = s.current[len(s.current)-currentWindowSize:]
	}
}

// FinishSession archives the current session into the finished-session
// history, evicting the oldest once the retention cap is reached, then
// clears the current window.
func (s *SequenceMiner) FinishSession() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.current) == 0 {
		return
	}
	session := make([]string, len(s.current))
	copy(session, s.current)
	s.finishedSessions = append(s.finishedSessions, session)
	if len(s.finishedSessions) > maxFinishedSessions {
		s.finishedSessions = s.finishedSessions[len(s.finishedSessions)-maxFinishedSessions:]
	}
	s.current = nil
}

// MineNGrams counts every contiguous subsequence of length 2-5 across all
// finished sessions, returning those that occur at least minNGramCount
// times, keyed by the tools joined with "->".
func (s *SequenceMiner) MineNGrams() map[string]int {
	s.mu.Lock()
	sessions := make([][]string, len(s.finishedSessions))
	copy(sessions, s.finishedSessions)
	s.mu.Unlock()

	counts := make(map[string]int)
	for _, session := range sessions {
		for n := minNGramLen; n <= maxNGramLen; n++ {
			for i := 0; i+n <= len(session); i++ {
				key := strings.Join(session[i:i+n], "->")
				counts[key]++
			}
		}
	}
	out := make(map[string]int, len(counts))
	for k, c := range counts {
		if c >= minNGramCount {
			out[k] = c
		}
	}
	return out
}

// DetectWorkflow matches sequence against the named-workflow dictionary via
// subsequence containment, returning a matching workflow name or "" if none.
// When several workflows match, which one is returned is not defined.
func DetectWorkflow(sequence []string) string {
	for name, pattern := range namedWorkflows {
		if containsSubsequence(sequence, pattern) {
			return name
		}
	}
	return ""
}

func containsSubsequence(sequence, pattern []string) bool {
	if len(pattern) == 0 || len(pattern) > len(sequence) {
		return false
	}
	pi := 0
	for _, tool := range sequence {
		if tool == pattern[pi] {
			pi++
			if pi == len(pattern) {
				return true
			}
		}
	}
	return false
}

// sequenceSnapshot is the JSON wire shape for SequenceMiner.
type sequenceSnapshot struct {
	FinishedSessions [][]string `json:"finishedSessions"`
	Current          []string   `json:"current"`
}

// Serialize dumps finished sessions and the current window.
func (s *SequenceMiner) Serialize() sequenceSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	finished := make([][]string, len(s.finishedSessions))
	for i, session := range s.finishedSessions {
		cp := make([]string, len(session))
		copy(cp, session)
		finished[i] = cp
	}
	current := make([]string, len(s.current))
	copy(current, s.current)
	return sequenceSnapshot{FinishedSessions: finished, Current: current}
}

// Deserialize replaces the miner's contents with snap.
func (s *SequenceMiner) Deserialize(snap sequenceSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.finishedSessions = snap.FinishedSessions
	s.current = snap.Current
}
