package sessions

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sriinnu/chitragupta/pkg/models"
)

// MemoryStore is an in-memory Store, useful for tests and single-process
// hosts that don't need durability across restarts.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]*Session
	turns    map[string][]TurnRecord
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*Session),
		turns:    make(map[string][]TurnRecord),
	}
}

// CreateSession creates and stores a new session.
func (m *MemoryStore) CreateSession(p CreateParams) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	sess := &Session{
		ID:        uuid.NewString(),
		Project:   p.Project,
		Agent:     p.Agent,
		Title:     p.Title,
		CreatedAt: now,
		UpdatedAt: now,
	}
	m.sessions[sess.ID] = cloneSession(sess)
	return cloneSession(sess), nil
}

// ListSessions returns every session for project, newest first.
func (m *MemoryStore) ListSessions(project string) ([]*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*Session
	for _, s := range m.sessions {
		if s.Project == project {
			out = append(out, cloneSession(s))
		}
	}
	sortSessionsNewestFirst(out)
	return out, nil
}

// ListSessionsByDate returns every session created on date ("2006-01-02").
func (m *MemoryStore) ListSessionsByDate(date string) ([]*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*Session
	for _, s := range m.sessions {
		if s.CreatedAt.Format("2006-01-02") == date {
			out = append(out, cloneSession(s))
		}
	}
	sortSessionsNewestFirst(out)
	return out, nil
}

// LoadSession retrieves a session by id, optionally constrained to project
// (an empty project matches any).
func (m *MemoryStore) LoadSession(id, project string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, nil
	}
	if project != "" && s.Project != project {
		return nil, nil
	}
	return cloneSession(s), nil
}

// SaveSession persists title/metadata changes to an existing session.
func (m *MemoryStore) SaveSession(sess *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[sess.ID]; !ok {
		return fmt.Errorf("sessions: session not found: %s", sess.ID)
	}
	sess.UpdatedAt = time.Now()
	m.sessions[sess.ID] = cloneSession(sess)
	return nil
}

// AddTurn appends turn under turnID to sessionID's history.
func (m *MemoryStore) AddTurn(sessionID, turnID string, turn models.Turn) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[sessionID]; !ok {
		return fmt.Errorf("sessions: session not found: %s", sessionID)
	}
	m.turns[sessionID] = append(m.turns[sessionID], TurnRecord{
		TurnID:    turnID,
		Turn:      turn,
		Timestamp: time.Now(),
	})
	return nil
}

// ListTurnsWithTimestamps returns sessionID's turns in arrival order.
func (m *MemoryStore) ListTurnsWithTimestamps(sessionID string) ([]TurnRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	recs := m.turns[sessionID]
	out := make([]TurnRecord, len(recs))
	copy(out, recs)
	return out, nil
}

func sortSessionsNewestFirst(sessions []*Session) {
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].CreatedAt.After(sessions[j].CreatedAt)
	})
}

func cloneSession(s *Session) *Session {
	if s == nil {
		return nil
	}
	out := *s
	if s.Metadata != nil {
		out.Metadata = make(map[string]any, len(s.Metadata))
		for k, v := range s.Metadata {
			out.Metadata[k] = v
		}
	}
	return &out
}
