// Package sessions treats conversations as opaque, append-only logs: a
// session record plus an ordered history of turns, addressable by id or by
// project and date.
package sessions

import (
	"time"

	"github.com/sriinnu/chitragupta/pkg/models"
)

// Session is one conversation's metadata. The core treats the turn history
// as an opaque append-only log addressed by ID.
type Session struct {
	ID        string         `json:"id"`
	Project   string         `json:"project"`
	Agent     string         `json:"agent"`
	Title     string         `json:"title"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// CreateParams is the caller-supplied shape for a new session.
type CreateParams struct {
	Project string
	Agent   string
	Title   string
}

// TurnRecord is one stored turn, timestamped independently of the turn's
// own Timestamp field (the store's arrival time).
type TurnRecord struct {
	TurnID    string      `json:"turn_id"`
	Turn      models.Turn `json:"turn"`
	Timestamp time.Time   `json:"timestamp"`
}

// Store is the session persistence contract: createSession, listSessions,
// listSessionsByDate, loadSession, saveSession, addTurn, and
// listTurnsWithTimestamps.
type Store interface {
	CreateSession(p CreateParams) (*Session, error)
	ListSessions(project string) ([]*Session, error)
	ListSessionsByDate(date string) ([]*Session, error) // date is "2006-01-02"
	LoadSession(id, project string) (*Session, error)
	SaveSession(s *Session) error
	AddTurn(sessionID, turnID string, turn models.Turn) error
	ListTurnsWithTimestamps(sessionID string) ([]TurnRecord, error)
}
