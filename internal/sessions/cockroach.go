package sessions

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sriinnu/chitragupta/pkg/models"
	_ "github.com/lib/pq"
)

// CockroachStore implements the Store interface using CockroachDB.
type CockroachStore struct {
	db *sql.DB

	stmtCreateSession      *sql.Stmt
	stmtGetSession         *sql.Stmt
	stmtSaveSession        *sql.Stmt
	stmtListSessions       *sql.Stmt
	stmtListSessionsByDate *sql.Stmt
	stmtAddTurn            *sql.Stmt
	stmtListTurns          *sql.Stmt
}

// DB exposes the underlying database connection for related stores.
func (s *CockroachStore) DB() *sql.DB {
	return s.db
}

// CockroachConfig holds configuration for CockroachDB connection.
type CockroachConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Database        string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	ConnectTimeout  time.Duration
}

// DefaultCockroachConfig returns default configuration.
func DefaultCockroachConfig() *CockroachConfig {
	return &CockroachConfig{
		Host:            "localhost",
		Port:            26257,
		User:            "root",
		Password:        "",
		Database:        "chitragupta",
		SSLMode:         "disable",
		MaxOpenConns:    25,
		MaxIdleConns:    5,
		ConnMaxLifetime: 5 * time.Minute,
		ConnMaxIdleTime: 2 * time.Minute,
		ConnectTimeout:  10 * time.Second,
	}
}

// NewCockroachStore creates a new CockroachDB store.
func NewCockroachStore(config *CockroachConfig) (*CockroachStore, error) {
	if config == nil {
		config = DefaultCockroachConfig()
	}

	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s connect_timeout=%d",
		config.Host, config.Port, config.User, config.Password,
		config.Database, config.SSLMode, int(config.ConnectTimeout.Seconds()),
	)

	return newCockroachStoreWithDSN(dsn, config)
}

// NewCockroachStoreFromDSN creates a new CockroachDB store using a raw DSN/URL.
func NewCockroachStoreFromDSN(dsn string, config *CockroachConfig) (*CockroachStore, error) {
	if dsn == "" {
		return nil, fmt.Errorf("dsn is required")
	}
	if config == nil {
		config = DefaultCockroachConfig()
	}

	return newCockroachStoreWithDSN(dsn, config)
}

func newCockroachStoreWithDSN(dsn string, config *CockroachConfig) (*CockroachStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(config.MaxOpenConns)
	db.SetMaxIdleConns(config.MaxIdleConns)
	db.SetConnMaxLifetime(config.ConnMaxLifetime)
	db.SetConnMaxIdleTime(config.ConnMaxIdleTime)

	ctx, cancel := context.WithTimeout(context.Background(), config.ConnectTimeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &CockroachStore{db: db}

	if err := store.ensureSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ensure schema: %w", err)
	}
	if err := store.prepareStatements(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to prepare statements: %w", err)
	}

	return store, nil
}

func (s *CockroachStore) ensureSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			project TEXT NOT NULL,
			agent TEXT NOT NULL,
			title TEXT NOT NULL,
			metadata JSONB NOT NULL DEFAULT '{}',
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)
	`)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`
		CREATE TABLE IF NOT EXISTS turns (
			session_id TEXT NOT NULL,
			turn_id TEXT NOT NULL,
			turn_json JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			PRIMARY KEY (session_id, turn_id)
		)
	`)
	return err
}

func (s *CockroachStore) prepareStatements() error {
	var err error

	s.stmtCreateSession, err = s.db.Prepare(`
		INSERT INTO sessions (id, project, agent, title, metadata, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare create session: %w", err)
	}

	s.stmtGetSession, err = s.db.Prepare(`
		SELECT id, project, agent, title, metadata, created_at, updated_at
		FROM sessions WHERE id = $1 AND ($2 = '' OR project = $2)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare get session: %w", err)
	}

	s.stmtSaveSession, err = s.db.Prepare(`
		UPDATE sessions SET title = $1, metadata = $2, updated_at = $3
		WHERE id = $4
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare save session: %w", err)
	}

	s.stmtListSessions, err = s.db.Prepare(`
		SELECT id, project, agent, title, metadata, created_at, updated_at
		FROM sessions WHERE project = $1 ORDER BY created_at DESC
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare list sessions: %w", err)
	}

	s.stmtListSessionsByDate, err = s.db.Prepare(`
		SELECT id, project, agent, title, metadata, created_at, updated_at
		FROM sessions WHERE created_at::date = $1::date ORDER BY created_at DESC
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare list sessions by date: %w", err)
	}

	s.stmtAddTurn, err = s.db.Prepare(`
		INSERT INTO turns (session_id, turn_id, turn_json, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (session_id, turn_id) DO UPDATE SET turn_json = $3
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare add turn: %w", err)
	}

	s.stmtListTurns, err = s.db.Prepare(`
		SELECT turn_id, turn_json, created_at FROM turns
		WHERE session_id = $1 ORDER BY created_at ASC
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare list turns: %w", err)
	}

	return nil
}

// Close closes the database connection and prepared statements.
func (s *CockroachStore) Close() error {
	for _, stmt := range []*sql.Stmt{
		s.stmtCreateSession, s.stmtGetSession, s.stmtSaveSession,
		s.stmtListSessions, s.stmtListSessionsByDate, s.stmtAddTurn, s.stmtListTurns,
	} {
		if stmt != nil {
			stmt.Close()
		}
	}
	return s.db.Close()
}

// CreateSession inserts a new session row.
func (s *CockroachStore) CreateSession(p CreateParams) (*Session, error) {
	now := time.Now()
	sess := &Session{
		ID:        uuid.NewString(),
		Project:   p.Project,
		Agent:     p.Agent,
		Title:     p.Title,
		CreatedAt: now,
		UpdatedAt: now,
	}
	metadata, err := json.Marshal(sess.Metadata)
	if err != nil {
		return nil, err
	}
	_, err = s.stmtCreateSession.Exec(sess.ID, sess.Project, sess.Agent, sess.Title, metadata, sess.CreatedAt, sess.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return sess, nil
}

// LoadSession retrieves a session by id, optionally constrained to project.
func (s *CockroachStore) LoadSession(id, project string) (*Session, error) {
	row := s.stmtGetSession.QueryRow(id, project)
	return scanSession(row)
}

// SaveSession persists title/metadata changes to an existing session.
func (s *CockroachStore) SaveSession(sess *Session) error {
	metadata, err := json.Marshal(sess.Metadata)
	if err != nil {
		return err
	}
	sess.UpdatedAt = time.Now()
	result, err := s.stmtSaveSession.Exec(sess.Title, metadata, sess.UpdatedAt, sess.ID)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("session not found: %s", sess.ID)
	}
	return nil
}

// ListSessions returns every session for project, newest first.
func (s *CockroachStore) ListSessions(project string) ([]*Session, error) {
	rows, err := s.stmtListSessions.Query(project)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()
	return scanSessions(rows)
}

// ListSessionsByDate returns every session created on date ("2006-01-02").
func (s *CockroachStore) ListSessionsByDate(date string) ([]*Session, error) {
	rows, err := s.stmtListSessionsByDate.Query(date)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions by date: %w", err)
	}
	defer rows.Close()
	return scanSessions(rows)
}

// AddTurn appends turn under turnID to sessionID's history, upserting on a
// repeated turnID.
func (s *CockroachStore) AddTurn(sessionID, turnID string, turn models.Turn) error {
	turnJSON, err := json.Marshal(turn)
	if err != nil {
		return err
	}
	_, err = s.stmtAddTurn.Exec(sessionID, turnID, turnJSON, time.Now())
	if err != nil {
		return fmt.Errorf("failed to add turn: %w", err)
	}
	return nil
}

// ListTurnsWithTimestamps returns sessionID's turns in arrival order.
func (s *CockroachStore) ListTurnsWithTimestamps(sessionID string) ([]TurnRecord, error) {
	rows, err := s.stmtListTurns.Query(sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list turns: %w", err)
	}
	defer rows.Close()

	var out []TurnRecord
	for rows.Next() {
		var rec TurnRecord
		var turnJSON []byte
		if err := rows.Scan(&rec.TurnID, &turnJSON, &rec.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan turn: %w", err)
		}
		if err := json.Unmarshal(turnJSON, &rec.Turn); err != nil {
			return nil, fmt.Errorf("failed to unmarshal turn: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*Session, error) {
	sess := &Session{}
	var metadataJSON []byte
	err := row.Scan(&sess.ID, &sess.Project, &sess.Agent, &sess.Title, &metadataJSON, &sess.CreatedAt, &sess.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan session: %w", err)
	}
	if len(metadataJSON) > 0 && string(metadataJSON) != "null" {
		if err := json.Unmarshal(metadataJSON, &sess.Metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
		}
	}
	return sess, nil
}

func scanSessions(rows *sql.Rows) ([]*Session, error) {
	var out []*Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sess)
	}
	return out, rows.Err()
}
