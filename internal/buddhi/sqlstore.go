package buddhi

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

// SQLStore implements Store against a database/sql connection, creating the
// decisions table on first use if it is absent.
type SQLStore struct {
	db *sql.DB

	stmtInsert *sql.Stmt
	stmtUpdate *sql.Stmt
	stmtGet    *sql.Stmt
}

// OpenSQLStore opens a pure-Go SQLite database at path ("file::memory:?cache=shared"
// for an in-process instance) and ensures the decisions table exists.
func OpenSQLStore(path string) (*SQLStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("buddhi: open database: %w", err)
	}
	s := &SQLStore{db: db}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	if err := s.prepareStatements(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLStore) ensureSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS decisions (
			id TEXT PRIMARY KEY,
			project TEXT NOT NULL,
			category TEXT NOT NULL,
			description TEXT NOT NULL,
			confidence REAL NOT NULL,
			reasoning_json TEXT NOT NULL,
			alternatives_json TEXT NOT NULL,
			metadata_json TEXT NOT NULL,
			timestamp INTEGER NOT NULL,
			outcome_json TEXT
		)
	`)
	if err != nil {
		return fmt.Errorf("buddhi: ensure schema: %w", err)
	}
	return nil
}

func (s *SQLStore) prepareStatements() error {
	var err error
	s.stmtInsert, err = s.db.Prepare(`
		INSERT INTO decisions (id, project, category, description, confidence, reasoning_json, alternatives_json, metadata_json, timestamp, outcome_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("buddhi: prepare insert: %w", err)
	}
	s.stmtUpdate, err = s.db.Prepare(`
		UPDATE decisions SET outcome_json = ? WHERE id = ?
	`)
	if err != nil {
		return fmt.Errorf("buddhi: prepare update: %w", err)
	}
	s.stmtGet, err = s.db.Prepare(`
		SELECT id, project, category, description, confidence, reasoning_json, alternatives_json, metadata_json, timestamp, outcome_json
		FROM decisions WHERE id = ?
	`)
	if err != nil {
		return fmt.Errorf("buddhi: prepare get: %w", err)
	}
	return nil
}

// Close releases the underlying database connection.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// Insert persists a new decision row.
func (s *SQLStore) Insert(d *Decision) error {
	reasoningJSON, err := json.Marshal(d.Reasoning)
	if err != nil {
		return err
	}
	alternativesJSON, err := json.Marshal(d.Alternatives)
	if err != nil {
		return err
	}
	metadataJSON, err := json.Marshal(d.Metadata)
	if err != nil {
		return err
	}
	_, err = s.stmtInsert.Exec(d.ID, d.Project, string(d.Category), d.Description, d.Confidence,
		string(reasoningJSON), string(alternativesJSON), string(metadataJSON), d.Timestamp, nil)
	return err
}

// Update applies a recorded outcome to the row with d's ID. Only the
// outcome column is rewritten; Buddhi decisions are otherwise immutable.
func (s *SQLStore) Update(d *Decision) error {
	outcomeJSON, err := json.Marshal(d.Outcome)
	if err != nil {
		return err
	}
	_, err = s.stmtUpdate.Exec(string(outcomeJSON), d.ID)
	return err
}

// Get loads and deserializes the decision with the given id.
func (s *SQLStore) Get(id string) (*Decision, bool, error) {
	row := s.stmtGet.QueryRow(id)
	d, err := scanDecision(row)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return d, true, nil
}

// List loads decisions matching f, newest first.
func (s *SQLStore) List(f ListFilters) ([]*Decision, error) {
	query := strings.Builder{}
	query.WriteString(`SELECT id, project, category, description, confidence, reasoning_json, alternatives_json, metadata_json, timestamp, outcome_json FROM decisions WHERE 1=1`)
	var args []any
	if f.Project != "" {
		query.WriteString(" AND project = ?")
		args = append(args, f.Project)
	}
	if f.Category != "" {
		query.WriteString(" AND category = ?")
		args = append(args, string(f.Category))
	}
	if f.FromDate != 0 {
		query.WriteString(" AND timestamp >= ?")
		args = append(args, f.FromDate)
	}
	if f.ToDate != 0 {
		query.WriteString(" AND timestamp <= ?")
		args = append(args, f.ToDate)
	}
	query.WriteString(" ORDER BY timestamp DESC")
	limit := f.Limit
	if limit == 0 {
		limit = defaultListLimit
	}
	if limit > 0 {
		query.WriteString(fmt.Sprintf(" LIMIT %d", limit))
	}

	rows, err := s.db.Query(query.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Decision
	for rows.Next() {
		d, err := scanDecision(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDecision(row rowScanner) (*Decision, error) {
	var (
		d                                              Decision
		category, reasoningJSON, alternativesJSON, metadataJSON string
		outcomeJSON                                    sql.NullString
	)
	if err := row.Scan(&d.ID, &d.Project, &category, &d.Description, &d.Confidence,
		&reasoningJSON, &alternativesJSON, &metadataJSON, &d.Timestamp, &outcomeJSON); err != nil {
		return nil, err
	}
	d.Category = Category(category)
	if err := json.Unmarshal([]byte(reasoningJSON), &d.Reasoning); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(alternativesJSON), &d.Alternatives); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(metadataJSON), &d.Metadata); err != nil {
		return nil, err
	}
	if outcomeJSON.Valid && outcomeJSON.String != "" && outcomeJSON.String != "null" {
		var o Outcome
		if err := json.Unmarshal([]byte(outcomeJSON.String), &o); err != nil {
			return nil, err
		}
		d.Outcome = &o
	}
	return &d, nil
}
