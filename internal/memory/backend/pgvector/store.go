// Package pgvector implements backend.Backend over PostgreSQL's pgvector
// extension.
package pgvector

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sriinnu/chitragupta/internal/memory/backend"
	"github.com/sriinnu/chitragupta/pkg/models"
	_ "github.com/lib/pq"
)

// Backend implements backend.Backend using a pgvector-enabled table.
type Backend struct {
	db        *sql.DB
	dimension int
	ownsDB    bool
}

// Config configures a pgvector-backed memory store.
type Config struct {
	// DSN is the PostgreSQL connection string. If empty, DB must be provided.
	DSN string

	// DB reuses an existing connection; the backend will not close it.
	DB *sql.DB

	// Dimension is the embedding dimension (e.g. 1536).
	Dimension int
}

// New opens (or reuses) a connection and ensures the memory_entries schema.
func New(cfg Config) (*Backend, error) {
	var db *sql.DB
	var ownsDB bool
	var err error

	switch {
	case cfg.DB != nil:
		db = cfg.DB
	case cfg.DSN != "":
		db, err = sql.Open("postgres", cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("pgvector: open database: %w", err)
		}
		ownsDB = true
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("pgvector: ping database: %w", err)
		}
	default:
		return nil, fmt.Errorf("pgvector: either DSN or DB must be provided")
	}

	b := &Backend{db: db, dimension: cfg.Dimension, ownsDB: ownsDB}
	if err := b.ensureSchema(); err != nil {
		if ownsDB {
			db.Close()
		}
		return nil, fmt.Errorf("pgvector: ensure schema: %w", err)
	}
	return b, nil
}

func (b *Backend) ensureSchema() error {
	_, err := b.db.Exec(`CREATE EXTENSION IF NOT EXISTS vector`)
	if err != nil {
		return err
	}
	_, err = b.db.Exec(fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS memory_entries (
			id TEXT PRIMARY KEY,
			scope_kind TEXT NOT NULL,
			scope_id TEXT NOT NULL,
			content TEXT NOT NULL,
			embedding vector(%d),
			created_at TIMESTAMPTZ NOT NULL
		)
	`, maxInt(b.dimension, 1)))
	return err
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// Index upserts entries, encoding each entry's embedding (if any) as a
// pgvector literal.
func (b *Backend) Index(ctx context.Context, entries []*models.MemoryEntry) error {
	if len(entries) == 0 {
		return nil
	}
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("pgvector: begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO memory_entries (id, scope_kind, scope_id, content, embedding, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET content = EXCLUDED.content, embedding = EXCLUDED.embedding
	`)
	if err != nil {
		return fmt.Errorf("pgvector: prepare index: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		id := recordID(e)
		embedding := encodeEmbedding(e.Embedding)
		if _, err := stmt.ExecContext(ctx, id, string(e.Scope.Kind), e.Scope.ID, e.Content, embedding, e.Timestamp); err != nil {
			return fmt.Errorf("pgvector: index entry: %w", err)
		}
	}
	return tx.Commit()
}

// Search performs a cosine-distance nearest-neighbor query via pgvector's
// <=> operator.
func (b *Backend) Search(ctx context.Context, embedding []float32, opts *backend.SearchOptions) ([]*models.SearchResult, error) {
	if opts == nil {
		opts = &backend.SearchOptions{}
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = 10
	}
	vec := encodeEmbedding(embedding)

	query := `
		SELECT scope_kind, scope_id, content, created_at, 1 - (embedding <=> $1::vector) AS similarity
		FROM memory_entries
		WHERE embedding IS NOT NULL
	`
	args := []any{vec.String}
	argNum := 2

	if opts.Scope.Kind != "" {
		query += fmt.Sprintf(" AND scope_kind = $%d", argNum)
		args = append(args, string(opts.Scope.Kind))
		argNum++
	}
	if opts.ScopeID != "" {
		query += fmt.Sprintf(" AND scope_id = $%d", argNum)
		args = append(args, opts.ScopeID)
		argNum++
	}
	if opts.Threshold > 0 {
		query += fmt.Sprintf(" AND (1 - (embedding <=> $1::vector)) >= $%d", argNum)
		args = append(args, opts.Threshold)
		argNum++
	}
	query += " ORDER BY embedding <=> $1::vector ASC"
	query += fmt.Sprintf(" LIMIT $%d", argNum)
	args = append(args, limit)

	rows, err := b.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("pgvector: search: %w", err)
	}
	defer rows.Close()

	var out []*models.SearchResult
	for rows.Next() {
		var kind, id, content string
		var createdAt time.Time
		var similarity float64
		if err := rows.Scan(&kind, &id, &content, &createdAt, &similarity); err != nil {
			return nil, fmt.Errorf("pgvector: scan: %w", err)
		}
		out = append(out, &models.SearchResult{
			Entry: models.MemoryEntry{
				Scope:     models.MemoryScope{Kind: models.MemoryScopeKind(kind), ID: id},
				Content:   content,
				Timestamp: createdAt,
			},
			Score: float32(similarity),
		})
	}
	return out, rows.Err()
}

// Delete removes rows by id.
func (b *Backend) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}
	_, err := b.db.ExecContext(ctx, fmt.Sprintf(`DELETE FROM memory_entries WHERE id IN (%s)`, strings.Join(placeholders, ",")), args...)
	return err
}

// Count returns the number of entries matching scope (empty kind counts
// everything).
func (b *Backend) Count(ctx context.Context, scope models.MemoryScope, scopeID string) (int64, error) {
	query := `SELECT count(*) FROM memory_entries WHERE 1=1`
	var args []any
	argNum := 1
	if scope.Kind != "" {
		query += fmt.Sprintf(" AND scope_kind = $%d", argNum)
		args = append(args, string(scope.Kind))
		argNum++
	}
	if scopeID != "" {
		query += fmt.Sprintf(" AND scope_id = $%d", argNum)
		args = append(args, scopeID)
		argNum++
	}
	var n int64
	err := b.db.QueryRowContext(ctx, query, args...).Scan(&n)
	return n, err
}

// Compact runs VACUUM ANALYZE over the memory_entries table.
func (b *Backend) Compact(ctx context.Context) error {
	_, err := b.db.ExecContext(ctx, `VACUUM ANALYZE memory_entries`)
	return err
}

// Close releases the connection if this backend opened it.
func (b *Backend) Close() error {
	if b.ownsDB && b.db != nil {
		return b.db.Close()
	}
	return nil
}

func recordID(e *models.MemoryEntry) string {
	return e.Scope.Key() + "@" + e.Timestamp.Format("20060102T150405.000000000")
}

func encodeEmbedding(embedding []float32) sql.NullString {
	if len(embedding) == 0 {
		return sql.NullString{}
	}
	var sb strings.Builder
	sb.WriteByte('[')
	for i, f := range embedding {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.FormatFloat(float64(f), 'g', -1, 32))
	}
	sb.WriteByte(']')
	return sql.NullString{String: sb.String(), Valid: true}
}
