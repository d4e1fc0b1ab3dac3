package pgvector

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/sriinnu/chitragupta/internal/memory/backend"
	"github.com/sriinnu/chitragupta/pkg/models"
)

func setupMockBackend(t *testing.T) (sqlmock.Sqlmock, *Backend) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock db: %v", err)
	}
	mock.ExpectExec("CREATE EXTENSION").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS memory_entries").WillReturnResult(sqlmock.NewResult(0, 0))

	b, err := New(Config{DB: db, Dimension: 3})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	return mock, b
}

func TestBackend_Index(t *testing.T) {
	mock, b := setupMockBackend(t)

	mock.ExpectBegin()
	mock.ExpectPrepare("INSERT INTO memory_entries")
	mock.ExpectExec("INSERT INTO memory_entries").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	entry := &models.MemoryEntry{
		Scope:     models.MemoryScope{Kind: models.ScopeProject, ID: "/repo"},
		Content:   "likes tabs",
		Timestamp: time.Now(),
		Embedding: []float32{1, 0, 0},
	}
	if err := b.Index(context.Background(), []*models.MemoryEntry{entry}); err != nil {
		t.Fatalf("index: %v", err)
	}
}

func TestBackend_Search(t *testing.T) {
	mock, b := setupMockBackend(t)

	rows := sqlmock.NewRows([]string{"scope_kind", "scope_id", "content", "created_at", "similarity"}).
		AddRow("project", "/repo", "likes tabs", time.Now(), 0.98)
	mock.ExpectQuery("SELECT scope_kind, scope_id, content, created_at").WillReturnRows(rows)

	results, err := b.Search(context.Background(), []float32{1, 0, 0}, &backend.SearchOptions{Limit: 5})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 1 || results[0].Entry.Content != "likes tabs" {
		t.Fatalf("unexpected results: %+v", results)
	}
}

func TestBackend_Count(t *testing.T) {
	mock, b := setupMockBackend(t)

	mock.ExpectQuery("SELECT count\\(\\*\\) FROM memory_entries").WillReturnRows(
		sqlmock.NewRows([]string{"count"}).AddRow(3))

	n, err := b.Count(context.Background(), models.MemoryScope{Kind: models.ScopeProject}, "")
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 3 {
		t.Fatalf("want 3, got %d", n)
	}
}

func TestBackend_Delete(t *testing.T) {
	mock, b := setupMockBackend(t)

	mock.ExpectExec("DELETE FROM memory_entries WHERE id IN").WillReturnResult(sqlmock.NewResult(0, 1))

	if err := b.Delete(context.Background(), []string{"id1"}); err != nil {
		t.Fatalf("delete: %v", err)
	}
}

func TestNew_RequiresDSNOrDB(t *testing.T) {
	_, err := New(Config{})
	if err == nil {
		t.Fatal("want error when neither DSN nor DB provided")
	}
}
