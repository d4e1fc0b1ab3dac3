package sessions

import (
	"database/sql"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/sriinnu/chitragupta/pkg/models"
)

func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock, *CockroachStore) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock db: %v", err)
	}
	return db, mock, &CockroachStore{db: db}
}

func TestCockroachStore_CreateSession(t *testing.T) {
	tests := []struct {
		name        string
		params      CreateParams
		setupMock   func(sqlmock.Sqlmock)
		wantErr     bool
		errContains string
	}{
		{
			name:   "successful create",
			params: CreateParams{Project: "chitragupta", Agent: "root", Title: "fix bug"},
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec("INSERT INTO sessions").
					WithArgs(sqlmock.AnyArg(), "chitragupta", "root", "fix bug", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
					WillReturnResult(sqlmock.NewResult(1, 1))
			},
			wantErr: false,
		},
		{
			name:   "database error",
			params: CreateParams{Project: "p", Agent: "a", Title: "t"},
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec("INSERT INTO sessions").WillReturnError(errors.New("connection refused"))
			},
			wantErr:     true,
			errContains: "failed to create session",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, store := setupMockDB(t)
			defer db.Close()

			mock.ExpectPrepare("INSERT INTO sessions")
			stmt, err := db.Prepare(`INSERT INTO sessions (id, project, agent, title, metadata, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7)`)
			if err != nil {
				t.Fatalf("prepare: %v", err)
			}
			store.stmtCreateSession = stmt
			tt.setupMock(mock)

			sess, err := store.CreateSession(tt.params)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if tt.errContains != "" && !containsStr(err.Error(), tt.errContains) {
					t.Errorf("expected error containing %q, got %q", tt.errContains, err.Error())
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if sess.ID == "" {
				t.Fatal("want non-empty session id")
			}
			if err := mock.ExpectationsWereMet(); err != nil {
				t.Errorf("unfulfilled expectations: %v", err)
			}
		})
	}
}

func TestCockroachStore_LoadSession(t *testing.T) {
	now := time.Now()

	db, mock, store := setupMockDB(t)
	defer db.Close()

	mock.ExpectPrepare("SELECT id, project, agent, title, metadata, created_at, updated_at FROM sessions WHERE id")
	stmt, err := db.Prepare(`SELECT id, project, agent, title, metadata, created_at, updated_at FROM sessions WHERE id = \$1 AND \(\$2 = '' OR project = \$2\)`)
	if err != nil {
		t.Fatalf("prepare: %v", err)
	}
	store.stmtGetSession = stmt

	rows := sqlmock.NewRows([]string{"id", "project", "agent", "title", "metadata", "created_at", "updated_at"}).
		AddRow("s1", "chitragupta", "root", "fix bug", []byte(`{}`), now, now)
	mock.ExpectQuery("SELECT id, project, agent, title, metadata, created_at, updated_at FROM sessions").
		WithArgs("s1", "chitragupta").
		WillReturnRows(rows)

	got, err := store.LoadSession("s1", "chitragupta")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got == nil || got.Title != "fix bug" {
		t.Fatalf("want loaded session, got %+v", got)
	}
}

func TestCockroachStore_SaveSession(t *testing.T) {
	tests := []struct {
		name        string
		setupMock   func(sqlmock.Sqlmock)
		wantErr     bool
		errContains string
	}{
		{
			name: "successful save",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec("UPDATE sessions").WillReturnResult(sqlmock.NewResult(0, 1))
			},
			wantErr: false,
		},
		{
			name: "not found",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec("UPDATE sessions").WillReturnResult(sqlmock.NewResult(0, 0))
			},
			wantErr:     true,
			errContains: "session not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, store := setupMockDB(t)
			defer db.Close()

			mock.ExpectPrepare("UPDATE sessions")
			stmt, err := db.Prepare("UPDATE sessions SET title = $1, metadata = $2, updated_at = $3 WHERE id = $4")
			if err != nil {
				t.Fatalf("prepare: %v", err)
			}
			store.stmtSaveSession = stmt
			tt.setupMock(mock)

			err = store.SaveSession(&Session{ID: "s1", Title: "new title"})
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if tt.errContains != "" && !containsStr(err.Error(), tt.errContains) {
					t.Errorf("expected error containing %q, got %q", tt.errContains, err.Error())
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestCockroachStore_AddTurn(t *testing.T) {
	db, mock, store := setupMockDB(t)
	defer db.Close()

	mock.ExpectPrepare("INSERT INTO turns")
	stmt, err := db.Prepare("INSERT INTO turns")
	if err != nil {
		t.Fatalf("prepare: %v", err)
	}
	store.stmtAddTurn = stmt
	mock.ExpectExec("INSERT INTO turns").WillReturnResult(sqlmock.NewResult(1, 1))

	turn := models.Turn{Role: models.RoleUser, Content: []models.ContentPart{models.TextPart("hello")}}
	if err := store.AddTurn("s1", "t1", turn); err != nil {
		t.Fatalf("add turn: %v", err)
	}
}

func TestCockroachStore_ListTurnsWithTimestamps(t *testing.T) {
	db, mock, store := setupMockDB(t)
	defer db.Close()

	mock.ExpectPrepare("SELECT turn_id, turn_json, created_at FROM turns")
	stmt, err := db.Prepare("SELECT turn_id, turn_json, created_at FROM turns")
	if err != nil {
		t.Fatalf("prepare: %v", err)
	}
	store.stmtListTurns = stmt

	turnJSON, _ := json.Marshal(models.Turn{Role: models.RoleUser, Content: []models.ContentPart{models.TextPart("hi")}})
	rows := sqlmock.NewRows([]string{"turn_id", "turn_json", "created_at"}).
		AddRow("t1", turnJSON, time.Now())
	mock.ExpectQuery("SELECT turn_id, turn_json, created_at FROM turns").WillReturnRows(rows)

	recs, err := store.ListTurnsWithTimestamps("s1")
	if err != nil {
		t.Fatalf("list turns: %v", err)
	}
	if len(recs) != 1 || recs[0].TurnID != "t1" {
		t.Fatalf("want 1 turn record, got %+v", recs)
	}
}

func TestNewCockroachStoreFromDSN_EmptyDSN(t *testing.T) {
	_, err := NewCockroachStoreFromDSN("", nil)
	if err == nil {
		t.Fatal("expected error for empty DSN")
	}
	if !containsStr(err.Error(), "dsn is required") {
		t.Errorf("expected error about dsn, got %v", err)
	}
}

func TestDefaultCockroachConfig(t *testing.T) {
	cfg := DefaultCockroachConfig()
	if cfg.Host != "localhost" || cfg.Port != 26257 || cfg.Database != "chitragupta" {
		t.Fatalf("unexpected default config: %+v", cfg)
	}
}

func containsStr(s, substr string) bool {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return true
		}
	}
	return false
}
