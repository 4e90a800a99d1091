package sqlitedb_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/CodeLinkIO/tts-annotation-tool/internal/sqlitedb"
)

func TestOpenCreatesAndVerifiesSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	ctx := context.Background()
	schema := sqlitedb.Schema{SQL: `CREATE TABLE widgets (id INTEGER PRIMARY KEY, name TEXT)`, Version: 1}

	db, err := sqlitedb.Open(ctx, path, schema)
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	if _, err := sqlitedb.Exec(ctx, db, `INSERT INTO widgets (name) VALUES (?)`, "a"); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	db, err = sqlitedb.Open(ctx, path, schema)
	if err != nil {
		t.Fatalf("reopen returned error: %v", err)
	}
	var count int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(1) FROM widgets`).Scan(&count); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected persisted row, got %d", count)
	}
	_ = db.Close()

	schema.Version = 2
	if _, err := sqlitedb.Open(ctx, path, schema); !errors.Is(err, sqlitedb.ErrSchemaMismatch) {
		t.Fatalf("expected schema mismatch, got %v", err)
	}
}

func TestRetryOnBusy(t *testing.T) {
	calls := 0
	err := sqlitedb.RetryOnBusy(context.Background(), func() error {
		calls++
		if calls < 3 {
			return errors.New("database is locked")
		}
		return nil
	})
	if err != nil || calls != 3 {
		t.Fatalf("expected success on third call, got err=%v calls=%d", err, calls)
	}

	calls = 0
	boom := errors.New("constraint failed")
	if err := sqlitedb.RetryOnBusy(context.Background(), func() error {
		calls++
		return boom
	}); !errors.Is(err, boom) || calls != 1 {
		t.Fatalf("expected immediate non-busy failure, got err=%v calls=%d", err, calls)
	}
}

func TestTimestampsSortLexically(t *testing.T) {
	base := time.Date(2024, 5, 1, 10, 0, 5, 0, time.UTC)
	later := base.Add(500 * time.Millisecond)
	if !(sqlitedb.FormatTime(base) < sqlitedb.FormatTime(later)) {
		t.Fatalf("expected %q < %q", sqlitedb.FormatTime(base), sqlitedb.FormatTime(later))
	}
	parsed, err := sqlitedb.ParseTime(sqlitedb.FormatTime(later))
	if err != nil || !parsed.Equal(later) {
		t.Fatalf("round trip mismatch: %v %v", parsed, err)
	}
}

func TestPlaceholders(t *testing.T) {
	if got := sqlitedb.Placeholders(3); got != "?,?,?" {
		t.Fatalf("Placeholders(3) = %q", got)
	}
	if got := sqlitedb.Placeholders(0); got != "" {
		t.Fatalf("Placeholders(0) = %q", got)
	}
}
