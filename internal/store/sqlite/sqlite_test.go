package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/alfredjeanlab/parish/internal/store/storetest"
)

// newTestStore creates an in-memory SQLiteStore with all migrations applied.
func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("creating test store: %v", err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("closing test store: %v", err)
		}
	})
	return s
}

func TestConformance(t *testing.T) {
	storetest.RunConformance(t, newTestStore(t))
}

func TestSchemaVersion(t *testing.T) {
	s := newTestStore(t)
	v, err := s.SchemaVersion()
	if err != nil {
		t.Fatalf("SchemaVersion: %v", err)
	}
	if v != len(migrations) {
		t.Errorf("SchemaVersion = %d, want %d", v, len(migrations))
	}
}

func TestReopenKeepsDataAndSkipsMigrations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "parish.db")
	ctx := context.Background()

	s, err := New(path)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := s.Set(ctx, "broadcast_events", []byte(`[{"id":"e1"}]`)); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	s, err = New(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()

	got, err := s.Get(ctx, "broadcast_events")
	if err != nil {
		t.Fatalf("Get after reopen: %v", err)
	}
	if string(got) != `[{"id":"e1"}]` {
		t.Errorf("Get = %s", got)
	}

	var rows int
	if err := s.db.Get(&rows, "SELECT COUNT(*) FROM schema_version"); err != nil {
		t.Fatalf("count schema_version: %v", err)
	}
	if rows != len(migrations) {
		t.Errorf("schema_version rows = %d, want %d", rows, len(migrations))
	}
}
