package backend

import (
	"context"
	"errors"
	"net/url"
	"path/filepath"
	"testing"

	"github.com/alfredjeanlab/parish/internal/store"
	"github.com/alfredjeanlab/parish/internal/store/memory"
	"github.com/alfredjeanlab/parish/internal/store/sqlite"
)

func TestOpen_Memory(t *testing.T) {
	for _, dsn := range []string{"memory://", "MEM://", " inmem:// "} {
		s, err := Open(context.Background(), dsn)
		if err != nil {
			t.Fatalf("Open(%q): %v", dsn, err)
		}
		if _, ok := s.(*memory.Store); !ok {
			t.Errorf("Open(%q) = %T, want *memory.Store", dsn, s)
		}
	}
}

func TestOpen_SQLiteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "parish.db")
	s, err := Open(context.Background(), "sqlite://"+path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()
	if _, ok := s.(*sqlite.SQLiteStore); !ok {
		t.Fatalf("Open = %T, want *sqlite.SQLiteStore", s)
	}
	if err := s.Set(context.Background(), "k", []byte(`1`)); err != nil {
		t.Fatalf("Set: %v", err)
	}
}

func TestOpen_SQLiteInMemory(t *testing.T) {
	s, err := Open(context.Background(), "sqlite::memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()
	if _, err := s.Get(context.Background(), "absent"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("Get error = %v, want ErrNotFound", err)
	}
}

func TestOpen_Errors(t *testing.T) {
	for _, dsn := range []string{"", "   ", "ftp://example.com/x", "sqlite://"} {
		if _, err := Open(context.Background(), dsn); !errors.Is(err, ErrInvalidDSN) {
			t.Errorf("Open(%q) error = %v, want ErrInvalidDSN", dsn, err)
		}
	}
}

func TestRegister_Overrides(t *testing.T) {
	want := memory.New()
	Register("custom", func(context.Context, string) (store.Store, error) { return want, nil })
	t.Cleanup(func() {
		registry.mu.Lock()
		delete(registry.factories, "custom")
		registry.mu.Unlock()
	})

	got, err := Open(context.Background(), "CUSTOM://anything")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if got != want {
		t.Error("registered factory was not used")
	}
}

func TestRegister_IgnoresInvalid(t *testing.T) {
	Register("", func(context.Context, string) (store.Store, error) { return nil, nil })
	Register("nilfactory", nil)
	if _, ok := lookup("nilfactory"); ok {
		t.Error("nil factory was registered")
	}
}

func TestDSNPath(t *testing.T) {
	for _, tc := range []struct {
		dsn  string
		want string
	}{
		{"/var/lib/parish.db", "/var/lib/parish.db"},
		{"sqlite:///var/lib/parish.db", "/var/lib/parish.db"},
		{"sqlite://data/parish.db", "data/parish.db"},
		{"file:parish.db", "parish.db"},
		{"sqlite::memory:", ":memory:"},
	} {
		parsed, err := url.Parse(tc.dsn)
		if err != nil {
			t.Fatalf("parse %q: %v", tc.dsn, err)
		}
		got, err := dsnPath(parsed, tc.dsn)
		if err != nil {
			t.Fatalf("dsnPath(%q): %v", tc.dsn, err)
		}
		if got != tc.want {
			t.Errorf("dsnPath(%q) = %q, want %q", tc.dsn, got, tc.want)
		}
	}
}
