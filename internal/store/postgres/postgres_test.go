package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/alfredjeanlab/parish/internal/store"
)

// newMockDB creates a sqlmock database with automatic cleanup and expectation checking.
func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unfulfilled expectations: %v", err)
		}
		db.Close()
	})
	return db, mock
}

func TestGet(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewWithDB(db)

	mock.ExpectQuery("SELECT value FROM kv_entries WHERE key = \\$1").
		WithArgs("broadcast_events").
		WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow([]byte(`[]`)))

	got, err := s.Get(context.Background(), "broadcast_events")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != "[]" {
		t.Errorf("Get = %q, want %q", got, "[]")
	}
}

func TestGet_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewWithDB(db)

	mock.ExpectQuery("SELECT value FROM kv_entries WHERE key = \\$1").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"value"}))

	if _, err := s.Get(context.Background(), "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("Get error = %v, want ErrNotFound", err)
	}
}

func TestGet_QueryError(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewWithDB(db)

	boom := errors.New("connection reset")
	mock.ExpectQuery("SELECT value FROM kv_entries").WillReturnError(boom)

	_, err := s.Get(context.Background(), "k")
	if !errors.Is(err, boom) {
		t.Fatalf("Get error = %v, want wrapped %v", err, boom)
	}
	if errors.Is(err, store.ErrNotFound) {
		t.Fatal("query failure must not look like ErrNotFound")
	}
}

func TestSet(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewWithDB(db)

	mock.ExpectExec("INSERT INTO kv_entries .+ ON CONFLICT \\(key\\) DO UPDATE").
		WithArgs("notifications_u1", []byte(`[{"id":"n1"}]`)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := s.Set(context.Background(), "notifications_u1", []byte(`[{"id":"n1"}]`)); err != nil {
		t.Fatalf("Set: %v", err)
	}
}

func TestSet_NilValueStoredAsEmpty(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewWithDB(db)

	mock.ExpectExec("INSERT INTO kv_entries").
		WithArgs("k", []byte{}).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := s.Set(context.Background(), "k", nil); err != nil {
		t.Fatalf("Set: %v", err)
	}
}

func TestSet_Error(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewWithDB(db)

	mock.ExpectExec("INSERT INTO kv_entries").WillReturnError(errors.New("disk full"))

	if err := s.Set(context.Background(), "k", []byte("1")); err == nil {
		t.Fatal("expected error")
	}
}

func TestRemove(t *testing.T) {
	for _, tc := range []struct {
		name     string
		affected int64
	}{
		{"present", 1},
		{"absent", 0},
	} {
		t.Run(tc.name, func(t *testing.T) {
			db, mock := newMockDB(t)
			s := NewWithDB(db)

			mock.ExpectExec("DELETE FROM kv_entries WHERE key = \\$1").
				WithArgs("reset_notifications_u1").
				WillReturnResult(sqlmock.NewResult(0, tc.affected))

			if err := s.Remove(context.Background(), "reset_notifications_u1"); err != nil {
				t.Fatalf("Remove: %v", err)
			}
		})
	}
}

func TestCloseWrappedHandle(t *testing.T) {
	db, _ := newMockDB(t)
	s := NewWithDB(db)
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	// The caller still owns db; it must remain usable.
	if err := db.Ping(); err != nil {
		t.Fatalf("db closed by wrapper: %v", err)
	}
}
