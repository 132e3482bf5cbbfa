package backup

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alfredjeanlab/parish/internal/model"
)

type staticBroadcasts []model.BroadcastRecord

func (s staticBroadcasts) List(context.Context) []model.BroadcastRecord { return s }

type staticEvents []model.Event

func (s staticEvents) Events(context.Context) []model.Event { return s }

// mockDestination records calls to Write.
type mockDestination struct {
	writes atomic.Int64
	last   atomic.Value // []byte
	err    error
}

func (d *mockDestination) Write(_ context.Context, data []byte) error {
	d.writes.Add(1)
	d.last.Store(append([]byte(nil), data...))
	return d.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func nonEmptyLines(s string) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		if strings.TrimSpace(line) != "" {
			out = append(out, line)
		}
	}
	return out
}

func TestExportJSONL_Empty(t *testing.T) {
	var buf bytes.Buffer
	if err := ExportJSONL(context.Background(), staticBroadcasts(nil), nil, time.Now(), &buf); err != nil {
		t.Fatalf("ExportJSONL: %v", err)
	}
	lines := nonEmptyLines(buf.String())
	if len(lines) != 1 {
		t.Fatalf("expected header only, got %d lines", len(lines))
	}
	var h header
	if err := json.Unmarshal([]byte(lines[0]), &h); err != nil {
		t.Fatalf("unmarshal header: %v", err)
	}
	if h.Version != "1" || h.Type != "header" || h.BroadcastCount != 0 || h.EventCount != 0 {
		t.Fatalf("unexpected header: %+v", h)
	}
}

func TestExportJSONL_Records(t *testing.T) {
	broadcasts := staticBroadcasts{
		{ID: "e1", Title: "Potluck & Praise", Location: "Hall"},
		{ID: "e2", Title: "Retreat", Location: "TBD"},
	}
	evs := staticEvents{{ID: "e3", Title: "Choir"}}

	var buf bytes.Buffer
	if err := ExportJSONL(context.Background(), broadcasts, evs, time.Now(), &buf); err != nil {
		t.Fatalf("ExportJSONL: %v", err)
	}
	lines := nonEmptyLines(buf.String())
	if len(lines) != 4 {
		t.Fatalf("expected 4 lines, got %d:\n%s", len(lines), buf.String())
	}
	if !strings.Contains(lines[1], `"Potluck & Praise"`) {
		t.Errorf("HTML escaping applied: %s", lines[1])
	}

	var first struct {
		Type string                `json:"type"`
		Data model.BroadcastRecord `json:"data"`
	}
	if err := json.Unmarshal([]byte(lines[1]), &first); err != nil {
		t.Fatalf("unmarshal record: %v", err)
	}
	if first.Type != "broadcast" || first.Data.ID != "e1" {
		t.Errorf("first record = %+v", first)
	}
	if !strings.Contains(lines[3], `"type":"event"`) {
		t.Errorf("last line = %s", lines[3])
	}
}

func TestSchedulerStartStop(t *testing.T) {
	dest := &mockDestination{}
	sched := NewScheduler(staticBroadcasts{{ID: "e1"}}, nil, []Destination{dest}, 50*time.Millisecond, discardLogger())
	sched.Start()

	// Wait for at least the initial export + one tick.
	time.Sleep(120 * time.Millisecond)
	sched.Stop()

	if writes := dest.writes.Load(); writes < 2 {
		t.Fatalf("expected at least 2 writes, got %d", writes)
	}
	data, _ := dest.last.Load().([]byte)
	if got := len(nonEmptyLines(string(data))); got != 2 {
		t.Fatalf("expected 2 lines, got %d", got)
	}
}

func TestSchedulerStop_NoStart(t *testing.T) {
	sched := NewScheduler(staticBroadcasts(nil), nil, nil, time.Minute, discardLogger())
	sched.Stop()
}

func TestRunOnce_FailingDestinationDoesNotBlockOthers(t *testing.T) {
	bad := &mockDestination{err: errors.New("bucket missing")}
	good := &mockDestination{}
	sched := NewScheduler(staticBroadcasts{{ID: "e1"}}, nil, []Destination{bad, good}, time.Minute, discardLogger())

	sched.RunOnce(context.Background())

	if bad.writes.Load() != 1 || good.writes.Load() != 1 {
		t.Fatalf("writes bad=%d good=%d, want 1 each", bad.writes.Load(), good.writes.Load())
	}
}

func TestFileDestination(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "backup.jsonl")
	dest := FileDestination{Path: path}

	for _, payload := range []string{"first\n", "second\n"} {
		if err := dest.Write(context.Background(), []byte(payload)); err != nil {
			t.Fatalf("Write: %v", err)
		}
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(got) != "second\n" {
		t.Errorf("file = %q, want second payload", got)
	}
	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Errorf("temp files left behind: %d entries", len(entries))
	}
}

func TestNewS3Destination_RequiresBucket(t *testing.T) {
	if _, err := NewS3Destination(context.Background(), "", "k", "us-east-1", ""); err == nil {
		t.Fatal("expected error for empty bucket")
	}
}

func TestNewS3Destination_CustomEndpoint(t *testing.T) {
	t.Setenv("AWS_ACCESS_KEY_ID", "test")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "test")
	d, err := NewS3Destination(context.Background(), "parish", "", "us-east-1", "http://127.0.0.1:9000")
	if err != nil {
		t.Fatalf("NewS3Destination: %v", err)
	}
	if d.key != "parish/backup.jsonl" {
		t.Errorf("key = %q, want default", d.key)
	}
	if opts := d.client.Options(); !opts.UsePathStyle || opts.BaseEndpoint == nil || *opts.BaseEndpoint != "http://127.0.0.1:9000" {
		t.Errorf("client options not set for custom endpoint")
	}
}
