package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/threatlens-io/threatlens/internal/feed"
)

func TestStatusReadBeforeAnyWrite(t *testing.T) {
	s, err := NewStatusStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	got := s.Read()
	if got.LastRun != "" || got.TotalRecords != 0 {
		t.Errorf("expected zero-value status, got %+v", got)
	}
	if got.Summary == nil || got.Errors == nil {
		t.Error("maps must be non-nil in zero-value status")
	}
}

func TestStatusWriteOverwrites(t *testing.T) {
	s, err := NewStatusStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	first := &feed.RunStatus{
		LastRun:      "2026-08-28T10:00:00Z",
		Summary:      map[string]int{"social": 2, "mitre": 5},
		TotalRecords: 7,
		Errors:       map[string]string{"darkweb": "timeout"},
	}
	if err := s.Write(first); err != nil {
		t.Fatal(err)
	}

	second := &feed.RunStatus{
		LastRun:      "2026-08-28T11:00:00Z",
		Summary:      map[string]int{"social": 0, "mitre": 0, "darkweb": 2},
		TotalRecords: 2,
	}
	if err := s.Write(second); err != nil {
		t.Fatal(err)
	}

	got := s.Read()
	if got.LastRun != second.LastRun {
		t.Errorf("last_run = %q, want %q", got.LastRun, second.LastRun)
	}
	if got.TotalRecords != 2 {
		t.Errorf("total_records = %d, want 2", got.TotalRecords)
	}
	// The previous snapshot is fully replaced, not merged.
	if _, stale := got.Errors["darkweb"]; stale {
		t.Error("old errors leaked into new snapshot")
	}
	if got.Summary["darkweb"] != 2 {
		t.Errorf("summary = %v", got.Summary)
	}
}

func TestStatusCorruptFileServesEmpty(t *testing.T) {
	dir := t.TempDir()
	s, err := NewStatusStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, statusFileName), []byte("{{{"), 0o644); err != nil {
		t.Fatal(err)
	}
	got := s.Read()
	if got.TotalRecords != 0 || len(got.Summary) != 0 {
		t.Errorf("corrupt file should serve empty status, got %+v", got)
	}
}

func TestStatusWriteNil(t *testing.T) {
	s, err := NewStatusStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Write(nil); err == nil {
		t.Fatal("expected error writing nil status")
	}
}
