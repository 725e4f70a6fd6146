package store

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/threatlens-io/threatlens/internal/feed"
)

func testRecord(i int, ts string) feed.EnrichedRecord {
	return feed.EnrichedRecord{
		Source:     "social",
		Text:       fmt.Sprintf("record %d", i),
		Lang:       "en",
		Entities:   []feed.Entity{{Type: "Malware", Value: "Emotet"}},
		ThreatType: "Malware",
		Severity:   "High",
		Timestamp:  ts,
	}
}

func TestAppendReadRoundTrip(t *testing.T) {
	s, err := NewFeedStore(t.TempDir(), 0)
	if err != nil {
		t.Fatal(err)
	}
	want := testRecord(1, "2026-08-28T10:00:00Z")
	if err := s.Append([]feed.EnrichedRecord{want}); err != nil {
		t.Fatalf("append: %v", err)
	}

	got, err := s.ReadLatest(10)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("read %d records, want 1", len(got))
	}
	if !reflect.DeepEqual(got[0], want) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got[0], want)
	}
}

func TestReadLatestNewestFirstWithLimit(t *testing.T) {
	s, err := NewFeedStore(t.TempDir(), 0)
	if err != nil {
		t.Fatal(err)
	}
	base := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	var batch []feed.EnrichedRecord
	for i := 0; i < 5; i++ {
		batch = append(batch, testRecord(i, base.Add(time.Duration(i)*time.Minute).Format(time.RFC3339)))
	}
	if err := s.Append(batch); err != nil {
		t.Fatal(err)
	}

	got, err := s.ReadLatest(2)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("read %d records, want 2", len(got))
	}
	if got[0].Text != "record 4" || got[1].Text != "record 3" {
		t.Errorf("order wrong: %q, %q", got[0].Text, got[1].Text)
	}
}

func TestReadLatestSkipsCorruptLines(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFeedStore(dir, 0)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Append([]feed.EnrichedRecord{testRecord(1, "2026-08-28T10:00:00Z")}); err != nil {
		t.Fatal(err)
	}

	f, err := os.OpenFile(filepath.Join(dir, feedFileName), os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatal(err)
	}
	f.WriteString("{not valid json\n")
	f.Close()

	if err := s.Append([]feed.EnrichedRecord{testRecord(2, "2026-08-28T11:00:00Z")}); err != nil {
		t.Fatal(err)
	}

	got, err := s.ReadLatest(10)
	if err != nil {
		t.Fatalf("corrupt line must not be fatal: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("read %d records, want 2 (corrupt line skipped)", len(got))
	}
}

func TestReadLatestBoundedReadKeepsNewest(t *testing.T) {
	// A byte budget far smaller than the file must cut off the oldest
	// records, never the newest: the tail of the file is what GET /feed
	// serves.
	s, err := NewFeedStore(t.TempDir(), 600)
	if err != nil {
		t.Fatal(err)
	}
	base := time.Date(2026, 8, 28, 9, 0, 0, 0, time.UTC)
	var batch []feed.EnrichedRecord
	for i := 0; i < 5; i++ {
		batch = append(batch, testRecord(i, base.Add(time.Duration(i)*time.Minute).Format(time.RFC3339)))
	}
	if err := s.Append(batch); err != nil {
		t.Fatal(err)
	}

	got, err := s.ReadLatest(2)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("read %d records, want 2", len(got))
	}
	if got[0].Text != "record 4" || got[1].Text != "record 3" {
		t.Errorf("bounded read dropped the newest records: %q, %q", got[0].Text, got[1].Text)
	}
}

func TestReadLatestHandlesOversizedLines(t *testing.T) {
	s, err := NewFeedStore(t.TempDir(), 0)
	if err != nil {
		t.Fatal(err)
	}
	big := testRecord(1, "2026-08-28T10:00:00Z")
	big.Text = strings.Repeat("a", 2<<20)
	batch := []feed.EnrichedRecord{big, testRecord(2, "2026-08-28T11:00:00Z")}
	if err := s.Append(batch); err != nil {
		t.Fatal(err)
	}

	got, err := s.ReadLatest(10)
	if err != nil {
		t.Fatalf("oversized line must not be fatal: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("read %d records, want 2", len(got))
	}
	if got[0].Text != "record 2" {
		t.Errorf("newest first: got %q", got[0].Text[:20])
	}
}

func TestReadLatestMissingFileIsEmpty(t *testing.T) {
	s, err := NewFeedStore(t.TempDir(), 0)
	if err != nil {
		t.Fatal(err)
	}
	got, err := s.ReadLatest(10)
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("missing file should read as empty slice, got %v", got)
	}
}

func TestAppendConcurrentWritersDontInterleave(t *testing.T) {
	s, err := NewFeedStore(t.TempDir(), 0)
	if err != nil {
		t.Fatal(err)
	}

	const writers = 8
	const perWriter = 20
	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				rec := testRecord(w*100+i, "2026-08-28T10:00:00Z")
				if err := s.Append([]feed.EnrichedRecord{rec}); err != nil {
					t.Errorf("append: %v", err)
				}
			}
		}(w)
	}
	wg.Wait()

	got, err := s.ReadLatest(writers * perWriter)
	if err != nil {
		t.Fatal(err)
	}
	// Every line must parse: interleaved partial writes would show up as
	// corrupt (skipped) lines and a short count.
	if len(got) != writers*perWriter {
		t.Fatalf("read %d records, want %d", len(got), writers*perWriter)
	}
}
