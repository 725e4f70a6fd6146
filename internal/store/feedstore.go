// Package store owns the on-disk state: the append-only JSONL threat feed,
// the single-slot run status, and the cross-cycle dedup index.
package store

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/threatlens-io/threatlens/internal/feed"
	"github.com/threatlens-io/threatlens/internal/redact"
)

const feedFileName = "threat_feed.jsonl"

// FeedStore appends enriched records to a JSONL file, one record per line.
// Appends are serialized with a mutex so concurrent cycles cannot interleave
// partial lines; reads reopen the file and tolerate corrupt lines.
type FeedStore struct {
	path         string
	maxReadBytes int64
	mu           sync.Mutex
}

// NewFeedStore creates the data directory if needed.
func NewFeedStore(dataDir string, maxReadBytes int64) (*FeedStore, error) {
	if dataDir == "" {
		return nil, fmt.Errorf("data dir is empty")
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	if maxReadBytes <= 0 {
		maxReadBytes = 64 << 20
	}
	return &FeedStore{
		path:         filepath.Join(dataDir, feedFileName),
		maxReadBytes: maxReadBytes,
	}, nil
}

// Append writes each record as one JSON line and fsyncs before returning.
// A record that fails to marshal is skipped with a log line; it must not
// poison the rest of the batch.
func (s *FeedStore) Append(records []feed.EnrichedRecord) error {
	if len(records) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open feed file: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, rec := range records {
		data, err := json.Marshal(rec)
		if err != nil {
			redact.Logf("store: skip unmarshalable record from %s: %v", rec.Source, err)
			continue
		}
		if _, err := w.Write(data); err != nil {
			return fmt.Errorf("write record: %w", err)
		}
		if err := w.WriteByte('\n'); err != nil {
			return fmt.Errorf("write newline: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("flush: %w", err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("sync: %w", err)
	}
	return nil
}

// ReadLatest returns up to limit records ordered by timestamp descending.
// Corrupt lines are skipped, never fatal. A missing feed file reads as
// empty. When the file has grown past maxReadBytes only its newest tail is
// scanned; appends land at the end, so the tail is where the latest records
// live.
func (s *FeedStore) ReadLatest(limit int) ([]feed.EnrichedRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []feed.EnrichedRecord{}, nil
		}
		return nil, fmt.Errorf("open feed file: %w", err)
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat feed file: %w", err)
	}
	truncated := st.Size() > s.maxReadBytes
	if truncated {
		if _, err := f.Seek(st.Size()-s.maxReadBytes, io.SeekStart); err != nil {
			return nil, fmt.Errorf("seek feed file: %w", err)
		}
	}
	data, err := io.ReadAll(io.LimitReader(f, s.maxReadBytes))
	if err != nil {
		return nil, fmt.Errorf("read feed file: %w", err)
	}

	lines := bytes.Split(data, []byte{'\n'})
	if truncated && len(lines) > 0 {
		// The seek landed mid-line; the first fragment is not parseable.
		lines = lines[1:]
	}

	var records []feed.EnrichedRecord
	for _, line := range lines {
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		var rec feed.EnrichedRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			redact.Logf("store: skip corrupt feed line: %v", err)
			continue
		}
		records = append(records, rec)
	}

	// RFC 3339 sorts lexically, ties broken by file order (newest last on
	// disk, so later lines win).
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Timestamp > records[j].Timestamp
	})

	if len(records) > limit {
		records = records[:limit]
	}
	if records == nil {
		records = []feed.EnrichedRecord{}
	}
	return records, nil
}

// Path exposes the feed file location for operator tooling.
func (s *FeedStore) Path() string { return s.path }
