package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/threatlens-io/threatlens/internal/feed"
	"github.com/threatlens-io/threatlens/internal/redact"
)

const statusFileName = "ingest_status.json"

// StatusStore holds the single latest RunStatus. Writes fully replace the
// previous snapshot via a temp-file rename so readers never observe a
// partial status.
type StatusStore struct {
	path string
	mu   sync.Mutex
}

func NewStatusStore(dataDir string) (*StatusStore, error) {
	if dataDir == "" {
		return nil, fmt.Errorf("data dir is empty")
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &StatusStore{path: filepath.Join(dataDir, statusFileName)}, nil
}

// Write atomically overwrites the status snapshot.
func (s *StatusStore) Write(status *feed.RunStatus) error {
	if status == nil {
		return fmt.Errorf("status is nil")
	}
	data, err := json.MarshalIndent(status, "", "  ")
	if err != nil {
		return fmt.Errorf("encode status: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := os.CreateTemp(filepath.Dir(s.path), statusFileName+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp status: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write status: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("sync status: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close status: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace status: %w", err)
	}
	return nil
}

// Read returns the latest status, or the zero-value status when none has
// ever been written or the file is unreadable.
func (s *StatusStore) Read() *feed.RunStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			redact.Logf("store: read status: %v", err)
		}
		return feed.EmptyStatus()
	}

	var status feed.RunStatus
	if err := json.Unmarshal(data, &status); err != nil {
		redact.Logf("store: corrupt status file, serving empty status: %v", err)
		return feed.EmptyStatus()
	}
	if status.Summary == nil {
		status.Summary = map[string]int{}
	}
	if status.Errors == nil {
		status.Errors = map[string]string{}
	}
	return &status
}
