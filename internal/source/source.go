// Package source contains the feed adapters. Each adapter pulls raw
// threat-related text from one external feed and fails independently of the
// others; the orchestrator isolates adapter errors at source granularity.
package source

import (
	"context"
	"sync"

	"github.com/threatlens-io/threatlens/internal/config"
	"github.com/threatlens-io/threatlens/internal/feed"
)

// Source is one external feed adapter. Fetch returns a finite, possibly
// empty batch of raw records, or an error that the orchestrator records
// against this source only. Fetch must never block indefinitely; network
// adapters carry a bounded timeout.
type Source interface {
	Name() string
	Fetch(ctx context.Context) ([]feed.RawRecord, error)
}

// FromConfig builds all enabled adapters in registration order: social,
// darkweb, mitre. Batch order within a cycle follows this order.
func FromConfig(cfg config.SourcesConfig) []Source {
	var srcs []Source
	if cfg.Social.Enabled {
		srcs = append(srcs, NewSocial(cfg.Social))
	}
	if cfg.Darkweb.Enabled {
		srcs = append(srcs, NewDarkweb())
	}
	if cfg.Mitre.Enabled {
		srcs = append(srcs, NewMitre(cfg.Mitre))
	}
	return srcs
}

// lastGood caches an adapter's most recent successful batch so rate limits
// and missing credentials can degrade to stale data instead of an error.
type lastGood struct {
	mu      sync.Mutex
	records []feed.RawRecord
	primed  bool
}

func (c *lastGood) set(records []feed.RawRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records = append([]feed.RawRecord(nil), records...)
	c.primed = true
}

// get returns a copy of the cached batch. The second return reports whether
// a successful fetch ever primed the cache; an unprimed cache yields an
// empty, non-nil batch.
func (c *lastGood) get() ([]feed.RawRecord, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.primed {
		return []feed.RawRecord{}, false
	}
	return append([]feed.RawRecord(nil), c.records...), true
}
