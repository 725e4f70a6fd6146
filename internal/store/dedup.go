package store

import (
	"container/list"
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"github.com/willf/bloom"
)

// Dedup drops records already ingested in recent cycles, keyed by
// source + content hash. A bloom filter answers the common negative case
// without touching the exact index; positives are confirmed against a
// TTL-bound LRU so bloom false positives cannot drop fresh records.
type Dedup struct {
	mu     sync.Mutex
	filter *bloom.BloomFilter
	cap    int
	ttl    time.Duration
	ll     *list.List               // most-recent at front
	items  map[string]*list.Element // key -> element
}

type dedupEntry struct {
	key string
	exp time.Time
}

func NewDedup(maxKeys int, ttl time.Duration) *Dedup {
	if maxKeys <= 0 {
		maxKeys = 100000
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Dedup{
		filter: bloom.NewWithEstimates(uint(maxKeys)*4, 0.01),
		cap:    maxKeys,
		ttl:    ttl,
		ll:     list.New(),
		items:  make(map[string]*list.Element, maxKeys),
	}
}

// Key derives the dedup key for a record.
func Key(source, text string) string {
	sum := sha256.Sum256([]byte(text))
	return source + "::" + hex.EncodeToString(sum[:16])
}

// Seen reports whether the key was marked within its TTL.
func (d *Dedup) Seen(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.filter.Test([]byte(key)) {
		return false
	}
	el, ok := d.items[key]
	if !ok {
		// Bloom false positive.
		return false
	}
	en := el.Value.(dedupEntry)
	if time.Now().Before(en.exp) {
		d.ll.MoveToFront(el)
		return true
	}
	d.ll.Remove(el)
	delete(d.items, key)
	return false
}

// Mark records the key, refreshing its TTL if already present.
func (d *Dedup) Mark(key string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.filter.Add([]byte(key))

	if el, ok := d.items[key]; ok {
		en := el.Value.(dedupEntry)
		en.exp = time.Now().Add(d.ttl)
		el.Value = en
		d.ll.MoveToFront(el)
		return
	}

	el := d.ll.PushFront(dedupEntry{key: key, exp: time.Now().Add(d.ttl)})
	d.items[key] = el

	for d.ll.Len() > d.cap {
		tail := d.ll.Back()
		if tail == nil {
			break
		}
		old := tail.Value.(dedupEntry)
		d.ll.Remove(tail)
		delete(d.items, old.key)
	}
}
