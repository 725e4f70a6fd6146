// Package ingest drives the periodic multi-source pipeline: fetch from every
// adapter, normalize, enrich, persist, and record a run-status snapshot.
// Failures are isolated as close to their origin as possible — a bad source
// costs one summary entry, a bad record costs one record, and nothing short
// of process death stops the loop.
package ingest

import (
	"context"
	"strings"
	"time"

	"github.com/threatlens-io/threatlens/internal/enrich"
	"github.com/threatlens-io/threatlens/internal/feed"
	"github.com/threatlens-io/threatlens/internal/metrics"
	"github.com/threatlens-io/threatlens/internal/normalize"
	"github.com/threatlens-io/threatlens/internal/redact"
	"github.com/threatlens-io/threatlens/internal/source"
	"github.com/threatlens-io/threatlens/internal/store"
)

// Options tunes orchestrator behavior beyond its collaborators.
type Options struct {
	// CycleTimeout bounds one cycle end to end. Zero disables the deadline.
	CycleTimeout time.Duration
	// CountRecordFailures surfaces dropped-record counts in RunStatus.
	CountRecordFailures bool
}

// Orchestrator owns the cycle. All collaborators are injected; tests swap in
// fakes.
type Orchestrator struct {
	sources    []source.Source
	normalizer *normalize.Normalizer
	pipeline   *enrich.Pipeline
	feedStore  *store.FeedStore
	status     *store.StatusStore
	dedup      *store.Dedup // nil disables dedup
	opts       Options
}

func New(sources []source.Source, normalizer *normalize.Normalizer, pipeline *enrich.Pipeline,
	feedStore *store.FeedStore, status *store.StatusStore, dedup *store.Dedup, opts Options) *Orchestrator {
	return &Orchestrator{
		sources:    sources,
		normalizer: normalizer,
		pipeline:   pipeline,
		feedStore:  feedStore,
		status:     status,
		dedup:      dedup,
		opts:       opts,
	}
}

// RunOnce executes exactly one cycle synchronously and returns the resulting
// status. The background loop and the /ingest_now control path share this
// code. The returned status is valid even when err is non-nil (persist
// failure); err reports only failures with no local isolation point.
func (o *Orchestrator) RunOnce(ctx context.Context) (*feed.RunStatus, error) {
	start := time.Now()
	defer func() {
		metrics.CycleDuration.Observe(time.Since(start).Seconds())
	}()

	if o.opts.CycleTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.opts.CycleTimeout)
		defer cancel()
	}

	status := feed.EmptyStatus()

	// Fetching: every adapter runs, every adapter fails alone.
	var raw []feed.RawRecord
	for _, src := range o.sources {
		records, err := o.fetchOne(ctx, src)
		if err != nil {
			redact.Logf("ingest: fetch %s: %v", src.Name(), err)
			status.Summary[src.Name()] = 0
			status.Errors[src.Name()] = err.Error()
			metrics.SourceErrors.WithLabelValues(src.Name()).Inc()
			continue
		}
		status.Summary[src.Name()] = len(records)
		metrics.RecordsFetched.WithLabelValues(src.Name()).Add(float64(len(records)))
		raw = append(raw, records...)
	}

	// Dedup against recent cycles before spending NLP work on repeats.
	var freshKeys []string
	if o.dedup != nil {
		kept := raw[:0]
		for _, r := range raw {
			key := store.Key(r.Source, r.Text)
			if o.dedup.Seen(key) {
				metrics.RecordsDeduped.Inc()
				continue
			}
			kept = append(kept, r)
			freshKeys = append(freshKeys, key)
		}
		raw = kept
	}

	// Normalizing: one pass over the whole batch.
	normalized := o.normalizer.Normalize(ctx, raw)

	// Enriching: per-record isolation; failures are logged and dropped.
	enriched := make([]feed.EnrichedRecord, 0, len(normalized))
	failures := 0
	for _, rec := range normalized {
		if strings.TrimSpace(rec.Text) == "" {
			continue
		}
		out, err := o.enrichOne(ctx, rec)
		if err != nil {
			redact.Logf("ingest: drop %s record: %v", rec.Source, err)
			metrics.RecordFailures.Inc()
			failures++
			continue
		}
		enriched = append(enriched, out)
	}

	status.LastRun = feed.Now()
	status.TotalRecords = len(enriched)
	if o.opts.CountRecordFailures {
		status.RecordFailures = failures
	}

	// Persisting: the only step that takes store locks.
	if err := o.feedStore.Append(enriched); err != nil {
		status.TotalRecords = 0
		if werr := o.status.Write(status); werr != nil {
			redact.Logf("ingest: write status after append failure: %v", werr)
		}
		return status, err
	}
	metrics.RecordsAppended.Add(float64(len(enriched)))
	if o.dedup != nil {
		for _, key := range freshKeys {
			o.dedup.Mark(key)
		}
	}
	if err := o.status.Write(status); err != nil {
		return status, err
	}
	return status, nil
}

// fetchOne isolates one adapter call, converting panics into errors so a
// buggy adapter is indistinguishable from a failing one.
func (o *Orchestrator) fetchOne(ctx context.Context, src source.Source) (records []feed.RawRecord, err error) {
	defer func() {
		if r := recover(); r != nil {
			records = nil
			err = &panicError{src.Name(), r}
		}
	}()
	return src.Fetch(ctx)
}

// enrichOne isolates one record, converting stage panics into a dropped
// record rather than a dead cycle.
func (o *Orchestrator) enrichOne(ctx context.Context, rec feed.NormalizedRecord) (out feed.EnrichedRecord, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &panicError{"enrich", r}
		}
	}()
	result, err := o.pipeline.EnrichDegraded(ctx, rec.Text)
	if err != nil {
		return feed.EnrichedRecord{}, err
	}
	return enrich.Apply(rec, result), nil
}

// Run loops RunOnce with a sleep between cycles until ctx is canceled. Every
// cycle is wrapped in an outer isolation boundary: an escaped failure is
// logged and the loop proceeds to the next sleep.
func (o *Orchestrator) Run(ctx context.Context, interval time.Duration) {
	redact.Logf("ingest: background loop started, interval %s", interval)
	for {
		o.runGuarded(ctx)

		select {
		case <-ctx.Done():
			redact.Logf("ingest: background loop stopped")
			return
		case <-time.After(interval):
		}
	}
}

func (o *Orchestrator) runGuarded(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			redact.Logf("ingest: cycle panicked, continuing: %v", r)
		}
	}()

	status, err := o.RunOnce(ctx)
	if err != nil {
		redact.Logf("ingest: cycle failed: %v", err)
		return
	}
	redact.Logf("ingest: cycle done: %d records, summary %v, %d source errors",
		status.TotalRecords, status.Summary, len(status.Errors))
}

type panicError struct {
	where string
	value any
}

func (e *panicError) Error() string {
	return "panic in " + e.where + ": " + redact.Sprintf("%v", e.value)
}
