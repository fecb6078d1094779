// e6tracker - Personal Favorite Tracker for e621-style Boards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/e6tracker

package tracker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/e6tracker/internal/config"
	"github.com/tomtom215/e6tracker/internal/logging"
	"github.com/tomtom215/e6tracker/internal/metrics"
	"github.com/tomtom215/e6tracker/internal/models"
)

// Sources label ingest metrics and logs.
const (
	SourceRemote = "remote"
	SourceExport = "export"
)

// DefaultChunkSize is used when IngestOptions.ChunkSize is not positive.
const DefaultChunkSize = 1000

// RecordSource yields records until io.EOF. Errors matching
// models.ErrMalformedRecord skip one record; any other error aborts.
type RecordSource interface {
	Next(ctx context.Context) (models.PostRecord, error)
}

// IngestOptions configures an Ingester.
type IngestOptions struct {
	// Observe is config.ObserveAlways or config.ObserveFavorited.
	Observe   string
	ChunkSize int
}

// RecordOutcome is the result of one record of a chunk.
type RecordOutcome struct {
	PostID int64

	// Observation is nil when stats were not consulted for the record.
	Observation *Observation
	Result      ReconcileResult
	Err         error
}

// ChunkResult summarizes one chunk.
type ChunkResult struct {
	Outcomes  []RecordOutcome
	Succeeded int
	Failed    int

	// Replayed is set when the chunk transaction failed and the records
	// were applied one transaction each.
	Replayed bool
}

// IngestStats accumulates over a whole Ingest run.
type IngestStats struct {
	Chunks    int `json:"chunks"`
	Records   int `json:"records"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
	Created   int `json:"created"`
	Updated   int `json:"updated"`
	Unchanged int `json:"unchanged"`
	Stale     int `json:"stale"`
}

// Add folds a chunk into the totals.
func (s *IngestStats) Add(cr *ChunkResult) {
	s.Chunks++
	s.Records += len(cr.Outcomes)
	s.Succeeded += cr.Succeeded
	s.Failed += cr.Failed
	for _, o := range cr.Outcomes {
		if o.Err != nil {
			continue
		}
		switch o.Result.Outcome {
		case OutcomeCreated:
			s.Created++
		case OutcomeUpdated:
			s.Updated++
		case OutcomeUnchanged:
			s.Unchanged++
		case OutcomeStale:
			s.Stale++
		}
	}
}

// Ingester is the single logical writer of the local mirror. Chunks,
// pages and exclusive user writes are serialized on one mutex.
type Ingester struct {
	db         TxRunner
	registry   *TagRegistry
	reconciler *Reconciler
	stats      *StatsTracker
	observe    string
	chunkSize  int

	mu sync.Mutex
}

// NewIngester wires the ingest path.
func NewIngester(db TxRunner, registry *TagRegistry, reconciler *Reconciler, stats *StatsTracker, opts IngestOptions) *Ingester {
	observe := opts.Observe
	if observe == "" {
		observe = config.ObserveAlways
	}
	chunkSize := opts.ChunkSize
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &Ingester{
		db:         db,
		registry:   registry,
		reconciler: reconciler,
		stats:      stats,
		observe:    observe,
		chunkSize:  chunkSize,
	}
}

// Registry returns the tag registry used by the ingester.
func (in *Ingester) Registry() *TagRegistry { return in.registry }

// Stats returns the stats tracker used by the ingester.
func (in *Ingester) Stats() *StatsTracker { return in.stats }

// Exclusive runs fn in a transaction while holding the writer lock, so
// direct user writes never interleave with an ingest chunk.
func (in *Ingester) Exclusive(ctx context.Context, fn func(Store) error) error {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.db.WithTx(ctx, fn)
}

// IngestRecords applies one chunk of already validated records.
func (in *Ingester) IngestRecords(ctx context.Context, source string, recs []models.PostRecord) (*ChunkResult, error) {
	return in.ingestChunk(ctx, source, recs, false)
}

func (in *Ingester) shouldObserve(rec models.PostRecord) bool {
	if rec.Favorited == nil {
		return false
	}
	return in.observe == config.ObserveAlways || *rec.Favorited
}

// applyRecord runs stats then reconcile for one record inside the
// caller's transaction.
func (in *Ingester) applyRecord(ctx context.Context, s Store, sess *TagSession, rec models.PostRecord, peek bool) (RecordOutcome, error) {
	out := RecordOutcome{PostID: rec.ID}

	switch {
	case in.shouldObserve(rec):
		obs, err := in.stats.Observe(ctx, s, rec.ID, *rec.Favorited)
		if err != nil {
			return out, err
		}
		out.Observation = &obs
	case peek:
		obs, err := in.stats.Peek(ctx, s, rec.ID)
		if err != nil {
			return out, err
		}
		out.Observation = &obs
	}

	res, err := in.reconciler.Reconcile(ctx, s, sess, rec)
	if err != nil {
		return out, err
	}
	out.Result = res
	return out, nil
}

// recordError carries the index of the record that broke a chunk.
type recordError struct {
	index int
	err   error
}

func (e *recordError) Error() string { return fmt.Sprintf("record %d: %v", e.index, e.err) }
func (e *recordError) Unwrap() error { return e.err }

func (in *Ingester) ingestChunk(ctx context.Context, source string, recs []models.PostRecord, peek bool) (*ChunkResult, error) {
	in.mu.Lock()
	defer in.mu.Unlock()

	start := time.Now()
	log := logging.Ctx(ctx)
	result := &ChunkResult{Outcomes: make([]RecordOutcome, len(recs))}
	if len(recs) == 0 {
		return result, nil
	}

	var sess *TagSession
	err := in.db.WithTx(ctx, func(s Store) error {
		var err error
		if sess, err = in.registry.Begin(ctx, s); err != nil {
			return err
		}
		for i := range recs {
			if err := ctx.Err(); err != nil {
				return err
			}
			out, err := in.applyRecord(ctx, s, sess, recs[i], peek)
			if err != nil {
				return &recordError{index: i, err: err}
			}
			result.Outcomes[i] = out
		}
		return nil
	})
	if err == nil {
		sess.Commit()
		result.Succeeded = len(recs)
		in.recordChunk(source, "committed", result, start)
		return result, nil
	}
	sess.Discard()

	if ctxErr := ctx.Err(); ctxErr != nil {
		in.recordChunk(source, "aborted", result, start)
		return nil, ctxErr
	}

	var rerr *recordError
	if errors.As(err, &rerr) {
		log.Warn().
			Str("source", source).
			Int("chunk_size", len(recs)).
			Int64("post_id", recs[rerr.index].ID).
			Err(rerr.err).
			Msg("Chunk rolled back; replaying records one by one")
	} else {
		log.Warn().Str("source", source).Int("chunk_size", len(recs)).Err(err).Msg("Chunk transaction failed; replaying records one by one")
	}

	if err := in.replay(ctx, source, recs, peek, result); err != nil {
		in.recordChunk(source, "aborted", result, start)
		return nil, err
	}
	result.Replayed = true
	in.recordChunk(source, "replayed", result, start)
	return result, nil
}

// replay applies each record in its own transaction. A record that still
// fails is logged and counted; the others commit.
func (in *Ingester) replay(ctx context.Context, source string, recs []models.PostRecord, peek bool, result *ChunkResult) error {
	log := logging.Ctx(ctx)
	result.Succeeded, result.Failed = 0, 0

	for i := range recs {
		if err := ctx.Err(); err != nil {
			return err
		}

		var (
			sess *TagSession
			out  RecordOutcome
		)
		err := in.db.WithTx(ctx, func(s Store) error {
			var err error
			if sess, err = in.registry.Begin(ctx, s); err != nil {
				return err
			}
			out, err = in.applyRecord(ctx, s, sess, recs[i], peek)
			return err
		})
		if err != nil {
			sess.Discard()
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			result.Outcomes[i] = RecordOutcome{PostID: recs[i].ID, Err: err}
			result.Failed++
			log.Error().Str("source", source).Int64("post_id", recs[i].ID).Err(err).Msg("Record failed; skipped")
			continue
		}
		sess.Commit()
		result.Outcomes[i] = out
		result.Succeeded++
	}
	return nil
}

func (in *Ingester) recordChunk(source, outcome string, result *ChunkResult, start time.Time) {
	metrics.RecordIngestChunk(source, outcome, time.Since(start))
	metrics.IngestRecordsTotal.WithLabelValues(source, "ok").Add(float64(result.Succeeded))
	metrics.IngestRecordsTotal.WithLabelValues(source, "failed").Add(float64(result.Failed))
}

// Ingest drains src in chunks of the configured size. onChunk, when set,
// runs after every committed chunk; an error from it stops the run.
func (in *Ingester) Ingest(ctx context.Context, src RecordSource, source string, onChunk func(*ChunkResult) error) (*IngestStats, error) {
	stats := &IngestStats{}
	log := logging.Ctx(ctx)
	buf := make([]models.PostRecord, 0, in.chunkSize)

	flush := func() error {
		if len(buf) == 0 {
			return nil
		}
		cr, err := in.ingestChunk(ctx, source, buf, false)
		if err != nil {
			return err
		}
		stats.Add(cr)
		buf = buf[:0]
		if onChunk != nil {
			return onChunk(cr)
		}
		return nil
	}

	for {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		rec, err := src.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if errors.Is(err, models.ErrMalformedRecord) {
			stats.Records++
			stats.Failed++
			metrics.IngestRecordsTotal.WithLabelValues(source, "failed").Inc()
			log.Warn().Str("source", source).Err(err).Msg("Malformed record skipped")
			continue
		}
		if err != nil {
			return stats, fmt.Errorf("read record: %w", err)
		}

		buf = append(buf, rec)
		if len(buf) >= in.chunkSize {
			if err := flush(); err != nil {
				return stats, err
			}
		}
	}

	if err := flush(); err != nil {
		return stats, err
	}
	return stats, nil
}

// PageItem is one element of a remote listing page.
type PageItem struct {
	Raw         json.RawMessage
	PostID      int64
	Observation *Observation
	Result      *ReconcileResult
	Err         error
}

// PageResult is the outcome of IngestPage, in listing order.
type PageResult struct {
	Items     []PageItem
	Succeeded int
	Failed    int
}

// Annotated returns the page posts with local state added to the ones
// seen before. Posts that failed keep their raw form.
func (p *PageResult) Annotated() ([]json.RawMessage, error) {
	out := make([]json.RawMessage, len(p.Items))
	for i, item := range p.Items {
		if item.Observation == nil {
			out[i] = item.Raw
			continue
		}
		annotated, err := AnnotateRaw(item.Raw, *item.Observation)
		if err != nil {
			return nil, fmt.Errorf("annotate post %d: %w", item.PostID, err)
		}
		out[i] = annotated
	}
	return out, nil
}

// IngestPage decodes, validates and applies one remote listing page in a
// single transaction. Malformed posts are reported per item and never
// reach the store.
func (in *Ingester) IngestPage(ctx context.Context, raws []json.RawMessage) (*PageResult, error) {
	page := &PageResult{Items: make([]PageItem, len(raws))}

	recs := make([]models.PostRecord, 0, len(raws))
	index := make([]int, 0, len(raws))
	for i, raw := range raws {
		page.Items[i].Raw = raw
		rec, err := models.DecodeRemotePost(raw)
		if err != nil {
			page.Items[i].Err = err
			page.Failed++
			metrics.IngestRecordsTotal.WithLabelValues(SourceRemote, "failed").Inc()
			logging.Ctx(ctx).Warn().Int("index", i).Err(err).Msg("Malformed post skipped")
			continue
		}
		page.Items[i].PostID = rec.ID
		recs = append(recs, rec)
		index = append(index, i)
	}

	cr, err := in.ingestChunk(ctx, SourceRemote, recs, true)
	if err != nil {
		return nil, err
	}

	for j, out := range cr.Outcomes {
		item := &page.Items[index[j]]
		if out.Err != nil {
			item.Err = out.Err
			page.Failed++
			continue
		}
		item.Observation = out.Observation
		res := out.Result
		item.Result = &res
		page.Succeeded++
	}
	return page, nil
}
