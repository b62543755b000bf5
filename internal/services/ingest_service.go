// Package services – IngestService
//
// This file implements the ingestion cycle driver: one pass fetches a raw
// payload from the feed, normalizes it into canonical candidates, upserts
// each candidate, and hands the newly stored subset to the broadcast
// dispatcher. The scheduler loop (Run) triggers a pass on a fixed interval,
// sleeping after completion so overlapping cycles cannot occur.
//
// The cycle is the process's hard fault boundary: nothing that goes wrong
// inside a pass (fetch failures, malformed payloads, per-candidate upsert
// errors, even a panic) is allowed to take the scheduler down. Failures
// degrade the pass to fewer or zero offers and are logged.
package services

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/dfcarvalho/go-promo-bot/internal/domain"
	"github.com/dfcarvalho/go-promo-bot/internal/feed"
	"github.com/dfcarvalho/go-promo-bot/internal/repo"
)

// FeedSearcher is the slice of the feed client the cycle depends on.
type FeedSearcher interface {
	Search(ctx context.Context) (map[string]any, error)
}

// Broadcaster dispatches newly stored offers to recipients.
type Broadcaster interface {
	Broadcast(ctx context.Context, newOffers []StoredOffer) (BroadcastResult, error)
}

// CycleResult summarizes one ingestion pass. Failure outcomes are counted
// here and logged by the caller rather than propagated.
type CycleResult struct {
	FetchFailed bool
	Candidates  int // normalized candidates seen
	Stored      int // candidates upserted and resolved to an id
	Skipped     int // candidates dropped on per-candidate upsert errors
	Broadcast   BroadcastResult
}

// IngestService orchestrates fetch → normalize → store → broadcast passes.
type IngestService struct {
	DB         *gorm.DB
	Feed       FeedSearcher
	Dispatcher Broadcaster

	// DefaultStore labels candidates whose record carries no store field.
	DefaultStore string
	// Interval is the sleep between completed passes in Run.
	Interval time.Duration
}

// RunCycle performs one ingestion pass and reports what happened. It returns
// an error only for the recipient-list failure surfaced by the dispatcher;
// everything else is absorbed into the result. Callers (the scheduler, tests)
// decide what to do with the error; the scheduler just logs it.
func (s *IngestService) RunCycle(ctx context.Context) (CycleResult, error) {
	tr := otel.Tracer("services/IngestService")
	ctx, span := tr.Start(ctx, "RunCycle")
	defer span.End()

	var res CycleResult

	payload, err := s.Feed.Search(ctx)
	if err != nil {
		// A fetch failure degrades the pass to zero offers.
		log.Warn().Err(err).Msg("feed fetch failed")
		res.FetchFailed = true
		cyclesRun.WithLabelValues("degraded").Inc()
		return res, nil
	}

	candidates := feed.Normalize(payload, s.DefaultStore)
	res.Candidates = len(candidates)

	stored := make([]StoredOffer, 0, len(candidates))
	for _, c := range candidates {
		if c.ExternalID == "" {
			// Kept, not rejected: identity collapses to ("", store) for all
			// unidentified records from this store.
			log.Warn().Str("title", c.Title).Str("store", c.Store).
				Msg("offer candidate has no external identifier")
		}
		id, err := s.upsertCandidate(ctx, c)
		if err != nil {
			log.Warn().Err(err).
				Str("external_id", c.ExternalID).
				Str("store", c.Store).
				Msg("offer upsert failed; skipping candidate")
			res.Skipped++
			offersIngested.WithLabelValues("skipped").Inc()
			continue
		}
		stored = append(stored, StoredOffer{ID: id, Offer: c})
		offersIngested.WithLabelValues("stored").Inc()
	}
	res.Stored = len(stored)

	if len(stored) > 0 && s.Dispatcher != nil {
		br, err := s.Dispatcher.Broadcast(ctx, stored)
		res.Broadcast = br
		if err != nil {
			log.Error().Err(err).Msg("broadcast failed to load recipients")
			cyclesRun.WithLabelValues("degraded").Inc()
			span.SetAttributes(attribute.Int("offers.stored", res.Stored))
			return res, err
		}
	}

	cyclesRun.WithLabelValues("ok").Inc()
	span.SetAttributes(
		attribute.Int("offers.candidates", res.Candidates),
		attribute.Int("offers.stored", res.Stored),
	)
	return res, nil
}

// upsertCandidate maps one candidate to a domain row and upserts it,
// returning the stable internal id.
func (s *IngestService) upsertCandidate(ctx context.Context, c feed.Candidate) (string, error) {
	o := &domain.Offer{
		ExternalID: c.ExternalID,
		Store:      c.Store,
		Title:      c.Title,
		Price:      c.Price,
		OldPrice:   c.OldPrice,
		URL:        c.URL,
		ImageURL:   c.ImageURL,
		Category:   c.Category,
	}
	id, err := repo.UpsertOffer(ctx, s.DB, o)
	if err != nil {
		return "", err
	}
	if id == "" {
		return "", ErrOfferUnresolved
	}
	return id, nil
}

// Run triggers RunCycle on a fixed cadence until ctx is cancelled. The sleep
// starts after a pass completes, so passes are strictly serialized and
// interval drift under slow cycles is accepted. A panicking pass is
// recovered and logged; the loop keeps going.
func (s *IngestService) Run(ctx context.Context) {
	interval := s.Interval
	if interval <= 0 {
		interval = 10 * time.Minute
	}

	for {
		s.runOnce(ctx)

		select {
		case <-ctx.Done():
			return
		case <-time.After(interval):
		}
	}
}

// runOnce executes a single pass under a recover guard and logs the outcome.
func (s *IngestService) runOnce(ctx context.Context) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Error().Interface("panic", rec).Msg("ingest cycle panicked")
		}
	}()

	res, err := s.RunCycle(ctx)
	ev := log.Info()
	if err != nil || res.FetchFailed {
		ev = log.Warn().Err(err)
	}
	ev.Int("candidates", res.Candidates).
		Int("stored", res.Stored).
		Int("skipped", res.Skipped).
		Int("delivered", res.Broadcast.Delivered).
		Int("failed", res.Broadcast.Failed).
		Msg("ingest cycle finished")
}
