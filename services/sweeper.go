package services

import (
	"context"
	"log"
	"time"
)

// Sweeper periodically re-derives the truth for pending reservations that
// already have a checkout session but never received a webhook. This is the
// safety net for undeliverable webhooks: the provider stays the source of
// truth and the regular reconcile path applies the outcome.
type Sweeper struct {
	store      ReservationStore
	reconciler *ReconcileService
	interval   time.Duration
	pendingTTL time.Duration
}

func NewSweeper(store ReservationStore, reconciler *ReconcileService, interval, pendingTTL time.Duration) *Sweeper {
	return &Sweeper{
		store:      store,
		reconciler: reconciler,
		interval:   interval,
		pendingTTL: pendingTTL,
	}
}

// Run loops until the context is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	cutoff := time.Now().Add(-s.pendingTTL)

	stale, err := s.store.ListStalePending(ctx, cutoff)
	if err != nil {
		log.Printf("sweep: list stale pending: %v", err)
		return
	}
	if len(stale) == 0 {
		return
	}

	log.Printf("sweep: checking %d stale pending reservations", len(stale))
	for _, r := range stale {
		if err := s.reconciler.ReconcileSession(ctx, SourceSweeper, r.SessionID); err != nil {
			log.Printf("sweep: reconcile session %s: %v", r.SessionID, err)
		}
	}
}
