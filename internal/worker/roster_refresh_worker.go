package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/stemsi/rollbook/internal/model"
	"github.com/stemsi/rollbook/internal/roster"
)

// Refresher is the roster intent the worker drives.
type Refresher interface {
	FetchAll(ctx context.Context) *roster.Result[[]model.Student]
}

// RosterRefreshWorker reloads the roster cache on a fixed interval so that
// edits made outside this service reach connected clients.
type RosterRefreshWorker struct {
	store    Refresher
	interval time.Duration
	log      zerolog.Logger
}

// NewRosterRefreshWorker creates a new RosterRefreshWorker.
func NewRosterRefreshWorker(store Refresher, interval time.Duration, log zerolog.Logger) *RosterRefreshWorker {
	return &RosterRefreshWorker{
		store:    store,
		interval: interval,
		log:      log.With().Str("component", "roster_refresh_worker").Logger(),
	}
}

// Start runs one refresh immediately, then one per interval, until ctx is
// done. Call in a goroutine.
func (w *RosterRefreshWorker) Start(ctx context.Context) {
	w.log.Info().Dur("interval", w.interval).Msg("Worker started")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.refresh(ctx)
	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Worker stopped")
			return
		case <-ticker.C:
			w.refresh(ctx)
		}
	}
}

func (w *RosterRefreshWorker) refresh(ctx context.Context) {
	students, err := w.store.FetchAll(ctx).Wait(ctx)
	if err != nil {
		if ctx.Err() == nil {
			w.log.Warn().Err(err).Msg("Roster refresh failed")
		}
		return
	}
	w.log.Debug().Int("students", len(students)).Msg("Roster refreshed")
}
