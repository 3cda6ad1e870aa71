package index

import (
	"context"
	"log/slog"
	"time"

	"github.com/starford/anchor/internal/models"
	"github.com/starford/anchor/internal/sse"
)

// Source supplies the current reference collection.
type Source interface {
	List(ctx context.Context) ([]models.Reference, error)
}

const followDebounce = 100 * time.Millisecond

// Follow re-syncs the index from src whenever a references_changed event
// arrives on events, until ctx is cancelled or events is closed. Bursts of
// changes collapse into one sync. cb (if non-nil) runs after each sync.
func Follow(ctx context.Context, db ReferenceIndex, src Source, events <-chan sse.Event, logger *slog.Logger, cb func()) error {
	resync := func() {
		refs, err := src.List(ctx)
		if err != nil {
			logger.Warn("index: list failed", slog.String("error", err.Error()))
			return
		}
		if err := Sync(db, refs, logger); err != nil {
			logger.Warn("index: sync failed", slog.String("error", err.Error()))
			return
		}
		if cb != nil {
			cb()
		}
	}

	resync()
	logger.Info("index: following changes")

	var timer *time.Timer
	var timerCh <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			logger.Info("index: stopped")
			return nil

		case <-timerCh:
			timer, timerCh = nil, nil
			resync()

		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if ev.Type != sse.EventReferencesChanged {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(followDebounce)
				timerCh = timer.C
			} else {
				timer.Reset(followDebounce)
			}
		}
	}
}
