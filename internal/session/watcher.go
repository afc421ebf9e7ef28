package session

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// Watcher ends a Store's session once its access token expires. It checks on
// a fixed interval and whenever Wake is called, e.g. when the user returns to
// an idle console.
type Watcher struct {
	store    *Store
	interval time.Duration
	now      func() time.Time
	wake     chan struct{}
	logger   *zap.Logger
}

// NewWatcher creates a watcher over store.
func NewWatcher(store *Store, interval time.Duration, logger *zap.Logger) *Watcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watcher{
		store:    store,
		interval: interval,
		now:      store.now,
		wake:     make(chan struct{}, 1),
		logger:   logger,
	}
}

// Run checks until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	// A non-positive interval checks on Wake only.
	var tick <-chan time.Time
	if w.interval > 0 {
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-tick:
			w.Check(ctx)
		case <-w.wake:
			w.Check(ctx)
		}
	}
}

// Wake requests an immediate check without blocking.
func (w *Watcher) Wake() {
	select {
	case w.wake <- struct{}{}:
	default:
	}
}

// Check expires the session if its token has lapsed or cannot be decoded.
// It reports whether the session was ended.
func (w *Watcher) Check(ctx context.Context) bool {
	claims, err := w.store.Claims()
	switch {
	case errors.Is(err, ErrMissingToken):
		return false
	case err != nil:
		w.logger.Warn("dropping undecodable access token", zap.Error(err))
	case !claims.Expired(w.now()):
		return false
	default:
		w.logger.Info("access token expired", zap.String("subject", claims.ID()))
	}
	w.store.Expire(ctx)
	return true
}
