package syncengine

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/dmitrijs2005/devcms/internal/logging"
)

// Pinger checks whether the remote is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Watcher tracks remote reachability by pinging on an interval. It starts
// out offline.
type Watcher struct {
	pinger   Pinger
	interval time.Duration
	timeout  time.Duration
	logger   logging.Logger
	online   atomic.Bool
	onChange []func(online bool)
}

func NewWatcher(p Pinger, interval time.Duration, logger logging.Logger) *Watcher {
	return &Watcher{
		pinger:   p,
		interval: interval,
		timeout:  3 * time.Second,
		logger:   logger.With("component", "watcher"),
	}
}

// OnChange registers fn to be called on every online/offline transition.
// Register before Run.
func (w *Watcher) OnChange(fn func(online bool)) {
	w.onChange = append(w.onChange, fn)
}

// OnReconnect registers e.Trigger for offline-to-online transitions.
func (w *Watcher) OnReconnect(e *Engine) {
	w.OnChange(func(online bool) {
		if online {
			e.Trigger()
		}
	})
}

func (w *Watcher) Online() bool {
	return w.online.Load()
}

// Check pings once and updates the state.
func (w *Watcher) Check(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	err := w.pinger.Ping(ctx)
	cancel()

	now := err == nil
	if w.online.Swap(now) != now {
		if now {
			w.logger.Info(ctx, "remote reachable, switched to online mode")
		} else {
			w.logger.Warn(ctx, "remote unreachable, switched to offline mode", "err", err)
		}
		for _, fn := range w.onChange {
			fn(now)
		}
	}
	return now
}

// Run checks immediately and then every interval until ctx is done.
func (w *Watcher) Run(ctx context.Context) {
	w.Check(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.Check(ctx)
		case <-ctx.Done():
			return
		}
	}
}
