package syncengine

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dmitrijs2005/devcms/internal/logging"
)

const (
	DefaultInterval = 5 * time.Second
	DefaultTimeout  = 5 * time.Second
)

type State string

const (
	StateIdle    State = "idle"
	StateSyncing State = "syncing"
)

// Reasons an attempt was skipped.
const (
	SkipBusy            = "sync already in progress"
	SkipOffline         = "offline"
	SkipNoAdapter       = "no adapter configured"
	SkipEmpty           = "outbox empty"
	SkipUnauthenticated = "adapter not authenticated"
)

// Report describes one sync attempt.
type Report struct {
	Adapter string
	Skipped string
	Sent    int
	Synced  int
	Failed  int
	Ignored []string
	Err     error
}

type Engine struct {
	outbox   Outbox
	logger   logging.Logger
	interval time.Duration
	timeout  time.Duration
	online   func() bool

	mu            sync.RWMutex
	adapter       Adapter
	authenticated bool
	last          Report

	syncing atomic.Bool
	trigger chan struct{}
}

type Option func(*Engine)

func WithAdapter(a Adapter) Option {
	return func(e *Engine) { e.adapter = a }
}

// WithInterval sets the period used by Run.
func WithInterval(d time.Duration) Option {
	return func(e *Engine) { e.interval = d }
}

// WithTimeout bounds each remote call.
func WithTimeout(d time.Duration) Option {
	return func(e *Engine) { e.timeout = d }
}

// WithConnectivity installs the online check consulted before each attempt,
// typically Watcher.Online.
func WithConnectivity(online func() bool) Option {
	return func(e *Engine) { e.online = online }
}

func New(outbox Outbox, logger logging.Logger, opts ...Option) *Engine {
	e := &Engine{
		outbox:   outbox,
		logger:   logger.With("component", "syncengine"),
		interval: DefaultInterval,
		timeout:  DefaultTimeout,
		online:   func() bool { return true },
		trigger:  make(chan struct{}, 1),
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// SetAdapter swaps the remote adapter. A nil adapter disables syncing.
func (e *Engine) SetAdapter(a Adapter) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.adapter = a
	e.authenticated = false
}

func (e *Engine) Adapter() Adapter {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.adapter
}

func (e *Engine) State() State {
	if e.syncing.Load() {
		return StateSyncing
	}
	return StateIdle
}

// LastReport returns the report of the most recent attempt that was not
// skipped as busy.
func (e *Engine) LastReport() Report {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.last
}

// Trigger asks Run for an attempt. Triggers that arrive while one is
// already queued are collapsed.
func (e *Engine) Trigger() {
	select {
	case e.trigger <- struct{}{}:
	default:
	}
}

// Run performs an attempt every interval and on every Trigger until ctx is
// done.
func (e *Engine) Run(ctx context.Context) {
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			e.SyncOnce(ctx)
		case <-e.trigger:
			e.SyncOnce(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// SyncOnce performs one attempt. Failures are logged and reported, never
// returned.
func (e *Engine) SyncOnce(ctx context.Context) Report {
	if !e.syncing.CompareAndSwap(false, true) {
		return Report{Skipped: SkipBusy}
	}
	defer e.syncing.Store(false)

	rep := e.attempt(ctx)
	e.mu.Lock()
	e.last = rep
	e.mu.Unlock()
	return rep
}

func (e *Engine) attempt(ctx context.Context) Report {
	e.mu.RLock()
	adapter, authenticated := e.adapter, e.authenticated
	e.mu.RUnlock()

	if adapter == nil {
		return Report{Skipped: SkipNoAdapter}
	}
	rep := Report{Adapter: adapter.Name()}
	if !e.online() {
		rep.Skipped = SkipOffline
		return rep
	}

	batch, err := e.outbox.GetOutbox(ctx)
	if err != nil {
		e.logger.Warn(ctx, "reading outbox failed", "err", err)
		rep.Err = err
		return rep
	}
	if len(batch) == 0 {
		rep.Skipped = SkipEmpty
		return rep
	}

	callCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	if !authenticated {
		ok, err := adapter.Authenticate(callCtx)
		if err != nil {
			e.logger.Warn(ctx, "adapter authentication failed", "adapter", rep.Adapter, "err", err)
			rep.Err = err
			return rep
		}
		if !ok {
			rep.Skipped = SkipUnauthenticated
			return rep
		}
		e.mu.Lock()
		if e.adapter == adapter {
			e.authenticated = true
		}
		e.mu.Unlock()
	}

	e.logger.Info(ctx, "syncing outbox", "adapter", rep.Adapter, "events", len(batch))
	rep.Sent = len(batch)

	res, err := adapter.SendBatch(callCtx, batch)
	if err != nil {
		e.logger.Warn(ctx, "sync batch failed, entries stay pending", "adapter", rep.Adapter, "events", len(batch), "err", err)
		rep.Err = err
		return rep
	}

	ok, ignored := confirmed(batch, res)
	if len(ignored) > 0 {
		e.logger.Warn(ctx, "ignoring unexpected ids in batch result", "adapter", rep.Adapter, "ids", ignored)
	}
	rep.Ignored = ignored
	rep.Failed = len(batch) - len(ok)

	if len(ok) > 0 {
		n, err := e.outbox.MarkSynced(ctx, ok)
		if err != nil {
			e.logger.Warn(ctx, "marking events synced failed, they will be resent", "err", err)
			rep.Err = err
			rep.Failed = len(batch)
			return rep
		}
		rep.Synced = n
	}

	e.logger.Info(ctx, "sync finished", "adapter", rep.Adapter, "synced", rep.Synced, "pending", rep.Failed)
	return rep
}
