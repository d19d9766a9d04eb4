package localdb

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dmitrijs2005/devcms/internal/client/localdb/migrations"
	"github.com/dmitrijs2005/devcms/internal/client/models"
	"github.com/dmitrijs2005/devcms/internal/dbx"
	"github.com/dmitrijs2005/devcms/internal/logging"
	"github.com/pressly/goose/v3"
	"golang.org/x/sync/singleflight"

	_ "modernc.org/sqlite"
)

const (
	DefaultProbeTimeout = time.Second
	DefaultBusyTimeout  = 5 * time.Second
)

// Engine owns the local database handle. Create one per process with New.
type Engine struct {
	path         string
	logger       logging.Logger
	probeTimeout time.Duration
	busyTimeout  time.Duration
	now          func() time.Time

	group singleflight.Group
	opens atomic.Int32

	mu      sync.RWMutex
	db      *sql.DB
	schema  map[string]models.TableMeta
	version int
	key     []byte
}

type Option func(*Engine)

// WithProbeTimeout bounds the schema probe performed on open.
func WithProbeTimeout(d time.Duration) Option {
	return func(e *Engine) { e.probeTimeout = d }
}

// WithBusyTimeout sets how long SQLite waits on a lock before reporting
// busy. Zero fails immediately.
func WithBusyTimeout(d time.Duration) Option {
	return func(e *Engine) { e.busyTimeout = d }
}

// WithEncryptionKey sets the AES key used by encrypted collections.
func WithEncryptionKey(key []byte) Option {
	return func(e *Engine) { e.key = key }
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New returns an unopened Engine for the database file at path.
func New(path string, logger logging.Logger, opts ...Option) *Engine {
	e := &Engine{
		path:         path,
		logger:       logger.With("component", "localdb"),
		probeTimeout: DefaultProbeTimeout,
		busyTimeout:  DefaultBusyTimeout,
		now:          time.Now,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

func (e *Engine) dsn() string {
	if strings.HasPrefix(e.path, "file:") {
		return e.path
	}
	return fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)",
		e.path, e.busyTimeout.Milliseconds())
}

// Open initializes the store if it is not open yet. Concurrent callers
// share a single in-flight initialization and its result.
func (e *Engine) Open(ctx context.Context) error {
	e.mu.RLock()
	open := e.db != nil
	e.mu.RUnlock()
	if open {
		return nil
	}

	_, err, _ := e.group.Do("open", func() (any, error) {
		e.mu.Lock()
		defer e.mu.Unlock()
		if e.db != nil {
			return nil, nil
		}
		return nil, e.openLocked(context.WithoutCancel(ctx), nil)
	})
	return err
}

// Close releases the handle. A later Open starts a fresh initialization.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closeLocked()
}

func (e *Engine) closeLocked() error {
	if e.db == nil {
		return nil
	}
	err := e.db.Close()
	e.db = nil
	e.schema = nil
	return err
}

// reopen closes the current handle and opens again, resolving the declared
// schema and dropping the named tables. It waits for in-flight View/Update.
func (e *Engine) reopen(ctx context.Context, drop []string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.closeLocked(); err != nil {
		e.logger.Warn(ctx, "closing handle before reopen", "err", err)
	}
	return e.openLocked(ctx, drop)
}

func (e *Engine) openLocked(ctx context.Context, drop []string) (err error) {
	e.opens.Add(1)

	db, err := sql.Open("sqlite", e.dsn())
	if err != nil {
		return fmt.Errorf("open %s: %w", e.path, err)
	}
	db.SetMaxOpenConns(1)

	defer func() {
		if err != nil {
			_ = db.Close()
			if dbx.IsBusy(err) {
				e.logger.Warn(ctx, "local database blocked, retry later", "path", e.path, "err", err)
				err = fmt.Errorf("%w: %v", ErrBlocked, err)
			}
		}
	}()

	baseline, err := runMigrations(ctx, db)
	if err != nil {
		return fmt.Errorf("bootstrap migrations: %w", err)
	}

	probed := e.probe(ctx, db)
	schema := declaredSchema(probed.meta)
	create := missingCollections(schema, probed.tables)
	drop = dropSet(drop, schema)

	version := probed.version
	if len(create) > 0 || len(drop) > 0 {
		version, err = e.upgrade(ctx, db, max(probed.version, int(baseline)), create, drop)
		if err != nil {
			return fmt.Errorf("schema upgrade: %w", err)
		}
		e.logger.Info(ctx, "local schema upgraded", "version", version,
			"created", len(create), "dropped", len(drop), "degraded_probe", !probed.complete)
	}

	if err := dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return seed(ctx, &Tx{q: tx, schema: schema, key: e.key, logger: e.logger}, e.now())
	}); err != nil {
		return fmt.Errorf("seed: %w", err)
	}

	e.db, e.schema, e.version = db, schema, version
	return nil
}

// dropSet keeps only names that are no longer declared; a declared or system
// collection is never dropped.
func dropSet(names []string, schema map[string]models.TableMeta) []string {
	var out []string
	for _, n := range names {
		if _, declared := schema[n]; declared || isReserved(n) {
			continue
		}
		out = append(out, n)
	}
	return out
}

// runMigrations applies the embedded bootstrap migrations and returns the
// resulting goose version, used as the floor for schema upgrades.
func runMigrations(ctx context.Context, db *sql.DB) (int64, error) {
	p, err := goose.NewProvider(goose.DialectSQLite3, db, migrations.Migrations)
	if err != nil {
		return 0, err
	}
	if _, err := p.Up(ctx); err != nil {
		return 0, err
	}
	return p.GetDBVersion(ctx)
}

// View runs fn against the current handle without a transaction.
func (e *Engine) View(ctx context.Context, fn func(ctx context.Context, tx *Tx) error) error {
	return e.run(ctx, false, fn)
}

// Update runs fn inside a transaction; it commits when fn returns nil.
func (e *Engine) Update(ctx context.Context, fn func(ctx context.Context, tx *Tx) error) error {
	return e.run(ctx, true, fn)
}

func (e *Engine) run(ctx context.Context, write bool, fn func(ctx context.Context, tx *Tx) error) error {
	for {
		e.mu.RLock()
		if e.db != nil {
			break
		}
		e.mu.RUnlock()
		if err := e.Open(ctx); err != nil {
			return err
		}
	}
	defer e.mu.RUnlock()

	db, schema, key := e.db, e.schema, e.key
	var err error
	if write {
		err = dbx.WithTx(ctx, db, nil, func(ctx context.Context, q dbx.DBTX) error {
			return fn(ctx, &Tx{q: q, schema: schema, key: key, logger: e.logger})
		})
	} else {
		err = fn(ctx, &Tx{q: db, schema: schema, key: key, logger: e.logger})
	}
	if dbx.IsBusy(err) {
		return fmt.Errorf("%w: %v", ErrBlocked, err)
	}
	return err
}

// SetEncryptionKey installs the key for encrypted collections, e.g. after
// the user has logged in.
func (e *Engine) SetEncryptionKey(key []byte) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.key = key
}

// Version is the on-disk schema version observed at the last open.
func (e *Engine) Version() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.version
}

// Path is the configured database location.
func (e *Engine) Path() string {
	return e.path
}

// History returns the applied schema upgrades, oldest first.
func (e *Engine) History(ctx context.Context) ([]SchemaChange, error) {
	var out []SchemaChange
	err := e.View(ctx, func(ctx context.Context, tx *Tx) error {
		rows, err := tx.q.QueryContext(ctx,
			`SELECT version, created, dropped, applied_at FROM schema_history ORDER BY rowid`)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var (
				c                         SchemaChange
				created, dropped, applied string
			)
			if err := rows.Scan(&c.Version, &created, &dropped, &applied); err != nil {
				return err
			}
			c.Created = splitList(created)
			c.Dropped = splitList(dropped)
			c.AppliedAt, _ = models.ParseTimestamp(applied)
			out = append(out, c)
		}
		return rows.Err()
	})
	return out, err
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}
