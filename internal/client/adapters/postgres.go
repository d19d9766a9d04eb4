package adapters

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/dmitrijs2005/devcms/internal/client/adapters/pgmigrations"
	"github.com/dmitrijs2005/devcms/internal/client/models"
	"github.com/dmitrijs2005/devcms/internal/client/syncengine"
	"github.com/dmitrijs2005/devcms/internal/dbx"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

const insertEventSQL = `INSERT INTO devcms_events
    (event_id, aggregate_id, aggregate_type, event_type, payload, version, occurred_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (event_id) DO NOTHING`

// PostgresAdapter writes batches straight into a remote PostgreSQL events
// table. The whole batch commits or none of it does; event ids already
// present are accepted as delivered.
type PostgresAdapter struct {
	db *sql.DB
}

func NewPostgresAdapter(db *sql.DB) *PostgresAdapter {
	return &PostgresAdapter{db: db}
}

// OpenPostgres opens dsn with the pgx driver and applies the events table
// migrations.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresAdapter, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}
	if err := migratePostgres(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("remote events migrations: %w", err)
	}
	return NewPostgresAdapter(db), nil
}

// migratePostgres is a seam for tests.
var migratePostgres = func(ctx context.Context, db *sql.DB) error {
	p, err := goose.NewProvider(goose.DialectPostgres, db, pgmigrations.Migrations)
	if err != nil {
		return err
	}
	_, err = p.Up(ctx)
	return err
}

func (a *PostgresAdapter) Close() error {
	return a.db.Close()
}

func (a *PostgresAdapter) Name() string { return "PostgreSQL" }

func (a *PostgresAdapter) Authenticate(ctx context.Context) (bool, error) {
	if err := a.db.PingContext(ctx); err != nil {
		return false, err
	}
	return true, nil
}

func (a *PostgresAdapter) SendBatch(ctx context.Context, events []models.Event) (syncengine.BatchResult, error) {
	err := dbx.WithTx(ctx, a.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		for _, e := range events {
			payload, err := json.Marshal(e.Payload)
			if err != nil {
				return fmt.Errorf("encode payload of %s: %w", e.EventID, err)
			}
			if _, err := tx.ExecContext(ctx, insertEventSQL,
				e.EventID, e.AggregateID, e.AggregateType, e.EventType, payload, e.Version, e.Time()); err != nil {
				return fmt.Errorf("insert %s: %w", e.EventID, err)
			}
		}
		return nil
	})
	if err != nil {
		return syncengine.BatchResult{}, err
	}
	return syncengine.BatchResult{Success: syncengine.EventIDs(events)}, nil
}
