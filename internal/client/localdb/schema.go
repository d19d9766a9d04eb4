package localdb

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/dmitrijs2005/devcms/internal/client/models"
	"github.com/dmitrijs2005/devcms/internal/dbx"
	"github.com/samber/lo"
)

// System collection names.
const (
	Events     = "events"
	Outbox     = "outbox"
	Auth       = "auth"
	Stats      = "stats"
	Menus      = "menus"
	Dashboards = "dashboards"
	SuperAdmin = "superadmin"
	Meta       = "_meta"
)

var systemCollections = []models.TableMeta{
	{Name: Events, KeyPath: "eventId", Indices: []string{"aggregateType,aggregateId", "timestamp"}},
	{Name: Outbox, KeyPath: "eventId", Indices: []string{"synced"}},
	{Name: Auth},
	{Name: Stats},
	{Name: Menus, KeyPath: "id", Indices: []string{"order"}},
	{Name: Dashboards, KeyPath: "id"},
	{Name: SuperAdmin, KeyPath: "id", Indices: []string{"email"}},
	{Name: Meta, KeyPath: "name"},
}

// Tables owned by the engine itself that are not collections.
var internalTables = []string{"schema_history", "goose_db_version"}

var (
	tableNameRe = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]{0,62}$`)
	fieldPathRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)*$`)
)

// IsSystem reports whether name is a built-in collection.
func IsSystem(name string) bool {
	return lo.ContainsBy(systemCollections, func(m models.TableMeta) bool { return m.Name == name })
}

func isReserved(name string) bool {
	lower := strings.ToLower(name)
	if strings.HasPrefix(lower, "sqlite_") || lo.Contains(internalTables, lower) {
		return true
	}
	return lo.ContainsBy(systemCollections, func(m models.TableMeta) bool { return strings.EqualFold(m.Name, name) })
}

// ValidateTableMeta checks a user table definition before it is persisted.
func ValidateTableMeta(m models.TableMeta) error {
	if !tableNameRe.MatchString(m.Name) {
		return fmt.Errorf("%w: %q", ErrInvalidTableName, m.Name)
	}
	if isReserved(m.Name) {
		return fmt.Errorf("%w: %q", ErrReservedTable, m.Name)
	}
	if m.KeyPath != "" && !fieldPathRe.MatchString(m.KeyPath) {
		return fmt.Errorf("%w: key path %q", ErrInvalidTableMeta, m.KeyPath)
	}
	if m.IsEncrypted && len(m.Indices) > 0 {
		return fmt.Errorf("%w: encrypted tables cannot be indexed", ErrInvalidTableMeta)
	}
	for _, idx := range m.Indices {
		if _, err := indexFields(idx); err != nil {
			return err
		}
	}
	return nil
}

// indexFields splits a compound index spec such as "aggregateType,aggregateId".
func indexFields(spec string) ([]string, error) {
	fields := lo.Map(strings.Split(spec, ","), func(s string, _ int) string { return strings.TrimSpace(s) })
	for _, f := range fields {
		if !fieldPathRe.MatchString(f) {
			return nil, fmt.Errorf("%w: index field %q", ErrInvalidTableMeta, f)
		}
	}
	return fields, nil
}

func jsonPath(field string) string {
	return fmt.Sprintf("json_extract(doc, '$.%s')", field)
}

func indexName(table string, fields []string) string {
	return "idx_" + table + "_" + strings.ReplaceAll(strings.Join(fields, "_"), ".", "_")
}

// createCollection materializes m. Both statements are IF NOT EXISTS so an
// existing collection and its data are left untouched.
func createCollection(ctx context.Context, q dbx.DBTX, m models.TableMeta) error {
	table := dbx.QuoteIdent(m.Name)
	stmt := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (key TEXT PRIMARY KEY NOT NULL, doc TEXT NOT NULL)`, table)
	if _, err := q.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("create %s: %w", m.Name, err)
	}
	for _, spec := range m.Indices {
		fields, err := indexFields(spec)
		if err != nil {
			return err
		}
		exprs := lo.Map(fields, func(f string, _ int) string { return jsonPath(f) })
		stmt := fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s (%s)`,
			dbx.QuoteIdent(indexName(m.Name, fields)), table, strings.Join(exprs, ", "))
		if _, err := q.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("index %s(%s): %w", m.Name, spec, err)
		}
	}
	return nil
}

// probeResult is the best-known on-disk state. complete is false when the
// probe timed out or failed and the engine is working from a degraded view.
type probeResult struct {
	version  int
	tables   []string
	meta     []models.TableMeta
	complete bool
}

func (e *Engine) probe(ctx context.Context, db *sql.DB) probeResult {
	ctx, cancel := context.WithTimeout(ctx, e.probeTimeout)
	defer cancel()

	var res probeResult
	if err := db.QueryRowContext(ctx, `PRAGMA user_version`).Scan(&res.version); err != nil {
		e.logger.Warn(ctx, "schema probe failed, continuing with empty state", "err", err)
		return probeResult{}
	}

	tables, err := listTables(ctx, db)
	if err != nil {
		e.logger.Warn(ctx, "collection probe failed, continuing with partial state", "err", err)
		return probeResult{version: res.version}
	}
	res.tables = tables

	meta, err := e.loadMeta(ctx, db)
	if err != nil {
		e.logger.Warn(ctx, "table metadata probe failed, continuing without dynamic tables", "err", err)
		return res
	}
	res.meta = meta
	res.complete = true
	return res
}

func listTables(ctx context.Context, q dbx.DBTX) ([]string, error) {
	rows, err := q.QueryContext(ctx, `SELECT name FROM sqlite_master WHERE type = 'table'`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		names = append(names, n)
	}
	return names, rows.Err()
}

// loadMeta reads table definitions. Rows that fail to decode or validate
// are skipped with a warning.
func (e *Engine) loadMeta(ctx context.Context, q dbx.DBTX) ([]models.TableMeta, error) {
	rows, err := q.QueryContext(ctx, `SELECT key, doc FROM _meta`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.TableMeta
	for rows.Next() {
		var key, doc string
		if err := rows.Scan(&key, &doc); err != nil {
			return nil, err
		}
		var m models.TableMeta
		if err := json.Unmarshal([]byte(doc), &m); err != nil {
			e.logger.Warn(ctx, "skipping malformed table metadata", "key", key, "err", err)
			continue
		}
		if err := ValidateTableMeta(m); err != nil {
			e.logger.Warn(ctx, "skipping invalid table metadata", "key", key, "err", err)
			continue
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// declaredSchema is system collections ∪ metadata-declared collections.
func declaredSchema(meta []models.TableMeta) map[string]models.TableMeta {
	out := make(map[string]models.TableMeta, len(systemCollections)+len(meta))
	for _, m := range meta {
		out[m.Name] = m
	}
	for _, m := range systemCollections {
		out[m.Name] = m
	}
	return out
}

func missingCollections(schema map[string]models.TableMeta, existing []string) []models.TableMeta {
	names := lo.Without(lo.Keys(schema), existing...)
	sort.Strings(names)
	return lo.Map(names, func(n string, _ int) models.TableMeta { return schema[n] })
}

// upgrade creates missing collections and drops the named ones in a single
// transaction, at a version strictly above everything seen so far.
func (e *Engine) upgrade(ctx context.Context, db *sql.DB, floor int, create []models.TableMeta, drop []string) (int, error) {
	var next int
	err := dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var current int
		if err := tx.QueryRowContext(ctx, `PRAGMA user_version`).Scan(&current); err != nil {
			return fmt.Errorf("read user_version: %w", err)
		}
		next = max(current, floor) + 1

		for _, m := range create {
			if err := createCollection(ctx, tx, m); err != nil {
				return err
			}
		}
		for _, name := range drop {
			if _, err := tx.ExecContext(ctx, `DROP TABLE IF EXISTS `+dbx.QuoteIdent(name)); err != nil {
				return fmt.Errorf("drop %s: %w", name, err)
			}
		}
		if _, err := tx.ExecContext(ctx, fmt.Sprintf(`PRAGMA user_version = %d`, next)); err != nil {
			return fmt.Errorf("set user_version: %w", err)
		}
		created := lo.Map(create, func(m models.TableMeta, _ int) string { return m.Name })
		_, err := tx.ExecContext(ctx,
			`INSERT INTO schema_history (version, created, dropped, applied_at) VALUES (?, ?, ?, ?)`,
			next, strings.Join(created, ","), strings.Join(drop, ","), models.FormatTimestamp(e.now()))
		return err
	})
	if err != nil {
		return 0, err
	}
	return next, nil
}

// SchemaChange is one row of schema_history.
type SchemaChange struct {
	Version   int
	Created   []string
	Dropped   []string
	AppliedAt time.Time
}
