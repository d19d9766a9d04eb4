package localdb

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/dmitrijs2005/devcms/internal/client/models"
)

// CreateTable declares a new collection and re-opens the store so that it is
// materialized before returning. Defining an existing table is an error.
func (e *Engine) CreateTable(ctx context.Context, m models.TableMeta) error {
	if err := ValidateTableMeta(m); err != nil {
		return err
	}
	if m.CreatedAt == "" {
		m.CreatedAt = models.FormatTimestamp(e.now())
	}

	err := e.Update(ctx, func(ctx context.Context, tx *Tx) error {
		meta, err := tx.Collection(Meta)
		if err != nil {
			return err
		}
		var existing models.TableMeta
		err = meta.Get(ctx, m.Name, &existing)
		switch {
		case err == nil:
			return fmt.Errorf("%w: %s", ErrTableExists, m.Name)
		case !errors.Is(err, ErrNotFound):
			return err
		}
		_, err = meta.Put(ctx, m)
		return err
	})
	if err != nil {
		return err
	}

	e.logger.Info(ctx, "table declared", "name", m.Name, "indices", len(m.Indices), "encrypted", m.IsEncrypted)
	return e.reopen(ctx, nil)
}

// DeleteTable removes a user table definition and drops the physical
// collection with all its documents. System collections cannot be deleted.
func (e *Engine) DeleteTable(ctx context.Context, name string) error {
	if !tableNameRe.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidTableName, name)
	}
	if isReserved(name) {
		return fmt.Errorf("%w: %q", ErrReservedTable, name)
	}

	var known bool
	err := e.Update(ctx, func(ctx context.Context, tx *Tx) error {
		meta, err := tx.Collection(Meta)
		if err != nil {
			return err
		}
		_, known = tx.schema[name]
		_, err = meta.Delete(ctx, name)
		return err
	})
	if err != nil {
		return err
	}
	if !known {
		return fmt.Errorf("%w: %s", ErrUnknownCollection, name)
	}

	e.logger.Info(ctx, "table deleted", "name", name)
	return e.reopen(ctx, []string{name})
}

// Tables lists every declared collection with its row count, system
// collections first.
func (e *Engine) Tables(ctx context.Context) ([]models.TableInfo, error) {
	var out []models.TableInfo
	err := e.View(ctx, func(ctx context.Context, tx *Tx) error {
		for _, m := range tx.Tables() {
			c, err := tx.Collection(m.Name)
			if err != nil {
				return err
			}
			n, err := c.Count(ctx)
			if err != nil {
				return err
			}
			out = append(out, models.TableInfo{TableMeta: m, System: IsSystem(m.Name), Rows: n})
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].System != out[j].System {
			return out[i].System
		}
		return out[i].Name < out[j].Name
	})
	return out, err
}
