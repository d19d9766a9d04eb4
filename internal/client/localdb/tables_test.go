package localdb

import (
	"context"
	"testing"

	"github.com/dmitrijs2005/devcms/internal/client/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateTable_UpgradePreservesExistingData(t *testing.T) {
	e, path := newEngine(t)
	ctx := context.Background()

	require.NoError(t, e.Update(ctx, func(ctx context.Context, tx *Tx) error {
		c, err := tx.Collection(Menus)
		if err != nil {
			return err
		}
		_, err = c.Put(ctx, models.Menu{ID: "footer", Name: "Footer", Order: 1})
		return err
	}))
	before := e.Version()

	require.NoError(t, e.CreateTable(ctx, models.TableMeta{
		Name:    "products",
		KeyPath: "sku",
		Indices: []string{"category", "category,price"},
	}))

	assert.True(t, tableExists(t, path, "products"))
	assert.Equal(t, before+1, e.Version())

	var footer models.Menu
	require.NoError(t, e.View(ctx, func(ctx context.Context, tx *Tx) error {
		c, err := tx.Collection(Menus)
		if err != nil {
			return err
		}
		return c.Get(ctx, "footer", &footer)
	}))
	assert.Equal(t, "Footer", footer.Name)
	assert.Equal(t, 2, countDocs(t, e, Menus))

	var idx int
	require.NoError(t, openRaw(t, path).QueryRow(
		`SELECT COUNT(*) FROM sqlite_master WHERE type='index' AND tbl_name='products' AND sql IS NOT NULL`).Scan(&idx))
	assert.Equal(t, 2, idx)
}

func TestCreateTable_PersistsAcrossReopen(t *testing.T) {
	e, path := newEngine(t)
	ctx := context.Background()
	require.NoError(t, e.CreateTable(ctx, models.TableMeta{Name: "notes", KeyPath: "id"}))
	require.NoError(t, e.Close())

	e2 := New(path, e.logger)
	t.Cleanup(func() { _ = e2.Close() })
	tables, err := e2.Tables(ctx)
	require.NoError(t, err)

	var names []string
	for _, ti := range tables {
		names = append(names, ti.Name)
		if ti.Name == "notes" {
			assert.False(t, ti.System)
			assert.NotEmpty(t, ti.CreatedAt)
		}
	}
	assert.Contains(t, names, "notes")
	assert.Equal(t, "notes", names[len(names)-1], "user tables are listed after system ones")
}

func TestCreateTable_Validation(t *testing.T) {
	e, _ := newEngine(t)
	ctx := context.Background()

	tests := []struct {
		name string
		meta models.TableMeta
		want error
	}{
		{name: "empty", meta: models.TableMeta{}, want: ErrInvalidTableName},
		{name: "sql injection", meta: models.TableMeta{Name: `x"; DROP TABLE events; --`}, want: ErrInvalidTableName},
		{name: "leading underscore", meta: models.TableMeta{Name: "_private"}, want: ErrInvalidTableName},
		{name: "system", meta: models.TableMeta{Name: "Events"}, want: ErrReservedTable},
		{name: "internal", meta: models.TableMeta{Name: "schema_history"}, want: ErrReservedTable},
		{name: "sqlite", meta: models.TableMeta{Name: "sqlite_stat1"}, want: ErrReservedTable},
		{name: "bad key path", meta: models.TableMeta{Name: "t1", KeyPath: "a..b"}, want: ErrInvalidTableMeta},
		{name: "bad index", meta: models.TableMeta{Name: "t2", Indices: []string{"ok,'bad'"}}, want: ErrInvalidTableMeta},
		{name: "encrypted index", meta: models.TableMeta{Name: "t3", IsEncrypted: true, Indices: []string{"a"}}, want: ErrInvalidTableMeta},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.ErrorIs(t, e.CreateTable(ctx, tt.meta), tt.want)
		})
	}
}

func TestCreateTable_Duplicate(t *testing.T) {
	e, _ := newEngine(t)
	ctx := context.Background()
	require.NoError(t, e.CreateTable(ctx, models.TableMeta{Name: "notes", KeyPath: "id"}))

	require.ErrorIs(t, e.CreateTable(ctx, models.TableMeta{Name: "notes", KeyPath: "other"}), ErrTableExists)
}

func TestDeleteTable(t *testing.T) {
	e, path := newEngine(t)
	ctx := context.Background()
	require.NoError(t, e.CreateTable(ctx, models.TableMeta{Name: "drafts", KeyPath: "id"}))
	require.True(t, tableExists(t, path, "drafts"))
	v := e.Version()

	require.NoError(t, e.DeleteTable(ctx, "drafts"))
	assert.False(t, tableExists(t, path, "drafts"))
	assert.Equal(t, v+1, e.Version())

	require.ErrorIs(t, e.DeleteTable(ctx, "drafts"), ErrUnknownCollection)
	require.ErrorIs(t, e.DeleteTable(ctx, Events), ErrReservedTable)
	require.ErrorIs(t, e.DeleteTable(ctx, "bad name"), ErrInvalidTableName)

	assert.True(t, tableExists(t, path, Events))
}

func TestOpen_SkipsMalformedMetadata(t *testing.T) {
	e, path := newEngine(t)
	ctx := context.Background()
	require.NoError(t, e.CreateTable(ctx, models.TableMeta{Name: "good", KeyPath: "id"}))
	require.NoError(t, e.Close())

	raw := openRaw(t, path)
	_, err := raw.Exec(`INSERT INTO _meta (key, doc) VALUES ('broken', '{not json'), ('evil', '{"name":"x y"}')`)
	require.NoError(t, err)
	require.NoError(t, raw.Close())

	require.NoError(t, e.Open(ctx))
	tables, err := e.Tables(ctx)
	require.NoError(t, err)

	var names []string
	for _, ti := range tables {
		names = append(names, ti.Name)
	}
	assert.Contains(t, names, "good")
	assert.NotContains(t, names, "broken")
	assert.NotContains(t, names, "x y")
}
