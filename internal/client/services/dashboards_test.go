package services

import (
	"context"
	"testing"

	"github.com/dmitrijs2005/devcms/internal/client/models"
	"github.com/dmitrijs2005/devcms/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func widgetIDs(d *models.Dashboard) []string {
	out := make([]string, 0, len(d.Widgets))
	for _, w := range d.Widgets {
		out = append(out, w.ID)
	}
	return out
}

func TestDashboardService_DefaultLayout(t *testing.T) {
	svc := NewDashboardService(newStore(t))

	d, err := svc.Get(context.Background(), "sales-team")
	require.NoError(t, err)
	require.Len(t, d.Widgets, 1)
	w := d.Widgets[0]
	assert.Equal(t, TitleWidgetID, w.ID)
	assert.Equal(t, models.WidgetTitle, w.Type)
	assert.Equal(t, "SALES TEAM DASHBOARD", w.Title)
	assert.Equal(t, GridCols, w.Cols)

	list, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestDashboardService_Widgets(t *testing.T) {
	svc := NewDashboardService(newStore(t))
	ctx := context.Background()

	stats, err := svc.AddWidget(ctx, "main", models.Widget{Type: models.WidgetStats})
	require.NoError(t, err)
	assert.Equal(t, "New Stats", stats.Title)
	assert.Equal(t, 1, stats.Y)
	assert.Equal(t, 1, stats.Order)

	table, err := svc.AddWidget(ctx, "main", models.Widget{Type: models.WidgetTable, Title: "posts Table", Cols: 22, Rows: 4,
		Data: map[string]any{"tableName": "posts"}})
	require.NoError(t, err)
	assert.Equal(t, 1+defaultWidgetH, table.Y)

	d, err := svc.Get(ctx, "main")
	require.NoError(t, err)
	assert.Equal(t, []string{TitleWidgetID, stats.ID, table.ID}, widgetIDs(d))
	assert.Equal(t, "posts", d.Widgets[2].Data["tableName"])

	stats.Title = "KPIs"
	require.NoError(t, svc.UpdateWidget(ctx, "main", *stats))
	require.ErrorIs(t, svc.UpdateWidget(ctx, "main", models.Widget{ID: "nope"}), common.ErrorNotFound)

	d, err = svc.ReorderWidgets(ctx, "main", []string{table.ID, stats.ID})
	require.NoError(t, err)
	assert.Equal(t, []string{table.ID, stats.ID, TitleWidgetID}, widgetIDs(d))
	assert.Equal(t, 2, d.Widgets[2].Order)
	assert.Equal(t, "KPIs", d.Widgets[1].Title)

	require.NoError(t, svc.RemoveWidget(ctx, "main", stats.ID))
	require.ErrorIs(t, svc.RemoveWidget(ctx, "main", stats.ID), common.ErrorNotFound)

	d, err = svc.Get(ctx, "main")
	require.NoError(t, err)
	assert.Equal(t, []string{table.ID, TitleWidgetID}, widgetIDs(d))

	list, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, svc.Reset(ctx, "main"))
	d, err = svc.Get(ctx, "main")
	require.NoError(t, err)
	assert.Equal(t, []string{TitleWidgetID}, widgetIDs(d))
}

func TestDashboardService_AddWidgetRequiresType(t *testing.T) {
	_, err := NewDashboardService(newStore(t)).AddWidget(context.Background(), "main", models.Widget{})
	require.Error(t, err)
}
