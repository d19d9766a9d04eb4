package cli

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/devcms/internal/client/models"
	"github.com/dmitrijs2005/devcms/internal/client/services"
)

const defaultDashboard = "main"

func (a *App) Menus(ctx context.Context, _ []string) error {
	menus, err := a.menus.List(ctx)
	if err != nil {
		return err
	}
	a.printer.Menus(menus)
	return nil
}

func (a *App) Dashboard(ctx context.Context, args []string) error {
	slug := defaultDashboard
	if len(args) > 0 {
		slug = args[0]
	}
	d, err := a.dashboards.Get(ctx, slug)
	if err != nil {
		return err
	}
	a.printer.Dashboard(*d)
	return nil
}

// Widget handles "widget add <slug> <type> [title...]" and
// "widget rm <slug> <id>".
func (a *App) Widget(ctx context.Context, args []string) error {
	if len(args) < 3 {
		return usage("widget add <slug> <type> [title] | widget rm <slug> <id>")
	}
	switch args[0] {
	case "add":
		w := models.Widget{Type: models.WidgetType(args[2]), Title: strings.Join(args[3:], " ")}
		added, err := a.dashboards.AddWidget(ctx, args[1], w)
		if err != nil {
			return err
		}
		printlnFn("Added widget", added.ID, "at row", strconv.Itoa(added.Y))
	case "rm":
		if err := a.dashboards.RemoveWidget(ctx, args[1], args[2]); err != nil {
			return err
		}
		printlnFn("Removed widget", args[2])
	default:
		return usage("widget add|rm ...")
	}
	return nil
}

func (a *App) Stats(ctx context.Context, _ []string) error {
	s, err := a.stats.Get(ctx)
	if errors.Is(err, services.ErrLocalDataNotAvailable) {
		printlnFn("No stats available offline yet")
		return nil
	}
	if err != nil {
		return err
	}
	a.printer.Stats(*s)
	return nil
}

func (a *App) Tables(ctx context.Context, _ []string) error {
	tables, err := a.tables.List(ctx)
	if err != nil {
		return err
	}
	a.printer.Tables(tables)
	return nil
}

func (a *App) Rows(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return usage("rows <table> [limit]")
	}
	limit := 50
	if len(args) > 1 {
		n, err := strconv.Atoi(args[1])
		if err != nil {
			return usage("rows <table> [limit]")
		}
		limit = n
	}
	docs, err := a.tables.Rows(ctx, args[0], limit)
	if err != nil {
		return err
	}
	a.printer.Rows(args[0], docs)
	return nil
}

func (a *App) Sync(ctx context.Context, _ []string) error {
	a.printer.SyncReport(a.syncer.SyncOnce(ctx))
	return nil
}
