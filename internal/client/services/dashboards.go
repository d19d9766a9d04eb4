package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/devcms/internal/client/localdb"
	"github.com/dmitrijs2005/devcms/internal/client/models"
	"github.com/dmitrijs2005/devcms/internal/client/repositories/dashboards"
	"github.com/dmitrijs2005/devcms/internal/common"
	"github.com/google/uuid"
)

// Grid defaults.
const (
	GridCols       = 22
	TitleWidgetID  = "header-1"
	defaultWidgetW = 6
	defaultWidgetH = 2
)

// DashboardService edits per-slug widget layouts. A slug with no saved
// layout shows a single title widget.
type DashboardService interface {
	Get(ctx context.Context, slug string) (*models.Dashboard, error)
	List(ctx context.Context) ([]models.Dashboard, error)
	AddWidget(ctx context.Context, slug string, w models.Widget) (*models.Widget, error)
	UpdateWidget(ctx context.Context, slug string, w models.Widget) error
	RemoveWidget(ctx context.Context, slug, widgetID string) error
	ReorderWidgets(ctx context.Context, slug string, ids []string) (*models.Dashboard, error)
	Reset(ctx context.Context, slug string) error
}

type dashboardService struct {
	store Store
	now   func() time.Time
	newID func() string
}

func NewDashboardService(store Store) DashboardService {
	return &dashboardService{store: store, now: time.Now, newID: uuid.NewString}
}

// DefaultDashboard is the layout shown for a slug that was never saved.
func DefaultDashboard(slug string) models.Dashboard {
	return models.Dashboard{
		ID: slug,
		Widgets: []models.Widget{{
			ID:    TitleWidgetID,
			Type:  models.WidgetTitle,
			Title: strings.ToUpper(strings.Replace(slug, "-", " ", 1)) + " DASHBOARD",
			Cols:  GridCols,
			Rows:  1,
		}},
	}
}

func (s *dashboardService) repo(tx *localdb.Tx) dashboards.Repository {
	return dashboards.NewLocalRepository(tx)
}

func (s *dashboardService) load(ctx context.Context, r dashboards.Repository, slug string) (models.Dashboard, error) {
	d, err := r.Get(ctx, slug)
	if errors.Is(err, common.ErrorNotFound) {
		return DefaultDashboard(slug), nil
	}
	if err != nil {
		return models.Dashboard{}, err
	}
	if len(d.Widgets) == 0 {
		return DefaultDashboard(slug), nil
	}
	return *d, nil
}

func (s *dashboardService) Get(ctx context.Context, slug string) (*models.Dashboard, error) {
	var d models.Dashboard
	err := s.store.View(ctx, func(ctx context.Context, tx *localdb.Tx) error {
		var err error
		d, err = s.load(ctx, s.repo(tx), slug)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (s *dashboardService) List(ctx context.Context) ([]models.Dashboard, error) {
	var out []models.Dashboard
	err := s.store.View(ctx, func(ctx context.Context, tx *localdb.Tx) error {
		var err error
		out, err = s.repo(tx).List(ctx)
		return err
	})
	return out, err
}

// modify loads the layout for slug, applies fn and saves the result.
func (s *dashboardService) modify(ctx context.Context, slug string, fn func(d *models.Dashboard) error) (models.Dashboard, error) {
	var d models.Dashboard
	err := s.store.Update(ctx, func(ctx context.Context, tx *localdb.Tx) error {
		r := s.repo(tx)
		var err error
		if d, err = s.load(ctx, r, slug); err != nil {
			return err
		}
		if err := fn(&d); err != nil {
			return err
		}
		d.UpdatedAt = models.FormatTimestamp(s.now())
		return r.Save(ctx, d)
	})
	return d, err
}

// AddWidget places w below the lowest widget at x=0. Zero sizes get
// defaults; the id is assigned.
func (s *dashboardService) AddWidget(ctx context.Context, slug string, w models.Widget) (*models.Widget, error) {
	if w.Type == "" {
		return nil, fmt.Errorf("widget type is required")
	}
	_, err := s.modify(ctx, slug, func(d *models.Dashboard) error {
		maxY, order := 0, 0
		for _, cur := range d.Widgets {
			maxY = max(maxY, cur.Y+max(cur.Rows, 1))
			order = max(order, cur.Order+1)
		}
		w.ID = s.newID()
		w.X, w.Y, w.Order = 0, maxY, order
		if w.Cols <= 0 {
			w.Cols = defaultWidgetW
		}
		if w.Rows <= 0 {
			w.Rows = defaultWidgetH
		}
		if w.Title == "" {
			w.Title = defaultWidgetTitle(w.Type)
		}
		w.Locked = false
		d.Widgets = append(d.Widgets, w)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func defaultWidgetTitle(t models.WidgetType) string {
	if t == models.WidgetTitle {
		return "New Title"
	}
	s := string(t)
	return "New " + strings.ToUpper(s[:1]) + s[1:]
}

func (s *dashboardService) UpdateWidget(ctx context.Context, slug string, w models.Widget) error {
	_, err := s.modify(ctx, slug, func(d *models.Dashboard) error {
		for i := range d.Widgets {
			if d.Widgets[i].ID == w.ID {
				d.Widgets[i] = w
				return nil
			}
		}
		return common.ErrorNotFound
	})
	return err
}

func (s *dashboardService) RemoveWidget(ctx context.Context, slug, widgetID string) error {
	_, err := s.modify(ctx, slug, func(d *models.Dashboard) error {
		for i := range d.Widgets {
			if d.Widgets[i].ID == widgetID {
				d.Widgets = append(d.Widgets[:i], d.Widgets[i+1:]...)
				return nil
			}
		}
		return common.ErrorNotFound
	})
	return err
}

func (s *dashboardService) ReorderWidgets(ctx context.Context, slug string, ids []string) (*models.Dashboard, error) {
	d, err := s.modify(ctx, slug, func(d *models.Dashboard) error {
		d.Widgets = reorder(d.Widgets, ids, func(w models.Widget) string { return w.ID })
		for i := range d.Widgets {
			d.Widgets[i].Order = i
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (s *dashboardService) Reset(ctx context.Context, slug string) error {
	return s.store.Update(ctx, func(ctx context.Context, tx *localdb.Tx) error {
		_, err := s.repo(tx).Delete(ctx, slug)
		return err
	})
}
