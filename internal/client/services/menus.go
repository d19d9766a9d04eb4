package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/devcms/internal/client/localdb"
	"github.com/dmitrijs2005/devcms/internal/client/models"
	"github.com/dmitrijs2005/devcms/internal/client/repositories/menus"
	"github.com/dmitrijs2005/devcms/internal/common"
	"github.com/google/uuid"
)

var ErrInvalidMenu = errors.New("invalid menu")

// MenuService edits navigation menus. Writes are local only.
type MenuService interface {
	List(ctx context.Context) ([]models.Menu, error)
	Get(ctx context.Context, id string) (*models.Menu, error)
	Create(ctx context.Context, name string, items []models.MenuItem) (*models.Menu, error)
	Update(ctx context.Context, m models.Menu) (*models.Menu, error)
	Delete(ctx context.Context, id string) error
	// Reorder assigns Order by position in ids. Menus not named keep their
	// relative order after the named ones.
	Reorder(ctx context.Context, ids []string) ([]models.Menu, error)
}

type menuService struct {
	store Store
	now   func() time.Time
	newID func() string
}

func NewMenuService(store Store) MenuService {
	return &menuService{store: store, now: time.Now, newID: uuid.NewString}
}

func (s *menuService) repo(tx *localdb.Tx) menus.Repository {
	return menus.NewLocalRepository(tx)
}

func (s *menuService) List(ctx context.Context) ([]models.Menu, error) {
	var out []models.Menu
	err := s.store.View(ctx, func(ctx context.Context, tx *localdb.Tx) error {
		var err error
		out, err = s.repo(tx).List(ctx)
		return err
	})
	return out, err
}

func (s *menuService) Get(ctx context.Context, id string) (*models.Menu, error) {
	var out *models.Menu
	err := s.store.View(ctx, func(ctx context.Context, tx *localdb.Tx) error {
		var err error
		out, err = s.repo(tx).Get(ctx, id)
		return err
	})
	return out, err
}

func (s *menuService) Create(ctx context.Context, name string, items []models.MenuItem) (*models.Menu, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidMenu)
	}
	ts := models.FormatTimestamp(s.now())
	m := models.Menu{ID: s.newID(), Name: name, Items: s.withIDs(items), CreatedAt: ts, UpdatedAt: ts}
	if m.Items == nil {
		m.Items = []models.MenuItem{}
	}

	err := s.store.Update(ctx, func(ctx context.Context, tx *localdb.Tx) error {
		r := s.repo(tx)
		existing, err := r.List(ctx)
		if err != nil {
			return err
		}
		for _, e := range existing {
			m.Order = max(m.Order, e.Order+1)
		}
		return r.Save(ctx, m)
	})
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *menuService) Update(ctx context.Context, m models.Menu) (*models.Menu, error) {
	if m.ID == "" || m.Name == "" {
		return nil, fmt.Errorf("%w: id and name are required", ErrInvalidMenu)
	}
	err := s.store.Update(ctx, func(ctx context.Context, tx *localdb.Tx) error {
		r := s.repo(tx)
		cur, err := r.Get(ctx, m.ID)
		if err != nil {
			return err
		}
		m.CreatedAt = cur.CreatedAt
		m.UpdatedAt = models.FormatTimestamp(s.now())
		m.Items = s.withIDs(m.Items)
		return r.Save(ctx, m)
	})
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *menuService) Delete(ctx context.Context, id string) error {
	return s.store.Update(ctx, func(ctx context.Context, tx *localdb.Tx) error {
		ok, err := s.repo(tx).Delete(ctx, id)
		if err != nil {
			return err
		}
		if !ok {
			return common.ErrorNotFound
		}
		return nil
	})
}

func (s *menuService) Reorder(ctx context.Context, ids []string) ([]models.Menu, error) {
	var out []models.Menu
	err := s.store.Update(ctx, func(ctx context.Context, tx *localdb.Tx) error {
		r := s.repo(tx)
		all, err := r.List(ctx)
		if err != nil {
			return err
		}
		out = reorder(all, ids, func(m models.Menu) string { return m.ID })
		ts := models.FormatTimestamp(s.now())
		for i := range out {
			if out[i].Order == i {
				continue
			}
			out[i].Order = i
			out[i].UpdatedAt = ts
			if err := r.Save(ctx, out[i]); err != nil {
				return err
			}
		}
		return nil
	})
	return out, err
}

// withIDs fills missing item ids, recursively.
func (s *menuService) withIDs(items []models.MenuItem) []models.MenuItem {
	for i := range items {
		if items[i].ID == "" {
			items[i].ID = s.newID()
		}
		items[i].Children = s.withIDs(items[i].Children)
	}
	return items
}

// reorder puts the elements named by ids first, in that order, followed by
// the rest in their original order. Unknown ids are ignored.
func reorder[T any](all []T, ids []string, key func(T) string) []T {
	byID := make(map[string]int, len(all))
	for i, v := range all {
		byID[key(v)] = i
	}
	out := make([]T, 0, len(all))
	used := make(map[int]bool, len(all))
	for _, id := range ids {
		if i, ok := byID[id]; ok && !used[i] {
			out = append(out, all[i])
			used[i] = true
		}
	}
	for i, v := range all {
		if !used[i] {
			out = append(out, v)
		}
	}
	return out
}
