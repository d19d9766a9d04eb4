package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dmitrijs2005/devcms/internal/client/localdb"
	"github.com/dmitrijs2005/devcms/internal/client/models"
)

// TableManager is the dynamic schema surface of the local store;
// *localdb.Engine satisfies it.
type TableManager interface {
	Store
	CreateTable(ctx context.Context, m models.TableMeta) error
	DeleteTable(ctx context.Context, name string) error
	Tables(ctx context.Context) ([]models.TableInfo, error)
}

// TableService manages user-declared collections and their rows.
type TableService interface {
	List(ctx context.Context) ([]models.TableInfo, error)
	Create(ctx context.Context, m models.TableMeta) error
	Delete(ctx context.Context, name string) error
	Rows(ctx context.Context, name string, limit int) ([]localdb.Doc, error)
	// Put stores a JSON document and returns its key. key is used only by
	// tables without a key path.
	Put(ctx context.Context, name, key string, doc json.RawMessage) (string, error)
	Get(ctx context.Context, name, key string) (json.RawMessage, error)
	DeleteRow(ctx context.Context, name, key string) (bool, error)
}

type tableService struct {
	tm TableManager
}

func NewTableService(tm TableManager) TableService {
	return &tableService{tm: tm}
}

func (s *tableService) List(ctx context.Context) ([]models.TableInfo, error) {
	return s.tm.Tables(ctx)
}

func (s *tableService) Create(ctx context.Context, m models.TableMeta) error {
	return s.tm.CreateTable(ctx, m)
}

func (s *tableService) Delete(ctx context.Context, name string) error {
	return s.tm.DeleteTable(ctx, name)
}

func (s *tableService) Rows(ctx context.Context, name string, limit int) ([]localdb.Doc, error) {
	var out []localdb.Doc
	err := s.tm.View(ctx, func(ctx context.Context, tx *localdb.Tx) error {
		c, err := tx.Collection(name)
		if err != nil {
			return err
		}
		out, err = c.Find(ctx, localdb.Query{Limit: limit})
		return err
	})
	return out, err
}

func (s *tableService) Put(ctx context.Context, name, key string, doc json.RawMessage) (string, error) {
	if !json.Valid(doc) {
		return "", fmt.Errorf("%s: document is not valid JSON", name)
	}
	err := s.tm.Update(ctx, func(ctx context.Context, tx *localdb.Tx) error {
		c, err := tx.Collection(name)
		if err != nil {
			return err
		}
		if c.Meta().KeyPath == "" {
			return c.PutKey(ctx, key, doc)
		}
		key, err = c.Put(ctx, doc)
		return err
	})
	if err != nil {
		return "", err
	}
	return key, nil
}

func (s *tableService) Get(ctx context.Context, name, key string) (json.RawMessage, error) {
	var out json.RawMessage
	err := s.tm.View(ctx, func(ctx context.Context, tx *localdb.Tx) error {
		c, err := tx.Collection(name)
		if err != nil {
			return err
		}
		return c.Get(ctx, key, &out)
	})
	return out, err
}

func (s *tableService) DeleteRow(ctx context.Context, name, key string) (bool, error) {
	var ok bool
	err := s.tm.Update(ctx, func(ctx context.Context, tx *localdb.Tx) error {
		c, err := tx.Collection(name)
		if err != nil {
			return err
		}
		ok, err = c.Delete(ctx, key)
		return err
	})
	return ok, err
}
