// Package export writes a JSON snapshot of the local auth, event and stats
// data to a file or an S3 bucket.
package export

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/dmitrijs2005/devcms/internal/client/localdb"
	"github.com/dmitrijs2005/devcms/internal/client/models"
	"github.com/dmitrijs2005/devcms/internal/client/repositories/kv"
	"github.com/dmitrijs2005/devcms/internal/filex"
	"github.com/dmitrijs2005/devcms/internal/logging"
)

// FormatVersion is written into every snapshot.
const FormatVersion = "1.1"

type Snapshot struct {
	Version    string          `json:"version"`
	ExportedAt string          `json:"exportedAt"`
	Auth       *models.Session `json:"auth"`
	Events     []models.Event  `json:"events"`
	Stats      *models.Stats   `json:"stats"`
}

type Store interface {
	View(ctx context.Context, fn func(ctx context.Context, tx *localdb.Tx) error) error
}

type EventReader interface {
	ReadAll(ctx context.Context) ([]models.Event, error)
}

// Uploader stores an encoded snapshot under key.
type Uploader interface {
	Upload(ctx context.Context, key string, body []byte) error
}

type Exporter struct {
	store  Store
	events EventReader
	logger logging.Logger
	now    func() time.Time
}

func New(store Store, events EventReader, logger logging.Logger) *Exporter {
	return &Exporter{store: store, events: events, logger: logger.With("component", "export"), now: time.Now}
}

// Snapshot collects the current local state. Missing session or stats are
// exported as null.
func (e *Exporter) Snapshot(ctx context.Context) (*Snapshot, error) {
	evs, err := e.events.ReadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("read events: %w", err)
	}
	if evs == nil {
		evs = []models.Event{}
	}
	snap := &Snapshot{
		Version:    FormatVersion,
		ExportedAt: models.FormatTimestamp(e.now()),
		Events:     evs,
	}

	err = e.store.View(ctx, func(ctx context.Context, tx *localdb.Tx) error {
		var sess models.Session
		found, err := kv.NewLocalRepository(tx, localdb.Auth).Get(ctx, kv.SessionKey, &sess)
		if err != nil {
			return err
		}
		if found {
			snap.Auth = &sess
		}
		var st models.Stats
		found, err = kv.NewLocalRepository(tx, localdb.Stats).Get(ctx, kv.StatsKey, &st)
		if err != nil {
			return err
		}
		if found {
			snap.Stats = &st
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return snap, nil
}

func (e *Exporter) encode(ctx context.Context) (*Snapshot, []byte, error) {
	snap, err := e.Snapshot(ctx)
	if err != nil {
		return nil, nil, err
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return nil, nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return snap, data, nil
}

// FileName is the snapshot name used for both files and object keys.
func FileName(exportedAt string) string {
	r := strings.NewReplacer("-", "", ":", "", ".", "")
	return "devcms-export-" + r.Replace(exportedAt) + ".json"
}

// WriteFile writes a snapshot into dir, creating it if needed, and returns
// the file path.
func (e *Exporter) WriteFile(ctx context.Context, dir string) (string, error) {
	snap, data, err := e.encode(ctx)
	if err != nil {
		return "", err
	}
	abs, err := filex.EnsureDir(dir)
	if err != nil {
		return "", err
	}
	path := filepath.Join(abs, FileName(snap.ExportedAt))
	if err := filex.WriteFileAtomic(path, data); err != nil {
		return "", err
	}
	e.logger.Info(ctx, "snapshot written", "path", path, "events", len(snap.Events))
	return path, nil
}

// Upload sends a snapshot to up under prefix and returns the key.
func (e *Exporter) Upload(ctx context.Context, up Uploader, prefix string) (string, error) {
	snap, data, err := e.encode(ctx)
	if err != nil {
		return "", err
	}
	key := FileName(snap.ExportedAt)
	if prefix != "" {
		key = strings.TrimSuffix(prefix, "/") + "/" + key
	}
	if err := up.Upload(ctx, key, data); err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}
	e.logger.Info(ctx, "snapshot uploaded", "key", key, "events", len(snap.Events))
	return key, nil
}
