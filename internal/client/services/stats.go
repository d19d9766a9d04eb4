package services

import (
	"context"
	"time"

	"github.com/dmitrijs2005/devcms/internal/client/client"
	"github.com/dmitrijs2005/devcms/internal/client/localdb"
	"github.com/dmitrijs2005/devcms/internal/client/models"
	"github.com/dmitrijs2005/devcms/internal/client/repositories/kv"
	"github.com/dmitrijs2005/devcms/internal/logging"
)

// StatsService serves the admin summary, caching the last online answer
// for offline use.
type StatsService interface {
	// Get returns fresh stats when online and the cached copy otherwise.
	// ErrLocalDataNotAvailable means neither is available.
	Get(ctx context.Context) (*models.Stats, error)
	Cached(ctx context.Context) (*models.Stats, error)
}

type statsService struct {
	client  client.Client
	store   Store
	online  func() bool
	timeout time.Duration
	logger  logging.Logger
	now     func() time.Time
}

func NewStatsService(c client.Client, store Store, online func() bool, timeout time.Duration, logger logging.Logger) StatsService {
	if online == nil {
		online = func() bool { return true }
	}
	return &statsService{
		client:  c,
		store:   store,
		online:  online,
		timeout: timeout,
		logger:  logger.With("component", "stats"),
		now:     time.Now,
	}
}

func (s *statsService) Get(ctx context.Context) (*models.Stats, error) {
	if s.online() {
		fresh, err := s.fetch(ctx)
		if err == nil {
			return fresh, nil
		}
		s.logger.Warn(ctx, "stats fetch failed, using cache", "err", err)
	}
	return s.Cached(ctx)
}

func (s *statsService) fetch(ctx context.Context) (*models.Stats, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	st, err := s.client.Stats(ctx)
	if err != nil {
		return nil, err
	}
	st.CachedAt = models.FormatTimestamp(s.now())
	err = s.store.Update(ctx, func(ctx context.Context, tx *localdb.Tx) error {
		return kv.NewLocalRepository(tx, localdb.Stats).Set(ctx, kv.StatsKey, st)
	})
	if err != nil {
		s.logger.Warn(ctx, "stats cache write failed", "err", err)
	}
	return &st, nil
}

func (s *statsService) Cached(ctx context.Context) (*models.Stats, error) {
	var st models.Stats
	var found bool
	err := s.store.View(ctx, func(ctx context.Context, tx *localdb.Tx) error {
		var err error
		found, err = kv.NewLocalRepository(tx, localdb.Stats).Get(ctx, kv.StatsKey, &st)
		return err
	})
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrLocalDataNotAvailable
	}
	return &st, nil
}
