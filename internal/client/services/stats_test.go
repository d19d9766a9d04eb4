package services

import (
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/devcms/internal/client/client"
	"github.com/dmitrijs2005/devcms/internal/client/models"
	"github.com/dmitrijs2005/devcms/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatsService(t *testing.T) {
	ctx := context.Background()
	online := true
	fc := &fakeClient{StatsRet: models.Stats{Posts: 4, Users: 2, SystemState: "Online"}}
	svc := NewStatsService(fc, newStore(t), func() bool { return online }, time.Second, logging.Nop()).(*statsService)
	svc.now = fixedClock(time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC))

	_, err := svc.Cached(ctx)
	require.ErrorIs(t, err, ErrLocalDataNotAvailable)

	st, err := svc.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(4), st.Posts)
	assert.Equal(t, "2024-07-01T00:00:00.000Z", st.CachedAt)

	online = false
	fc.StatsRet.Posts = 99
	st, err = svc.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(4), st.Posts)

	online = true
	fc.StatsErr = client.ErrUnavailable
	st, err = svc.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(4), st.Posts)
}

func TestStatsService_NothingCached(t *testing.T) {
	fc := &fakeClient{StatsErr: client.ErrUnavailable}
	svc := NewStatsService(fc, newStore(t), nil, 0, logging.Nop())
	_, err := svc.Get(context.Background())
	require.ErrorIs(t, err, ErrLocalDataNotAvailable)
}
