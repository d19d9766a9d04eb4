package services

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/devcms/internal/client/localdb"
	"github.com/dmitrijs2005/devcms/internal/client/models"
	"github.com/dmitrijs2005/devcms/internal/logging"
)

func newStore(t *testing.T) *localdb.Engine {
	t.Helper()
	e := localdb.New(filepath.Join(t.TempDir(), "svc.db"), logging.Nop())
	t.Cleanup(func() { _ = e.Close() })
	return e
}

func fixedClock(ts time.Time) func() time.Time {
	return func() time.Time { return ts }
}

// ---- fake client ----

type fakeClient struct {
	mu sync.Mutex

	LoginRet models.Session
	LoginErr error

	MeRet models.Identity
	MeErr error

	LogoutErr error
	PingErr   error

	PostsRet  []models.Post
	PostsErr  error
	PostsWait time.Duration

	SlugRet models.Post
	SlugErr error

	StatsRet models.Stats
	StatsErr error

	token string

	LastLoginEmail    string
	LastLoginPassword string
	LogoutCalls       int
	PostsCalls        int
}

func (f *fakeClient) Ping(context.Context) error { return f.PingErr }

func (f *fakeClient) Login(_ context.Context, email, password string) (models.Session, error) {
	f.LastLoginEmail, f.LastLoginPassword = email, password
	if f.LoginErr != nil {
		return models.Session{}, f.LoginErr
	}
	f.SetToken(f.LoginRet.Token)
	return f.LoginRet, nil
}

func (f *fakeClient) Logout(context.Context) error {
	f.LogoutCalls++
	return f.LogoutErr
}

func (f *fakeClient) Me(context.Context) (models.Identity, error) { return f.MeRet, f.MeErr }

func (f *fakeClient) Posts(ctx context.Context) ([]models.Post, error) {
	f.PostsCalls++
	if f.PostsWait > 0 {
		select {
		case <-time.After(f.PostsWait):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return f.PostsRet, f.PostsErr
}

func (f *fakeClient) PostBySlug(context.Context, string) (models.Post, error) {
	return f.SlugRet, f.SlugErr
}

func (f *fakeClient) Stats(context.Context) (models.Stats, error) { return f.StatsRet, f.StatsErr }

func (f *fakeClient) SetToken(token string) {
	f.mu.Lock()
	f.token = token
	f.mu.Unlock()
}

func (f *fakeClient) Token() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.token
}
