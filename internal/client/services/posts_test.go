package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dmitrijs2005/devcms/internal/client/client"
	"github.com/dmitrijs2005/devcms/internal/client/eventstore"
	"github.com/dmitrijs2005/devcms/internal/client/models"
	"github.com/dmitrijs2005/devcms/internal/common"
	"github.com/dmitrijs2005/devcms/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPosts(t *testing.T, fc *fakeClient, opts ...PostOption) (*postService, *eventstore.EventStore) {
	t.Helper()
	cur := time.Date(2024, 4, 1, 10, 0, 0, 0, time.UTC)
	clock := func() time.Time {
		cur = cur.Add(time.Second)
		return cur
	}
	es := eventstore.New(newStore(t), logging.Nop(), eventstore.WithClock(clock))
	svc := NewPostService(es, fc, logging.Nop(), opts...).(*postService)
	svc.now = clock
	return svc, es
}

func bundled(posts ...models.Post) PostOption {
	return WithBundledPosts(func(context.Context) ([]models.Post, error) { return posts, nil })
}

func ids(posts []models.Post) []string {
	out := make([]string, 0, len(posts))
	for _, p := range posts {
		out = append(out, string(p.ID))
	}
	return out
}

func TestCreatePost_ShowsUpLocallyAndInOutbox(t *testing.T) {
	triggered := 0
	svc, es := newPosts(t, &fakeClient{}, WithAfterWrite(func() { triggered++ }))
	ctx := context.Background()

	ev, err := svc.CreatePost(ctx, PostInput{Title: "Offline Draft", Content: "body", Tags: []string{"x"}})
	require.NoError(t, err)
	assert.Equal(t, models.EventPostCreated, ev.EventType)
	assert.Equal(t, 1, triggered)

	local, err := svc.LocalPostsMerged(ctx)
	require.NoError(t, err)
	require.Len(t, local, 1)
	p := local[0]
	assert.Equal(t, models.ID(ev.AggregateID), p.ID)
	assert.Equal(t, "offline-draft", p.Slug)
	assert.Equal(t, models.SourceOffline, p.Source)
	assert.Equal(t, "Unknown", p.Author)
	assert.Equal(t, []string{"x"}, p.Tags)
	assert.NotEmpty(t, p.CreatedAt)

	outbox, err := es.GetOutbox(ctx)
	require.NoError(t, err)
	require.Len(t, outbox, 1)
	assert.Equal(t, ev.EventID, outbox[0].EventID)
}

func TestCreatePost_RequiresTitle(t *testing.T) {
	svc, _ := newPosts(t, &fakeClient{})
	_, err := svc.CreatePost(context.Background(), PostInput{})
	require.ErrorIs(t, err, models.ErrInvalidEvent)
}

func TestPostLifecycle(t *testing.T) {
	svc, es := newPosts(t, &fakeClient{})
	ctx := context.Background()

	created, err := svc.CreatePost(ctx, PostInput{Title: "T", Content: "a"})
	require.NoError(t, err)
	id := created.AggregateID

	_, err = svc.UpdatePost(ctx, id, PostInput{Content: "b"})
	require.NoError(t, err)
	ev, err := svc.PublishPost(ctx, id, true)
	require.NoError(t, err)
	assert.Equal(t, 3, ev.Version)

	p, err := svc.PostBySlug(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "T", p.Title)
	assert.Equal(t, "b", p.Content)
	assert.True(t, p.Published)

	_, err = svc.DeletePost(ctx, id)
	require.NoError(t, err)
	local, err := svc.LocalPostsMerged(ctx)
	require.NoError(t, err)
	assert.Empty(t, local)

	_, err = svc.UpdatePost(ctx, id, PostInput{Title: "again"})
	require.ErrorIs(t, err, common.ErrorNotFound)

	stream, err := es.ReadEvents(ctx, models.AggregatePost, id)
	require.NoError(t, err)
	assert.Len(t, stream, 4)
}

func TestUpdatePost_UnknownPost(t *testing.T) {
	svc, _ := newPosts(t, &fakeClient{})
	_, err := svc.PublishPost(context.Background(), "missing", true)
	require.ErrorIs(t, err, common.ErrorNotFound)
}

func TestAllPosts_RemoteSupersedesLocal(t *testing.T) {
	fc := &fakeClient{PostsRet: []models.Post{
		{ID: "1", Title: "confirmed", CreatedAt: "2024-01-01T00:00:00Z", Source: models.SourceAPI},
		{ID: "9", Title: "remote only", CreatedAt: "2024-03-01T00:00:00Z", Source: models.SourceAPI},
	}}
	svc, _ := newPosts(t, fc, bundled(
		models.Post{ID: "1", Title: "local", CreatedAt: "2024-02-01T00:00:00Z", Source: models.SourceLocal},
		models.Post{ID: "2", Title: "undated", Source: models.SourceLocal},
	))

	all, err := svc.AllPosts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"9", "1", "2"}, ids(all))
	assert.Equal(t, "confirmed", all[1].Title)
	assert.Equal(t, models.SourceAPI, all[1].Source)
}

func TestAllPosts_OfflineSkipsRemote(t *testing.T) {
	fc := &fakeClient{PostsRet: []models.Post{{ID: "9"}}}
	svc, _ := newPosts(t, fc, bundled(models.Post{ID: "1"}), WithConnectivity(func() bool { return false }))

	all, err := svc.AllPosts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"1"}, ids(all))
	assert.Zero(t, fc.PostsCalls)
}

func TestAPIPosts_EmptyOnFailureOrTimeout(t *testing.T) {
	fc := &fakeClient{PostsErr: client.ErrUnavailable}
	svc, _ := newPosts(t, fc)
	assert.Empty(t, svc.APIPosts(context.Background()))

	fc = &fakeClient{PostsRet: []models.Post{{ID: "1"}}, PostsWait: time.Second}
	svc, _ = newPosts(t, fc, WithAPITimeout(20*time.Millisecond))
	start := time.Now()
	assert.Empty(t, svc.APIPosts(context.Background()))
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestAPIPosts_CacheServesRecentAnswer(t *testing.T) {
	ctx := context.Background()
	online := true
	fc := &fakeClient{PostsRet: []models.Post{
		{ID: "9", Title: "remote", CreatedAt: "2024-03-01T00:00:00Z", Source: models.SourceAPI},
	}}
	svc, _ := newPosts(t, fc,
		bundled(models.Post{ID: "1", CreatedAt: "2024-02-01T00:00:00Z", Source: models.SourceLocal}),
		WithConnectivity(func() bool { return online }),
		WithPostsCache(newStore(t), 5*time.Minute))
	now := time.Date(2024, 4, 1, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	assert.Equal(t, []string{"9"}, ids(svc.APIPosts(ctx)))
	assert.Equal(t, 1, fc.PostsCalls)

	online = false
	now = now.Add(4 * time.Minute)
	assert.Equal(t, []string{"9"}, ids(svc.APIPosts(ctx)))
	all, err := svc.AllPosts(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"9", "1"}, ids(all))
	assert.Equal(t, 1, fc.PostsCalls)

	online = true
	fc.PostsErr = client.ErrUnavailable
	assert.Equal(t, []string{"9"}, ids(svc.APIPosts(ctx)))

	now = now.Add(2 * time.Minute)
	assert.Empty(t, svc.APIPosts(ctx))

	all, err = svc.AllPosts(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"1"}, ids(all))
}

func TestAPIPosts_CacheRefreshedOnSuccess(t *testing.T) {
	ctx := context.Background()
	online := true
	fc := &fakeClient{PostsRet: []models.Post{{ID: "1"}}}
	svc, _ := newPosts(t, fc, WithConnectivity(func() bool { return online }), WithPostsCache(newStore(t), time.Minute))

	require.Len(t, svc.APIPosts(ctx), 1)
	fc.PostsRet = []models.Post{{ID: "1"}, {ID: "2"}}
	require.Len(t, svc.APIPosts(ctx), 2)

	online = false
	assert.ElementsMatch(t, []string{"1", "2"}, ids(svc.APIPosts(ctx)))
}

func TestPostBySlug(t *testing.T) {
	fc := &fakeClient{SlugRet: models.Post{ID: "5", Slug: "remote", Source: models.SourceAPI}}
	svc, _ := newPosts(t, fc, bundled(models.Post{ID: "hello", Slug: "hello"}))
	ctx := context.Background()

	p, err := svc.PostBySlug(ctx, "hello")
	require.NoError(t, err)
	assert.Equal(t, models.ID("hello"), p.ID)

	p, err = svc.PostBySlug(ctx, "remote")
	require.NoError(t, err)
	assert.Equal(t, models.SourceAPI, p.Source)

	fc.SlugErr = client.ErrNotFound
	_, err = svc.PostBySlug(ctx, "gone")
	require.ErrorIs(t, err, common.ErrorNotFound)
}

func TestLocalPostsMerged_ContentDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "welcome.md"),
		[]byte("---\ntitle: Welcome\ndate: 2024-01-05\n---\nHi"), 0o600))

	svc, _ := newPosts(t, &fakeClient{}, WithContentDir(dir))
	posts, err := svc.LocalPostsMerged(context.Background())
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "Welcome", posts[0].Title)
	assert.Equal(t, models.SourceLocal, posts[0].Source)
}

func TestLocalPostsMerged_BundledErrorIsDegraded(t *testing.T) {
	svc, _ := newPosts(t, &fakeClient{}, WithContentDir(filepath.Join(t.TempDir(), "missing")))
	_, err := svc.CreatePost(context.Background(), PostInput{Title: "still works"})
	require.NoError(t, err)

	posts, err := svc.LocalPostsMerged(context.Background())
	require.NoError(t, err)
	assert.Len(t, posts, 1)
}
