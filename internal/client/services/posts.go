package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/dmitrijs2005/devcms/internal/client/client"
	"github.com/dmitrijs2005/devcms/internal/client/content"
	"github.com/dmitrijs2005/devcms/internal/client/localdb"
	"github.com/dmitrijs2005/devcms/internal/client/merge"
	"github.com/dmitrijs2005/devcms/internal/client/models"
	"github.com/dmitrijs2005/devcms/internal/client/projection"
	"github.com/dmitrijs2005/devcms/internal/client/repositories/kv"
	"github.com/dmitrijs2005/devcms/internal/common"
	"github.com/dmitrijs2005/devcms/internal/logging"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

// EventLog is the part of the event store used by the posts service.
type EventLog interface {
	WriteEvent(ctx context.Context, in models.EventInput) (models.Event, error)
	ReadEvents(ctx context.Context, aggregateType, aggregateID string) ([]models.Event, error)
	ReadStreams(ctx context.Context, aggregateType string) (map[string][]models.Event, error)
}

// PostInput holds the editable fields of a post.
type PostInput struct {
	Title       string
	Content     string
	Description string
	Author      string
	Tags        []string
}

type PostService interface {
	LocalPostsMerged(ctx context.Context) ([]models.Post, error)
	APIPosts(ctx context.Context) []models.Post
	AllPosts(ctx context.Context) ([]models.Post, error)
	PostBySlug(ctx context.Context, slug string) (*models.Post, error)
	CreatePost(ctx context.Context, in PostInput) (models.Event, error)
	UpdatePost(ctx context.Context, id string, in PostInput) (models.Event, error)
	PublishPost(ctx context.Context, id string, publish bool) (models.Event, error)
	DeletePost(ctx context.Context, id string) (models.Event, error)
}

type postService struct {
	events     EventLog
	client     client.Client
	bundled    func(ctx context.Context) ([]models.Post, error)
	online     func() bool
	afterWrite func()
	apiTimeout time.Duration
	cache      Store
	cacheTTL   time.Duration
	logger     logging.Logger
	now        func() time.Time
	newID      func() string
}

type PostOption func(*postService)

// WithBundledPosts sets the source of bundled (local) posts.
func WithBundledPosts(fn func(ctx context.Context) ([]models.Post, error)) PostOption {
	return func(s *postService) { s.bundled = fn }
}

// WithContentDir loads bundled posts from markdown files in dir.
func WithContentDir(dir string) PostOption {
	return func(s *postService) {
		if dir == "" {
			return
		}
		s.bundled = func(ctx context.Context) ([]models.Post, error) {
			return content.LoadDir(ctx, dir, s.logger)
		}
	}
}

// WithConnectivity makes remote reads depend on online.
func WithConnectivity(online func() bool) PostOption {
	return func(s *postService) { s.online = online }
}

// WithAfterWrite registers fn to run after every successful write, e.g. a
// sync trigger.
func WithAfterWrite(fn func()) PostOption {
	return func(s *postService) { s.afterWrite = fn }
}

func WithAPITimeout(d time.Duration) PostOption {
	return func(s *postService) { s.apiTimeout = d }
}

// WithPostsCache keeps the last remote posts answer in store. While offline
// or when the remote fails, APIPosts serves that copy until it is older
// than ttl.
func WithPostsCache(store Store, ttl time.Duration) PostOption {
	return func(s *postService) {
		s.cache = store
		s.cacheTTL = ttl
	}
}

// cachedPosts is the stored form of a remote posts answer.
type cachedPosts struct {
	CachedAt string        `json:"cachedAt"`
	Posts    []models.Post `json:"posts"`
}

func NewPostService(events EventLog, c client.Client, logger logging.Logger, opts ...PostOption) PostService {
	s := &postService{
		events:     events,
		client:     c,
		online:     func() bool { return true },
		apiTimeout: 2 * time.Second,
		logger:     logger.With("component", "posts"),
		now:        time.Now,
		newID:      uuid.NewString,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// LocalPostsMerged returns bundled posts plus posts projected from local
// event streams. Projections are appended last so local edits replace
// bundled copies with the same id.
func (s *postService) LocalPostsMerged(ctx context.Context) ([]models.Post, error) {
	var posts []models.Post
	if s.bundled != nil {
		bundled, err := s.bundled(ctx)
		if err != nil {
			s.logger.Warn(ctx, "bundled posts unavailable", "err", err)
		}
		posts = append(posts, bundled...)
	}

	streams, err := s.events.ReadStreams(ctx, models.AggregatePost)
	if err != nil {
		return nil, err
	}
	projector := projection.Posts()
	ids := lo.Keys(streams)
	sort.Strings(ids)
	for _, id := range ids {
		state, err := projector.Project(nil, streams[id])
		if err != nil {
			s.logger.Warn(ctx, "skipping unprojectable stream", "aggregate", id, "err", err)
			continue
		}
		if state != nil {
			posts = append(posts, state.ToPost())
		}
	}
	return merge.DedupAndSort(posts), nil
}

// APIPosts fetches remote posts within the API timeout. When offline or on
// failure it falls back to the posts cache, and to nothing without one.
func (s *postService) APIPosts(ctx context.Context) []models.Post {
	if s.client != nil && s.online() {
		posts, err := s.fetchPosts(ctx)
		if err == nil {
			s.storePosts(ctx, posts)
			return posts
		}
		s.logger.Warn(ctx, "remote posts unavailable, using local data", "err", err)
	}
	return s.cachedPosts(ctx)
}

func (s *postService) fetchPosts(ctx context.Context) ([]models.Post, error) {
	ctx, cancel := context.WithTimeout(ctx, s.apiTimeout)
	defer cancel()
	return s.client.Posts(ctx)
}

func (s *postService) storePosts(ctx context.Context, posts []models.Post) {
	if s.cache == nil {
		return
	}
	entry := cachedPosts{CachedAt: models.FormatTimestamp(s.now()), Posts: posts}
	err := s.cache.Update(ctx, func(ctx context.Context, tx *localdb.Tx) error {
		return kv.NewLocalRepository(tx, localdb.Stats).Set(ctx, kv.PostsCacheKey, entry)
	})
	if err != nil {
		s.logger.Warn(ctx, "posts cache write failed", "err", err)
	}
}

func (s *postService) cachedPosts(ctx context.Context) []models.Post {
	if s.cache == nil {
		return nil
	}
	var entry cachedPosts
	var found bool
	err := s.cache.View(ctx, func(ctx context.Context, tx *localdb.Tx) error {
		var err error
		found, err = kv.NewLocalRepository(tx, localdb.Stats).Get(ctx, kv.PostsCacheKey, &entry)
		return err
	})
	if err != nil {
		s.logger.Warn(ctx, "posts cache read failed", "err", err)
		return nil
	}
	if !found {
		return nil
	}
	at, ok := models.ParseTimestamp(entry.CachedAt)
	if !ok || s.now().Sub(at) > s.cacheTTL {
		s.logger.Debug(ctx, "posts cache expired", "cachedAt", entry.CachedAt)
		return nil
	}
	return entry.Posts
}

func (s *postService) AllPosts(ctx context.Context) ([]models.Post, error) {
	local, err := s.LocalPostsMerged(ctx)
	if err != nil {
		return nil, err
	}
	return merge.MergeAndSort(local, s.APIPosts(ctx)), nil
}

// PostBySlug looks locally first (by slug or id), then remotely.
func (s *postService) PostBySlug(ctx context.Context, slug string) (*models.Post, error) {
	local, err := s.LocalPostsMerged(ctx)
	if err != nil {
		return nil, err
	}
	for _, p := range local {
		if p.Slug == slug || string(p.ID) == slug {
			return &p, nil
		}
	}

	if s.client == nil || !s.online() {
		return nil, common.ErrorNotFound
	}
	ctx, cancel := context.WithTimeout(ctx, s.apiTimeout)
	defer cancel()
	p, err := s.client.PostBySlug(ctx, slug)
	if err != nil {
		if !errors.Is(err, client.ErrNotFound) {
			s.logger.Warn(ctx, "remote lookup failed", "slug", slug, "err", err)
		}
		return nil, common.ErrorNotFound
	}
	return &p, nil
}

func (s *postService) CreatePost(ctx context.Context, in PostInput) (models.Event, error) {
	if in.Title == "" {
		return models.Event{}, fmt.Errorf("%w: title is required", models.ErrInvalidEvent)
	}
	id := s.newID()
	slug := content.Slugify(in.Title)
	if slug == "" {
		slug = id
	}
	author := in.Author
	if author == "" {
		author = projection.DefaultAuthor
	}
	return s.write(ctx, models.EventInput{
		AggregateID:   id,
		AggregateType: models.AggregatePost,
		EventType:     models.EventPostCreated,
		Version:       1,
		Payload: map[string]any{
			"id":          id,
			"slug":        slug,
			"title":       in.Title,
			"content":     in.Content,
			"description": in.Description,
			"author":      author,
			"tags":        tagList(in.Tags),
			"timestamp":   models.FormatTimestamp(s.now()),
		},
	})
}

func (s *postService) UpdatePost(ctx context.Context, id string, in PostInput) (models.Event, error) {
	payload := map[string]any{}
	for k, v := range map[string]string{
		"title":       in.Title,
		"content":     in.Content,
		"description": in.Description,
		"author":      in.Author,
	} {
		if v != "" {
			payload[k] = v
		}
	}
	if in.Tags != nil {
		payload["tags"] = tagList(in.Tags)
	}
	return s.next(ctx, id, models.EventPostUpdated, payload)
}

func (s *postService) PublishPost(ctx context.Context, id string, publish bool) (models.Event, error) {
	typ := models.EventPostUnpublished
	if publish {
		typ = models.EventPostPublished
	}
	return s.next(ctx, id, typ, nil)
}

func (s *postService) DeletePost(ctx context.Context, id string) (models.Event, error) {
	return s.next(ctx, id, models.EventPostDeleted, nil)
}

// next appends an event to an existing post at the following version.
func (s *postService) next(ctx context.Context, id, eventType string, payload map[string]any) (models.Event, error) {
	stream, err := s.events.ReadEvents(ctx, models.AggregatePost, id)
	if err != nil {
		return models.Event{}, err
	}
	state, err := projection.Posts().Project(nil, stream)
	if err != nil {
		return models.Event{}, err
	}
	if state == nil {
		return models.Event{}, fmt.Errorf("post %s: %w", id, common.ErrorNotFound)
	}
	return s.write(ctx, models.EventInput{
		AggregateID:   id,
		AggregateType: models.AggregatePost,
		EventType:     eventType,
		Payload:       payload,
		Version:       len(stream) + 1,
	})
}

func (s *postService) write(ctx context.Context, in models.EventInput) (models.Event, error) {
	ev, err := s.events.WriteEvent(ctx, in)
	if err != nil {
		return models.Event{}, err
	}
	if s.afterWrite != nil {
		s.afterWrite()
	}
	return ev, nil
}

func tagList(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return append([]string(nil), tags...)
}
