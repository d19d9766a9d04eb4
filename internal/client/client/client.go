package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/dmitrijs2005/devcms/internal/client/models"
	"github.com/dmitrijs2005/devcms/internal/netx"
	"github.com/samber/lo"
)

type Client interface {
	Ping(ctx context.Context) error
	Login(ctx context.Context, email, password string) (models.Session, error)
	Logout(ctx context.Context) error
	Me(ctx context.Context) (models.Identity, error)
	Posts(ctx context.Context) ([]models.Post, error)
	PostBySlug(ctx context.Context, slug string) (models.Post, error)
	Stats(ctx context.Context) (models.Stats, error)
	SetToken(token string)
	Token() string
}

type HTTPClient struct {
	baseURL string
	http    *http.Client

	mu    sync.RWMutex
	token string
}

func NewHTTPClient(baseURL string, c *http.Client) *HTTPClient {
	if c == nil {
		c = http.DefaultClient
	}
	return &HTTPClient{baseURL: strings.TrimRight(baseURL, "/"), http: c}
}

func (c *HTTPClient) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

func (c *HTTPClient) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *HTTPClient) do(ctx context.Context, method, path string, in, out any) error {
	return c.mapError(netx.DoJSON(ctx, c.http, method, c.baseURL+path, c.Token(), in, out))
}

type health struct {
	Status string `json:"status"`
}

// Ping checks that the backend root answers with status "ok".
func (c *HTTPClient) Ping(ctx context.Context) error {
	var h health
	if err := c.do(ctx, http.MethodGet, "/", nil, &h); err != nil {
		return err
	}
	if !strings.EqualFold(h.Status, "ok") {
		return fmt.Errorf("%w: status %q", ErrUnavailable, h.Status)
	}
	return nil
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	User  models.Identity `json:"user"`
	Token string          `json:"token"`
}

// Login authenticates online. A token in the answer is kept for later
// calls; cookie-only backends leave it empty.
func (c *HTTPClient) Login(ctx context.Context, email, password string) (models.Session, error) {
	var resp loginResponse
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", loginRequest{Email: email, Password: password}, &resp); err != nil {
		return models.Session{}, err
	}
	if resp.Token != "" {
		c.SetToken(resp.Token)
	}
	return models.Session{User: resp.User, Token: resp.Token}, nil
}

func (c *HTTPClient) Logout(ctx context.Context) error {
	err := c.do(ctx, http.MethodPost, "/api/auth/logout", nil, nil)
	c.SetToken("")
	return err
}

func (c *HTTPClient) Me(ctx context.Context) (models.Identity, error) {
	var id models.Identity
	err := c.do(ctx, http.MethodGet, "/api/auth/me", nil, &id)
	return id, err
}

// Posts lists the remote posts tagged with SourceAPI.
func (c *HTTPClient) Posts(ctx context.Context) ([]models.Post, error) {
	var posts []models.Post
	if err := c.do(ctx, http.MethodGet, "/api/posts", nil, &posts); err != nil {
		return nil, err
	}
	return lo.Map(posts, func(p models.Post, _ int) models.Post {
		p.Source = models.SourceAPI
		return p
	}), nil
}

func (c *HTTPClient) PostBySlug(ctx context.Context, slug string) (models.Post, error) {
	var p models.Post
	if err := c.do(ctx, http.MethodGet, "/api/posts/"+url.PathEscape(slug), nil, &p); err != nil {
		return models.Post{}, err
	}
	p.Source = models.SourceAPI
	return p, nil
}

func (c *HTTPClient) Stats(ctx context.Context) (models.Stats, error) {
	var s models.Stats
	err := c.do(ctx, http.MethodGet, "/api/admin/stats", nil, &s)
	return s, err
}

func (c *HTTPClient) mapError(err error) error {
	if err == nil {
		return nil
	}
	var se *netx.StatusError
	if !errors.As(err, &se) {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	switch {
	case se.Code == http.StatusUnauthorized:
		return fmt.Errorf("%w: %w", ErrUnauthorized, err)
	case se.Code == http.StatusNotFound:
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	case se.Code >= 500:
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	default:
		return err
	}
}
