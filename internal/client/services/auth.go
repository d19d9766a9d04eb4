package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/devcms/internal/client/client"
	"github.com/dmitrijs2005/devcms/internal/client/localdb"
	"github.com/dmitrijs2005/devcms/internal/client/models"
	"github.com/dmitrijs2005/devcms/internal/client/repositories/kv"
	"github.com/dmitrijs2005/devcms/internal/common"
	"github.com/dmitrijs2005/devcms/internal/cryptox"
	"github.com/dmitrijs2005/devcms/internal/logging"
	"github.com/golang-jwt/jwt/v5"
)

// AuthService manages the single cached session.
//
// Contract:
//   - Login: authenticate online and cache the session plus an offline
//     verifier; when the remote cannot be reached, verify against the
//     cached verifier instead.
//   - CheckAuth: return the cached session and revalidate it online. Only an
//     explicit unauthorized answer clears it.
//   - Logout: best-effort remote logout, then clear the local session.
//   - Restore: load the cached session and hand its token to the client.
type AuthService interface {
	Login(ctx context.Context, email string, password []byte) (*models.Session, error)
	CheckAuth(ctx context.Context) (*models.Session, error)
	Logout(ctx context.Context) error
	Restore(ctx context.Context) (*models.Session, error)
	Session(ctx context.Context) (*models.Session, error)
	Ping(ctx context.Context) error
}

type authService struct {
	client client.Client
	store  Store
	logger logging.Logger
	now    func() time.Time
}

func NewAuthService(c client.Client, store Store, logger logging.Logger) AuthService {
	return &authService{client: c, store: store, logger: logger.With("component", "auth"), now: time.Now}
}

func (a *authService) repo(tx *localdb.Tx) kv.Repository {
	return kv.NewLocalRepository(tx, localdb.Auth)
}

func (a *authService) Login(ctx context.Context, email string, password []byte) (*models.Session, error) {
	s, err := a.client.Login(ctx, email, string(password))
	switch {
	case err == nil:
	case errors.Is(err, client.ErrUnauthorized):
		return nil, ErrInvalidCredentials
	case errors.Is(err, client.ErrUnavailable):
		a.logger.Warn(ctx, "backend unreachable, trying offline login", "err", err)
		return a.offlineLogin(ctx, email, password)
	default:
		return nil, fmt.Errorf("login error: %w", err)
	}

	s.CachedAt = models.FormatTimestamp(a.now())
	if exp, ok := TokenExpiry(s.Token); ok {
		s.ExpiresAt = models.FormatTimestamp(exp)
	}

	salt := common.GenerateRandByteArray(32)
	creds := models.Credentials{
		Email:    email,
		Salt:     salt,
		Verifier: cryptox.MakeVerifier(cryptox.DeriveMasterKey(password, salt)),
		User:     s.User,
	}

	err = a.store.Update(ctx, func(ctx context.Context, tx *localdb.Tx) error {
		r := a.repo(tx)
		if err := r.Set(ctx, kv.SessionKey, s); err != nil {
			return err
		}
		return r.Set(ctx, kv.CredentialsKey, creds)
	})
	if err != nil {
		return nil, fmt.Errorf("offline data saving error: %w", err)
	}
	return &s, nil
}

// offlineLogin derives a key from (password, cached salt) and compares its
// verifier with the cached one.
func (a *authService) offlineLogin(ctx context.Context, email string, password []byte) (*models.Session, error) {
	var creds models.Credentials
	var found bool
	err := a.store.View(ctx, func(ctx context.Context, tx *localdb.Tx) error {
		var err error
		found, err = a.repo(tx).Get(ctx, kv.CredentialsKey, &creds)
		return err
	})
	if err != nil {
		return nil, err
	}
	if !found || len(creds.Salt) == 0 {
		return nil, ErrLocalDataNotAvailable
	}
	if creds.Email != email {
		return nil, ErrInvalidCredentials
	}

	candidate := cryptox.MakeVerifier(cryptox.DeriveMasterKey(password, creds.Salt))
	if subtle.ConstantTimeCompare(creds.Verifier, candidate) == 0 {
		return nil, ErrInvalidCredentials
	}

	s := models.Session{User: creds.User, Offline: true, CachedAt: models.FormatTimestamp(a.now())}
	err = a.store.Update(ctx, func(ctx context.Context, tx *localdb.Tx) error {
		return a.repo(tx).Set(ctx, kv.SessionKey, s)
	})
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (a *authService) Session(ctx context.Context) (*models.Session, error) {
	var s models.Session
	var found bool
	err := a.store.View(ctx, func(ctx context.Context, tx *localdb.Tx) error {
		var err error
		found, err = a.repo(tx).Get(ctx, kv.SessionKey, &s)
		return err
	})
	if err != nil || !found {
		return nil, err
	}
	return &s, nil
}

func (a *authService) Restore(ctx context.Context) (*models.Session, error) {
	s, err := a.Session(ctx)
	if err != nil || s == nil {
		return s, err
	}
	if s.Token != "" {
		a.client.SetToken(s.Token)
	}
	return s, nil
}

func (a *authService) CheckAuth(ctx context.Context) (*models.Session, error) {
	s, err := a.Session(ctx)
	if err != nil {
		a.logger.Warn(ctx, "error reading offline session", "err", err)
	}

	me, err := a.client.Me(ctx)
	switch {
	case err == nil:
		fresh := models.Session{User: me, CachedAt: models.FormatTimestamp(a.now())}
		if s != nil {
			fresh.Token, fresh.ExpiresAt = s.Token, s.ExpiresAt
		}
		if err := a.saveSession(ctx, fresh); err != nil {
			return s, err
		}
		return &fresh, nil
	case errors.Is(err, client.ErrUnauthorized):
		a.logger.Info(ctx, "session rejected by backend, clearing")
		a.client.SetToken("")
		return nil, a.clearSession(ctx)
	default:
		a.logger.Warn(ctx, "session check failed, keeping cached session", "err", err)
		return s, nil
	}
}

func (a *authService) Logout(ctx context.Context) error {
	if err := a.client.Logout(ctx); err != nil {
		a.logger.Warn(ctx, "remote logout failed", "err", err)
	}
	a.client.SetToken("")
	return a.clearSession(ctx)
}

func (a *authService) Ping(ctx context.Context) error {
	return a.client.Ping(ctx)
}

func (a *authService) saveSession(ctx context.Context, s models.Session) error {
	return a.store.Update(ctx, func(ctx context.Context, tx *localdb.Tx) error {
		return a.repo(tx).Set(ctx, kv.SessionKey, s)
	})
}

func (a *authService) clearSession(ctx context.Context) error {
	return a.store.Update(ctx, func(ctx context.Context, tx *localdb.Tx) error {
		return a.repo(tx).Delete(ctx, kv.SessionKey)
	})
}

// TokenExpiry reads the exp claim of a JWT without verifying its signature.
func TokenExpiry(token string) (time.Time, bool) {
	if token == "" {
		return time.Time{}, false
	}
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

// Expired reports whether s carries an expiry that is not after now.
func Expired(s *models.Session, now time.Time) bool {
	if s == nil || s.ExpiresAt == "" {
		return false
	}
	t, ok := models.ParseTimestamp(s.ExpiresAt)
	return ok && !t.After(now)
}
