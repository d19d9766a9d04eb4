package cli

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/devcms/internal/client/services"
	"github.com/dmitrijs2005/devcms/internal/common"
)

// getSimpleText and getPassword are swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Login prompts for credentials. Online login is tried first; when the
// remote is unreachable the cached verifier is used.
func (a *App) Login(ctx context.Context, args []string) error {
	var email string
	if len(args) > 0 {
		email = args[0]
	} else {
		var err error
		if email, err = getSimpleText(a.reader, "Enter email", a.out); err != nil {
			return err
		}
	}

	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	s, err := a.auth.Login(ctx, email, password)
	switch {
	case errors.Is(err, services.ErrInvalidCredentials):
		printlnFn("Login unsuccessful: invalid credentials")
		return nil
	case errors.Is(err, services.ErrLocalDataNotAvailable):
		printlnFn("Remote unavailable and no offline credentials cached")
		return nil
	case err != nil:
		return err
	}

	a.session = s
	if s.Offline {
		printlnFn("Offline login successful")
	} else {
		printlnFn("Login successful")
	}
	return nil
}

func (a *App) Logout(ctx context.Context, _ []string) error {
	if err := a.auth.Logout(ctx); err != nil {
		return err
	}
	a.session = nil
	printlnFn("Logged out")
	return nil
}

// Whoami revalidates the session against the remote when possible.
func (a *App) Whoami(ctx context.Context, _ []string) error {
	s, err := a.auth.CheckAuth(ctx)
	if err != nil {
		return err
	}
	a.session = s
	if s == nil {
		printlnFn("Not logged in")
		return nil
	}
	line := s.User.Email
	if s.User.Role != "" {
		line += " [" + s.User.Role + "]"
	}
	if s.ExpiresAt != "" {
		line += " token expires " + s.ExpiresAt
	}
	printlnFn(line)
	return nil
}
