package cli

import (
	"bufio"
	"context"
	"io"
	"os"

	"github.com/dmitrijs2005/devcms/internal/client/models"
	"github.com/dmitrijs2005/devcms/internal/client/render"
	"github.com/dmitrijs2005/devcms/internal/client/services"
	"github.com/dmitrijs2005/devcms/internal/client/syncengine"
	"github.com/dmitrijs2005/devcms/internal/logging"
	"github.com/samber/do/v2"
)

// Syncer is the part of the sync engine the REPL drives.
type Syncer interface {
	SyncOnce(ctx context.Context) syncengine.Report
	Run(ctx context.Context)
}

// Connectivity reports whether the remote is reachable.
type Connectivity interface {
	Online() bool
	Run(ctx context.Context)
}

type App struct {
	auth       services.AuthService
	posts      services.PostService
	menus      services.MenuService
	dashboards services.DashboardService
	stats      services.StatsService
	tables     services.TableService
	syncer     Syncer
	watcher    Connectivity
	logger     logging.Logger

	session *models.Session
	reader  *bufio.Reader
	out     io.Writer
	printer *render.Printer
}

// NewApp resolves the services from the container.
func NewApp(i do.Injector) (*App, error) {
	se, err := do.Invoke[*syncengine.Engine](i)
	if err != nil {
		return nil, err
	}
	a := &App{
		auth:       do.MustInvoke[services.AuthService](i),
		posts:      do.MustInvoke[services.PostService](i),
		menus:      do.MustInvoke[services.MenuService](i),
		dashboards: do.MustInvoke[services.DashboardService](i),
		stats:      do.MustInvoke[services.StatsService](i),
		tables:     do.MustInvoke[services.TableService](i),
		syncer:     se,
		watcher:    do.MustInvoke[*syncengine.Watcher](i),
		logger:     do.MustInvoke[logging.Logger](i),
	}
	a.setIO(os.Stdin, os.Stdout)
	return a, nil
}

func (a *App) setIO(in io.Reader, out io.Writer) {
	a.reader = bufio.NewReader(in)
	a.out = out
	a.printer = render.New(out)
}

func (a *App) isLoggedIn() bool {
	return a.session != nil
}

func (a *App) getStatus() string {
	user := ""
	if a.session != nil {
		user = a.session.User.Email
	}
	return a.printer.Status(user, a.watcher.Online())
}

// Run restores a cached session, starts the connectivity watcher and the
// sync loop, and blocks in the REPL until the user exits or ctx is done.
func (a *App) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if s, err := a.auth.Restore(ctx); err == nil && s != nil {
		a.session = s
		printlnFn("Welcome back,", s.User.Email)
	}

	go a.watcher.Run(ctx)
	go a.syncer.Run(ctx)

	printlnFn("devcms client (type 'help' for commands)")
	runREPL(ctx, a, a.getStatus, a.reader)
}
