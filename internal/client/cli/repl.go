package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// printlnFn is a test seam for user-facing output.
var printlnFn = fmt.Println

// execIface is the command surface the REPL dispatches to.
type execIface interface {
	isLoggedIn() bool
	Login(ctx context.Context, args []string) error
	Logout(ctx context.Context, args []string) error
	Whoami(ctx context.Context, args []string) error
	Posts(ctx context.Context, args []string) error
	Show(ctx context.Context, args []string) error
	NewPost(ctx context.Context, args []string) error
	EditPost(ctx context.Context, args []string) error
	Publish(ctx context.Context, args []string) error
	Unpublish(ctx context.Context, args []string) error
	DeletePost(ctx context.Context, args []string) error
	Menus(ctx context.Context, args []string) error
	Dashboard(ctx context.Context, args []string) error
	Widget(ctx context.Context, args []string) error
	Stats(ctx context.Context, args []string) error
	Tables(ctx context.Context, args []string) error
	Rows(ctx context.Context, args []string) error
	Sync(ctx context.Context, args []string) error
}

var errUsage = errors.New("usage")

// commands that need a session
var protected = map[string]bool{
	"new": true, "edit": true, "publish": true, "unpublish": true, "delete": true,
	"widget": true, "stats": true, "tables": true, "rows": true, "sync": true,
}

const (
	helpAnonymous = "Available commands: login, posts, show <slug>, menus, dashboard [slug], exit"
	helpLoggedIn  = "Available commands: posts [local|remote], show <slug>, new, edit <id>, publish <id>, unpublish <id>, " +
		"delete <id>, menus, dashboard [slug], widget add|rm ..., stats, tables, rows <table>, sync, whoami, logout, exit"
)

// runREPL reads commands line by line from r and dispatches them to a until
// EOF, "exit" or "quit". Handler errors are printed and the loop goes on.
func runREPL(ctx context.Context, a execIface, statusFn func() string, r *bufio.Reader) {
	for {
		if ctx.Err() != nil {
			return
		}
		printlnFn(fmt.Sprintf("devcms %s> ", statusFn()))
		line, err := r.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		if protected[cmd] && !a.isLoggedIn() {
			printlnFn("Please login first")
			continue
		}

		var cmdErr error
		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn(helpLoggedIn)
			} else {
				printlnFn(helpAnonymous)
			}
		case "login":
			cmdErr = a.Login(ctx, args)
		case "logout":
			cmdErr = a.Logout(ctx, args)
		case "whoami":
			cmdErr = a.Whoami(ctx, args)
		case "l", "posts":
			cmdErr = a.Posts(ctx, args)
		case "show":
			cmdErr = a.Show(ctx, args)
		case "new":
			cmdErr = a.NewPost(ctx, args)
		case "edit":
			cmdErr = a.EditPost(ctx, args)
		case "publish":
			cmdErr = a.Publish(ctx, args)
		case "unpublish":
			cmdErr = a.Unpublish(ctx, args)
		case "delete":
			cmdErr = a.DeletePost(ctx, args)
		case "menus":
			cmdErr = a.Menus(ctx, args)
		case "dashboard":
			cmdErr = a.Dashboard(ctx, args)
		case "widget":
			cmdErr = a.Widget(ctx, args)
		case "stats":
			cmdErr = a.Stats(ctx, args)
		case "tables":
			cmdErr = a.Tables(ctx, args)
		case "rows":
			cmdErr = a.Rows(ctx, args)
		case "sync":
			cmdErr = a.Sync(ctx, args)
		case "exit", "quit":
			printlnFn("Bye!")
			return
		default:
			printlnFn("Unknown command:", cmd)
		}
		if cmdErr != nil {
			printlnFn("error:", cmdErr)
		}
	}
}

func usage(s string) error {
	return fmt.Errorf("%w: %s", errUsage, s)
}
