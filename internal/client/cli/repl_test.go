package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeExec struct {
	loggedIn bool
	failOn   string

	calls []string
}

func (f *fakeExec) record(name string, args []string) error {
	f.calls = append(f.calls, strings.TrimSpace(name+" "+strings.Join(args, " ")))
	if name == f.failOn {
		return errors.New("boom")
	}
	return nil
}

func (f *fakeExec) isLoggedIn() bool { return f.loggedIn }
func (f *fakeExec) Login(_ context.Context, args []string) error {
	f.loggedIn = true
	return f.record("login", args)
}
func (f *fakeExec) Logout(_ context.Context, args []string) error {
	f.loggedIn = false
	return f.record("logout", args)
}
func (f *fakeExec) Whoami(_ context.Context, args []string) error    { return f.record("whoami", args) }
func (f *fakeExec) Posts(_ context.Context, args []string) error     { return f.record("posts", args) }
func (f *fakeExec) Show(_ context.Context, args []string) error      { return f.record("show", args) }
func (f *fakeExec) NewPost(_ context.Context, args []string) error   { return f.record("new", args) }
func (f *fakeExec) EditPost(_ context.Context, args []string) error  { return f.record("edit", args) }
func (f *fakeExec) Publish(_ context.Context, args []string) error   { return f.record("publish", args) }
func (f *fakeExec) Unpublish(_ context.Context, args []string) error { return f.record("unpublish", args) }
func (f *fakeExec) DeletePost(_ context.Context, args []string) error {
	return f.record("delete", args)
}
func (f *fakeExec) Menus(_ context.Context, args []string) error     { return f.record("menus", args) }
func (f *fakeExec) Dashboard(_ context.Context, args []string) error { return f.record("dashboard", args) }
func (f *fakeExec) Widget(_ context.Context, args []string) error    { return f.record("widget", args) }
func (f *fakeExec) Stats(_ context.Context, args []string) error     { return f.record("stats", args) }
func (f *fakeExec) Tables(_ context.Context, args []string) error    { return f.record("tables", args) }
func (f *fakeExec) Rows(_ context.Context, args []string) error      { return f.record("rows", args) }
func (f *fakeExec) Sync(_ context.Context, args []string) error      { return f.record("sync", args) }

func capturePrintln(t *testing.T) *[]string {
	t.Helper()
	var lines []string
	orig := printlnFn
	printlnFn = func(a ...any) (int, error) {
		lines = append(lines, strings.TrimSuffix(fmt.Sprintln(a...), "\n"))
		return 0, nil
	}
	t.Cleanup(func() { printlnFn = orig })
	return &lines
}

func reader(lines ...string) *bufio.Reader {
	return bufio.NewReader(strings.NewReader(strings.Join(lines, "\n")))
}

func TestRunREPL_LoginFlowAndCommands(t *testing.T) {
	out := capturePrintln(t)
	exec := &fakeExec{}

	runREPL(context.Background(), exec, func() string { return "status" }, reader(
		"help",
		"new",
		"login admin@x",
		"help",
		"posts local",
		"show hello",
		"new",
		"publish p1",
		"widget add main stats",
		"sync",
		"",
		"foobar",
		"exit",
		"posts",
	))

	assert.Equal(t, []string{
		"login admin@x", "posts local", "show hello", "new", "publish p1", "widget add main stats", "sync",
	}, exec.calls)
	assert.Contains(t, *out, helpAnonymous)
	assert.Contains(t, *out, helpLoggedIn)
	assert.Contains(t, *out, "Please login first")
	assert.Contains(t, *out, "Unknown command: foobar")
	assert.Contains(t, *out, "Bye!")
	assert.Contains(t, *out, "devcms status> ")
}

func TestRunREPL_ErrorsAreReported(t *testing.T) {
	out := capturePrintln(t)
	exec := &fakeExec{loggedIn: true, failOn: "stats"}

	runREPL(context.Background(), exec, func() string { return "" }, reader("stats", "menus"))

	assert.Equal(t, []string{"stats", "menus"}, exec.calls)
	assert.Contains(t, *out, "error: boom")
}

func TestRunREPL_StopsOnCancelledContext(t *testing.T) {
	capturePrintln(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	exec := &fakeExec{}
	runREPL(ctx, exec, func() string { return "" }, reader("login"))
	assert.Empty(t, exec.calls)
}
