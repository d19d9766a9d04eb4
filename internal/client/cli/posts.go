package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/devcms/internal/client/models"
	"github.com/dmitrijs2005/devcms/internal/client/services"
	"github.com/dmitrijs2005/devcms/internal/common"
)

var getMultiline = GetMultiline
var getTags = GetTags

// Posts lists posts: "local" for the offline view, "remote" for the API
// only, merged otherwise.
func (a *App) Posts(ctx context.Context, args []string) error {
	var (
		posts []models.Post
		err   error
	)
	mode := ""
	if len(args) > 0 {
		mode = args[0]
	}
	switch mode {
	case "local":
		posts, err = a.posts.LocalPostsMerged(ctx)
	case "remote":
		posts = a.posts.APIPosts(ctx)
	case "":
		posts, err = a.posts.AllPosts(ctx)
	default:
		return usage("posts [local|remote]")
	}
	if err != nil {
		return err
	}
	a.printer.Posts(posts)
	return nil
}

func (a *App) Show(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usage("show <slug|id>")
	}
	p, err := a.posts.PostBySlug(ctx, args[0])
	if errors.Is(err, common.ErrorNotFound) {
		printlnFn("Post not found:", args[0])
		return nil
	}
	if err != nil {
		return err
	}
	a.printer.Post(*p)
	return nil
}

func (a *App) readPostInput(creating bool) (services.PostInput, error) {
	var in services.PostInput
	hint := ""
	if !creating {
		hint = " (blank keeps current)"
	}
	var err error
	if in.Title, err = getSimpleText(a.reader, "Enter title"+hint, a.out); err != nil {
		return in, err
	}
	if creating && in.Title == "" {
		return in, fmt.Errorf("title is required")
	}
	if in.Description, err = getSimpleText(a.reader, "Enter description"+hint, a.out); err != nil {
		return in, err
	}
	if in.Tags, err = getTags(a.reader, "Enter tags"+hint, a.out); err != nil {
		return in, err
	}
	if in.Content, err = getMultiline(a.reader, "Enter content"+hint, a.out); err != nil {
		return in, err
	}
	return in, nil
}

func (a *App) NewPost(ctx context.Context, _ []string) error {
	in, err := a.readPostInput(true)
	if err != nil {
		return err
	}
	in.Author = a.session.User.FullName
	ev, err := a.posts.CreatePost(ctx, in)
	if err != nil {
		return err
	}
	printlnFn("Created post", ev.AggregateID, "(queued for sync)")
	return nil
}

func (a *App) EditPost(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usage("edit <id>")
	}
	in, err := a.readPostInput(false)
	if err != nil {
		return err
	}
	ev, err := a.posts.UpdatePost(ctx, args[0], in)
	if err != nil {
		return err
	}
	printlnFn("Updated post", ev.AggregateID, "to version", ev.Version)
	return nil
}

func (a *App) setPublished(ctx context.Context, args []string, publish bool, verb string) error {
	if len(args) != 1 {
		return usage(verb + " <id>")
	}
	if _, err := a.posts.PublishPost(ctx, args[0], publish); err != nil {
		return err
	}
	printlnFn("Post", args[0], verb+"ed")
	return nil
}

func (a *App) Publish(ctx context.Context, args []string) error {
	return a.setPublished(ctx, args, true, "publish")
}

func (a *App) Unpublish(ctx context.Context, args []string) error {
	return a.setPublished(ctx, args, false, "unpublish")
}

func (a *App) DeletePost(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usage("delete <id>")
	}
	if _, err := a.posts.DeletePost(ctx, args[0]); err != nil {
		return err
	}
	printlnFn("Post", args[0], "deleted")
	return nil
}
