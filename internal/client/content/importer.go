package content

import (
	"context"
	"os"
	"slices"

	"github.com/dmitrijs2005/devcms/internal/client/models"
	"github.com/dmitrijs2005/devcms/internal/client/projection"
	"github.com/dmitrijs2005/devcms/internal/filex"
	"github.com/dmitrijs2005/devcms/internal/logging"
)

// EventLog is the part of the event store the importer needs.
type EventLog interface {
	ReadEvents(ctx context.Context, aggregateType, aggregateID string) ([]models.Event, error)
	WriteEvent(ctx context.Context, in models.EventInput) (models.Event, error)
}

// ImportReport lists slugs by outcome.
type ImportReport struct {
	Created   []string
	Updated   []string
	Unchanged []string
	Skipped   []string
}

// Importer turns legacy markdown posts into post events, so they reach the
// remote through the outbox like any local edit.
type Importer struct {
	log    EventLog
	logger logging.Logger
}

func NewImporter(log EventLog, logger logging.Logger) *Importer {
	return &Importer{log: log, logger: logger.With("component", "importer")}
}

// Import reads every *.md file in dir. Files without front matter are
// skipped. A slug with no live post gets POST_CREATED; an existing post
// whose fields differ gets POST_UPDATED and, when the published flag
// changed, POST_PUBLISHED or POST_UNPUBLISHED.
func (im *Importer) Import(ctx context.Context, dir string) (ImportReport, error) {
	var rep ImportReport
	files, err := filex.ListFiles(dir, ".md")
	if err != nil {
		return rep, err
	}
	im.logger.Info(ctx, "legacy posts found", "dir", dir, "count", len(files))

	for _, path := range files {
		raw, err := os.ReadFile(path)
		if err != nil {
			return rep, err
		}
		doc, err := ParseMarkdown(raw)
		if err != nil || !doc.HasFrontMatter {
			im.logger.Warn(ctx, "skipping legacy post", "path", path, "err", err)
			rep.Skipped = append(rep.Skipped, baseName(path))
			continue
		}

		p := doc.Post(baseName(path), models.SourceLocal)
		outcome, err := im.importPost(ctx, p)
		if err != nil {
			return rep, err
		}
		switch outcome {
		case models.EventPostCreated:
			rep.Created = append(rep.Created, p.Slug)
		case models.EventPostUpdated:
			rep.Updated = append(rep.Updated, p.Slug)
		default:
			rep.Unchanged = append(rep.Unchanged, p.Slug)
		}
	}

	im.logger.Info(ctx, "legacy import complete",
		"created", len(rep.Created), "updated", len(rep.Updated), "skipped", len(rep.Skipped))
	return rep, nil
}

func (im *Importer) importPost(ctx context.Context, p models.Post) (string, error) {
	id := string(p.ID)
	stream, err := im.log.ReadEvents(ctx, models.AggregatePost, id)
	if err != nil {
		return "", err
	}
	current, err := projection.Posts().Project(nil, stream)
	if err != nil {
		return "", err
	}

	version := len(stream) + 1
	if current == nil {
		payload := fields(p)
		payload["id"] = id
		payload["published"] = p.Published
		if p.CreatedAt != "" {
			payload["timestamp"] = p.CreatedAt
		}
		_, err := im.write(ctx, id, models.EventPostCreated, payload, version)
		return models.EventPostCreated, err
	}

	outcome := ""
	if !sameContent(current, p) {
		if _, err := im.write(ctx, id, models.EventPostUpdated, fields(p), version); err != nil {
			return "", err
		}
		outcome = models.EventPostUpdated
		version++
	}
	if current.Published != p.Published {
		typ := models.EventPostUnpublished
		if p.Published {
			typ = models.EventPostPublished
		}
		if _, err := im.write(ctx, id, typ, nil, version); err != nil {
			return "", err
		}
		outcome = models.EventPostUpdated
	}
	return outcome, nil
}

func (im *Importer) write(ctx context.Context, id, typ string, payload map[string]any, version int) (models.Event, error) {
	return im.log.WriteEvent(ctx, models.EventInput{
		AggregateID:   id,
		AggregateType: models.AggregatePost,
		EventType:     typ,
		Payload:       payload,
		Version:       version,
	})
}

func fields(p models.Post) map[string]any {
	tags := slices.Clone(p.Tags)
	if tags == nil {
		tags = []string{}
	}
	m := map[string]any{
		"slug":        p.Slug,
		"title":       p.Title,
		"content":     p.Content,
		"description": p.Description,
		"tags":        tags,
	}
	if p.Author != "" {
		m["author"] = p.Author
	}
	return m
}

func sameContent(s *projection.PostState, p models.Post) bool {
	return s.Slug == p.Slug &&
		s.Title == p.Title &&
		s.Content == p.Content &&
		s.Description == p.Description &&
		slices.Equal(s.Tags, p.Tags) &&
		(p.Author == "" || s.Author == p.Author)
}
