package projection

import (
	"slices"

	"github.com/dmitrijs2005/devcms/internal/client/models"
)

// PostState is the read model of a post aggregate. A nil *PostState means
// the post does not exist (not created yet, or deleted).
type PostState struct {
	ID          string
	Slug        string
	Title       string
	Description string
	Content     string
	Author      string
	Tags        []string
	Published   bool
	CreatedAt   string
	UpdatedAt   string
}

// DefaultAuthor is used when a create event names no author.
const DefaultAuthor = "Unknown"

// Posts returns the projector for post aggregates.
func Posts() *Projector[*PostState] {
	return New[*PostState]().
		On(models.EventPostCreated, onPostCreated).
		On(models.EventPostUpdated, onPostUpdated).
		On(models.EventPostPublished, setPublished(true)).
		On(models.EventPostUnpublished, setPublished(false)).
		On(models.EventPostDeleted, func(*PostState, models.Event) *PostState { return nil })
}

func onPostCreated(_ *PostState, ev models.Event) *PostState {
	s := &PostState{
		ID:        str(ev.Payload, "id"),
		Author:    DefaultAuthor,
		CreatedAt: ev.Timestamp,
	}
	if s.ID == "" {
		s.ID = ev.AggregateID
	}
	if ts := str(ev.Payload, "timestamp"); ts != "" {
		s.CreatedAt = ts
	}
	applyFields(s, ev.Payload)
	if p, ok := ev.Payload["published"].(bool); ok {
		s.Published = p
	}
	return s
}

func onPostUpdated(state *PostState, ev models.Event) *PostState {
	if state == nil {
		return nil
	}
	s := state.clone()
	applyFields(s, ev.Payload)
	s.UpdatedAt = ev.Timestamp
	return s
}

func setPublished(v bool) Handler[*PostState] {
	return func(state *PostState, ev models.Event) *PostState {
		if state == nil {
			return nil
		}
		s := state.clone()
		s.Published = v
		s.UpdatedAt = ev.Timestamp
		return s
	}
}

func applyFields(s *PostState, payload map[string]any) {
	for key, dst := range map[string]*string{
		"title":       &s.Title,
		"content":     &s.Content,
		"description": &s.Description,
		"author":      &s.Author,
		"slug":        &s.Slug,
	} {
		if v, ok := payload[key].(string); ok {
			*dst = v
		}
	}
	switch tags := payload["tags"].(type) {
	case []string:
		s.Tags = slices.Clone(tags)
	case []any:
		s.Tags = nil
		for _, t := range tags {
			if v, ok := t.(string); ok {
				s.Tags = append(s.Tags, v)
			}
		}
	}
}

func (s *PostState) clone() *PostState {
	c := *s
	c.Tags = slices.Clone(s.Tags)
	return &c
}

func str(payload map[string]any, key string) string {
	v, _ := payload[key].(string)
	return v
}

// ToPost converts a projected state into an offline-created content record.
func (s *PostState) ToPost() models.Post {
	slug := s.Slug
	if slug == "" {
		slug = s.ID
	}
	return models.Post{
		ID:          models.ID(s.ID),
		Slug:        slug,
		Title:       s.Title,
		Description: s.Description,
		Content:     s.Content,
		Author:      s.Author,
		Tags:        slices.Clone(s.Tags),
		Published:   s.Published,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
		Source:      models.SourceOffline,
	}
}
