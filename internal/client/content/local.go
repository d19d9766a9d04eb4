package content

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/devcms/internal/client/models"
	"github.com/dmitrijs2005/devcms/internal/filex"
	"github.com/dmitrijs2005/devcms/internal/logging"
)

const untitled = "Untitled"

// LoadDir reads the bundled posts from the *.md files in dir. A post's id
// and slug come from the file name unless the front matter names a slug.
// Unreadable or malformed files are skipped.
func LoadDir(ctx context.Context, dir string, logger logging.Logger) ([]models.Post, error) {
	files, err := filex.ListFiles(dir, ".md")
	if err != nil {
		return nil, err
	}

	posts := make([]models.Post, 0, len(files))
	for _, path := range files {
		raw, err := os.ReadFile(path)
		if err != nil {
			logger.Warn(ctx, "skipping unreadable post", "path", path, "err", err)
			continue
		}
		doc, err := ParseMarkdown(raw)
		if err != nil {
			logger.Warn(ctx, "skipping malformed post", "path", path, "err", err)
			continue
		}
		posts = append(posts, doc.Post(baseName(path), models.SourceLocal))
	}
	return posts, nil
}

func baseName(path string) string {
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}

// Post converts the document into a content record. fallbackSlug is used
// when the front matter names none.
func (d Document) Post(fallbackSlug string, src models.Source) models.Post {
	slug := d.Slug
	if slug == "" {
		slug = fallbackSlug
	}
	title := d.Title
	if title == "" {
		title = untitled
	}
	published := true
	if d.Published != nil {
		published = *d.Published
	}
	return models.Post{
		ID:          models.ID(slug),
		Slug:        slug,
		Title:       title,
		Description: d.Description,
		Content:     d.Body,
		Author:      d.Author,
		Tags:        d.Tags,
		Published:   published,
		CreatedAt:   d.Date,
		Source:      src,
	}
}
