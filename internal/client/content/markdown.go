package content

import (
	"bytes"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

var ErrNoFrontMatter = errors.New("no front matter")

// FrontMatter is the YAML header of a markdown post.
type FrontMatter struct {
	Title       string   `yaml:"title"`
	Slug        string   `yaml:"slug"`
	Description string   `yaml:"description"`
	Author      string   `yaml:"author"`
	Date        string   `yaml:"date"`
	Tags        []string `yaml:"tags"`
	Published   *bool    `yaml:"published"`
}

// Document is a parsed markdown file. Body is the raw markdown after the
// front matter block.
type Document struct {
	FrontMatter
	Body           string
	HasFrontMatter bool
}

var frontMatterRe = regexp.MustCompile(`(?s)\A-{3,}\r?\n(.+?)\r?\n-{3,}[ \t]*(?:\r?\n|\z)`)

// ParseMarkdown splits raw into front matter and body. A file without a
// front matter block is all body. Invalid YAML is an error.
func ParseMarkdown(raw []byte) (Document, error) {
	raw = bytes.TrimPrefix(raw, []byte("\ufeff"))
	m := frontMatterRe.FindSubmatchIndex(raw)
	if m == nil {
		return Document{Body: strings.TrimSpace(string(raw))}, nil
	}

	var doc Document
	if err := yaml.Unmarshal(raw[m[2]:m[3]], &doc.FrontMatter); err != nil {
		return Document{}, fmt.Errorf("front matter: %w", err)
	}
	doc.HasFrontMatter = true
	doc.Body = strings.TrimSpace(string(raw[m[1]:]))
	return doc, nil
}
