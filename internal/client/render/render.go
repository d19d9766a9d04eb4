// Package render prints client data as terminal tables.
package render

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/dmitrijs2005/devcms/internal/client/content"
	"github.com/dmitrijs2005/devcms/internal/client/localdb"
	"github.com/dmitrijs2005/devcms/internal/client/models"
	"github.com/dmitrijs2005/devcms/internal/client/syncengine"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

var style = table.Style{
	Name: "devcms",
	Box: table.BoxStyle{
		BottomLeft:       "└",
		BottomRight:      "┘",
		BottomSeparator:  "┴",
		Left:             "│",
		LeftSeparator:    "├",
		MiddleHorizontal: "─",
		MiddleSeparator:  "┼",
		MiddleVertical:   "│",
		PaddingLeft:      " ",
		PaddingRight:     " ",
		Right:            "│",
		RightSeparator:   "┤",
		TopLeft:          "┌",
		TopRight:         "┐",
		TopSeparator:     "┬",
		UnfinishedRow:    "...",
	},
	Options: table.Options{
		DrawBorder:      true,
		SeparateColumns: true,
		SeparateHeader:  true,
	},
	Title: table.TitleOptions{
		Align:  text.AlignCenter,
		Colors: text.Colors{text.FgHiWhite, text.Bold},
	},
	Color: table.ColorOptions{
		Header: text.Colors{text.FgHiWhite, text.Bold},
	},
}

type Printer struct {
	out      io.Writer
	color    bool
	maxWidth int
}

type Option func(*Printer)

func WithColor(enabled bool) Option {
	return func(p *Printer) { p.color = enabled }
}

// WithMaxColumnWidth truncates long cells; 0 disables truncation.
func WithMaxColumnWidth(n int) Option {
	return func(p *Printer) { p.maxWidth = n }
}

func New(out io.Writer, opts ...Option) *Printer {
	p := &Printer{out: out, color: true, maxWidth: 60}
	for _, o := range opts {
		o(p)
	}
	return p
}

func (p *Printer) table(title string, header table.Row) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(p.out)
	st := style
	if !p.color {
		st.Title.Colors = nil
		st.Color.Header = nil
	}
	t.SetStyle(st)
	if title != "" {
		t.SetTitle(title)
	}
	t.AppendHeader(header)
	return t
}

func (p *Printer) paint(attrs ...color.Attribute) func(a ...any) string {
	if !p.color {
		return fmt.Sprint
	}
	return color.New(attrs...).SprintFunc()
}

func (p *Printer) cut(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if p.maxWidth > 0 && len([]rune(s)) > p.maxWidth {
		return string([]rune(s)[:p.maxWidth-1]) + "…"
	}
	return s
}

// Status renders the prompt badge, e.g. "(admin@x online)".
func (p *Printer) Status(user string, online bool) string {
	mode := p.paint(color.FgRed)("offline")
	if online {
		mode = p.paint(color.FgGreen)("online")
	}
	if user == "" {
		return "(" + mode + ")"
	}
	return "(" + user + " " + mode + ")"
}

func (p *Printer) Posts(posts []models.Post) {
	t := p.table("Posts", table.Row{"ID", "Slug", "Title", "Author", "Published", "Created", "Source"})
	pub := p.paint(color.FgGreen)
	draft := p.paint(color.FgYellow)
	for _, post := range posts {
		state := draft("draft")
		if post.Published {
			state = pub("yes")
		}
		t.AppendRow(table.Row{post.ID, post.Slug, p.cut(post.Title), post.Author, state, post.CreatedAt, post.Source})
	}
	t.AppendFooter(table.Row{"", "", fmt.Sprintf("%d posts", len(posts))})
	t.Render()
}

func (p *Printer) Post(post models.Post) {
	t := p.table(post.Title, table.Row{"Field", "Value"})
	t.AppendRows([]table.Row{
		{"id", post.ID},
		{"slug", post.Slug},
		{"author", post.Author},
		{"tags", strings.Join(post.Tags, ", ")},
		{"published", post.Published},
		{"created", post.CreatedAt},
		{"updated", post.UpdatedAt},
		{"source", post.Source},
		{"description", p.cut(post.Description)},
	})
	t.Render()
	if post.Content != "" {
		fmt.Fprintln(p.out, post.Content)
	}
}

func (p *Printer) Menus(menus []models.Menu) {
	t := p.table("Menus", table.Row{"Order", "ID", "Name", "Items"})
	for _, m := range menus {
		labels := make([]string, 0, len(m.Items))
		for _, it := range m.Items {
			labels = append(labels, it.Label)
		}
		t.AppendRow(table.Row{m.Order, m.ID, m.Name, p.cut(strings.Join(labels, ", "))})
	}
	t.Render()
}

func (p *Printer) Dashboard(d models.Dashboard) {
	t := p.table("Dashboard "+d.ID, table.Row{"Order", "ID", "Type", "Title", "X", "Y", "Cols", "Rows"})
	for _, w := range d.Widgets {
		t.AppendRow(table.Row{w.Order, w.ID, w.Type, p.cut(w.Title), w.X, w.Y, w.Cols, w.Rows})
	}
	t.Render()
}

func (p *Printer) Stats(s models.Stats) {
	t := p.table("Stats", table.Row{"Metric", "Value"})
	t.AppendRows([]table.Row{
		{"posts", s.Posts},
		{"users", s.Users},
		{"system", s.SystemState},
		{"cached at", s.CachedAt},
	})
	t.Render()
	if len(s.RecentPosts) == 0 {
		return
	}
	r := p.table("Recent posts", table.Row{"ID", "Slug", "Title", "Created"})
	for _, rp := range s.RecentPosts {
		r.AppendRow(table.Row{rp.ID, rp.Slug, p.cut(rp.Title), rp.CreatedAt})
	}
	r.Render()
}

func (p *Printer) Tables(tables []models.TableInfo) {
	t := p.table("Tables", table.Row{"Name", "Key path", "Indices", "Encrypted", "System", "Rows"})
	sys := p.paint(color.FgBlue)
	for _, ti := range tables {
		name := ti.Name
		if ti.System {
			name = sys(name)
		}
		t.AppendRow(table.Row{name, ti.KeyPath, strings.Join(ti.Indices, "; "), ti.IsEncrypted, ti.System, ti.Rows})
	}
	t.Render()
}

func (p *Printer) Rows(name string, docs []localdb.Doc) {
	t := p.table(name, table.Row{"Key", "Document"})
	for _, d := range docs {
		t.AppendRow(table.Row{d.Key, p.cut(compact(d.Raw))})
	}
	t.Render()
}

func compact(raw json.RawMessage) string {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return string(raw)
	}
	return buf.String()
}

func (p *Printer) Events(title string, events []models.Event) {
	t := p.table(title, table.Row{"Event ID", "Type", "Aggregate", "Version", "Timestamp"})
	for _, e := range events {
		t.AppendRow(table.Row{e.EventID, e.EventType, e.AggregateType + "/" + e.AggregateID, e.Version, e.Timestamp})
	}
	t.AppendFooter(table.Row{fmt.Sprintf("%d events", len(events))})
	t.Render()
}

func (p *Printer) SyncReport(r syncengine.Report) {
	switch {
	case r.Err != nil:
		fmt.Fprintln(p.out, p.paint(color.FgRed, color.Bold)("sync failed:"), r.Err)
	case r.Skipped != "":
		fmt.Fprintln(p.out, p.paint(color.FgYellow)("sync skipped:"), r.Skipped)
	default:
		fmt.Fprintf(p.out, "%s %s: sent %d, synced %d, failed %d\n",
			p.paint(color.FgGreen, color.Bold)("sync done"), r.Adapter, r.Sent, r.Synced, r.Failed)
	}
	if len(r.Ignored) > 0 {
		fmt.Fprintln(p.out, "ignored ids:", strings.Join(r.Ignored, ", "))
	}
}

func (p *Printer) ImportReport(r content.ImportReport) {
	t := p.table("Import", table.Row{"Result", "Count", "Slugs"})
	t.AppendRows([]table.Row{
		{p.paint(color.FgGreen)("created"), len(r.Created), p.cut(strings.Join(r.Created, ", "))},
		{p.paint(color.FgYellow)("updated"), len(r.Updated), p.cut(strings.Join(r.Updated, ", "))},
		{"unchanged", len(r.Unchanged), p.cut(strings.Join(r.Unchanged, ", "))},
		{p.paint(color.FgRed)("skipped"), len(r.Skipped), p.cut(strings.Join(r.Skipped, ", "))},
	})
	t.Render()
}
