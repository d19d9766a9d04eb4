package models

import "encoding/json"

// Source is the provenance of a content record.
type Source string

const (
	SourceAPI     Source = "api"
	SourceLocal   Source = "local"
	SourceOffline Source = "offline-created"
)

// ID is a record id. The remote API sends numeric ids, local records use
// strings; both decode into the same textual form.
type ID string

func (id *ID) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	if string(b) == "null" {
		*id = ""
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*id = ID(n.String())
	return nil
}

// Post is the primary content record.
type Post struct {
	ID          ID       `json:"id"`
	Slug        string   `json:"slug"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Content     string   `json:"content"`
	Author      string   `json:"author,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Published   bool     `json:"published"`
	CreatedAt   string   `json:"created_at,omitempty"`
	UpdatedAt   string   `json:"updated_at,omitempty"`
	Source      Source   `json:"source,omitempty"`
}

// CreatedUnixMilli returns CreatedAt as Unix milliseconds; missing or
// unparsable timestamps count as 0.
func (p Post) CreatedUnixMilli() int64 {
	t, ok := ParseTimestamp(p.CreatedAt)
	if !ok {
		return 0
	}
	return t.UnixMilli()
}

// Stats is the cached admin dashboard summary.
type Stats struct {
	Posts       int64        `json:"posts"`
	Users       int64        `json:"users"`
	RecentPosts []RecentPost `json:"recentPosts"`
	SystemState string       `json:"systemState"`
	CachedAt    string       `json:"cachedAt,omitempty"`
}

type RecentPost struct {
	ID        ID     `json:"id"`
	Title     string `json:"title"`
	Slug      string `json:"slug"`
	CreatedAt string `json:"created_at"`
}
