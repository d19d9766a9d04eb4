// Package models defines the client-side data shapes: events and outbox
// entries, posts, menus, dashboards, sessions and table metadata. Documents
// are stored as JSON, so the json tags are the on-disk format.
package models
