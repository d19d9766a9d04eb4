// Package localdb is the embedded per-device store.
//
// Every collection is a SQLite table of JSON documents keyed by a text key:
//
//	CREATE TABLE <name> (key TEXT PRIMARY KEY NOT NULL, doc TEXT NOT NULL)
//
// with secondary indices built on json_extract(doc, '$.<field>').
//
// # Schema
//
// The declared schema is the fixed set of system collections plus every
// definition stored in the _meta collection. It is resolved on each open:
// missing collections are created (never dropped or recreated) inside one
// transaction that also bumps PRAGMA user_version and appends a row to
// schema_history. Only DeleteTable drops a physical table, and only one the
// caller named.
//
// # Lifecycle
//
// Engine is a process-wide handle. Open is single-flight: concurrent callers
// share one initialization. View and Update run under a read lock, so the
// re-open performed by CreateTable and DeleteTable waits for in-flight work
// and no operation ever sees a handle mid-close. Callbacks passed to View or
// Update must not call back into the Engine.
package localdb
