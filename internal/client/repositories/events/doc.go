// Package events provides the client-side persistence layer for domain
// events and their outbox.
//
// # Data Model
//
// Every event lives in two collections of the local store: the durable log
// (events) and the outbox, where it carries a synced flag. The log is
// append-only; outbox entries are flagged synced or removed once the remote
// has confirmed them.
//
// Reads are tolerant: documents that fail to decode or validate are skipped
// with a warning, and duplicate event ids are hidden.
//
// # Concurrency
//
// A LocalRepository is bound to one localdb.Tx and must not outlive the
// View or Update callback it was created in.
//
// Typical Usage
//
//	err := store.Update(ctx, func(ctx context.Context, tx *localdb.Tx) error {
//	    repo := events.NewLocalRepository(tx, logger)
//	    return repo.Append(ctx, ev)
//	})
package events
