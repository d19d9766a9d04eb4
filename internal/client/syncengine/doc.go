// Package syncengine drains the local outbox to a remote system.
//
// An Engine runs one attempt at a time: it reads pending events, hands the
// whole batch to the configured Adapter and marks only the ids the adapter
// confirmed. A transport error or timeout leaves every entry pending for
// the next attempt. Attempts are started manually (SyncOnce), by Trigger,
// on a fixed interval while Run is active, and by a Watcher when the remote
// becomes reachable again.
//
// Delivery is at-least-once; event ids let the remote deduplicate.
package syncengine
