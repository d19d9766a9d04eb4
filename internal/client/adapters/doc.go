// Package adapters contains the remote sync adapters used by the sync
// engine. Each one turns a batch of outbox events into a batch result for
// its own kind of remote:
//
//   - RESTAdapter: POST {base}/api/sync with {"operations": [...]}
//   - EventsAdapter: POST {base}/api/events/sync with {"events": [...]}
//   - GRPCAdapter: unary /devcms.sync.v1.SyncService/SendBatch over structpb
//   - JetStreamAdapter: one NATS JetStream message per event, deduplicated
//     by the Nats-Msg-Id header
//   - PostgresAdapter: direct insert into a remote events table
//
// All of them are swappable behind syncengine.Adapter.
package adapters
