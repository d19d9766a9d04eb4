// Package client talks to the devcms read API.
//
// # Overview
//
// The package provides:
//  1. A transport-agnostic contract (see the Client interface) for the
//     calls the offline-first core makes against the backend: Ping, Login,
//     Logout, Me, Posts, PostBySlug and Stats.
//  2. A JSON-over-HTTP implementation (see HTTPClient) that keeps the bearer
//     token of the current session and maps responses to sentinel errors.
//
// # Error Handling
//
// Callers match conditions with errors.Is:
//   - ErrUnauthorized for 401 only. This is the only answer that may clear a
//     cached session; 403 is returned as a plain *netx.StatusError.
//   - ErrUnavailable for transport failures, timeouts and 5xx answers.
//   - ErrNotFound for 404.
//
// Every other non-2xx answer is returned wrapped as a *netx.StatusError.
//
// # Concurrency & Contexts
//
// HTTPClient is safe for concurrent use. All calls accept a context.Context
// and honor its cancellation and deadline.
package client
