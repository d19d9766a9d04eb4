// Package common contains shared constants, sentinel errors and byte helpers
// used across devcms components.
package common

// AuthorizationHeaderName carries the session token on outbound HTTP requests
// and as gRPC metadata.
const AuthorizationHeaderName = "authorization"

// RequestIDHeaderName tags outbound requests so the remote can correlate logs.
const RequestIDHeaderName = "x-request-id"

// BearerPrefix precedes the token in AuthorizationHeaderName.
const BearerPrefix = "Bearer "
