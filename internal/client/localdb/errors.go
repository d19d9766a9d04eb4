package localdb

import "errors"

var (
	// ErrBlocked means another connection or process holds a lock the
	// operation needs. Nothing was changed; the caller may retry.
	ErrBlocked = errors.New("local database blocked by another session")

	ErrInvalidTableName      = errors.New("invalid table name")
	ErrInvalidTableMeta      = errors.New("invalid table definition")
	ErrReservedTable         = errors.New("reserved table name")
	ErrTableExists           = errors.New("table already exists")
	ErrUnknownCollection     = errors.New("unknown collection")
	ErrNotFound              = errors.New("document not found")
	ErrMissingKey            = errors.New("document key missing")
	ErrEncryptionKeyRequired = errors.New("encryption key required")
	ErrEncryptedQuery        = errors.New("field queries are not supported on encrypted collections")
)
