package docstore

import (
	"context"
	"errors"
)

var (
	ErrNotFound    = errors.New("document not found")
	ErrConflict    = errors.New("document version conflict")
	ErrUnavailable = errors.New("document store unavailable")
)

// Store is the generic document-store contract the rest of the system is
// written against. Documents are opaque JSON blobs grouped into named
// collections; every document carries a monotonically increasing version
// used for conditional writes.
//
// Version semantics: Get returns the current version; SetIf succeeds only if
// the stored version still equals the expected one (0 = the document must not
// exist yet). Set overwrites unconditionally and bumps the version.
type Store interface {
	Get(ctx context.Context, collection, id string) (data []byte, version int64, err error)
	Set(ctx context.Context, collection, id string, data []byte) error
	SetIf(ctx context.Context, collection, id string, data []byte, expectedVersion int64) error
	Delete(ctx context.Context, collection, id string) error
	ListIDs(ctx context.Context, collection string) ([]string, error)

	// Reconnect refreshes the underlying connection, e.g. after the session
	// staleness threshold elapsed. It must not change the outcome of any
	// subsequent operation, only its latency.
	Reconnect(ctx context.Context) error
	Close() error
}
