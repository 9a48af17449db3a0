// Package store provides the narrow blob interface conversations are
// persisted through. Implementations only need get/set semantics; all
// serialization and schema concerns stay with the caller.
package store

import "context"

// Store is a flat key/value blob store. Get reports found=false for a
// missing key instead of an error so callers can distinguish "no such
// conversation" from an unavailable backend.
type Store interface {
	Get(ctx context.Context, key string) (blob []byte, found bool, err error)
	Set(ctx context.Context, key string, blob []byte) error
	Ping(ctx context.Context) error
	Close() error
}
