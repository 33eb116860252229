// Package localstore provides durable key/value persistence for the client
// cache, backed by a local SQLite database.
package localstore

import "context"

// Keys the synchronization engine persists under. Serialization of the
// values is the caller's responsibility.
const (
	KeyEvents    = "events"
	KeyUserData  = "userData"
	KeyAuthToken = "authToken"
	KeyOTP       = "otp"
)

// Store is the local persistence contract. Get returns (nil, nil) for an
// absent key. Failures are non-fatal to the caller: the in-memory state
// update that triggered a write must not be blocked by a failed write.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	// DeleteMany removes several keys atomically.
	DeleteMany(ctx context.Context, keys ...string) error
	Clear(ctx context.Context) error
}
