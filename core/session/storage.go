package session

import "context"

// Keys under which a session is persisted. They are always written and cleared together.
const (
	KeyToken = "token"
	KeyUser  = "user"
)

// Storage is a small persisted key/value space, one per browser or CLI user.
type Storage interface {
	// Get returns the value stored under key and whether it exists.
	Get(ctx context.Context, key string) (string, bool, error)
	// Replace writes every item at once; readers never see a partial write.
	Replace(ctx context.Context, items map[string]string) error
	// Remove deletes the keys at once. Missing keys are ignored.
	Remove(ctx context.Context, keys ...string) error
}
