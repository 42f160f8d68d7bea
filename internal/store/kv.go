package store

import (
	"context"
	"errors"
)

// ErrUnknownDriver is returned by Open for an unsupported backend name.
var ErrUnknownDriver = errors.New("store: unknown driver")

// KV is the minimal set/hash surface the repository needs from a backend.
// Backends must treat a missing key as empty, never as an error.
type KV interface {
	SAdd(ctx context.Context, key, member string) error
	SMembers(ctx context.Context, key string) ([]string, error)
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGet(ctx context.Context, key, field string) (string, bool, error)
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	Close() error
}
