package session

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("session key not found")

// Store is a key-value store partitioned by session id. Get, Set and Touch
// restart the key's TTL; Touch reports ErrNotFound for a key that is gone.
type Store interface {
	Get(ctx context.Context, sessionID, key string) ([]byte, error)
	Set(ctx context.Context, sessionID, key string, value []byte) error
	Delete(ctx context.Context, sessionID, key string) error
	Touch(ctx context.Context, sessionID, key string) error
}

// KV is a Store view bound to a single session.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Touch(ctx context.Context, key string) error
}

func Bind(store Store, sessionID string) KV {
	return boundKV{store: store, sessionID: sessionID}
}

type boundKV struct {
	store     Store
	sessionID string
}

func (b boundKV) Get(ctx context.Context, key string) ([]byte, error) {
	return b.store.Get(ctx, b.sessionID, key)
}

func (b boundKV) Set(ctx context.Context, key string, value []byte) error {
	return b.store.Set(ctx, b.sessionID, key, value)
}

func (b boundKV) Delete(ctx context.Context, key string) error {
	return b.store.Delete(ctx, b.sessionID, key)
}

func (b boundKV) Touch(ctx context.Context, key string) error {
	return b.store.Touch(ctx, b.sessionID, key)
}
