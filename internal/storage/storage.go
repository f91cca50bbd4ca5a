// Package storage is the device key-value boundary: the durable home of the
// session token, the cached user profile and the legacy local cart.
package storage

import (
	"context"
	"errors"
)

const (
	KeyToken     = "session:token"
	KeyUser      = "session:user"
	KeyLocalCart = "cart:local"
)

var ErrNotFound = errors.New("key not found")

type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}
