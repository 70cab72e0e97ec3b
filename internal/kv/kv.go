// Package kv is the local durable key-value store that backs autosave sessions.
package kv

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Store is a flat, last-write-wins string-keyed namespace.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	// ListKeysWithPrefix returns matching keys in ascending byte order.
	ListKeysWithPrefix(ctx context.Context, prefix string) ([]string, error)
}

var ErrNotFound = errors.New("not found")

// Open returns a Store based on a URL: mem:// for an in-memory store,
// sqlite://path (or a bare path) for the on-disk store.
func Open(ctx context.Context, url string) (Store, io.Closer, error) {
	switch {
	case url == "" || url == "mem://" || strings.HasPrefix(url, "mem:"):
		return NewMem(), io.NopCloser(nil), nil
	case strings.HasPrefix(url, "sqlite://"), !strings.Contains(url, "://"):
		return openSQLite(ctx, url)
	default:
		return nil, nil, fmt.Errorf("unsupported store url: %s", url)
	}
}
