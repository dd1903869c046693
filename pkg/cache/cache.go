// Package cache holds the read-through response caches used by the statistics datasource.
package cache

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"
)

// ErrMiss is returned by Get when a key is absent or has expired
var ErrMiss = errors.New("cache: miss")

// Cache stores raw provider responses for a limited time
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Close() error
}

// Options selects and configures a backend
type Options struct {
	Backend       string // memory, sqlite, redis or none
	Path          string // sqlite database file
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// New opens the backend named in opts
func New(ctx context.Context, opts Options) (Cache, error) {
	switch opts.Backend {
	case "", "memory":
		return NewMemoryCache(), nil
	case "sqlite":
		return NewSQLiteCache(ctx, opts.Path)
	case "redis":
		return NewRedisCache(ctx, opts.RedisAddr, opts.RedisPassword, opts.RedisDB)
	case "none":
		return Nop{}, nil
	}
	return nil, fmt.Errorf("cache: unknown backend %q", opts.Backend)
}

// Key builds a deterministic key from an endpoint and its query parameters.
// url.Values.Encode sorts by parameter name
func Key(endpoint string, params url.Values) string {
	if len(params) == 0 {
		return endpoint
	}
	return endpoint + "?" + params.Encode()
}

// Nop never stores anything
type Nop struct{}

func (Nop) Get(context.Context, string) ([]byte, error)              { return nil, ErrMiss }
func (Nop) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (Nop) Close() error                                             { return nil }
