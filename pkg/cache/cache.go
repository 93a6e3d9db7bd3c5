// Package cache provides the storage layer for workflows, diagrams and
// rendered artifacts.
//
// # Backends
//
//   - [NullCache]: caching disabled
//   - [FileCache]: JSON entry files under a local directory (CLI default)
//   - [RedisCache]: shared cache for multiple server instances
//   - [MongoCache]: document store with a TTL index on expires_at
//
// All backends implement [Cache] and are safe for concurrent use. [Open]
// builds one from [Options].
//
// # Keys
//
// A [Keyer] turns pipeline inputs into cache keys. Keys include a hash of
// every option that affects the cached value, so changing the layout engine or
// the hint padding yields a different key.
package cache

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Cache stores opaque byte values with an optional TTL.
type Cache interface {
	// Get returns the value for key and whether it was found. Expired entries
	// are reported as misses.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores data under key. A ttl of zero means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Close releases backend resources.
	Close() error
}

// Default TTLs per cached value kind.
const (
	// TTLWorkflow is short because task states change while a workflow runs.
	TTLWorkflow = 30 * time.Second
	TTLDiagram  = 24 * time.Hour
	TTLArtifact = 24 * time.Hour
)

// Backend names accepted by [Open].
const (
	BackendNone  = "none"
	BackendFile  = "file"
	BackendRedis = "redis"
	BackendMongo = "mongo"
)

// Options selects and configures a cache backend.
type Options struct {
	Backend string // none, file (default), redis or mongo
	Dir     string // FileCache directory; defaults to DefaultDir()
	Redis   RedisConfig
	Mongo   MongoConfig
}

// Open creates the cache backend selected by opts.Backend.
func Open(ctx context.Context, opts Options) (Cache, error) {
	switch opts.Backend {
	case BackendNone:
		return NewNullCache(), nil
	case "", BackendFile:
		dir := opts.Dir
		if dir == "" {
			d, err := DefaultDir()
			if err != nil {
				return nil, err
			}
			dir = d
		}
		return NewFileCache(dir)
	case BackendRedis:
		return NewRedisCache(ctx, opts.Redis)
	case BackendMongo:
		return NewMongoCache(ctx, opts.Mongo)
	default:
		return nil, fmt.Errorf("unknown cache backend %q", opts.Backend)
	}
}

// DefaultDir returns the per-user cache directory for the file backend.
func DefaultDir() (string, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("get cache dir: %w", err)
	}
	return filepath.Join(base, "wfdiagram"), nil
}
