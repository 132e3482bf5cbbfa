// Package backend opens a store.Store from a DSN. The scheme selects the
// implementation; extra schemes can be registered at init time.
package backend

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/alfredjeanlab/parish/internal/store"
	"github.com/alfredjeanlab/parish/internal/store/memory"
	"github.com/alfredjeanlab/parish/internal/store/postgres"
	redisstore "github.com/alfredjeanlab/parish/internal/store/redis"
	"github.com/alfredjeanlab/parish/internal/store/sqlite"
)

// ErrInvalidDSN is returned for DSNs that cannot name a backend.
var ErrInvalidDSN = errors.New("backend: invalid dsn")

// Factory opens a store for a DSN whose scheme it was registered under.
type Factory func(ctx context.Context, dsn string) (store.Store, error)

var registry = struct {
	mu        sync.RWMutex
	factories map[string]Factory
}{factories: make(map[string]Factory)}

// Register installs factory for scheme, overriding the built-in backend
// of the same name. Empty schemes and nil factories are ignored.
func Register(scheme string, factory Factory) {
	scheme = normalizeScheme(scheme)
	if scheme == "" || factory == nil {
		return
	}
	registry.mu.Lock()
	defer registry.mu.Unlock()
	registry.factories[scheme] = factory
}

func lookup(scheme string) (Factory, bool) {
	registry.mu.RLock()
	defer registry.mu.RUnlock()
	f, ok := registry.factories[normalizeScheme(scheme)]
	return f, ok
}

func normalizeScheme(scheme string) string {
	return strings.ToLower(strings.TrimSpace(scheme))
}

// Open returns the store named by dsn:
//
//	memory://                 in-process map
//	postgres://...            PostgreSQL (postgresql:// also accepted)
//	sqlite:///path/to/db      SQLite file; sqlite::memory: for in-memory
//	file:path or a bare path  SQLite file
//	redis://, rediss://       Redis
func Open(ctx context.Context, dsn string) (store.Store, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidDSN)
	}
	parsed, err := url.Parse(dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDSN, err)
	}
	scheme := normalizeScheme(parsed.Scheme)
	if factory, ok := lookup(scheme); ok {
		return factory(ctx, dsn)
	}

	switch scheme {
	case "memory", "mem", "inmem":
		return memory.New(), nil
	case "postgres", "postgresql":
		return postgres.New(ctx, dsn)
	case "", "file", "sqlite", "sqlite3":
		path, err := dsnPath(parsed, dsn)
		if err != nil {
			return nil, err
		}
		return sqlite.New(path)
	case "redis", "rediss":
		return redisstore.New(ctx, dsn)
	default:
		return nil, fmt.Errorf("%w: unsupported scheme %q", ErrInvalidDSN, scheme)
	}
}

// dsnPath extracts a filesystem path from a file-like DSN.
func dsnPath(parsed *url.URL, raw string) (string, error) {
	if strings.TrimSpace(parsed.Scheme) == "" {
		return raw, nil
	}
	path := strings.TrimSpace(parsed.Opaque)
	if path == "" {
		path = strings.TrimSpace(parsed.Host + parsed.Path)
	}
	if path == "" {
		return "", fmt.Errorf("%w: missing path in %q", ErrInvalidDSN, raw)
	}
	return path, nil
}
