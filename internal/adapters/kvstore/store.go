// Package kvstore provides the durable key-value store the state repository
// persists into: Get, Set and Remove over string values.
package kvstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/okian/elimvote/pkg/metrics"
)

// Store is the persistent store contract. Set overwrites the whole value
// atomically; a reader never observes a partial write.
type Store interface {
	// Get returns the value for key and whether it was present.
	Get(ctx context.Context, key string) (string, bool, error)
	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error
	// Remove deletes key. Removing an absent key is not an error.
	Remove(ctx context.Context, key string) error
	// Close releases backend resources.
	Close() error
}

// Supported drivers.
const (
	DriverMemory   = "memory"
	DriverFile     = "file"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
)

// Config selects and parameterises a backend.
type Config struct {
	// Driver is one of memory, file, sqlite, postgres, redis.
	Driver string
	// DSN is the directory (file), data source name (sqlite, postgres) or
	// address (redis).
	DSN string
	// Namespace, when set, prefixes every key with "<namespace>:".
	Namespace string
	// RedisDB selects the redis logical database.
	RedisDB int
}

// Open builds the backend named by cfg.Driver.
func Open(ctx context.Context, cfg Config) (Store, error) {
	var (
		s   Store
		err error
	)
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "", DriverMemory:
		s = NewMemoryStore()
	case DriverFile:
		s, err = NewFileStore(cfg.DSN)
	case DriverSQLite, DriverPostgres:
		s, err = NewSQLStore(ctx, cfg.Driver, cfg.DSN)
	case DriverRedis:
		s, err = NewRedisStore(ctx, cfg.DSN, cfg.RedisDB)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
	}
	if err != nil {
		return nil, err
	}

	backend := strings.ToLower(strings.TrimSpace(cfg.Driver))
	if backend == "" {
		backend = DriverMemory
	}
	s = Instrument(s, backend)
	if cfg.Namespace != "" {
		s = WithPrefix(s, cfg.Namespace+":")
	}
	return s, nil
}

type prefixed struct {
	Store
	prefix string
}

// WithPrefix scopes every key of s under prefix.
func WithPrefix(s Store, prefix string) Store {
	return &prefixed{Store: s, prefix: prefix}
}

func (p *prefixed) Get(ctx context.Context, key string) (string, bool, error) {
	return p.Store.Get(ctx, p.prefix+key)
}

func (p *prefixed) Set(ctx context.Context, key, value string) error {
	return p.Store.Set(ctx, p.prefix+key, value)
}

func (p *prefixed) Remove(ctx context.Context, key string) error {
	return p.Store.Remove(ctx, p.prefix+key)
}

type instrumented struct {
	Store
	backend string
}

// Instrument records latency and failures of every operation on s.
func Instrument(s Store, backend string) Store {
	return &instrumented{Store: s, backend: backend}
}

func (i *instrumented) observe(op string, start time.Time, err error) {
	metrics.RecordStoreOperation(i.backend, op, float64(time.Since(start).Microseconds())/1000, err != nil)
}

func (i *instrumented) Get(ctx context.Context, key string) (v string, ok bool, err error) {
	start := time.Now()
	defer func() { i.observe("get", start, err) }()
	return i.Store.Get(ctx, key)
}

func (i *instrumented) Set(ctx context.Context, key, value string) (err error) {
	start := time.Now()
	defer func() { i.observe("set", start, err) }()
	return i.Store.Set(ctx, key, value)
}

func (i *instrumented) Remove(ctx context.Context, key string) (err error) {
	start := time.Now()
	defer func() { i.observe("remove", start, err) }()
	return i.Store.Remove(ctx, key)
}
