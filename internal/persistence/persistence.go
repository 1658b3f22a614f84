// Package persistence provides storage backends for the upload history log.
//
// Every backend stores one opaque JSON blob under a single key and
// implements core.HistoryPort. A key that was never written loads as
// (nil, nil); the history store treats that as an empty log.
package persistence

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/JonMunkholm/UDIEditor/internal/core"
)

// Backend names accepted by Open.
const (
	BackendMemory   = "memory"
	BackendFile     = "file"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

// Port is a history port that owns resources.
type Port interface {
	core.HistoryPort
	Close() error
}

// Options selects and configures a backend.
type Options struct {
	Backend     string
	Key         string
	Path        string
	SQLitePath  string
	DatabaseURL string
	RedisURL    string
	Timeout     time.Duration
}

// Open connects the backend named by opts.Backend.
func Open(ctx context.Context, opts Options) (Port, error) {
	if opts.Key == "" {
		opts.Key = core.HistoryKey
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}

	switch strings.ToLower(opts.Backend) {
	case BackendMemory:
		return NewMemory(), nil
	case BackendFile, "":
		return NewFile(opts.Path), nil
	case BackendSQLite:
		return OpenSQLite(ctx, opts.SQLitePath, opts.Key)
	case BackendPostgres:
		return OpenPostgres(ctx, opts.DatabaseURL, opts.Key)
	case BackendRedis:
		return OpenRedis(ctx, opts.RedisURL, opts.Key, opts.Timeout)
	default:
		return nil, fmt.Errorf("unknown history backend %q", opts.Backend)
	}
}

// timeoutPort bounds each call on the wrapped port.
type timeoutPort struct {
	Port
	timeout time.Duration
}

// WithTimeout wraps p so that every Load and Save is cancelled after d.
func WithTimeout(p Port, d time.Duration) Port {
	if d <= 0 {
		return p
	}
	return &timeoutPort{Port: p, timeout: d}
}

func (t *timeoutPort) Load(ctx context.Context) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.Port.Load(ctx)
}

func (t *timeoutPort) Save(ctx context.Context, data []byte) error {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.Port.Save(ctx, data)
}
