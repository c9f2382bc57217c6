package backend

import (
	"context"
	"time"

	"smartexpense/internal/cache"
	"smartexpense/internal/services"
	"smartexpense/internal/session"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// Result holds the infrastructure the web front-end runs on.
type Result struct {
	Sessions session.Store
	// Sweeper removes expired sessions; registered with a cache.Manager.
	Sweeper cache.Cleaner
	// Ping reports whether the session store is usable.
	Ping func(ctx context.Context) error
	// Publisher is nil when activity events are disabled.
	Publisher services.ActivityPublisher
	Cleanup   CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	Create(ctx context.Context, config Config) (*Result, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// Memory specific
	SessionCacheSize int
	SessionTTL       time.Duration

	// SQLite specific
	SQLiteDBPath string

	// Optional activity events
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

// BackendType names a session store implementation
type BackendType string

const (
	MemoryBackend BackendType = "memory"
	SQLiteBackend BackendType = "sqlite"
)

func (bt BackendType) String() string {
	return string(bt)
}

func (bt BackendType) IsValid() bool {
	switch bt {
	case MemoryBackend, SQLiteBackend:
		return true
	default:
		return false
	}
}
