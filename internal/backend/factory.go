package backend

import (
	"context"
	"fmt"
	"log/slog"

	"smartexpense/internal/amqp"
	"smartexpense/internal/services"
	"smartexpense/internal/session"
	"smartexpense/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger: logger,
	}
}

// Create builds the session store for config.Type and, when configured, an AMQP publisher.
func (f *DefaultFactory) Create(ctx context.Context, config Config) (*Result, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var (
		res *Result
		err error
	)
	switch config.Type {
	case SQLiteBackend:
		res, err = f.createSQLiteBackend(config)
	case MemoryBackend:
		res = f.createMemoryBackend(config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
	if err != nil {
		return nil, err
	}

	f.attachPublisher(res, config)
	return res, nil
}

func (f *DefaultFactory) createSQLiteBackend(config Config) (*Result, error) {
	store, err := storage.NewSessionStore(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite session store: %w", err)
	}

	f.logger.Info("Initialized SQLite session backend", "component", "backend", "db_path", config.SQLiteDBPath)

	return &Result{
		Sessions: store,
		Sweeper:  store,
		Ping:     store.Ping,
		Cleanup:  store.Close,
	}, nil
}

func (f *DefaultFactory) createMemoryBackend(config Config) *Result {
	store := session.NewMemoryStore(config.SessionCacheSize, config.SessionTTL)

	f.logger.Info("Initialized memory session backend", "component", "backend", "max_sessions", config.SessionCacheSize)

	return &Result{
		Sessions: store,
		Sweeper:  store.Cache(),
		Ping:     func(context.Context) error { return nil },
	}
}

// attachPublisher connects to the broker when AMQP is configured. A broker that
// cannot be reached disables events rather than failing startup.
func (f *DefaultFactory) attachPublisher(res *Result, config Config) {
	if config.AMQPURL == "" {
		return
	}

	client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
	if err != nil {
		f.logger.Warn("Failed to initialize AMQP client, continuing without activity events",
			"component", "backend", "error", err)
		return
	}
	f.logger.Info("Initialized AMQP client",
		"component", "backend",
		"exchange", config.AMQPExchange,
		"queue", config.AMQPQueue)

	res.Publisher = client
	prev := res.Cleanup
	res.Cleanup = func() error {
		var errs []error
		if err := client.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
		if prev != nil {
			if err := prev(); err != nil {
				errs = append(errs, fmt.Errorf("sessions: %w", err))
			}
		}
		if len(errs) > 0 {
			return fmt.Errorf("close backend: %v", errs)
		}
		return nil
	}
}

var _ services.ActivityPublisher = (*amqp.Client)(nil)
