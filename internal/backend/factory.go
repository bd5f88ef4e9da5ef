package backend

import (
	"context"
	"errors"
	"fmt"

	"ledger/internal/amqp"
	"ledger/internal/log"
	"ledger/internal/storage"
	"ledger/internal/store"
	"ledger/internal/store/memory"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
	// dialAMQP is replaced in tests.
	dialAMQP func(url, exchange, queue string) (*amqp.Client, error)
}

// NewFactory creates a new backend factory
func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.Nop()
	}
	return &DefaultFactory{
		logger:   logger.WithComponent(log.ComponentBackend),
		dialAMQP: amqp.NewClient,
	}
}

// CreateBackend opens the configured store and, when AMQP is configured,
// a publisher. A broker that cannot be reached at startup is logged and
// skipped: events are best effort.
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var st store.Store
	switch config.Type {
	case SQLiteBackend:
		repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		st = repo
	case MemoryBackend:
		st = memory.New()
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}

	result := &BackendResult{Store: st}
	var client *amqp.Client
	if config.AMQPURL != "" {
		c, err := f.dialAMQP(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
		if err != nil {
			f.logger.WarnContext(ctx, "Failed to initialize AMQP client, continuing without ledger events",
				log.FieldError, err)
		} else {
			client = c
			result.Publisher = c
			f.logger.InfoContext(ctx, "Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
		}
	}

	result.Cleanup = func() error {
		var errs []error
		if client != nil {
			errs = append(errs, client.Close())
		}
		errs = append(errs, st.Close())
		return errors.Join(errs...)
	}

	f.logger.InfoContext(ctx, "Initialized backend",
		"type", config.Type.String(),
		"amqp_enabled", client != nil)
	return result, nil
}
