package backend

import (
	"context"
	"fmt"
	"log/slog"

	"spendbook/internal/amqp"
	"spendbook/internal/services"
	"spendbook/internal/storage"
	"spendbook/internal/store"
	"spendbook/internal/store/jsonfile"
	"spendbook/internal/store/memory"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger  *slog.Logger
	options []services.Option
}

// NewFactory creates a new backend factory. opts are passed to every
// ExpenseService it builds.
func NewFactory(logger *slog.Logger, opts ...services.Option) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger:  logger,
		options: opts,
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	st, err := f.openStore(ctx, config)
	if err != nil {
		return nil, err
	}

	opts := append([]services.Option(nil), f.options...)
	amqpEnabled := false
	if config.AMQPURL != "" {
		// AMQP is optional: the expense list is saved either way
		client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
		if err != nil {
			f.logger.Warn("Failed to initialize AMQP client, continuing without change events", "error", err)
		} else {
			f.logger.Info("Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
			opts = append(opts, services.WithPublisher(client))
			amqpEnabled = true
		}
	}

	svc := services.NewExpenseService(st, opts...)

	f.logger.Info("Initialized backend",
		"backend", config.Type.String(),
		"amqp_enabled", amqpEnabled)

	return &BackendResult{
		Store:   st,
		Service: svc,
		Cleanup: svc.Close,
	}, nil
}

func (f *DefaultFactory) openStore(ctx context.Context, config Config) (store.Store, error) {
	switch config.Type {
	case JSONBackend:
		f.logger.Debug("Using JSON file store", "path", config.DataFile)
		return jsonfile.New(config.DataFile), nil

	case MemoryBackend:
		f.logger.Warn("Using in-memory store, expenses are lost on exit")
		return memory.New(), nil

	case SQLiteBackend:
		repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		f.logger.Debug("Using SQLite store", "db_path", config.SQLiteDBPath)
		return repo, nil

	case PostgresBackend:
		repo, err := storage.NewPostgresRepository(ctx, config.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Postgres repository: %w", err)
		}
		f.logger.Debug("Using Postgres store")
		return repo, nil

	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}
