package backend

import (
	"fmt"
	"log/slog"

	"bilancio/internal/amqp"
	"bilancio/internal/storage"
	"bilancio/internal/storage/memory"
)

type factory struct{}

func NewFactory() Factory {
	return &factory{}
}

func (f *factory) Create(cfg Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid backend config: %w", err)
	}

	switch cfg.Type {
	case BackendMemory:
		return createMemoryBackend()
	case BackendSQLite:
		return createSQLiteBackend(cfg)
	default:
		return nil, fmt.Errorf("unknown backend type: %s", cfg.Type)
	}
}

func createMemoryBackend() (*Result, error) {
	store := memory.New()
	return &Result{
		Store:   store,
		Cleanup: func() {},
	}, nil
}

func createSQLiteBackend(cfg Config) (*Result, error) {
	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create sqlite repository: %w", err)
	}

	// A broken broker must not keep the ledger from serving, so AMQP
	// failures degrade to a nil client and exports become no-ops.
	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			slog.Warn("Failed to initialize AMQP client, continuing without snapshot exports", "error", err)
			amqpClient = nil
		}
	}

	cleanup := func() {
		if amqpClient != nil {
			if err := amqpClient.Close(); err != nil {
				slog.Warn("Failed to close AMQP client", "error", err)
			}
		}
		if err := repo.Close(); err != nil {
			slog.Warn("Failed to close sqlite repository", "error", err)
		}
	}

	return &Result{
		Store:      repo,
		AMQPClient: amqpClient,
		Cleanup:    cleanup,
	}, nil
}
