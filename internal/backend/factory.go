package backend

import (
	"context"
	"fmt"
	"os"

	"moneybook/internal/config"
	"moneybook/internal/core"
	"moneybook/internal/log"
	"moneybook/internal/storage"
	"moneybook/internal/store"
	"moneybook/internal/store/memory"
)

// DefaultFactory builds backends from config.
type DefaultFactory struct {
	logger *log.Logger
}

func NewFactory(logger *log.Logger) Factory {
	return &DefaultFactory{logger: logger.WithComponent(log.ComponentStore)}
}

// FromAppConfig converts the application config to backend config.
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}
	backendType := Type(appConfig.DataBackend)
	if !backendType.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", appConfig.DataBackend)
	}
	return Config{
		Type:          backendType,
		DataDirectory: appConfig.DataDir,
		SQLiteDBPath:  appConfig.SQLiteDBPath,
	}, nil
}

func (f *DefaultFactory) CreateBackend(ctx context.Context, cfg Config) (*Result, error) {
	if !cfg.Type.IsValid() {
		return nil, fmt.Errorf("invalid backend type: %s", cfg.Type)
	}

	switch cfg.Type {
	case JSONBackend:
		return f.createJSONBackend(ctx, cfg)
	case SQLiteBackend:
		return f.createSQLiteBackend(ctx, cfg)
	case MemoryBackend:
		return f.createMemoryBackend(ctx)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", cfg.Type)
	}
}

// jsonBackend composes the three file stores into one Backend.
type jsonBackend struct {
	*store.TransactionStore
	*store.CategoryStore
	*store.AssetStore
}

func (f *DefaultFactory) createJSONBackend(ctx context.Context, cfg Config) (*Result, error) {
	dataDir := cfg.DataDirectory
	if dataDir == "" {
		dataDir = "data"
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	txs, err := store.NewTransactionStore(dataDir, f.logger)
	if err != nil {
		return nil, fmt.Errorf("initialize transaction store: %w", err)
	}
	cats, err := store.NewCategoryStore(dataDir)
	if err != nil {
		return nil, fmt.Errorf("initialize category store: %w", err)
	}
	assets, err := store.NewAssetStore(dataDir, f.logger)
	if err != nil {
		return nil, fmt.Errorf("initialize asset store: %w", err)
	}

	f.logger.InfoContext(ctx, "initialized json backend", "data_dir", dataDir)
	return &Result{
		Backend: &jsonBackend{TransactionStore: txs, CategoryStore: cats, AssetStore: assets},
	}, nil
}

func (f *DefaultFactory) createSQLiteBackend(ctx context.Context, cfg Config) (*Result, error) {
	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath, f.logger)
	if err != nil {
		return nil, fmt.Errorf("initialize sqlite repository: %w", err)
	}

	f.logger.InfoContext(ctx, "initialized sqlite backend",
		log.FieldBackend, SQLiteBackend.String(),
		"db_path", cfg.SQLiteDBPath,
	)
	return &Result{Backend: repo, Cleanup: repo.Close}, nil
}

func (f *DefaultFactory) createMemoryBackend(ctx context.Context) (*Result, error) {
	f.logger.InfoContext(ctx, "initialized memory backend")
	return &Result{Backend: memory.New(core.DefaultCategories())}, nil
}
