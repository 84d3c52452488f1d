package main

import (
	"fmt"
	"log/slog"

	corecfg "github.com/Tab-and-Quill/spotify-music-history/internal/core/config"
	"github.com/Tab-and-Quill/spotify-music-history/internal/core/storage"
	"github.com/Tab-and-Quill/spotify-music-history/internal/core/storage/badger"
	"github.com/Tab-and-Quill/spotify-music-history/internal/core/storage/memory"
	"github.com/Tab-and-Quill/spotify-music-history/internal/core/storage/postgres"
	"github.com/Tab-and-Quill/spotify-music-history/internal/core/storage/sqlite"
	"github.com/Tab-and-Quill/spotify-music-history/internal/migrations"
)

// openStore initializes the configured backend.
func openStore(cfg corecfg.StorageConfig) (storage.Store, error) {
	switch cfg.Backend {
	case "postgres":
		adapter, err := postgres.NewAdapter(cfg.DSN, cfg.MaxOpenConns, cfg.MaxIdleConns)
		if err != nil {
			return nil, err
		}
		if err := migrations.RunMigrations(adapter.DB(), cfg.AutoMigrate); err != nil {
			adapter.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
		if err := adapter.Prepare(); err != nil {
			adapter.Close()
			return nil, err
		}
		return postgres.NewStore(adapter), nil
	case "badger":
		if cfg.Path == "" {
			slog.Warn("storage.path is empty, badger runs in memory and data is lost on exit")
		}
		s, err := badger.Open(cfg.Path)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "sqlite":
		s, err := sqlite.Open(cfg.Path)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "memory":
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unsupported storage backend %q", cfg.Backend)
	}
}
