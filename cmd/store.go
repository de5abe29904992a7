package main

import (
	"context"
	"customer-api/internal/config"
	"customer-api/internal/domain/customer"
	"customer-api/internal/infrastructure/database/memory"
	"customer-api/internal/infrastructure/database/orm"
	"customer-api/internal/infrastructure/database/postgres"
	"fmt"
	"log/slog"
)

// store is the selected customer.Dao and whatever must be released with it.
type store struct {
	dao   customer.Dao
	close func()
}

func openStore(ctx context.Context, cfg *config.Config, encoder customer.PasswordEncoder, logger *slog.Logger) (*store, error) {
	logger.Info("Initializing customer dao...", "dao", cfg.Database.DAO)

	switch cfg.Database.DAO {
	case config.DAOJDBC:
		return openJDBCStore(ctx, cfg.Database, logger)
	case config.DAOJPA:
		return openJPAStore(ctx, cfg.Database, logger)
	case config.DAOList:
		return openListStore(encoder, logger)
	default:
		return nil, fmt.Errorf("unknown database.dao %q", cfg.Database.DAO)
	}
}

func openJDBCStore(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (*store, error) {
	pool, err := postgres.NewConnectionPool(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	if cfg.Migrate {
		if err := postgres.MigratePool(pool, postgres.MigrateUp, logger); err != nil {
			pool.Close()
			return nil, err
		}
	}

	return &store{
		dao: postgres.NewCustomerRepository(pool, logger),
		close: func() {
			logger.Info("Closing database connection pool...")
			pool.Close()
		},
	}, nil
}

func openJPAStore(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (*store, error) {
	if cfg.Migrate && cfg.Driver == orm.DriverPostgres {
		if err := runMigrations(ctx, cfg, postgres.MigrateUp, logger); err != nil {
			return nil, err
		}
	}

	db, err := orm.Open(cfg, logger)
	if err != nil {
		return nil, err
	}

	return &store{
		dao: orm.NewCustomerDAO(db, logger),
		close: func() {
			logger.Info("Closing ORM connection...")
			if err := orm.Close(db); err != nil {
				logger.Error("Failed to close ORM connection", "error", err)
			}
		},
	}, nil
}

func openListStore(encoder customer.PasswordEncoder, logger *slog.Logger) (*store, error) {
	initial, err := memory.DefaultSeed(encoder)
	if err != nil {
		return nil, fmt.Errorf("failed to build list dao seed: %w", err)
	}
	return &store{
		dao:   memory.NewCustomerListDAO(logger, initial...),
		close: func() {},
	}, nil
}
