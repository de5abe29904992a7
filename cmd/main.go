package main

import (
	"context"
	"customer-api/internal/config"
	"customer-api/internal/infrastructure/database/orm"
	"customer-api/internal/infrastructure/database/postgres"
	"customer-api/internal/infrastructure/logging"
	"customer-api/internal/pkg/password"
	"customer-api/internal/seed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
)

var version = "dev"

// @title Customer API
// @version 1.0
// @description Customer registration, retrieval, update and deletion with JWT authentication.
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

type options struct {
	configDir string
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:          "customer-api",
		Short:        "Customer registration and management API",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), opts)
		},
	}
	rootCmd.PersistentFlags().StringVarP(&opts.configDir, "config", "c", ".", "Directory containing config.yml")

	rootCmd.AddCommand(newServeCmd(opts))
	rootCmd.AddCommand(newMigrateCmd(opts))
	rootCmd.AddCommand(newSeedCmd(opts))
	rootCmd.AddCommand(newVersionCmd())
	return rootCmd
}

func newServeCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), opts)
		},
	}
}

func newMigrateCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:       "migrate [up|down]",
		Short:     "Apply or roll back the PostgreSQL schema",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{string(postgres.MigrateUp), string(postgres.MigrateDown)},
		RunE: func(cmd *cobra.Command, args []string) error {
			direction, err := postgres.ParseDirection(args[0])
			if err != nil {
				return err
			}
			cfg, logger, err := initializeApp(opts.configDir)
			if err != nil {
				return err
			}
			return runMigrations(cmd.Context(), cfg.Database, direction, logger)
		},
	}
}

func newSeedCmd(opts *options) *cobra.Command {
	var count int
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Insert randomly generated customers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := initializeApp(opts.configDir)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("count") {
				count = cfg.Seed.Count
			}
			if cfg.Database.DAO == config.DAOList {
				logger.Warn("Seeding the list dao only lasts for the lifetime of this command")
			}

			encoder := password.NewBcryptEncoder(bcrypt.DefaultCost)
			st, err := openStore(cmd.Context(), cfg, encoder, logger)
			if err != nil {
				return err
			}
			defer st.close()

			inserted, err := seed.NewSeeder(st.dao, encoder, nil, logger).Seed(cmd.Context(), count)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d customer(s)\n", inserted)
			return nil
		},
	}
	cmd.Flags().IntVarP(&count, "count", "n", 1, "Number of customers to insert")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "customer-api", version)
		},
	}
}

func initializeApp(configDir string) (*config.Config, *slog.Logger, error) {
	cfg, err := config.LoadConfig(configDir)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		return nil, nil, err
	}

	logger := logging.NewLogger(cfg.Logger)
	logger.Info("Configuration loaded", "dao", cfg.Database.DAO, "auth_enabled", cfg.Server.Auth.Enabled)
	return cfg, logger, nil
}

// runMigrations needs PostgreSQL; the jpa dao on sqlite builds its schema with AutoMigrate.
func runMigrations(ctx context.Context, cfg config.DatabaseConfig, direction postgres.Direction, logger *slog.Logger) error {
	if !usesPostgres(cfg) {
		return errors.New("migrations require database.dao=jdbc or database.dao=jpa with database.driver=postgres")
	}

	pool, err := postgres.NewConnectionPool(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer pool.Close()

	return postgres.MigratePool(pool, direction, logger)
}

func usesPostgres(cfg config.DatabaseConfig) bool {
	return cfg.DAO == config.DAOJDBC || (cfg.DAO == config.DAOJPA && cfg.Driver == orm.DriverPostgres)
}
