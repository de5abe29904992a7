package main

import (
	"bytes"
	"context"
	"customer-api/internal/batch"
	"customer-api/internal/config"
	"customer-api/internal/event"
	"customer-api/internal/infrastructure/database/postgres"
	"customer-api/internal/pkg/password"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yml"), []byte(content), 0o644))
	return dir
}

const listConfig = `
server:
  auth:
    jwtSecret: cmd-test-secret
database:
  dao: list
`

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetArgs([]string{"version"})

	require.NoError(t, root.Execute())
	assert.Equal(t, "customer-api dev\n", out.String())
}

func TestRootCommandRegistersSubcommands(t *testing.T) {
	root := newRootCmd()
	for _, name := range []string{"serve", "migrate", "seed", "version"} {
		cmd, _, err := root.Find([]string{name})
		require.NoError(t, err)
		assert.Equal(t, name, cmd.Name())
	}
}

func TestSeedCommand(t *testing.T) {
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetArgs([]string{"seed", "--config", writeConfig(t, listConfig), "--count", "2"})

	require.NoError(t, root.ExecuteContext(context.Background()))
	assert.Equal(t, "seeded 2 customer(s)\n", out.String())
}

func TestMigrateCommand(t *testing.T) {
	t.Run("rejects an unknown direction", func(t *testing.T) {
		root := newRootCmd()
		root.SetOut(io.Discard)
		root.SetErr(io.Discard)
		root.SetArgs([]string{"migrate", "sideways"})
		assert.ErrorIs(t, root.Execute(), postgres.ErrMigrationFailed)
	})

	t.Run("refuses the list dao", func(t *testing.T) {
		root := newRootCmd()
		root.SetOut(io.Discard)
		root.SetErr(io.Discard)
		root.SetArgs([]string{"migrate", "up", "--config", writeConfig(t, listConfig)})
		assert.ErrorContains(t, root.ExecuteContext(context.Background()), "migrations require")
	})
}

func TestUsesPostgres(t *testing.T) {
	assert.True(t, usesPostgres(config.DatabaseConfig{DAO: config.DAOJDBC}))
	assert.True(t, usesPostgres(config.DatabaseConfig{DAO: config.DAOJPA, Driver: "postgres"}))
	assert.False(t, usesPostgres(config.DatabaseConfig{DAO: config.DAOJPA, Driver: "sqlite"}))
	assert.False(t, usesPostgres(config.DatabaseConfig{DAO: config.DAOList}))
}

func TestOpenStore(t *testing.T) {
	ctx := context.Background()
	encoder := password.NewBcryptEncoder(bcrypt.MinCost)

	t.Run("list dao starts with the default customers", func(t *testing.T) {
		st, err := openStore(ctx, &config.Config{Database: config.DatabaseConfig{DAO: config.DAOList}}, encoder, testLogger)
		require.NoError(t, err)
		defer st.close()

		count, err := st.dao.CountCustomers(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(2), count)
	})

	t.Run("jpa dao on sqlite creates its schema", func(t *testing.T) {
		cfg := &config.Config{Database: config.DatabaseConfig{DAO: config.DAOJPA, Driver: "sqlite", Migrate: true}}
		st, err := openStore(ctx, cfg, encoder, testLogger)
		require.NoError(t, err)
		defer st.close()

		count, err := st.dao.CountCustomers(ctx)
		require.NoError(t, err)
		assert.Zero(t, count)
	})

	t.Run("unknown dao is rejected", func(t *testing.T) {
		_, err := openStore(ctx, &config.Config{Database: config.DatabaseConfig{DAO: "mongo"}}, encoder, testLogger)
		assert.Error(t, err)
	})
}

func TestNewTokenUtil(t *testing.T) {
	t.Run("uses the configured secret", func(t *testing.T) {
		tokens, err := newTokenUtil(config.AuthConfig{Enabled: true, JWTSecret: "s"}, testLogger)
		require.NoError(t, err)
		token, err := tokens.IssueToken("alex@gmail.com")
		require.NoError(t, err)
		assert.True(t, tokens.IsTokenValid(token, "alex@gmail.com"))
	})

	t.Run("generates a secret when auth is disabled", func(t *testing.T) {
		tokens, err := newTokenUtil(config.AuthConfig{Enabled: false}, testLogger)
		require.NoError(t, err)
		assert.NotNil(t, tokens)
	})

	t.Run("fails without a secret when auth is enabled", func(t *testing.T) {
		_, err := newTokenUtil(config.AuthConfig{Enabled: true}, testLogger)
		assert.Error(t, err)
	})
}

func TestNewEventPublisherDisabled(t *testing.T) {
	pub, closeFn, err := newEventPublisher(config.RabbitMQConfig{Enabled: false}, testLogger)
	require.NoError(t, err)
	defer closeFn()
	assert.IsType(t, event.NoopPublisher{}, pub)
}

type zeroCounter struct{}

func (zeroCounter) CountCustomers(context.Context) (int64, error) { return 0, nil }

func TestServerLifecycle(t *testing.T) {
	cfg := &config.Config{
		Server: config.ServerConfig{
			Port:         0,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 5 * time.Second,
			IdleTimeout:  5 * time.Second,
		},
	}

	cronScheduler := startBatchJobs(config.BatchConfig{}, batch.NewCustomerStatsJob(zeroCounter{}, testLogger), testLogger)
	assert.Len(t, cronScheduler.Entries(), 1)

	srv, serverErrors := startServer(cfg, http.NewServeMux(), testLogger)
	require.NotNil(t, srv)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.NoError(t, handleShutdown(ctx, srv, cronScheduler, serverErrors, testLogger))
}
