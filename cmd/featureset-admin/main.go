// Command featureset-admin provides operational tooling for the featureset
// service: schema migrations, stale record cleanup, and user provisioning.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/timescope/featureset-api/config"
	"github.com/timescope/featureset-api/internal/bootstrap"
)

type adminContext struct {
	Logger *slog.Logger
	Config config.AppConfig
}

func main() {
	logger := bootstrap.InitLogger()

	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		logger.Error("load config", "error", err)
		os.Exit(1) //nolint:forbidigo // CLI must signal configuration load failure to shell scripts
	}

	adminCtx := &adminContext{
		Logger: logger,
		Config: cfg,
	}

	root := newRootCommand(adminCtx)
	if err := root.Execute(); err != nil {
		logger.Error("command failed", "error", err)
		os.Exit(1) //nolint:forbidigo // CLI must propagate command execution failure to callers
	}
}

func newRootCommand(adminCtx *adminContext) *cobra.Command {
	root := &cobra.Command{
		Use:           "featureset-admin",
		Short:         "Operational tooling for the featureset service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newMigrateCommand(adminCtx),
		newStatsCommand(adminCtx),
		newPurgeStaleCommand(adminCtx),
		newCreateUserCommand(adminCtx),
	)

	return root
}

// contextWithTimeout derives a bounded context from the command's context.
func contextWithTimeout(cmd *cobra.Command, timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), timeout)
}

// connectDB opens the configured database for a single admin command.
func connectDB(adminCtx *adminContext) (*sql.DB, error) {
	db, err := bootstrap.ConnectDB(bootstrap.DatabaseConfig{
		DBConfig: adminCtx.Config.Postgres,
		Logger:   adminCtx.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}
	return db, nil
}

func closeDB(ctx context.Context, db *sql.DB, logger *slog.Logger) {
	if err := db.Close(); err != nil {
		logger.ErrorContext(ctx, "close database failed", "error", err)
	}
}
