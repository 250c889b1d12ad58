package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/timescope/featureset-api/internal/bootstrap"
)

const migrationTimeout = 5 * time.Minute

func newMigrateCommand(adminCtx *adminContext) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := contextWithTimeout(cmd, migrationTimeout)
			defer cancel()

			db, err := connectDB(adminCtx)
			if err != nil {
				return err
			}
			defer closeDB(ctx, db, adminCtx.Logger)

			return bootstrap.RunMigrations(ctx, db, adminCtx.Logger)
		},
	}
}

func newStatsCommand(adminCtx *adminContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print featureset record counts by status",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := contextWithTimeout(cmd, 30*time.Second)
			defer cancel()

			db, err := connectDB(adminCtx)
			if err != nil {
				return err
			}
			defer closeDB(ctx, db, adminCtx.Logger)

			const query = `
				SELECT
					COUNT(*) FILTER (WHERE task_id <> '' AND finished_at IS NULL) AS pending,
					COUNT(*) FILTER (WHERE finished_at IS NOT NULL)               AS completed,
					COUNT(*)                                                      AS total
				FROM featuresets`

			var pending, completed, total int64
			if err := db.QueryRowContext(ctx, query).Scan(&pending, &completed, &total); err != nil {
				return fmt.Errorf("query featureset stats: %w", err)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "STATUS\tCOUNT")
			fmt.Fprintf(w, "pending\t%d\n", pending)
			fmt.Fprintf(w, "completed\t%d\n", completed)
			fmt.Fprintf(w, "total\t%d\n", total)
			return w.Flush()
		},
	}
}
