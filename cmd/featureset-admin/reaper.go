package main

import (
	"time"

	"github.com/spf13/cobra"
	"github.com/timescope/featureset-api/internal/data"
	"github.com/timescope/featureset-api/internal/service"
)

func newPurgeStaleCommand(adminCtx *adminContext) *cobra.Command {
	var (
		maxAge    time.Duration
		batchSize int
	)

	cmd := &cobra.Command{
		Use:   "purge-stale",
		Short: "Delete pending featuresets whose pipeline was lost",
		Long: "Delete pending featureset records older than the given age. " +
			"A record stays pending forever when the process watching its pipeline dies; " +
			"this runs a single reaper sweep without starting the service.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := contextWithTimeout(cmd, 5*time.Minute)
			defer cancel()

			db, err := connectDB(adminCtx)
			if err != nil {
				return err
			}
			defer closeDB(ctx, db, adminCtx.Logger)

			reaperCfg := adminCtx.Config.Reaper
			if maxAge > 0 {
				reaperCfg.PendingMaxAge = maxAge
			}
			if batchSize > 0 {
				reaperCfg.BatchSize = batchSize
			}

			reaper, err := service.NewReaperService(service.ReaperServiceOptions{
				Repo:   data.NewFeaturesetRepo(db, data.RepoConfig{Logger: adminCtx.Logger}),
				Config: reaperCfg,
				Logger: adminCtx.Logger,
			})
			if err != nil {
				return err
			}

			deleted, err := reaper.RunOnce(ctx)
			if err != nil {
				return err
			}

			adminCtx.Logger.InfoContext(ctx, "stale featuresets purged",
				"deleted", deleted,
				"max_age", reaperCfg.PendingMaxAge,
			)
			return nil
		},
	}

	cmd.Flags().DurationVar(&maxAge, "max-age", 0, "override the configured pending max age")
	cmd.Flags().IntVar(&batchSize, "batch-size", 0, "override the configured delete batch size")

	return cmd
}
