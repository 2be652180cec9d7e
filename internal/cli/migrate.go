package cli

import (
	"context"

	"github.com/spf13/cobra"

	"playtesting-bot/internal/config"
	pgmigrations "playtesting-bot/internal/infra/postgres/migrations"
	"playtesting-bot/internal/logger"
)

// NewMigrateCmd applies database migrations.
func NewMigrateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			return runMigrations(cmd.Context(), cfg)
		},
	}
}

func runMigrations(ctx context.Context, cfg config.Config) error {
	log := logger.New(cfg.Log.Level, nil)
	applied, err := pgmigrations.Apply(ctx, cfg.Postgres.URL)
	if err != nil {
		return err
	}
	log.WithField("applied", applied).Info("migrations applied")
	return nil
}
