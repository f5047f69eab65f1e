package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/iliyamo/restaurant-manager/internal/config"
	"github.com/iliyamo/restaurant-manager/internal/database"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create missing database tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)

			cfg, err := config.LoadDB()
			if err != nil {
				return err
			}
			db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer db.Close()

			st := newStep(logger)
			n, err := database.Migrate(ctx, db)
			if err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			st.done("schema up to date", "statements", n, "db", cfg.DBName)
			return nil
		},
	}
}
