package cli

import (
	"context"
	"os"

	charmlog "github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// Execute runs the command line and returns the first command error.
func Execute() error {
	return newRootCmd().ExecuteContext(context.Background())
}

func newRootCmd() *cobra.Command {
	var (
		verbose bool
		envFile string
	)

	root := &cobra.Command{
		Use:          "restaurant-manager",
		Short:        "Floor plans, reservations and stock for restaurants",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := charmlog.InfoLevel
			if verbose {
				level = charmlog.DebugLevel
			}
			logger := newLogger(os.Stderr, level)
			if err := loadEnv(envFile); err != nil {
				return err
			}
			if envFile != "" {
				logger.Debug("environment loaded", "file", envFile)
			}
			cmd.SetContext(withLogger(cmd.Context(), logger))
			return nil
		},
	}

	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentFlags().StringVar(&envFile, "env-file", "", "read environment variables from this file (default .env when present)")

	root.AddCommand(newServeCmd())
	root.AddCommand(newMigrateCmd())
	root.AddCommand(newConsumeCmd())

	return root
}

// loadEnv reads path into the environment without overriding variables that
// are already set.  With no path it reads ./.env when it exists.
func loadEnv(path string) error {
	if path != "" {
		return godotenv.Load(path)
	}
	if _, err := os.Stat(".env"); err == nil {
		return godotenv.Load()
	}
	return nil
}
