package cli

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/iliyamo/restaurant-manager/internal/config"
	"github.com/iliyamo/restaurant-manager/internal/queue"
)

func newConsumeCmd() *cobra.Command {
	var logPath string

	cmd := &cobra.Command{
		Use:   "consume",
		Short: "Record published events in the activity log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			logger := loggerFromContext(ctx)

			url := config.AMQPURL()
			logger.Info("consumer starting", "log", logPath)
			return queue.NewConsumer(url, queue.NewActivityLog(logPath), logger).Run(ctx)
		},
	}
	cmd.Flags().StringVar(&logPath, "log", queue.DefaultActivityLog, "activity log file")
	return cmd
}
