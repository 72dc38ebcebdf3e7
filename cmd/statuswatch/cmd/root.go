package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ai-chat-be/pkg/livestatus"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	statusURL      string
	reconnectDelay time.Duration
	verbose        bool
)

var rootCmd = &cobra.Command{
	Use:   "statuswatch",
	Short: "Watch the chat backend status channel",
	Long: `statuswatch connects to the backend status channel, prints every connection
state change and every broadcast event, and reconnects after a drop.

Usage:
  statuswatch                                  # watch ws://localhost:3000/ws
  statuswatch --url ws://chat.internal/ws -v   # another instance, with connection logs`,
	DisableAutoGenTag: true,
	SilenceUsage:      true,
	Args:              cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if reconnectDelay <= 0 {
			return fmt.Errorf("--reconnect must be positive, got %s", reconnectDelay)
		}

		log, err := newLogger(verbose)
		if err != nil {
			return fmt.Errorf("failed to create logger: %w", err)
		}
		defer log.Sync()

		return watch(cmd.Context(), log)
	},
}

func init() {
	rootCmd.Flags().StringVar(&statusURL, "url", "ws://localhost:3000/ws", "Status channel URL")
	rootCmd.Flags().DurationVar(&reconnectDelay, "reconnect", livestatus.DefaultReconnectDelay, "Delay before reconnecting after a drop")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Log connection details")
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		color.Red("%v", err)
		stop()
		os.Exit(1)
	}
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if !verbose {
		return zap.NewNop(), nil
	}
	return zap.NewDevelopment()
}

// watch runs the status client until ctx is cancelled.
func watch(ctx context.Context, log *zap.Logger) error {
	client := livestatus.NewClient(livestatus.Config{
		URL:            statusURL,
		ReconnectDelay: reconnectDelay,
		Logger:         log,
		OnStatusChange: printStatus,
		OnMessage: func(data []byte) {
			color.Cyan("%s event %s", time.Now().Format(time.TimeOnly), data)
		},
	})

	color.White("Watching %s (Ctrl+C to stop)", statusURL)
	client.Connect()

	<-ctx.Done()
	client.Close()

	if last := client.LastPing(); !last.IsZero() {
		color.White("Last heartbeat at %s", last.Format(time.RFC3339))
	}
	return nil
}

func printStatus(s livestatus.Status) {
	stamp := time.Now().Format(time.TimeOnly)
	switch s {
	case livestatus.StatusConnected:
		color.Green("%s %s", stamp, s)
	case livestatus.StatusConnecting:
		color.Yellow("%s %s", stamp, s)
	default:
		color.Red("%s %s", stamp, s)
	}
}
