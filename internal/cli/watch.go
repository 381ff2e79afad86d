package cli

import (
	"context"
	"errors"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/timertimertimer/kfudao/internal/cli/dashboard"
)

// NewWatchCmd creates the watch command
func NewWatchCmd() *cobra.Command {
	var connect bool

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow proposals live",
		Long: `Keep polling the governor and show a live proposal dashboard.

The chain head is refreshed once per block time and new proposals are
discovered every discovery_every base intervals. Time left and progress are
recomputed every second.

Keys: ↑/↓ select, c connect wallet, d disconnect, q quit.

Without a terminal (or with --non-interactive) only the polling runs and
progress is logged.`,
		Args: cobra.NoArgs,
		Annotations: map[string]string{
			annotationNeedsGovernor: "true",
			annotationProgress:      "dashboard",
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			if err := restoreSession(ctx, app); err != nil {
				return err
			}
			if connect {
				if _, err := app.Session.ConnectWallet(ctx); err != nil {
					return err
				}
			}

			headless := app.Config.NonInteractive || !isatty.IsTerminal(os.Stdout.Fd())
			if headless {
				app.Log.Info("watching proposals", "governor", app.Config.Contracts.Governor)
				return ignoreCanceled(app.Sync.Run(ctx))
			}

			syncErr := make(chan error, 1)
			go func() {
				syncErr <- app.Sync.Run(ctx)
			}()

			model := dashboard.New(ctx, app.Board, app.Head, app.Session)
			uiErr := dashboard.Run(ctx, model)

			cancel()
			if err := ignoreCanceled(<-syncErr); err != nil {
				return err
			}
			return uiErr
		},
	}

	cmd.Flags().BoolVar(&connect, "connect", false, "Connect the wallet on start")

	return cmd
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}
