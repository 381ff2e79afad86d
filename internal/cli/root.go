package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/timertimertimer/kfudao/internal/adapters/progress"
	"github.com/timertimertimer/kfudao/internal/app"
	"github.com/timertimertimer/kfudao/internal/config"
	domainconfig "github.com/timertimertimer/kfudao/internal/domain/config"
	"github.com/timertimertimer/kfudao/internal/logging"
	"github.com/timertimertimer/kfudao/internal/usecase"
)

// contextKey is the type for context keys
type contextKey string

const (
	// appKey is the context key for the app instance
	appKey contextKey = "app"
)

// Command annotations read by the root pre-run
const (
	// annotationNoApp skips app initialisation
	annotationNoApp = "kfudao/no-app"
	// annotationNeedsGovernor fails early when governor_address is not configured
	annotationNeedsGovernor = "kfudao/needs-governor"
	// annotationProgress selects the progress sink: "log" or "dashboard"
	annotationProgress = "kfudao/progress"
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "kfudao",
		Short: "Voting client for the KFU DAO governor",
		Long: `kfudao follows the proposals of an on-chain governor, shows their vote windows
and tallies, and casts votes through an external wallet signer.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Annotations[annotationNoApp] == "true" {
				return nil
			}

			projectRoot, err := config.FindProjectRoot()
			if err != nil {
				return err
			}

			v := config.SetupViper(projectRoot)
			bindGlobalFlags(v, cmd)

			sink := newProgressSink(v, cmd)

			appInstance, cleanup, err := app.InitApp(v, sink)
			if err != nil {
				return fmt.Errorf("failed to initialize app: %w", err)
			}

			if cmd.Annotations[annotationNeedsGovernor] == "true" && appInstance.Config.Contracts.Governor == "" {
				cleanup()
				return fmt.Errorf("governor_address is not configured (set KFUDAO_GOVERNOR_ADDRESS or add it to kfudao.yaml)")
			}

			ctx := context.WithValue(cmd.Context(), appKey, appInstance)

			cancel := func() {}
			if appInstance.Config.Timeout > 0 {
				ctx, cancel = context.WithTimeout(ctx, appInstance.Config.Timeout)
			}

			// Released on command completion
			cmd.PersistentPostRun = func(cmd *cobra.Command, args []string) {
				if s, ok := sink.(*progress.SpinnerProgressReporter); ok {
					s.Stop()
				}
				cancel()
				cleanup()
			}

			cmd.SetContext(ctx)
			return nil
		},
	}

	// Global flags
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug output")
	rootCmd.PersistentFlags().Bool("non-interactive", false, "Disable interactive prompts")
	rootCmd.PersistentFlags().StringP("output", "o", "", "Output format (table, json, yaml)")
	rootCmd.PersistentFlags().String("rpc-url", "", "Chain RPC endpoint (overrides rpc_url)")

	// Add command groups
	rootCmd.AddGroup(&cobra.Group{
		ID:    "main",
		Title: "Main Commands",
	})
	rootCmd.AddGroup(&cobra.Group{
		ID:    "account",
		Title: "Account Commands",
	})
	rootCmd.AddGroup(&cobra.Group{
		ID:    "management",
		Title: "Management Commands",
	})

	// Main commands
	proposalsCmd := NewProposalsCmd()
	proposalsCmd.GroupID = "main"
	rootCmd.AddCommand(proposalsCmd)

	watchCmd := NewWatchCmd()
	watchCmd.GroupID = "main"
	rootCmd.AddCommand(watchCmd)

	voteCmd := NewVoteCmd()
	voteCmd.GroupID = "main"
	rootCmd.AddCommand(voteCmd)

	proposeCmd := NewProposeCmd()
	proposeCmd.GroupID = "main"
	rootCmd.AddCommand(proposeCmd)

	// Account commands
	accountCmd := NewAccountCmd()
	accountCmd.GroupID = "account"
	rootCmd.AddCommand(accountCmd)

	institutesCmd := NewInstitutesCmd()
	institutesCmd.GroupID = "account"
	rootCmd.AddCommand(institutesCmd)

	// Management commands
	serveCmd := NewServeCmd()
	serveCmd.GroupID = "management"
	rootCmd.AddCommand(serveCmd)

	// Version command
	versionCmd := NewVersionCmd()
	rootCmd.AddCommand(versionCmd)

	return rootCmd
}

// bindGlobalFlags binds command flags to viper
func bindGlobalFlags(v *viper.Viper, cmd *cobra.Command) {
	// Only bind flags that exist and have been changed
	if f := cmd.Flag("debug"); f != nil && f.Changed {
		v.Set("debug", f.Value.String())
	}
	if f := cmd.Flag("non-interactive"); f != nil && f.Changed {
		v.Set("non_interactive", f.Value.String())
	}
	if f := cmd.Flag("output"); f != nil && f.Changed {
		v.Set("output", f.Value.String())
	}
	if f := cmd.Flag("rpc-url"); f != nil && f.Changed {
		v.Set("rpc_url", f.Value.String())
	}
}

// newProgressSink picks where sync progress goes for this invocation
func newProgressSink(v *viper.Viper, cmd *cobra.Command) usecase.ProgressSink {
	interactive := !v.GetBool("non_interactive") && isatty.IsTerminal(os.Stderr.Fd())
	logSink := func() usecase.ProgressSink {
		return progress.NewLogSink(logging.NewLogger(&domainconfig.RuntimeConfig{Debug: v.GetBool("debug")}))
	}

	switch cmd.Annotations[annotationProgress] {
	case "log":
		return logSink()
	case "dashboard":
		// The dashboard owns the terminal
		if interactive {
			return progress.NewNopSink()
		}
		return logSink()
	}

	output := v.GetString("output")
	if interactive && (output == "" || output == "table") {
		return progress.NewSpinnerProgressReporter()
	}
	return progress.NewNopSink()
}

// getApp retrieves the app instance from the command context
func getApp(cmd *cobra.Command) (*app.App, error) {
	appInstance := cmd.Context().Value(appKey)
	if appInstance == nil {
		return nil, fmt.Errorf("app not initialized")
	}

	app, ok := appInstance.(*app.App)
	if !ok {
		return nil, fmt.Errorf("invalid app instance")
	}

	return app, nil
}
