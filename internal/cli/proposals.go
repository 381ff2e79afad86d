package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/timertimertimer/kfudao/internal/cli/render"
)

// NewProposalsCmd creates the proposals command
func NewProposalsCmd() *cobra.Command {
	var connect bool

	cmd := &cobra.Command{
		Use:     "proposals",
		Aliases: []string{"ls"},
		Short:   "List governor proposals",
		Long: `Scan the governor for proposals and print their vote windows, tallies and
whether you can vote on them. Newest proposals are listed first.

Vote windows of blocks that have not been mined yet are projected from the
configured block time and marked with "~".

Examples:
  kfudao proposals
  kfudao proposals --connect
  kfudao proposals -o json`,
		Args:        cobra.NoArgs,
		Annotations: map[string]string{annotationNeedsGovernor: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			if err := restoreSession(ctx, app); err != nil {
				return err
			}
			if connect {
				if _, err := app.Session.ConnectWallet(ctx); err != nil {
					return err
				}
			}

			if _, err := syncOnce(cmd, app); err != nil {
				return err
			}

			views := app.Board.Views(ctx, time.Now())

			if app.Config.JSON() {
				out := make([]render.ProposalOutput, 0, len(views))
				for _, v := range render.NewestFirst(views) {
					out = append(out, render.NewProposalOutput(v))
				}
				return render.WriteStructured(cmd.OutOrStdout(), app.Config.Output, out)
			}

			head, known := app.Head.Latest()
			return render.NewProposalsRenderer(cmd.OutOrStdout(), true).RenderProposalList(views, head, known)
		},
	}

	cmd.Flags().BoolVar(&connect, "connect", false, "Connect the wallet to show vote eligibility")

	cmd.AddCommand(newProposalShowCmd())

	return cmd
}

func newProposalShowCmd() *cobra.Command {
	var connect bool

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one proposal",
		Long: `Show the vote window, tallies and eligibility of a single proposal.

Examples:
  kfudao proposals show 4213...
  kfudao proposals show 4213... --connect -o yaml`,
		Args:        cobra.ExactArgs(1),
		Annotations: map[string]string{annotationNeedsGovernor: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseProposalID(args[0])
			if err != nil {
				return err
			}

			app, err := getApp(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			if err := restoreSession(ctx, app); err != nil {
				return err
			}
			if connect {
				if _, err := app.Session.ConnectWallet(ctx); err != nil {
					return err
				}
			}

			if _, err := syncOnce(cmd, app); err != nil {
				return err
			}

			view, err := app.Board.View(ctx, id, time.Now())
			if err != nil {
				return fmt.Errorf("failed to show proposal: %w", err)
			}

			if app.Config.JSON() {
				return render.WriteStructured(cmd.OutOrStdout(), app.Config.Output, render.NewProposalOutput(*view))
			}
			return render.NewProposalsRenderer(cmd.OutOrStdout(), true).RenderProposal(*view)
		},
	}

	cmd.Flags().BoolVar(&connect, "connect", false, "Connect the wallet to show vote eligibility")

	return cmd
}
