package cli

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"

	"github.com/timertimertimer/kfudao/internal/app"
	"github.com/timertimertimer/kfudao/internal/cli/render"
	"github.com/timertimertimer/kfudao/internal/domain/models"
	"github.com/timertimertimer/kfudao/internal/usecase"
)

// NewVoteCmd creates the vote command
func NewVoteCmd() *cobra.Command {
	var (
		dryRun bool
		yes    bool
	)

	cmd := &cobra.Command{
		Use:   "vote <id> [for|against|abstain]",
		Short: "Cast a vote on a proposal",
		Long: `Cast a vote from the connected wallet. You must be signed in and the wallet
must be the one bound to your account.

When the decision is omitted it is asked for interactively.

Examples:
  kfudao vote 4213... for
  kfudao vote 4213... against --dry-run`,
		Args:        cobra.RangeArgs(1, 2),
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

			var decision models.VoteDecision
			if len(args) == 2 {
				decision, err = models.ParseVoteDecision(args[1])
			} else {
				decision, err = app.Prompter.SelectVoteDecision(ctx)
			}
			if err != nil {
				return err
			}

			if err := requireAccount(ctx, app); err != nil {
				return err
			}
			if _, err := app.Session.ConnectWallet(ctx); err != nil {
				return err
			}
			if _, err := syncOnce(cmd, app); err != nil {
				return err
			}

			tx, err := app.Governance.PrepareVote(ctx, id, decision)
			if err != nil {
				return fmt.Errorf("failed to prepare vote: %w", err)
			}

			return submit(cmd, app, tx, dryRun, yes,
				fmt.Sprintf("Vote %s on proposal %s?", strings.ToUpper(decision.String()), id),
				"Vote")
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show the transaction without sending it")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")

	return cmd
}

// NewProposeCmd creates the propose command
func NewProposeCmd() *cobra.Command {
	var (
		dryRun bool
		yes    bool
	)

	cmd := &cobra.Command{
		Use:   "propose <description>",
		Short: "Create a proposal",
		Long: `Submit a new proposal to the governor from the connected wallet.

The proposal carries a single no-op call to the proposer's own address, so the
description is what members vote on.

Examples:
  kfudao propose "Move the spring hackathon to April"`,
		Args:        cobra.MinimumNArgs(1),
		Annotations: map[string]string{annotationNeedsGovernor: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			description := strings.Join(args, " ")

			app, err := getApp(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			if err := restoreSession(ctx, app); err != nil {
				return err
			}
			if _, err := app.Session.ConnectWallet(ctx); err != nil {
				return err
			}

			tx, err := app.Governance.PrepareProposal(ctx, description)
			if err != nil {
				return fmt.Errorf("failed to prepare proposal: %w", err)
			}

			return submit(cmd, app, tx, dryRun, yes, "Submit this proposal?", "Proposal")
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show the transaction without sending it")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")

	return cmd
}

// submit shows a prepared transaction, asks for confirmation and hands it to the wallet
func submit(cmd *cobra.Command, app *app.App, tx *usecase.PreparedTx, dryRun, yes bool, question, what string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	renderer := render.NewTransactionRenderer(out)

	call, err := app.Codec.Describe(tx.Data)
	if err != nil {
		app.Log.Debug("failed to describe call data", "error", err)
	}

	if dryRun {
		if app.Config.JSON() {
			return render.WriteStructured(out, app.Config.Output, preparedOutput(tx, call))
		}
		return renderer.RenderPrepared(tx, call)
	}

	if !yes && !app.Config.NonInteractive {
		if err := renderer.RenderPrepared(tx, call); err != nil {
			return err
		}
		ok, err := app.Prompter.Confirm(ctx, question)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(out, "Cancelled.")
			return nil
		}
	}

	result, err := app.Governance.Submit(ctx, tx)
	if err != nil {
		return fmt.Errorf("failed to submit %s: %w", strings.ToLower(what), err)
	}

	if app.Config.JSON() {
		return render.WriteStructured(out, app.Config.Output, result)
	}
	return renderer.RenderResult(result, what)
}

type preparedTxOutput struct {
	From string `json:"from" yaml:"from"`
	To   string `json:"to" yaml:"to"`
	Call string `json:"call,omitempty" yaml:"call,omitempty"`
	Data string `json:"data" yaml:"data"`
}

func preparedOutput(tx *usecase.PreparedTx, call string) preparedTxOutput {
	return preparedTxOutput{From: tx.From, To: tx.To, Call: call, Data: hexutil.Encode(tx.Data)}
}
