package cli

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/spf13/cobra"

	"github.com/timertimertimer/kfudao/internal/app"
	"github.com/timertimertimer/kfudao/internal/cli/render"
	"github.com/timertimertimer/kfudao/internal/domain"
	"github.com/timertimertimer/kfudao/internal/usecase"
)

// restoreSession signs in from the saved token; a missing or stale token is not an error
func restoreSession(ctx context.Context, a *app.App) error {
	if _, err := a.Session.Restore(ctx); err != nil {
		if errors.Is(err, domain.ErrNotAuthenticated) {
			a.Log.Debug("no saved session", "reason", err)
			return nil
		}
		return err
	}
	return nil
}

// requireAccount restores the session and fails when nobody is signed in
func requireAccount(ctx context.Context, a *app.App) error {
	if _, err := a.Session.Restore(ctx); err != nil {
		if errors.Is(err, domain.ErrNotAuthenticated) {
			return fmt.Errorf("not signed in, run `kfudao account login` first")
		}
		return err
	}
	return nil
}

// syncOnce refreshes the chain head and runs one discovery cycle
func syncOnce(cmd *cobra.Command, a *app.App) (*usecase.SyncReport, error) {
	ctx := cmd.Context()
	if err := a.Sync.RefreshBlockOnce(ctx); err != nil {
		return nil, err
	}
	report, err := a.Sync.DiscoverOnce(ctx)
	if err != nil {
		return nil, err
	}
	if !a.Config.JSON() {
		if err := render.NewSyncRenderer(cmd.ErrOrStderr()).RenderSyncReport(report); err != nil {
			return nil, err
		}
	}
	return report, nil
}

// parseProposalID accepts a decimal uint256
func parseProposalID(s string) (*big.Int, error) {
	id, ok := new(big.Int).SetString(strings.TrimSpace(s), 10)
	if !ok || id.Sign() < 0 {
		return nil, fmt.Errorf("invalid proposal id %q", s)
	}
	return id, nil
}
