package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/timertimertimer/kfudao/internal/app"
	"github.com/timertimertimer/kfudao/internal/cli/render"
	"github.com/timertimertimer/kfudao/internal/domain/models"
	"github.com/timertimertimer/kfudao/internal/usecase"
)

// passwordEnv lets scripts pass a password without a prompt
const passwordEnv = "KFUDAO_PASSWORD"

// NewAccountCmd creates the account command group
func NewAccountCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Manage your DAO account",
		Long: `Register, sign in and bind a wallet to your account.

The session is kept in the data directory, so later commands run as the
signed-in account until you log out.`,
	}

	cmd.AddCommand(
		newAccountRegisterCmd(),
		newAccountLoginCmd(),
		newAccountLogoutCmd(),
		newAccountWhoamiCmd(),
		newAccountBindCmd(),
	)

	return cmd
}

func newAccountRegisterCmd() *cobra.Command {
	var email, institute, faculty string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		Long: `Create an account with an email and password and pick your institute and
faculty. Missing values are asked for interactively; the password can also be
passed through the KFUDAO_PASSWORD environment variable.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			if email == "" {
				if email, err = app.Prompter.PromptText(ctx, "Email", notBlank); err != nil {
					return err
				}
			}
			password, err := readPassword(ctx, app)
			if err != nil {
				return err
			}

			account := models.Account{Email: email}
			if err := chooseInstitute(ctx, app, &account, institute, faculty); err != nil {
				return err
			}

			if err := app.Session.Register(ctx, account, password); err != nil {
				return fmt.Errorf("failed to register: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), render.FormatSuccess(fmt.Sprintf("Registered %s", strings.ToLower(strings.TrimSpace(email)))))
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Account email")
	cmd.Flags().StringVar(&institute, "institute", "", "Institute abbreviation")
	cmd.Flags().StringVar(&faculty, "faculty", "", "Faculty name")

	return cmd
}

func newAccountLoginCmd() *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			if email == "" {
				if email, err = app.Prompter.PromptText(ctx, "Email", notBlank); err != nil {
					return err
				}
			}
			password, err := readPassword(ctx, app)
			if err != nil {
				return err
			}

			account, err := app.Session.SignIn(ctx, email, password)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), render.FormatSuccess(fmt.Sprintf("Signed in as %s", account.Email)))
			if !account.HasAddress() {
				fmt.Fprintln(cmd.OutOrStdout(), render.FormatWarning("No wallet is bound yet. Run `kfudao account bind`."))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Account email")

	return cmd
}

func newAccountLogoutCmd() *cobra.Command {
	var forgetWallet bool

	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Sign out",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}

			if forgetWallet {
				app.Session.Disconnect(true)
			}
			if err := app.Session.SignOut(cmd.Context()); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), render.FormatSuccess("Signed out"))
			return nil
		},
	}

	cmd.Flags().BoolVar(&forgetWallet, "forget-wallet", false, "Also ask the wallet to drop its session")

	return cmd
}

func newAccountWhoamiCmd() *cobra.Command {
	var connect bool

	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in account",
		Args:  cobra.NoArgs,
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

			state := app.Session.Snapshot()
			binding := app.Session.WalletBinding()
			if app.Config.JSON() {
				return render.WriteStructured(cmd.OutOrStdout(), app.Config.Output, render.NewAccountOutput(state, binding))
			}
			return render.NewAccountRenderer(cmd.OutOrStdout()).RenderAccount(state, binding)
		},
	}

	cmd.Flags().BoolVar(&connect, "connect", false, "Connect the wallet and compare it with the bound address")

	return cmd
}

func newAccountBindCmd() *cobra.Command {
	var yes, rebind bool

	cmd := &cobra.Command{
		Use:   "bind",
		Short: "Bind the connected wallet to your account",
		Long: `Connect the wallet and store its address on your account. Votes are only
accepted from the bound address.

Replacing an address that is already bound always asks for confirmation
unless --rebind is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			if err := requireAccount(ctx, app); err != nil {
				return err
			}
			address, err := app.Session.ConnectWallet(ctx)
			if err != nil {
				return err
			}

			binding := app.Session.WalletBinding()
			switch binding {
			case usecase.BindingBound:
				fmt.Fprintln(out, render.FormatSuccess(fmt.Sprintf("%s is already bound", address)))
				return nil
			case usecase.BindingMismatch:
				bound := app.Session.Snapshot().Account.Address
				fmt.Fprintln(out, render.FormatWarning(fmt.Sprintf("Your account is bound to %s", bound)))
			}

			ok, err := confirmBind(ctx, app.Prompter, binding, address, yes, rebind)
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(out, "Cancelled.")
				return nil
			}

			if err := app.Session.BindWalletToAccount(ctx); err != nil {
				return err
			}
			fmt.Fprintln(out, render.FormatSuccess(fmt.Sprintf("Bound %s", address)))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt for an unbound account")
	cmd.Flags().BoolVar(&rebind, "rebind", false, "Replace a different bound address without asking")

	return cmd
}

type confirmer interface {
	Confirm(ctx context.Context, label string) (bool, error)
}

// confirmBind decides whether the bind goes ahead. --yes never replaces an existing binding.
func confirmBind(ctx context.Context, p confirmer, binding usecase.BindingStatus, address string, yes, rebind bool) (bool, error) {
	label := fmt.Sprintf("Bind %s to your account?", address)
	if binding == usecase.BindingMismatch {
		if rebind {
			return true, nil
		}
		label = fmt.Sprintf("Replace the bound address with %s?", address)
	} else if yes {
		return true, nil
	}

	ok, err := p.Confirm(ctx, label)
	if err != nil {
		return false, fmt.Errorf("failed to confirm binding (use --rebind to replace it): %w", err)
	}
	return ok, nil
}

// readPassword takes the password from the environment or a masked prompt
func readPassword(ctx context.Context, app *app.App) (string, error) {
	if p := os.Getenv(passwordEnv); p != "" {
		return p, nil
	}
	return app.Prompter.PromptPassword(ctx, "Password")
}

// chooseInstitute fills the institute and faculty from flags or selection prompts
func chooseInstitute(ctx context.Context, app *app.App, account *models.Account, abbreviation, faculty string) error {
	institutes, err := app.Institutes.Load(ctx)
	if err != nil {
		return err
	}
	if len(institutes) == 0 {
		app.Log.Warn("no institutes in the catalog, skipping institute selection")
		return nil
	}

	if abbreviation == "" {
		if abbreviation, err = app.Prompter.SelectInstitute(ctx, institutes); err != nil {
			return err
		}
	}
	name, ok := institutes[abbreviation]
	if !ok {
		return fmt.Errorf("unknown institute %q", abbreviation)
	}
	account.Institute = name
	account.InstituteAbbreviation = abbreviation

	faculties, err := app.Institutes.Faculties(ctx, abbreviation)
	if err != nil {
		return err
	}
	if faculty == "" && len(faculties) > 0 {
		if faculty, err = app.Prompter.SelectFaculty(ctx, faculties); err != nil {
			return err
		}
	}
	if faculty != "" && len(faculties) > 0 && !lo.ContainsBy(faculties, func(f string) bool { return strings.EqualFold(f, faculty) }) {
		return fmt.Errorf("unknown faculty %q for %s", faculty, abbreviation)
	}
	account.Faculty = faculty
	return nil
}

func notBlank(s string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("must not be blank")
	}
	return nil
}
