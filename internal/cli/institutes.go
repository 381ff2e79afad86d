package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/timertimertimer/kfudao/internal/cli/render"
	"github.com/timertimertimer/kfudao/internal/config"
)

// NewInstitutesCmd creates the institutes command
func NewInstitutesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "institutes",
		Short: "List institutes",
		Long: `List the institutes accounts can belong to.

Examples:
  kfudao institutes
  kfudao institutes faculties IVMiIT
  kfudao institutes seed institutes.toml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}

			institutes, err := app.Institutes.Load(cmd.Context())
			if err != nil {
				return err
			}

			if app.Config.JSON() {
				return render.WriteStructured(cmd.OutOrStdout(), app.Config.Output, institutes)
			}
			return render.NewInstitutesRenderer(cmd.OutOrStdout()).RenderInstitutes(institutes)
		},
	}

	cmd.AddCommand(newInstitutesFacultiesCmd(), newInstitutesSeedCmd())

	return cmd
}

func newInstitutesFacultiesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "faculties <abbreviation>",
		Short: "List the faculties of an institute",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}

			faculties, err := app.Institutes.Faculties(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			if app.Config.JSON() {
				return render.WriteStructured(cmd.OutOrStdout(), app.Config.Output, faculties)
			}
			return render.NewInstitutesRenderer(cmd.OutOrStdout()).RenderFaculties(args[0], faculties)
		},
	}
}

func newInstitutesSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed <file.toml>",
		Short: "Load institutes from a TOML file into the document database",
		Long: `Write institutes from a TOML file into the document database. Existing
institutes with the same abbreviation are replaced.

File format:
  [[institute]]
  abbreviation = "IVMiIT"
  name = "Institute of Computational Mathematics and IT"
  faculties = ["software engineering", "applied mathematics"]`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}

			institutes, err := config.LoadInstituteSeed(args[0])
			if err != nil {
				return err
			}

			written, err := app.Institutes.Seed(cmd.Context(), institutes)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), render.FormatSuccess(fmt.Sprintf("Seeded %d institutes", written)))
			return nil
		},
	}
}
