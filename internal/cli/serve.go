package cli

import (
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/timertimertimer/kfudao/internal/api"
)

// NewServeCmd creates the serve command
func NewServeCmd() *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve synced proposals over a read-only JSON API",
		Long: `Keep polling the governor and serve the proposals over HTTP.

Endpoints:
  GET /healthz
  GET /api/proposals[?address=0x...]
  GET /api/proposals/:id
  GET /api/chain/head
  GET /api/institutes
  GET /api/institutes/:abbr/faculties`,
		Args: cobra.NoArgs,
		Annotations: map[string]string{
			annotationNeedsGovernor: "true",
			annotationProgress:      "log",
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}
			if listen != "" {
				app.Config.API.Listen = listen
			}

			server := api.NewServer(app.Config, app.Board, app.Head, app.Institutes, app.Log)

			g, ctx := errgroup.WithContext(cmd.Context())
			g.Go(func() error {
				return app.Sync.Run(ctx)
			})
			g.Go(func() error {
				return server.Run(ctx)
			})
			return ignoreCanceled(g.Wait())
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "Listen address (overrides api.listen)")

	return cmd
}
