// ABOUTME: Interactive front-ends: the terminal UI and the web server
// ABOUTME: Both run against the store seeded for this invocation
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harperreed/nexuscrm/tui"
	"github.com/harperreed/nexuscrm/web"
)

func newTUICmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Browse contacts in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			return tui.Run(app.DB, app.viewOptions(), app.Config.PerPage)
		},
	}
}

func newWebCmd(app *App) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "web",
		Short: "Serve the dashboard, contacts page and JSON API",
		RunE: func(cmd *cobra.Command, args []string) error {
			if port == 0 {
				port = app.Config.WebPort
			}
			srv, err := web.NewServer(app.DB, web.Options{
				Logger:       app.Logger,
				View:         app.viewOptions(),
				PerPage:      app.Config.PerPage,
				FuzzyMapping: app.Config.FuzzyMapping,
				Settings:     app.Settings,
				Reports:      app.Reports,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Serving on http://localhost:%d\n", port)
			return srv.Start(cmd.Context(), port)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "Port to listen on (default NEXUSCRM_WEB_PORT)")
	return cmd
}
