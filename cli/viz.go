// ABOUTME: Visualization CLI commands
// ABOUTME: Handles dashboard and owner/company graph generation
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/harperreed/nexuscrm/viz"
)

func newDashboardCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Print the contact dashboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			stats, err := viz.GenerateDashboardStats(app.DB)
			if err != nil {
				return fmt.Errorf("failed to generate dashboard stats: %w", err)
			}
			fmt.Fprint(cmd.OutOrStdout(), viz.RenderDashboard(stats))
			return nil
		},
	}
}

func newGraphCmd(app *App) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:       "graph [owners|companies]",
		Short:     "Generate a GraphViz DOT graph of contacts",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"owners", "companies"},
		RunE: func(cmd *cobra.Command, args []string) error {
			kind := "owners"
			if len(args) == 1 {
				kind = args[0]
			}

			generator := viz.NewGraphGenerator(app.DB)
			var dot string
			var err error
			switch kind {
			case "owners":
				dot, err = generator.GenerateOwnerGraph()
			case "companies":
				dot, err = generator.GenerateCompanyGraph()
			default:
				return fmt.Errorf("unknown graph type: %s (valid types: owners, companies)", kind)
			}
			if err != nil {
				return err
			}

			if output != "" {
				if err := os.WriteFile(output, []byte(dot), 0644); err != nil {
					return fmt.Errorf("failed to write %s: %w", output, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote %s\n", output)
				return nil
			}

			fmt.Fprintln(cmd.OutOrStdout(), dot)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default: stdout)")
	return cmd
}
