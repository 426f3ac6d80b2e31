// ABOUTME: Settings and reports CLI commands
// ABOUTME: Shows, exports and imports settings and generates report templates
package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/harperreed/nexuscrm/settings"
)

func newSettingsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show, export and import settings",
	}
	cmd.AddCommand(
		newSettingsShowCmd(app),
		newSettingsExportCmd(app),
		newSettingsImportCmd(app),
	)
	return cmd
}

func newSettingsShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show [category]",
		Short: "Print settings as JSON",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var v interface{} = app.Settings.All()
			if len(args) == 1 {
				category, err := settings.ParseCategory(args[0])
				if err != nil {
					return err
				}
				v, err = app.Settings.Get(category)
				if err != nil {
					return err
				}
			}
			return writeJSON(cmd, v)
		},
	}
}

func newSettingsExportCmd(app *App) *cobra.Command {
	var (
		format string
		dir    string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export settings as a JSON or YAML document",
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := app.Settings.Export(format)
			if err != nil {
				return err
			}
			return emitFile(cmd, file, dir, dir == "")
		},
	}

	cmd.Flags().StringVar(&format, "format", "json", "json or yaml")
	cmd.Flags().StringVar(&dir, "dir", "", "Write the document into this directory instead of printing it")
	return cmd
}

func newSettingsImportCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Import a settings document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", args[0], err)
			}
			result, err := app.Settings.Import(data)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "✓ %s: %v\n", result.Message, result.CategoriesUpdated)
			if len(result.Ignored) > 0 {
				fmt.Fprintf(out, "  ignored: %v\n", result.Ignored)
			}
			return nil
		},
	}
}

func newReportsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reports",
		Short: "List report templates and generate reports",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "templates",
		Short: "List report templates",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			_, _ = fmt.Fprintln(w, "ID\tNAME\tTYPE\tDESCRIPTION")
			for _, t := range app.Reports.Templates() {
				_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", t.ID, t.Name, t.Type, t.Description)
			}
			return w.Flush()
		},
	})

	var format string
	generate := &cobra.Command{
		Use:   "generate <template-id>",
		Short: "Generate a report from a template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			templateID, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid template ID: %q", args[0])
			}
			report, err := app.Reports.Generate(cmd.Context(), templateID, nil)
			if err != nil {
				return err
			}
			if format == "csv" {
				export, err := app.Reports.Export(report.ID, "csv")
				if err != nil {
					return err
				}
				fmt.Fprint(cmd.OutOrStdout(), export.File.Content)
				return nil
			}
			return writeJSON(cmd, report)
		},
	}
	generate.Flags().StringVar(&format, "format", "json", "json or csv")
	cmd.AddCommand(generate)

	return cmd
}

func writeJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
