// ABOUTME: Bulk action CLI command
// ABOUTME: Applies owner, status, tag, export or delete actions to a list of contact IDs
package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/harperreed/nexuscrm/bulk"
)

func newBulkCmd(app *App) *cobra.Command {
	var (
		ids   []string
		input string
		yes   bool
		dir   string
	)

	actions := make([]string, len(bulk.Actions))
	for i, a := range bulk.Actions {
		actions[i] = string(a)
	}

	cmd := &cobra.Command{
		Use:       "bulk <action>",
		Short:     "Run a bulk action over selected contacts",
		Long:      "Actions: " + strings.Join(actions, ", "),
		Args:      cobra.ExactArgs(1),
		ValidArgs: actions,
		RunE: func(cmd *cobra.Command, args []string) error {
			action, err := bulk.ParseAction(args[0])
			if err != nil {
				return err
			}
			selected, err := parseIDs(ids)
			if err != nil {
				return err
			}

			result, err := bulk.Run(cmd.Context(), app.DB, bulk.Request{
				Action:    action,
				IDs:       selected,
				Input:     input,
				Confirmed: yes,
			})
			if err != nil {
				return err
			}

			if need := result.NeedsInput; need != nil {
				flag := "--input"
				if need.Field == "confirm" {
					flag = "--yes"
				}
				msg := fmt.Sprintf("%s (pass %s)", need.Prompt, flag)
				if len(need.Options) > 0 {
					msg += "; options: " + strings.Join(need.Options, ", ")
				}
				return fmt.Errorf("%s", msg)
			}

			out := cmd.OutOrStdout()
			if result.Affected == 0 && result.Selected == 0 {
				fmt.Fprintln(out, result.Message)
				return nil
			}
			if result.File != nil {
				if dir == "" {
					dir = app.Config.ExportDir
				}
				path, err := result.File.WriteTo(dir)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "✓ %s to %s\n", result.Message, path)
				return nil
			}
			fmt.Fprintf(out, "✓ %s\n", result.Message)
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&ids, "ids", nil, "Contact IDs (comma-separated or repeated)")
	cmd.Flags().StringVar(&input, "input", "", "Owner name, lead status or comma-separated tags")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Confirm destructive actions")
	cmd.Flags().StringVar(&dir, "dir", "", "Output directory for export (default NEXUSCRM_EXPORT_DIR)")
	return cmd
}
