// ABOUTME: CSV import, export and template CLI commands
// ABOUTME: Maps headers, reports validation and writes export files into the export directory
package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/harperreed/nexuscrm/db"
	"github.com/harperreed/nexuscrm/exporter"
	"github.com/harperreed/nexuscrm/importer"
	"github.com/harperreed/nexuscrm/models"
)

func newImportCmd(app *App) *cobra.Command {
	var (
		mappings        []string
		force           bool
		updateExisting  bool
		allowDuplicates bool
		fuzzy           bool
		dryRun          bool
	)

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import contacts from a CSV file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := importer.ParseFile(args[0])
			if err != nil {
				return err
			}

			mapping, err := parseMappingFlags(mappings)
			if err != nil {
				return err
			}
			if len(mapping) == 0 {
				if fuzzy || app.Config.FuzzyMapping {
					mapping = importer.SuggestMappingFuzzy(table.Headers)
				} else {
					mapping = importer.SuggestMapping(table.Headers)
				}
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Rows: %d\n", table.RowCount())
			if table.Dropped > 0 {
				fmt.Fprintf(out, "Dropped %d malformed lines\n", table.Dropped)
			}
			fmt.Fprintln(out, "Mapping:")
			for _, header := range table.Headers {
				field, ok := mapping[header]
				if !ok {
					field = "(ignored)"
				}
				fmt.Fprintf(out, "  %s -> %s\n", header, field)
			}

			report := importer.Validate(table, mapping)
			for _, warning := range report.Warnings {
				fmt.Fprintf(out, "  warning: %s\n", warning)
			}
			for _, msg := range report.Errors {
				fmt.Fprintf(out, "  error: %s\n", msg)
			}
			if dryRun {
				fmt.Fprintf(out, "%d of %d rows valid\n", report.ValidRows, report.TotalRows)
				return nil
			}

			opts := importer.Options{
				SkipDuplicates: !allowDuplicates,
				UpdateExisting: updateExisting,
				Force:          force,
			}
			summary, err := importer.New(app.DB, app.Logger).Import(cmd.Context(), table, mapping, opts)
			if err != nil {
				var validation *importer.ValidationError
				if errors.As(err, &validation) {
					return fmt.Errorf("%s (use --force to import anyway)", validation.Error())
				}
				return err
			}

			fmt.Fprintf(out, "✓ Imported %d, updated %d, skipped %d, errors %d (batch %s)\n",
				summary.Imported, summary.Updated, summary.Skipped, summary.Errored, summary.BatchID)
			for _, skipped := range summary.SkippedRows {
				fmt.Fprintf(out, "  row %d: skipped %s (%s)\n", skipped.Row, skipped.Email, skipped.Reason)
			}
			for _, rowErr := range summary.ErrorRows {
				fmt.Fprintf(out, "  %s\n", rowErr.Error())
			}
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&mappings, "mapping", nil, "Header=field pair (repeatable); suggested from headers when omitted")
	cmd.Flags().BoolVar(&force, "force", false, "Import even when validation reports errors")
	cmd.Flags().BoolVar(&updateExisting, "update-existing", false, "Fill blank fields of contacts with a matching email")
	cmd.Flags().BoolVar(&allowDuplicates, "allow-duplicates", false, "Import rows with a known email as new contacts")
	cmd.Flags().BoolVar(&fuzzy, "fuzzy", false, "Use fuzzy header matching for the suggested mapping")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Only show the mapping and validation report")
	return cmd
}

// parseMappingFlags turns Header=field pairs into a mapping.
func parseMappingFlags(pairs []string) (importer.Mapping, error) {
	mapping := importer.Mapping{}
	for _, pair := range pairs {
		header, field, ok := strings.Cut(pair, "=")
		header = strings.TrimSpace(header)
		field = strings.TrimSpace(field)
		if !ok || header == "" {
			return nil, fmt.Errorf("invalid --mapping %q: want Header=field", pair)
		}
		if !importer.IsCanonicalField(field) {
			return nil, fmt.Errorf("unknown field %q in --mapping; valid fields: %s", field, strings.Join(canonicalFieldNames(), ", "))
		}
		mapping[header] = field
	}
	return mapping, nil
}

func canonicalFieldNames() []string {
	var names []string
	for _, f := range importer.CanonicalFields() {
		names = append(names, f.Field)
	}
	sort.Strings(names)
	return names
}

func newExportCmd(app *App) *cobra.Command {
	var (
		ids    []string
		format string
		dir    string
		stdout bool
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export contacts to CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			selected, err := parseIDs(ids)
			if err != nil {
				return err
			}

			var contacts []models.Contact
			if len(selected) > 0 {
				contacts, err = db.GetContactsByIDs(app.DB, selected)
			} else {
				contacts, err = db.ListContacts(app.DB)
			}
			if err != nil {
				return fmt.Errorf("failed to load contacts: %w", err)
			}

			var file *exporter.File
			switch format {
			case "contacts":
				file, err = exporter.ExportContacts(contacts)
			case "generic":
				file, err = exporter.ExportCSV(exporter.ContactRows(contacts), exporter.ContactFields)
			default:
				err = &models.UnsupportedFormatError{Format: format}
			}
			if err != nil {
				return err
			}

			return emitFile(cmd, file, dir, stdout)
		},
	}

	cmd.Flags().StringSliceVar(&ids, "ids", nil, "Contact IDs to export (default all)")
	cmd.Flags().StringVar(&format, "format", "contacts", "contacts (fixed columns) or generic")
	cmd.Flags().StringVar(&dir, "dir", "", "Output directory (default NEXUSCRM_EXPORT_DIR)")
	cmd.Flags().BoolVar(&stdout, "stdout", false, "Print the CSV instead of writing a file")
	cmd.PreRun = func(cmd *cobra.Command, args []string) {
		if dir == "" {
			dir = app.Config.ExportDir
		}
	}
	return cmd
}

func newTemplateCmd() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "template [entity]",
		Short: "Print or write the CSV import template",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entity := "contacts"
			if len(args) == 1 {
				entity = args[0]
			}
			file, err := exporter.ImportTemplate(entity)
			if err != nil {
				return err
			}
			return emitFile(cmd, file, dir, dir == "")
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "Write the template into this directory instead of printing it")
	return cmd
}

func emitFile(cmd *cobra.Command, file *exporter.File, dir string, toStdout bool) error {
	out := cmd.OutOrStdout()
	if toStdout {
		fmt.Fprint(out, file.Content)
		return nil
	}
	path, err := file.WriteTo(dir)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "✓ Wrote %s\n", path)
	return nil
}
