// ABOUTME: CSV import and export MCP tool handlers
// ABOUTME: Implements import_csv, export_contacts and get_import_template tools
package handlers

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/harperreed/nexuscrm/db"
	"github.com/harperreed/nexuscrm/exporter"
	"github.com/harperreed/nexuscrm/importer"
	"github.com/harperreed/nexuscrm/models"
)

type TransferHandlers struct {
	db       *sql.DB
	importer *importer.Importer
	fuzzy    bool
}

func NewTransferHandlers(database *sql.DB, logger logrus.FieldLogger, fuzzyMapping bool) *TransferHandlers {
	return &TransferHandlers{
		db:       database,
		importer: importer.New(database, logger),
		fuzzy:    fuzzyMapping,
	}
}

type ImportCSVInput struct {
	CSV             string            `json:"csv,omitempty" jsonschema:"CSV text including the header row"`
	FilePath        string            `json:"file_path,omitempty" jsonschema:"Path of a CSV file to read instead of csv"`
	Mapping         map[string]string `json:"mapping,omitempty" jsonschema:"CSV header to contact field; suggested from the headers when omitted"`
	AllowDuplicates bool              `json:"allow_duplicates,omitempty" jsonschema:"Import rows whose email already exists as new contacts"`
	UpdateExisting  bool              `json:"update_existing,omitempty" jsonschema:"Fill blank fields of existing contacts instead of skipping duplicates"`
	Force           bool              `json:"force,omitempty" jsonschema:"Import even when validation reports errors"`
}

type ImportCSVOutput struct {
	BatchID     string            `json:"batch_id"`
	Imported    int               `json:"imported"`
	Updated     int               `json:"updated"`
	Skipped     int               `json:"skipped"`
	Errors      int               `json:"errors"`
	Dropped     int               `json:"dropped"`
	Mapping     map[string]string `json:"mapping"`
	ImportedIDs []int64           `json:"imported_ids"`
	Messages    []string          `json:"messages"`
	Warnings    []string          `json:"warnings"`
}

func (h *TransferHandlers) ImportCSV(ctx context.Context, request *mcp.CallToolRequest, input ImportCSVInput) (*mcp.CallToolResult, ImportCSVOutput, error) {
	var table *importer.Table
	var err error
	switch {
	case input.CSV != "":
		table, err = importer.Parse(input.CSV)
	case input.FilePath != "":
		table, err = importer.ParseFile(input.FilePath)
	default:
		return nil, ImportCSVOutput{}, fmt.Errorf("csv or file_path is required")
	}
	if err != nil {
		return nil, ImportCSVOutput{}, err
	}

	mapping := importer.Mapping(input.Mapping)
	if len(mapping) == 0 {
		if h.fuzzy {
			mapping = importer.SuggestMappingFuzzy(table.Headers)
		} else {
			mapping = importer.SuggestMapping(table.Headers)
		}
	}
	for header, field := range mapping {
		if !importer.IsCanonicalField(field) {
			return nil, ImportCSVOutput{}, fmt.Errorf("unknown field %q for header %q", field, header)
		}
	}

	opts := importer.Options{
		SkipDuplicates: !input.AllowDuplicates,
		UpdateExisting: input.UpdateExisting,
		Force:          input.Force,
	}

	summary, err := h.importer.Import(ctx, table, mapping, opts)
	if err != nil {
		var validation *importer.ValidationError
		if errors.As(err, &validation) {
			return nil, ImportCSVOutput{}, fmt.Errorf("%s: %s", validation.Error(), strings.Join(validation.Report.Errors, "; "))
		}
		return nil, ImportCSVOutput{}, err
	}

	out := ImportCSVOutput{
		BatchID:     summary.BatchID,
		Imported:    summary.Imported,
		Updated:     summary.Updated,
		Skipped:     summary.Skipped,
		Errors:      summary.Errored,
		Dropped:     summary.Dropped,
		Mapping:     mapping,
		ImportedIDs: make([]int64, len(summary.Contacts)),
		Messages:    []string{},
		Warnings:    summary.Warnings,
	}
	for i, c := range summary.Contacts {
		out.ImportedIDs[i] = c.ID
	}
	for _, skipped := range summary.SkippedRows {
		out.Messages = append(out.Messages, fmt.Sprintf("Row %d: skipped %s (%s)", skipped.Row, skipped.Email, skipped.Reason))
	}
	for _, rowErr := range summary.ErrorRows {
		out.Messages = append(out.Messages, rowErr.Error())
	}
	if out.Warnings == nil {
		out.Warnings = []string{}
	}

	return nil, out, nil
}

type ExportContactsInput struct {
	IDs       []int64 `json:"ids,omitempty" jsonschema:"Contact IDs to export (default all)"`
	Format    string  `json:"format,omitempty" jsonschema:"contacts (fixed columns, default) or generic"`
	Directory string  `json:"directory,omitempty" jsonschema:"Write the file into this directory as well"`
}

type FileOutput struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Content     string `json:"content"`
	Path        string `json:"path,omitempty"`
}

func (h *TransferHandlers) ExportContacts(_ context.Context, request *mcp.CallToolRequest, input ExportContactsInput) (*mcp.CallToolResult, FileOutput, error) {
	var contacts []models.Contact
	var err error
	if len(input.IDs) > 0 {
		contacts, err = db.GetContactsByIDs(h.db, input.IDs)
	} else {
		contacts, err = db.ListContacts(h.db)
	}
	if err != nil {
		return nil, FileOutput{}, fmt.Errorf("failed to load contacts: %w", err)
	}

	var file *exporter.File
	switch input.Format {
	case "", "contacts":
		file, err = exporter.ExportContacts(contacts)
	case "generic":
		file, err = exporter.ExportCSV(exporter.ContactRows(contacts), exporter.ContactFields)
	default:
		err = &models.UnsupportedFormatError{Format: input.Format}
	}
	if err != nil {
		return nil, FileOutput{}, err
	}

	return fileOutput(file, input.Directory)
}

type ImportTemplateInput struct {
	EntityType string `json:"entity_type,omitempty" jsonschema:"Entity to get a template for (only contacts)"`
}

func (h *TransferHandlers) ImportTemplate(_ context.Context, request *mcp.CallToolRequest, input ImportTemplateInput) (*mcp.CallToolResult, FileOutput, error) {
	entity := input.EntityType
	if entity == "" {
		entity = "contacts"
	}
	file, err := exporter.ImportTemplate(entity)
	if err != nil {
		return nil, FileOutput{}, err
	}
	return fileOutput(file, "")
}

func fileOutput(file *exporter.File, dir string) (*mcp.CallToolResult, FileOutput, error) {
	out := FileOutput{
		Filename:    file.Filename,
		ContentType: file.ContentType,
		Content:     file.Content,
	}
	if dir != "" {
		path, err := file.WriteTo(dir)
		if err != nil {
			return nil, FileOutput{}, err
		}
		out.Path = path
	}
	return nil, out, nil
}
