// ABOUTME: CSV export of contacts and arbitrary row sets
// ABOUTME: Builds downloadable files for the general exporter, contact export and import template
package exporter

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/harperreed/nexuscrm/metrics"
	"github.com/harperreed/nexuscrm/models"
)

const ContentTypeCSV = "text/csv"

var ErrNoData = errors.New("No data to export")

// File is a generated download.
type File struct {
	Filename    string `json:"filename"`
	Content     string `json:"content"`
	ContentType string `json:"contentType"`
}

// WriteTo writes the file into dir and returns the full path.
func (f *File) WriteTo(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", errors.Wrap(err, "failed to create export directory")
	}
	path := filepath.Join(dir, f.Filename)
	if err := os.WriteFile(path, []byte(f.Content), 0644); err != nil {
		return "", errors.Wrapf(err, "failed to write %s", path)
	}
	return path, nil
}

// now is replaced in tests.
var now = time.Now

func datestamp() string {
	return now().UTC().Format("2006-01-02")
}

// EscapeField quotes a field only when it contains a comma, a double quote
// or a newline. Embedded quotes are doubled.
func EscapeField(field string) string {
	if strings.ContainsAny(field, ",\"\n") {
		return `"` + strings.ReplaceAll(field, `"`, `""`) + `"`
	}
	return field
}

// quoteField always quotes.
func quoteField(field string) string {
	return `"` + strings.ReplaceAll(field, `"`, `""`) + `"`
}

// ExportCSV renders rows with the given columns. When fields is nil the
// columns are the sorted keys of the first row. Missing values are empty.
func ExportCSV(rows []map[string]string, fields []string) (*File, error) {
	if len(rows) == 0 {
		return nil, ErrNoData
	}

	if fields == nil {
		for key := range rows[0] {
			fields = append(fields, key)
		}
		sort.Strings(fields)
	}

	var b strings.Builder
	writeLine(&b, fields, EscapeField)
	for _, row := range rows {
		values := make([]string, len(fields))
		for i, field := range fields {
			values[i] = row[field]
		}
		writeLine(&b, values, EscapeField)
	}

	metrics.RecordExport("generic")
	return &File{
		Filename:    "export_" + datestamp() + ".csv",
		Content:     b.String(),
		ContentType: ContentTypeCSV,
	}, nil
}

// ContactRows flattens contacts into rows keyed by canonical field name.
// Topics are joined with ", " and dates are RFC 3339.
func ContactRows(contacts []models.Contact) []map[string]string {
	rows := make([]map[string]string, 0, len(contacts))
	for _, c := range contacts {
		rows = append(rows, map[string]string{
			"name":         c.Name,
			"firstName":    c.FirstName,
			"lastName":     c.LastName,
			"email":        c.Email,
			"phone":        c.Phone,
			"company":      c.Company,
			"leadStatus":   string(c.LeadStatus),
			"topics":       strings.Join(c.Topics, ", "),
			"owner":        c.Owner,
			"createdDate":  formatDate(c.CreatedDate),
			"lastActivity": formatDate(c.LastActivity),
		})
	}
	return rows
}

// ContactFields is the default column order for generic contact exports.
var ContactFields = []string{"name", "email", "phone", "company", "leadStatus", "topics", "owner", "createdDate", "lastActivity"}

var contactHeaders = []string{"Name", "Email", "Phone", "Company", "Lead Status", "Topics", "Created Date"}

// ExportContacts renders the fixed contact export. Every value is quoted.
func ExportContacts(contacts []models.Contact) (*File, error) {
	var b strings.Builder
	b.WriteString(strings.Join(contactHeaders, ","))
	b.WriteString("\n")

	for _, c := range contacts {
		writeLine(&b, []string{
			c.Name,
			c.Email,
			c.Phone,
			c.Company,
			string(c.LeadStatus),
			strings.Join(c.Topics, ", "),
			formatDate(c.CreatedDate),
		}, quoteField)
	}

	metrics.RecordExport("contacts")
	return &File{
		Filename:    "contacts_export_" + datestamp() + ".csv",
		Content:     b.String(),
		ContentType: ContentTypeCSV,
	}, nil
}

type template struct {
	filename string
	headers  []string
	samples  [][]string
}

var templates = map[string]template{
	"contacts": {
		filename: "contacts_template.csv",
		headers:  []string{"Name", "Email", "Phone", "Company", "Lead Status", "Topics"},
		samples: [][]string{
			{"John Smith", "john@example.com", "555-0123", "Acme Corp", "Qualified", "Product Demo, Pricing"},
			{"Jane Doe", "jane@company.com", "555-0124", "Tech Inc", "New Lead", "Features, Integration"},
		},
	},
}

// ImportTemplate returns the sample CSV for entityType. Only "contacts" exists.
func ImportTemplate(entityType string) (*File, error) {
	tmpl, ok := templates[entityType]
	if !ok {
		return nil, &models.UnsupportedFormatError{Format: entityType}
	}

	var b strings.Builder
	b.WriteString(strings.Join(tmpl.headers, ","))
	b.WriteString("\n")
	for _, row := range tmpl.samples {
		writeLine(&b, row, EscapeField)
	}

	metrics.RecordExport("template")
	return &File{
		Filename:    tmpl.filename,
		Content:     b.String(),
		ContentType: ContentTypeCSV,
	}, nil
}

func writeLine(b *strings.Builder, values []string, escape func(string) string) {
	for i, v := range values {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString(escape(v))
	}
	b.WriteString("\n")
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
