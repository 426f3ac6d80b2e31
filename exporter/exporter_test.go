// ABOUTME: Tests for CSV exporters
// ABOUTME: Covers quoting rules, filenames, the template and re-import of exported files
package exporter

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/nexuscrm/importer"
	"github.com/harperreed/nexuscrm/models"
)

func freezeClock(t *testing.T) {
	t.Helper()
	orig := now
	now = func() time.Time { return time.Date(2024, 3, 9, 23, 0, 0, 0, time.UTC) }
	t.Cleanup(func() { now = orig })
}

func TestEscapeField(t *testing.T) {
	tests := map[string]string{
		"plain":       "plain",
		"a,b":         `"a,b"`,
		`say "hi"`:    `"say ""hi"""`,
		"line\nbreak": "\"line\nbreak\"",
		"":            "",
	}
	for in, want := range tests {
		assert.Equal(t, want, EscapeField(in), "input %q", in)
	}
}

func TestExportCSVNoData(t *testing.T) {
	_, err := ExportCSV(nil, nil)
	assert.True(t, errors.Is(err, ErrNoData))
}

func TestExportCSVDefaultsToSortedKeys(t *testing.T) {
	freezeClock(t)

	file, err := ExportCSV([]map[string]string{
		{"name": "John", "company": "Acme, Inc"},
		{"name": "Jane"},
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, "export_2024-03-09.csv", file.Filename)
	assert.Equal(t, "text/csv", file.ContentType)
	assert.Equal(t, "company,name\n\"Acme, Inc\",John\n,Jane\n", file.Content)
}

func TestExportContactsQuotesEverything(t *testing.T) {
	freezeClock(t)

	contacts := []models.Contact{{
		Name:        `Ann "AJ" Lee`,
		Email:       "ann@x.com",
		Company:     "Lee, LLC",
		LeadStatus:  models.LeadStatusQualified,
		Topics:      []string{"Demo", "Pricing"},
		CreatedDate: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}}

	file, err := ExportContacts(contacts)
	require.NoError(t, err)

	assert.Equal(t, "contacts_export_2024-03-09.csv", file.Filename)
	assert.Equal(t,
		"Name,Email,Phone,Company,Lead Status,Topics,Created Date\n"+
			`"Ann ""AJ"" Lee","ann@x.com","","Lee, LLC","Qualified","Demo, Pricing","2024-01-02T03:04:05Z"`+"\n",
		file.Content)
}

func TestExportContactsEmpty(t *testing.T) {
	file, err := ExportContacts(nil)
	require.NoError(t, err)
	assert.Equal(t, "Name,Email,Phone,Company,Lead Status,Topics,Created Date\n", file.Content)
}

func TestImportTemplate(t *testing.T) {
	file, err := ImportTemplate("contacts")
	require.NoError(t, err)

	assert.Equal(t, "contacts_template.csv", file.Filename)
	assert.Equal(t,
		"Name,Email,Phone,Company,Lead Status,Topics\n"+
			"John Smith,john@example.com,555-0123,Acme Corp,Qualified,\"Product Demo, Pricing\"\n"+
			"Jane Doe,jane@company.com,555-0124,Tech Inc,New Lead,\"Features, Integration\"\n",
		file.Content)
}

func TestImportTemplateUnknownEntity(t *testing.T) {
	_, err := ImportTemplate("deals")

	var unsupported *models.UnsupportedFormatError
	require.True(t, errors.As(err, &unsupported))
	assert.Equal(t, "deals", unsupported.Format)
}

func TestTemplateRoundTripsThroughImporter(t *testing.T) {
	file, err := ImportTemplate("contacts")
	require.NoError(t, err)

	table, err := importer.Parse(file.Content)
	require.NoError(t, err)
	mapping := importer.SuggestMapping(table.Headers)

	report := importer.Validate(table, mapping)
	assert.True(t, report.Valid)

	result := importer.Transform(table, mapping)
	require.Len(t, result.Contacts, 2)
	assert.Equal(t, "John Smith", result.Contacts[0].Name)
	assert.Equal(t, models.LeadStatusQualified, result.Contacts[0].LeadStatus)
	assert.Equal(t, []string{"Product Demo", "Pricing"}, result.Contacts[0].Topics)
}

func TestContactExportRoundTrip(t *testing.T) {
	original := []models.Contact{
		{
			Name:        "Michael Chen",
			Email:       "michael@acme.com",
			Phone:       "555-0101",
			Company:     "Acme Corp",
			LeadStatus:  models.LeadStatusCustomer,
			Topics:      []string{"Product Demo", "Pricing"},
			CreatedDate: time.Date(2024, 1, 3, 9, 10, 0, 0, time.UTC),
		},
		{
			Name:        "Sarah Williams",
			Email:       "sarah@techstart.io",
			Company:     "TechStart",
			LeadStatus:  models.LeadStatusNewLead,
			Topics:      []string{},
			CreatedDate: time.Date(2024, 2, 4, 9, 11, 0, 0, time.UTC),
		},
	}

	file, err := ExportContacts(original)
	require.NoError(t, err)

	table, err := importer.Parse(file.Content)
	require.NoError(t, err)
	result := importer.Transform(table, importer.SuggestMapping(table.Headers))
	require.Empty(t, result.Errors)
	require.Len(t, result.Contacts, len(original))

	for i, want := range original {
		got := result.Contacts[i]
		assert.Equal(t, want.Name, got.Name)
		assert.Equal(t, want.Email, got.Email)
		assert.Equal(t, want.Phone, got.Phone)
		assert.Equal(t, want.Company, got.Company)
		assert.Equal(t, want.LeadStatus, got.LeadStatus)
		assert.Equal(t, want.Topics, got.Topics)
		assert.True(t, want.CreatedDate.Equal(got.CreatedDate))
	}
}

func TestGenericExportOfContactRows(t *testing.T) {
	rows := ContactRows([]models.Contact{{Name: "A", Topics: []string{"x", "y"}, LeadStatus: models.LeadStatusNewLead}})

	file, err := ExportCSV(rows, []string{"name", "topics", "leadStatus"})
	require.NoError(t, err)
	assert.Equal(t, "name,topics,leadStatus\nA,\"x, y\",New Lead\n", file.Content)
}

func TestFileWriteTo(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "exports")
	file := &File{Filename: "a.csv", Content: "x\n", ContentType: ContentTypeCSV}

	path, err := file.WriteTo(dir)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "x\n", string(data))
}

func TestExportCSVRoundTripThroughParser(t *testing.T) {
	fields := []string{"name", "note", "company"}
	rows := []map[string]string{
		{"name": "Smith, John", "note": "x", "company": "Acme Corp"},
		{"name": "plain", "note": "y, z", "company": ""},
		{"name": "Ada", "note": "first, second, third", "company": "Analytical"},
	}

	first, err := ExportCSV(rows, fields)
	require.NoError(t, err)

	table, err := importer.Parse(first.Content)
	require.NoError(t, err)
	assert.Equal(t, fields, table.Headers)
	assert.Zero(t, table.Dropped)
	require.Len(t, table.Rows, len(rows))
	for i, want := range rows {
		assert.Equal(t, want, table.Rows[i], "row %d", i)
	}

	second, err := ExportCSV(table.Rows, fields)
	require.NoError(t, err)
	assert.Equal(t, first.Content, second.Content)
}
