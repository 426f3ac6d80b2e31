// ABOUTME: Tests for the report service
// ABOUTME: Checks analytics over the seeded store, exports, scheduling and history
package reports

import (
	"context"
	"database/sql"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/nexuscrm/db"
	"github.com/harperreed/nexuscrm/logging"
	"github.com/harperreed/nexuscrm/models"
)

func setupService(t *testing.T) (*Service, *sql.DB) {
	t.Helper()
	database, err := db.OpenSeeded(db.MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	svc := NewService(database, logging.Discard())
	svc.now = func() time.Time { return time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC) }
	return svc, database
}

func TestTemplates(t *testing.T) {
	svc, _ := setupService(t)

	tmpls := svc.Templates()
	require.Len(t, tmpls, 2)
	assert.Equal(t, "Contact Analytics", tmpls[0].Name)
	assert.Equal(t, TypeSales, tmpls[1].Type)
}

func TestAnalyzeContacts(t *testing.T) {
	now := time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC)
	contacts := []models.Contact{
		{LeadStatus: models.LeadStatusCustomer, IsCustomer: true, Owner: "A", CreatedDate: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
		{LeadStatus: models.LeadStatusNewLead, Owner: "A", CreatedDate: time.Date(2024, 2, 28, 0, 0, 0, 0, time.UTC)},
		{LeadStatus: models.LeadStatusQualified, CreatedDate: time.Date(2023, 3, 5, 0, 0, 0, 0, time.UTC)},
	}

	a := AnalyzeContacts(contacts, now)

	assert.Equal(t, 3, a.TotalContacts)
	assert.Equal(t, 1, a.NewThisMonth)
	assert.Equal(t, 33.3, a.ConversionRate)
	assert.Equal(t, 1, a.ByLeadStatus[models.LeadStatusCustomer])
	assert.Equal(t, 0, a.ByLeadStatus[models.LeadStatusUnqualified])
	assert.Equal(t, map[string]int{"A": 2, "Unassigned": 1}, a.ByOwner)
}

func TestAnalyzeNoContacts(t *testing.T) {
	a := AnalyzeContacts(nil, time.Now())
	assert.Zero(t, a.ConversionRate)
	assert.Zero(t, a.TotalContacts)
}

func TestGenerateContactReport(t *testing.T) {
	svc, database := setupService(t)

	report, err := svc.Generate(context.Background(), 1, map[string]string{"range": "all"})
	require.NoError(t, err)

	assert.Len(t, report.ID, 26)
	assert.Equal(t, "Contact Analytics", report.TemplateName)

	data, ok := report.Data.(ContactAnalytics)
	require.True(t, ok)
	n, err := db.CountContacts(database)
	require.NoError(t, err)
	assert.Equal(t, n, data.TotalContacts)

	assert.Equal(t, []Report{*report}, svc.History())
}

func TestGenerateSalesReport(t *testing.T) {
	svc, _ := setupService(t)

	report, err := svc.Generate(context.Background(), 2, nil)
	require.NoError(t, err)

	data := report.Data.(SalesPerformance)
	assert.Equal(t, 2400000, data.TotalRevenue)
	assert.Len(t, data.SalesByMonth, 3)
}

func TestGenerateUnknownTemplate(t *testing.T) {
	svc, _ := setupService(t)

	_, err := svc.Generate(context.Background(), 9, nil)
	assert.True(t, errors.Is(err, ErrTemplateNotFound))
}

func TestReportIDsIncrease(t *testing.T) {
	svc, _ := setupService(t)

	first, err := svc.Generate(context.Background(), 2, nil)
	require.NoError(t, err)
	second, err := svc.Generate(context.Background(), 2, nil)
	require.NoError(t, err)

	assert.Less(t, first.ID, second.ID)
}

func TestExport(t *testing.T) {
	svc, _ := setupService(t)
	report, err := svc.Generate(context.Background(), 1, nil)
	require.NoError(t, err)

	pdf, err := svc.Export(report.ID, "pdf")
	require.NoError(t, err)
	assert.Equal(t, "Contact Analytics_2024-03-20.pdf", pdf.Filename)
	assert.Equal(t, "#", pdf.URL)
	assert.Nil(t, pdf.File)

	csv, err := svc.Export(report.ID, "csv")
	require.NoError(t, err)
	require.NotNil(t, csv.File)
	assert.True(t, strings.HasPrefix(csv.File.Content, "metric,key,value\ntotalContacts,,12\n"))

	_, err = svc.Export(report.ID, "docx")
	var unsupported *models.UnsupportedFormatError
	assert.True(t, errors.As(err, &unsupported))

	_, err = svc.Export("missing", "pdf")
	assert.True(t, errors.Is(err, ErrReportNotFound))
}

func TestSchedule(t *testing.T) {
	svc, _ := setupService(t)

	scheduled, err := svc.Schedule(1, Weekly)
	require.NoError(t, err)
	assert.True(t, scheduled.Active)
	assert.NotEmpty(t, scheduled.ID)
	assert.Len(t, svc.Schedules(), 1)

	_, err = svc.Schedule(1, "hourly")
	assert.True(t, errors.Is(err, ErrInvalidSchedule))

	_, err = svc.Schedule(7, Daily)
	assert.True(t, errors.Is(err, ErrTemplateNotFound))
}

func TestDelete(t *testing.T) {
	svc, _ := setupService(t)
	report, err := svc.Generate(context.Background(), 2, nil)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(report.ID))
	assert.Empty(t, svc.History())

	err = svc.Delete(report.ID)
	assert.True(t, errors.Is(err, ErrReportNotFound))
}
