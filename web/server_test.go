package web

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/nexuscrm/bulk"
	"github.com/harperreed/nexuscrm/db"
	"github.com/harperreed/nexuscrm/importer"
	"github.com/harperreed/nexuscrm/logging"
	"github.com/harperreed/nexuscrm/models"
	"github.com/harperreed/nexuscrm/reports"
	"github.com/harperreed/nexuscrm/view"
)

func setupServer(t *testing.T) *Server {
	t.Helper()
	database, err := db.OpenSeeded(db.MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	srv, err := NewServer(database, Options{Logger: logging.Discard()})
	require.NoError(t, err)
	return srv
}

func do(t *testing.T, srv *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func TestDashboardPage(t *testing.T) {
	srv := setupServer(t)
	rec := do(t, srv, http.MethodGet, "/", "")

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Lead pipeline")
	assert.Contains(t, body, "John Smith")
}

func TestContactsPageAppliesQuery(t *testing.T) {
	srv := setupServer(t)
	rec := do(t, srv, http.MethodGet, "/contacts?q=acme&sort=name&dir=desc", "")

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Michael Chen")
	assert.Contains(t, body, "Liam Johnson")
	assert.NotContains(t, body, "Sophia Lee")
	assert.Less(t, strings.Index(body, "Michael Chen"), strings.Index(body, "Liam Johnson"))
}

func TestContactsPageRejectsBadQuery(t *testing.T) {
	srv := setupServer(t)
	rec := do(t, srv, http.MethodGet, "/contacts?tab=vip", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListContactsAPI(t *testing.T) {
	srv := setupServer(t)
	rec := do(t, srv, http.MethodGet, "/api/contacts?tab=customers&perPage=10&status=Customer", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var result view.Result
	decode(t, rec, &result)
	assert.Equal(t, 4, result.TotalMatching)
	assert.Equal(t, 1, result.TotalPages)
	assert.Equal(t, 12, result.TabCounts[models.TabAll])
	for _, c := range result.Items {
		assert.True(t, c.IsCustomer)
	}
}

func TestContactCRUD(t *testing.T) {
	srv := setupServer(t)

	rec := do(t, srv, http.MethodPost, "/api/contacts", `{"name":"Grace Hopper","email":"grace@navy.mil","company":"Navy"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created models.Contact
	decode(t, rec, &created)
	assert.Equal(t, int64(13), created.ID)
	assert.Equal(t, models.LeadStatusNewLead, created.LeadStatus)

	rec = do(t, srv, http.MethodPatch, "/api/contacts/13", `{"leadStatus":"qualified","owner":"Emily Davis"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var updated models.Contact
	decode(t, rec, &updated)
	assert.Equal(t, models.LeadStatusQualified, updated.LeadStatus)
	assert.Equal(t, "Emily Davis", updated.Owner)
	assert.Equal(t, "Grace Hopper", updated.Name)

	rec = do(t, srv, http.MethodDelete, "/api/contacts/13", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, srv, http.MethodGet, "/api/contacts/13", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, srv, http.MethodGet, "/api/contacts/13/activity", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var history []models.Activity
	decode(t, rec, &history)
	require.Len(t, history, 3)
	assert.Equal(t, models.VerbDeleted, history[0].Verb)
	assert.Contains(t, history[1].Changes, "owner")

	rec = do(t, srv, http.MethodGet, "/api/activity?limit=1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &history)
	assert.Len(t, history, 1)

	rec = do(t, srv, http.MethodGet, "/api/activity?limit=-1", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateContactValidation(t *testing.T) {
	srv := setupServer(t)

	rec := do(t, srv, http.MethodPost, "/api/contacts", `{"name":"","email":"a@b.co"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, srv, http.MethodPost, "/api/contacts", `{"name":"X","email":"not-an-email"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, srv, http.MethodPost, "/api/contacts", `{"name":"X","email":"x@y.co","leadStatus":"Hot"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestImportPreviewSuggestsMapping(t *testing.T) {
	srv := setupServer(t)
	csv := "Full Name,Email Address,Company\nAda Lovelace,ada@engine.org,Analytical\n"

	rec := do(t, srv, http.MethodPost, "/api/import/preview", csv)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var preview struct {
		Headers    []string         `json:"headers"`
		RowCount   int              `json:"rowCount"`
		Mapping    importer.Mapping `json:"mapping"`
		Validation importer.Report  `json:"validation"`
	}
	decode(t, rec, &preview)
	assert.Equal(t, []string{"Full Name", "Email Address", "Company"}, preview.Headers)
	assert.Equal(t, 1, preview.RowCount)
	assert.Equal(t, importer.FieldName, preview.Mapping["Full Name"])
	assert.Equal(t, importer.FieldEmail, preview.Mapping["Email Address"])
	assert.True(t, preview.Validation.Valid)
}

func TestImportSkipsDuplicatesByDefault(t *testing.T) {
	srv := setupServer(t)
	body, err := json.Marshal(map[string]interface{}{
		"csv": "Name,Email\nAda Lovelace,ada@engine.org\nMichael Again,MICHAEL.CHEN@acmecorp.com\n",
	})
	require.NoError(t, err)

	rec := do(t, srv, http.MethodPost, "/api/import", string(body))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var summary importer.Summary
	decode(t, rec, &summary)
	assert.Equal(t, 1, summary.Imported)
	assert.Equal(t, 1, summary.Skipped)
}

func TestImportValidationFailure(t *testing.T) {
	srv := setupServer(t)
	body, err := json.Marshal(map[string]interface{}{
		"csv":     "Name,Email\nAda Lovelace,not-an-email\n",
		"mapping": map[string]string{"Name": "name", "Email": "email"},
	})
	require.NoError(t, err)

	rec := do(t, srv, http.MethodPost, "/api/import", string(body))
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var resp errorResponse
	decode(t, rec, &resp)
	require.NotNil(t, resp.Report)
	assert.False(t, resp.Report.Valid)
}

func TestImportEmptyCSV(t *testing.T) {
	srv := setupServer(t)
	rec := do(t, srv, http.MethodPost, "/api/import", `{"csv":""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExportContacts(t *testing.T) {
	srv := setupServer(t)

	rec := do(t, srv, http.MethodGet, "/api/export?ids=1,7", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", strings.Split(rec.Header().Get("Content-Type"), ";")[0])
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "contacts_export_")
	assert.Equal(t, 3, strings.Count(strings.TrimSpace(rec.Body.String()), "\n")+1)

	rec = do(t, srv, http.MethodGet, "/api/export?format=generic", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Body.String(), "name,email"))

	rec = do(t, srv, http.MethodGet, "/api/export?format=pdf", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, srv, http.MethodGet, "/api/export?ids=abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestImportTemplate(t *testing.T) {
	srv := setupServer(t)

	rec := do(t, srv, http.MethodGet, "/api/template", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Body.String(), "Name,Email,Phone,Company,Lead Status,Topics"))

	rec = do(t, srv, http.MethodGet, "/api/template?type=deals", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBulkNeedsInputThenRuns(t *testing.T) {
	srv := setupServer(t)

	rec := do(t, srv, http.MethodPost, "/api/bulk", `{"action":"assign_owner","ids":[3,12]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var result bulk.Result
	decode(t, rec, &result)
	require.NotNil(t, result.NeedsInput)
	assert.Equal(t, "owner", result.NeedsInput.Field)

	rec = do(t, srv, http.MethodPost, "/api/bulk", `{"action":"assign_owner","ids":[3,12],"input":"Emily Davis"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	result = bulk.Result{}
	decode(t, rec, &result)
	assert.Equal(t, int64(2), result.Affected)

	rec = do(t, srv, http.MethodGet, "/api/contacts/12", "")
	var contact models.Contact
	decode(t, rec, &contact)
	assert.Equal(t, "Emily Davis", contact.Owner)

	rec = do(t, srv, http.MethodPost, "/api/bulk", `{"action":"archive","ids":[1]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSettingsEndpoints(t *testing.T) {
	srv := setupServer(t)

	rec := do(t, srv, http.MethodPut, "/api/settings/company", `{"name":"Nexus Inc","email":"hi@nexus.io"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, srv, http.MethodGet, "/api/settings/company", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Nexus Inc")

	rec = do(t, srv, http.MethodPut, "/api/settings/company", `{"email":"x@y.co"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, srv, http.MethodGet, "/api/settings/billing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, srv, http.MethodPost, "/api/settings/security/reset", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, srv, http.MethodPost, "/api/settings/system/reset", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, srv, http.MethodGet, "/api/settings/export?format=yaml", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), ".yaml")
	exported := rec.Body.String()

	rec = do(t, srv, http.MethodPost, "/api/settings/import", exported)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, srv, http.MethodPost, "/api/settings/import", "not a settings document")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReportEndpoints(t *testing.T) {
	srv := setupServer(t)

	rec := do(t, srv, http.MethodGet, "/api/reports/templates", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var templates []reports.Template
	decode(t, rec, &templates)
	assert.Len(t, templates, 2)

	rec = do(t, srv, http.MethodPost, "/api/reports", `{"templateId":1}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var report reports.Report
	decode(t, rec, &report)
	assert.NotEmpty(t, report.ID)

	rec = do(t, srv, http.MethodGet, "/api/reports/"+url.PathEscape(report.ID)+"/export?format=csv", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var export reports.Export
	decode(t, rec, &export)
	require.NotNil(t, export.File)
	assert.Contains(t, export.File.Content, "metric,key,value")

	rec = do(t, srv, http.MethodGet, "/api/reports/"+report.ID+"/export?format=docx", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, srv, http.MethodPost, "/api/reports", `{"templateId":99}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, srv, http.MethodPost, "/api/reports/schedules", `{"templateId":2,"schedule":"weekly"}`)
	assert.Equal(t, http.StatusCreated, rec.Code)
	rec = do(t, srv, http.MethodPost, "/api/reports/schedules", `{"templateId":2,"schedule":"hourly"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, srv, http.MethodDelete, "/api/reports/"+report.ID, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = do(t, srv, http.MethodDelete, "/api/reports/"+report.ID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGraphAndMetrics(t *testing.T) {
	srv := setupServer(t)

	rec := do(t, srv, http.MethodGet, "/graphs?kind=companies", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Acme Corp")

	rec = do(t, srv, http.MethodGet, "/graphs?kind=deals", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, srv, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestParseQueryRoundTrip(t *testing.T) {
	values := url.Values{
		"q":       {"chen"},
		"tab":     {"customers"},
		"owner":   {"John Smith"},
		"status":  {"Customer,qualified"},
		"sort":    {"createdDate"},
		"dir":     {"desc"},
		"perPage": {"50"},
		"page":    {"2"},
		"from":    {"2024-01-01"},
		"to":      {"2024-03-31"},
	}

	q, err := parseQuery(values, 25)
	require.NoError(t, err)
	assert.Equal(t, []models.LeadStatus{models.LeadStatusCustomer, models.LeadStatusQualified}, q.Filters.LeadStatus)
	assert.Equal(t, view.SortState{Field: view.SortCreatedDate, Direction: view.Desc}, q.Sort)
	assert.Equal(t, models.PageState{CurrentPage: 2, PerPage: 50}, q.Page)
	require.NotNil(t, q.Filters.DateRange)

	again, err := parseQuery(encodeQuery(q), 25)
	require.NoError(t, err)
	assert.Equal(t, q, again)

	_, err = parseQuery(url.Values{"perPage": {"7"}}, 25)
	assert.Error(t, err)
	_, err = parseQuery(url.Values{"dir": {"up"}}, 25)
	assert.Error(t, err)
}
