package web

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/harperreed/nexuscrm/bulk"
	"github.com/harperreed/nexuscrm/db"
	"github.com/harperreed/nexuscrm/exporter"
	"github.com/harperreed/nexuscrm/importer"
	"github.com/harperreed/nexuscrm/models"
	"github.com/harperreed/nexuscrm/reports"
	"github.com/harperreed/nexuscrm/settings"
	"github.com/harperreed/nexuscrm/view"
)

// maxBody caps request bodies, CSV uploads included.
const maxBody = 10 << 20

var errBadRequest = errors.New("bad request")

type errorResponse struct {
	Error  string           `json:"error"`
	Report *importer.Report `json:"report,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeFile(w http.ResponseWriter, file *exporter.File) {
	w.Header().Set("Content-Type", file.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+file.Filename+`"`)
	_, _ = io.WriteString(w, file.Content)
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	var validation *importer.ValidationError
	var unsupported *models.UnsupportedFormatError
	var reset *settings.ResetError

	switch {
	case errors.Is(err, db.ErrContactNotFound),
		errors.Is(err, reports.ErrTemplateNotFound),
		errors.Is(err, reports.ErrReportNotFound),
		errors.Is(err, settings.ErrUnknownCategory):
		return http.StatusNotFound
	case errors.As(err, &validation):
		return http.StatusUnprocessableEntity
	case errors.As(err, &unsupported),
		errors.As(err, &reset),
		errors.Is(err, errBadRequest),
		errors.Is(err, models.ErrInvalidLeadStatus),
		errors.Is(err, bulk.ErrUnknownAction),
		errors.Is(err, importer.ErrEmptyInput),
		errors.Is(err, exporter.ErrNoData),
		errors.Is(err, settings.ErrCompanyNameRequired),
		errors.Is(err, settings.ErrCurrencyRequired),
		errors.Is(err, settings.ErrInvalidDocument),
		errors.Is(err, reports.ErrInvalidSchedule):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	resp := errorResponse{Error: err.Error()}

	var validation *importer.ValidationError
	if errors.As(err, &validation) {
		resp.Report = &validation.Report
	}
	if status == http.StatusInternalServerError {
		s.logger.WithError(err).Error("request failed")
	}
	writeJSON(w, status, resp)
}

func decodeJSON(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBody)).Decode(v); err != nil {
		return errors.Wrapf(errBadRequest, "invalid JSON body: %v", err)
	}
	return nil
}

func readBody(r *http.Request) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBody))
	if err != nil {
		return nil, errors.Wrap(err, "failed to read request body")
	}
	return data, nil
}

func pathID(r *http.Request) int64 {
	// The route pattern only admits digits.
	id, _ := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	return id
}

// parseIDs reads a comma separated id list; empty means none.
func parseIDs(raw string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, errors.Wrapf(errBadRequest, "invalid id %q", part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Contacts

func (s *Server) listContacts(w http.ResponseWriter, r *http.Request) {
	q, err := parseQuery(r.URL.Query(), s.opts.PerPage)
	if err != nil {
		s.writeError(w, errors.Wrap(errBadRequest, err.Error()))
		return
	}
	contacts, err := db.ListContacts(s.db)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view.Build(contacts, q, s.opts.View))
}

func (s *Server) createContact(w http.ResponseWriter, r *http.Request) {
	var contact models.Contact
	if err := decodeJSON(r, &contact); err != nil {
		s.writeError(w, err)
		return
	}

	contact.Name = strings.TrimSpace(contact.Name)
	contact.Email = strings.TrimSpace(contact.Email)
	if contact.Name == "" {
		s.writeError(w, errors.Wrap(errBadRequest, "name is required"))
		return
	}
	if !importer.IsValidEmail(contact.Email) {
		s.writeError(w, errors.Wrapf(errBadRequest, "invalid email %q", contact.Email))
		return
	}
	if contact.LeadStatus == "" {
		contact.LeadStatus = models.LeadStatusNewLead
	}
	status, err := models.ParseLeadStatus(string(contact.LeadStatus))
	if err != nil {
		s.writeError(w, err)
		return
	}
	contact.LeadStatus = status
	contact.ID = 0

	if err := db.CreateContact(s.db, &contact); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, contact)
}

func (s *Server) getContact(w http.ResponseWriter, r *http.Request) {
	contact, err := db.GetContact(s.db, pathID(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, contact)
}

func (s *Server) updateContact(w http.ResponseWriter, r *http.Request) {
	var update db.ContactUpdate
	if err := decodeJSON(r, &update); err != nil {
		s.writeError(w, err)
		return
	}
	if update.LeadStatus != nil {
		status, err := models.ParseLeadStatus(string(*update.LeadStatus))
		if err != nil {
			s.writeError(w, err)
			return
		}
		update.LeadStatus = &status
	}
	if update.Email != nil && !importer.IsValidEmail(*update.Email) {
		s.writeError(w, errors.Wrapf(errBadRequest, "invalid email %q", *update.Email))
		return
	}

	contact, err := db.UpdateContact(s.db, pathID(r), update)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, contact)
}

func (s *Server) deleteContact(w http.ResponseWriter, r *http.Request) {
	if err := db.DeleteContact(s.db, pathID(r)); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Import and export

type previewResponse struct {
	Headers    []string              `json:"headers"`
	Preview    []map[string]string   `json:"preview"`
	RowCount   int                   `json:"rowCount"`
	Dropped    int                   `json:"dropped"`
	Mapping    importer.Mapping      `json:"mapping"`
	Fields     []importer.FieldLabel `json:"fields"`
	Validation importer.Report       `json:"validation"`
}

// activityLimit reads ?limit=, defaulting to 50.
func activityLimit(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 50, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		return 0, errors.Wrapf(errBadRequest, "invalid limit %q", raw)
	}
	return limit, nil
}

func (s *Server) listActivity(w http.ResponseWriter, r *http.Request) {
	s.writeActivity(w, r, 0)
}

func (s *Server) contactActivity(w http.ResponseWriter, r *http.Request) {
	s.writeActivity(w, r, pathID(r))
}

func (s *Server) writeActivity(w http.ResponseWriter, r *http.Request, contactID int64) {
	limit, err := activityLimit(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	activities, err := db.ListActivities(s.db, contactID, limit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, activities)
}

func (s *Server) suggest(headers []string) importer.Mapping {
	if s.opts.FuzzyMapping {
		return importer.SuggestMappingFuzzy(headers)
	}
	return importer.SuggestMapping(headers)
}

// previewImport takes the raw CSV as the request body.
func (s *Server) previewImport(w http.ResponseWriter, r *http.Request) {
	data, err := readBody(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	table, err := importer.Parse(string(data))
	if err != nil {
		s.writeError(w, err)
		return
	}

	mapping := s.suggest(table.Headers)
	writeJSON(w, http.StatusOK, previewResponse{
		Headers:    table.Headers,
		Preview:    table.Preview(),
		RowCount:   table.RowCount(),
		Dropped:    table.Dropped,
		Mapping:    mapping,
		Fields:     importer.CanonicalFields(),
		Validation: importer.Validate(table, mapping),
	})
}

type importRequest struct {
	CSV     string            `json:"csv"`
	Mapping importer.Mapping  `json:"mapping"`
	Options *importer.Options `json:"options"`
}

func (s *Server) runImport(w http.ResponseWriter, r *http.Request) {
	var req importRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	table, err := importer.Parse(req.CSV)
	if err != nil {
		s.writeError(w, err)
		return
	}
	mapping := req.Mapping
	if len(mapping) == 0 {
		mapping = s.suggest(table.Headers)
	}
	opts := importer.DefaultOptions()
	if req.Options != nil {
		opts = *req.Options
	}

	summary, err := s.importer.Import(r.Context(), table, mapping, opts)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// exportContacts serves ?ids=1,2 (default every contact) as
// format=contacts (default) or format=generic.
func (s *Server) exportContacts(w http.ResponseWriter, r *http.Request) {
	ids, err := parseIDs(r.URL.Query().Get("ids"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	var contacts []models.Contact
	if len(ids) > 0 {
		contacts, err = db.GetContactsByIDs(s.db, ids)
	} else {
		contacts, err = db.ListContacts(s.db)
	}
	if err != nil {
		s.writeError(w, err)
		return
	}

	var file *exporter.File
	switch format := r.URL.Query().Get("format"); format {
	case "", "contacts":
		file, err = exporter.ExportContacts(contacts)
	case "generic":
		file, err = exporter.ExportCSV(exporter.ContactRows(contacts), exporter.ContactFields)
	default:
		err = &models.UnsupportedFormatError{Format: format}
	}
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeFile(w, file)
}

func (s *Server) importTemplate(w http.ResponseWriter, r *http.Request) {
	entity := r.URL.Query().Get("type")
	if entity == "" {
		entity = "contacts"
	}
	file, err := exporter.ImportTemplate(entity)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeFile(w, file)
}

func (s *Server) runBulk(w http.ResponseWriter, r *http.Request) {
	var req bulk.Request
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	result, err := bulk.Run(r.Context(), s.db, req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Settings

func category(r *http.Request) (settings.Category, error) {
	return settings.ParseCategory(mux.Vars(r)["category"])
}

func (s *Server) allSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.settings.All())
}

func (s *Server) getSettings(w http.ResponseWriter, r *http.Request) {
	cat, err := category(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	section, err := s.settings.Get(cat)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, section)
}

func (s *Server) updateSettings(w http.ResponseWriter, r *http.Request) {
	cat, err := category(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	patch, err := readBody(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	section, err := s.settings.Update(cat, patch)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, section)
}

func (s *Server) resetSettings(w http.ResponseWriter, r *http.Request) {
	cat, err := category(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	section, err := s.settings.Reset(cat)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, section)
}

func (s *Server) validateSettings(w http.ResponseWriter, r *http.Request) {
	cat, err := category(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	patch, err := readBody(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	result, err := s.settings.Validate(cat, patch)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) exportSettings(w http.ResponseWriter, r *http.Request) {
	file, err := s.settings.Export(r.URL.Query().Get("format"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeFile(w, file)
}

func (s *Server) importSettings(w http.ResponseWriter, r *http.Request) {
	data, err := readBody(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	result, err := s.settings.Import(data)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Reports

func (s *Server) reportTemplates(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.reports.Templates())
}

func (s *Server) reportHistory(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.reports.History())
}

type generateRequest struct {
	TemplateID int               `json:"templateId"`
	Options    map[string]string `json:"options"`
}

func (s *Server) generateReport(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	report, err := s.reports.Generate(r.Context(), req.TemplateID, req.Options)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, report)
}

func (s *Server) deleteReport(w http.ResponseWriter, r *http.Request) {
	if err := s.reports.Delete(mux.Vars(r)["id"]); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) exportReport(w http.ResponseWriter, r *http.Request) {
	export, err := s.reports.Export(mux.Vars(r)["id"], r.URL.Query().Get("format"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, export)
}

func (s *Server) listSchedules(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.reports.Schedules())
}

type scheduleRequest struct {
	TemplateID int    `json:"templateId"`
	Schedule   string `json:"schedule"`
}

func (s *Server) createSchedule(w http.ResponseWriter, r *http.Request) {
	var req scheduleRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	schedule, err := reports.ParseSchedule(req.Schedule)
	if err != nil {
		s.writeError(w, err)
		return
	}
	scheduled, err := s.reports.Schedule(req.TemplateID, schedule)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, scheduled)
}
