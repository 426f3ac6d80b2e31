// ABOUTME: Report templates, generation, history and scheduling
// ABOUTME: Contact analytics come from the store; sales figures are fixed sample data
package reports

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/harperreed/nexuscrm/db"
	"github.com/harperreed/nexuscrm/exporter"
	"github.com/harperreed/nexuscrm/logging"
	"github.com/harperreed/nexuscrm/models"
)

var (
	ErrTemplateNotFound = errors.New("Template not found")
	ErrReportNotFound   = errors.New("Report not found")
	ErrInvalidSchedule  = errors.New("invalid schedule")
)

type Template struct {
	ID          int      `json:"id"`
	Name        string   `json:"name"`
	Type        string   `json:"type"`
	Description string   `json:"description"`
	Fields      []string `json:"fields"`
}

const (
	TypeContact = "contact"
	TypeSales   = "sales"
)

var templates = []Template{
	{
		ID:          1,
		Name:        "Contact Analytics",
		Type:        TypeContact,
		Description: "Contact data analysis with lead sources and conversion rates",
		Fields:      []string{"name", "email", "leadStatus", "createdDate", "lastActivity"},
	},
	{
		ID:          2,
		Name:        "Sales Performance",
		Type:        TypeSales,
		Description: "Revenue trends and sales team performance",
		Fields:      []string{"dealValue", "closeDate", "salesRep", "stage"},
	},
}

// ContactAnalytics summarises the contact store.
type ContactAnalytics struct {
	TotalContacts int `json:"totalContacts"`
	NewThisMonth  int `json:"newThisMonth"`
	// ConversionRate is the percentage of contacts that are customers,
	// rounded to one decimal.
	ConversionRate float64                   `json:"conversionRate"`
	ByLeadStatus   map[models.LeadStatus]int `json:"byLeadStatus"`
	ByOwner        map[string]int            `json:"byOwner"`
}

type MonthlyRevenue struct {
	Month   string `json:"month"`
	Revenue int    `json:"revenue"`
}

type SalesPerformance struct {
	TotalRevenue  int              `json:"totalRevenue"`
	AvgDealSize   int              `json:"avgDealSize"`
	WinRate       int              `json:"winRate"`
	PipelineValue int              `json:"pipelineValue"`
	SalesByMonth  []MonthlyRevenue `json:"salesByMonth"`
}

func sampleSales() SalesPerformance {
	return SalesPerformance{
		TotalRevenue:  2400000,
		AvgDealSize:   53333,
		WinRate:       68,
		PipelineValue: 4200000,
		SalesByMonth: []MonthlyRevenue{
			{Month: "Jan", Revenue: 180000},
			{Month: "Feb", Revenue: 220000},
			{Month: "Mar", Revenue: 195000},
		},
	}
}

type Report struct {
	ID           string            `json:"id"`
	TemplateID   int               `json:"templateId"`
	TemplateName string            `json:"templateName"`
	GeneratedAt  time.Time         `json:"generatedAt"`
	Data         interface{}       `json:"data"`
	Options      map[string]string `json:"options,omitempty"`
}

type Schedule string

const (
	Daily   Schedule = "daily"
	Weekly  Schedule = "weekly"
	Monthly Schedule = "monthly"
)

type ScheduledReport struct {
	ID         string    `json:"id"`
	TemplateID int       `json:"templateId"`
	Schedule   Schedule  `json:"schedule"`
	CreatedAt  time.Time `json:"createdAt"`
	Active     bool      `json:"active"`
}

// Export describes a generated report file. Only csv carries content.
type Export struct {
	Filename string         `json:"filename"`
	URL      string         `json:"url"`
	Format   string         `json:"format"`
	File     *exporter.File `json:"file,omitempty"`
}

var exportFormats = map[string]bool{"pdf": true, "csv": true, "xlsx": true}

type Service struct {
	db     *sql.DB
	logger logrus.FieldLogger

	mu        sync.Mutex
	entropy   *ulid.MonotonicEntropy
	reports   []Report
	schedules []ScheduledReport
	now       func() time.Time
}

func NewService(database *sql.DB, logger logrus.FieldLogger) *Service {
	return &Service{
		db:      database,
		logger:  logging.Component(logger, "reports"),
		entropy: ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0),
		now:     time.Now,
	}
}

func (s *Service) Templates() []Template {
	out := make([]Template, len(templates))
	copy(out, templates)
	return out
}

func findTemplate(id int) (Template, error) {
	for _, t := range templates {
		if t.ID == id {
			return t, nil
		}
	}
	return Template{}, errors.Wrapf(ErrTemplateNotFound, "id %d", id)
}

// Generate builds a report from a template and keeps it in the history.
func (s *Service) Generate(ctx context.Context, templateID int, options map[string]string) (*Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tmpl, err := findTemplate(templateID)
	if err != nil {
		return nil, err
	}

	var data interface{}
	switch tmpl.Type {
	case TypeContact:
		contacts, err := db.ListContacts(s.db)
		if err != nil {
			return nil, errors.Wrap(err, "failed to load contacts")
		}
		data = AnalyzeContacts(contacts, s.now())
	case TypeSales:
		data = sampleSales()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	report := Report{
		ID:           ulid.MustNew(ulid.Timestamp(now), s.entropy).String(),
		TemplateID:   tmpl.ID,
		TemplateName: tmpl.Name,
		GeneratedAt:  now,
		Data:         data,
		Options:      options,
	}
	s.reports = append(s.reports, report)

	s.logger.WithFields(logrus.Fields{
		"report_id": report.ID,
		"template":  tmpl.Name,
	}).Info("report generated")
	return &report, nil
}

// AnalyzeContacts computes contact analytics as of now.
func AnalyzeContacts(contacts []models.Contact, now time.Time) ContactAnalytics {
	a := ContactAnalytics{
		TotalContacts: len(contacts),
		ByLeadStatus:  map[models.LeadStatus]int{},
		ByOwner:       map[string]int{},
	}
	for _, status := range models.LeadStatuses {
		a.ByLeadStatus[status] = 0
	}

	now = now.UTC()
	customers := 0
	for _, c := range contacts {
		created := c.CreatedDate.UTC()
		if created.Year() == now.Year() && created.Month() == now.Month() {
			a.NewThisMonth++
		}
		if c.IsCustomer {
			customers++
		}
		a.ByLeadStatus[c.LeadStatus]++

		owner := c.Owner
		if owner == "" {
			owner = "Unassigned"
		}
		a.ByOwner[owner]++
	}

	if len(contacts) > 0 {
		rate := float64(customers) / float64(len(contacts)) * 100
		a.ConversionRate = math.Round(rate*10) / 10
	}
	return a
}

// History returns generated reports, oldest first.
func (s *Service) History() []Report {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Report, len(s.reports))
	copy(out, s.reports)
	return out
}

func (s *Service) find(id string) (Report, error) {
	for _, r := range s.reports {
		if r.ID == id {
			return r, nil
		}
	}
	return Report{}, errors.Wrapf(ErrReportNotFound, "id %s", id)
}

// Export describes the report in format. Supported formats are pdf, csv
// and xlsx.
func (s *Service) Export(id, format string) (*Export, error) {
	if format == "" {
		format = "pdf"
	}
	if !exportFormats[format] {
		return nil, &models.UnsupportedFormatError{Format: format}
	}

	s.mu.Lock()
	report, err := s.find(id)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	out := &Export{
		Filename: fmt.Sprintf("%s_%s.%s", report.TemplateName, s.now().UTC().Format("2006-01-02"), format),
		URL:      "#",
		Format:   format,
	}

	if format == "csv" {
		file, err := exporter.ExportCSV(reportRows(report), []string{"metric", "key", "value"})
		if err != nil {
			return nil, errors.Wrap(err, "failed to render report")
		}
		file.Filename = out.Filename
		out.File = file
	}
	return out, nil
}

// reportRows flattens report data into metric/key/value rows.
func reportRows(r Report) []map[string]string {
	row := func(metric, key string, value interface{}) map[string]string {
		return map[string]string{"metric": metric, "key": key, "value": fmt.Sprint(value)}
	}

	var rows []map[string]string
	switch d := r.Data.(type) {
	case ContactAnalytics:
		rows = append(rows,
			row("totalContacts", "", d.TotalContacts),
			row("newThisMonth", "", d.NewThisMonth),
			row("conversionRate", "", strconv.FormatFloat(d.ConversionRate, 'f', 1, 64)),
		)
		for _, status := range models.LeadStatuses {
			rows = append(rows, row("leadStatus", string(status), d.ByLeadStatus[status]))
		}
		owners := make([]string, 0, len(d.ByOwner))
		for owner := range d.ByOwner {
			owners = append(owners, owner)
		}
		sort.Strings(owners)
		for _, owner := range owners {
			rows = append(rows, row("owner", owner, d.ByOwner[owner]))
		}
	case SalesPerformance:
		rows = append(rows,
			row("totalRevenue", "", d.TotalRevenue),
			row("avgDealSize", "", d.AvgDealSize),
			row("winRate", "", d.WinRate),
			row("pipelineValue", "", d.PipelineValue),
		)
		for _, m := range d.SalesByMonth {
			rows = append(rows, row("salesByMonth", m.Month, m.Revenue))
		}
	}
	return rows
}

func ParseSchedule(s string) (Schedule, error) {
	switch Schedule(s) {
	case Daily, Weekly, Monthly:
		return Schedule(s), nil
	}
	return "", errors.Wrapf(ErrInvalidSchedule, "%q", s)
}

// Schedule registers a recurring report. Nothing is ever run; the schedule
// is recorded for display.
func (s *Service) Schedule(templateID int, schedule Schedule) (*ScheduledReport, error) {
	if _, err := findTemplate(templateID); err != nil {
		return nil, err
	}
	if _, err := ParseSchedule(string(schedule)); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	scheduled := ScheduledReport{
		ID:         uuid.New().String(),
		TemplateID: templateID,
		Schedule:   schedule,
		CreatedAt:  s.now().UTC(),
		Active:     true,
	}
	s.schedules = append(s.schedules, scheduled)
	return &scheduled, nil
}

func (s *Service) Schedules() []ScheduledReport {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]ScheduledReport, len(s.schedules))
	copy(out, s.schedules)
	return out
}

// Delete removes a report from the history.
func (s *Service) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, r := range s.reports {
		if r.ID == id {
			s.reports = append(s.reports[:i], s.reports[i+1:]...)
			return nil
		}
	}
	return errors.Wrapf(ErrReportNotFound, "id %s", id)
}
