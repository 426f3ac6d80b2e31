// ABOUTME: Web UI server with embedded templates
// ABOUTME: Serves the dashboard, the contacts table, the JSON API and Prometheus metrics
package web

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/harperreed/nexuscrm/bulk"
	"github.com/harperreed/nexuscrm/db"
	"github.com/harperreed/nexuscrm/importer"
	"github.com/harperreed/nexuscrm/logging"
	"github.com/harperreed/nexuscrm/models"
	"github.com/harperreed/nexuscrm/reports"
	"github.com/harperreed/nexuscrm/settings"
	"github.com/harperreed/nexuscrm/view"
	"github.com/harperreed/nexuscrm/viz"
)

//go:embed templates/*.html
var templatesFS embed.FS

// Options configures a Server. Nil services are created with defaults.
type Options struct {
	Logger       logrus.FieldLogger
	View         view.Options
	PerPage      int
	FuzzyMapping bool
	Settings     *settings.Service
	Reports      *reports.Service
}

type Server struct {
	db        *sql.DB
	templates *template.Template
	generator *viz.GraphGenerator
	importer  *importer.Importer
	settings  *settings.Service
	reports   *reports.Service
	opts      Options
	logger    logrus.FieldLogger
	router    *mux.Router
}

func NewServer(database *sql.DB, opts Options) (*Server, error) {
	// Helper functions for templates
	funcMap := template.FuncMap{
		"add": func(a, b int) int {
			return a + b
		},
		"sub": func(a, b int) int {
			return a - b
		},
		"join": strings.Join,
		"date": func(t time.Time) string {
			return t.Format("2006-01-02")
		},
		"pageURL":   pageURL,
		"sortURL":   sortURL,
		"tabURL":    tabURL,
		"tabLabel":  func(t models.Tab) string { return t.Label() },
		"hasStatus": func(f models.FilterState, s models.LeadStatus) bool { return f.HasLeadStatus(s) },
	}

	tmpl, err := template.New("").Funcs(funcMap).ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse templates")
	}

	if !models.ValidPerPage(opts.PerPage) {
		opts.PerPage = models.DefaultPerPage
	}
	if opts.Settings == nil {
		opts.Settings = settings.NewService(opts.Logger)
	}
	if opts.Reports == nil {
		opts.Reports = reports.NewService(database, opts.Logger)
	}

	s := &Server{
		db:        database,
		templates: tmpl,
		generator: viz.NewGraphGenerator(database),
		importer:  importer.New(database, opts.Logger),
		settings:  opts.Settings,
		reports:   opts.Reports,
		opts:      opts,
		logger:    logging.Component(opts.Logger, "web"),
	}
	s.router = s.routes()
	return s, nil
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.logRequests)

	// Pages
	r.HandleFunc("/", s.handleDashboard).Methods(http.MethodGet)
	r.HandleFunc("/contacts", s.handleContacts).Methods(http.MethodGet)
	r.HandleFunc("/graphs", s.handleGraph).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/contacts", s.listContacts).Methods(http.MethodGet)
	api.HandleFunc("/contacts", s.createContact).Methods(http.MethodPost)
	api.HandleFunc("/contacts/{id:[0-9]+}", s.getContact).Methods(http.MethodGet)
	api.HandleFunc("/contacts/{id:[0-9]+}", s.updateContact).Methods(http.MethodPatch)
	api.HandleFunc("/contacts/{id:[0-9]+}", s.deleteContact).Methods(http.MethodDelete)
	api.HandleFunc("/contacts/{id:[0-9]+}/activity", s.contactActivity).Methods(http.MethodGet)
	api.HandleFunc("/activity", s.listActivity).Methods(http.MethodGet)

	api.HandleFunc("/import/preview", s.previewImport).Methods(http.MethodPost)
	api.HandleFunc("/import", s.runImport).Methods(http.MethodPost)
	api.HandleFunc("/export", s.exportContacts).Methods(http.MethodGet)
	api.HandleFunc("/template", s.importTemplate).Methods(http.MethodGet)
	api.HandleFunc("/bulk", s.runBulk).Methods(http.MethodPost)

	api.HandleFunc("/settings", s.allSettings).Methods(http.MethodGet)
	api.HandleFunc("/settings/export", s.exportSettings).Methods(http.MethodGet)
	api.HandleFunc("/settings/import", s.importSettings).Methods(http.MethodPost)
	api.HandleFunc("/settings/{category}", s.getSettings).Methods(http.MethodGet)
	api.HandleFunc("/settings/{category}", s.updateSettings).Methods(http.MethodPut, http.MethodPatch)
	api.HandleFunc("/settings/{category}/reset", s.resetSettings).Methods(http.MethodPost)
	api.HandleFunc("/settings/{category}/validate", s.validateSettings).Methods(http.MethodPost)

	api.HandleFunc("/reports/templates", s.reportTemplates).Methods(http.MethodGet)
	api.HandleFunc("/reports", s.reportHistory).Methods(http.MethodGet)
	api.HandleFunc("/reports", s.generateReport).Methods(http.MethodPost)
	api.HandleFunc("/reports/schedules", s.listSchedules).Methods(http.MethodGet)
	api.HandleFunc("/reports/schedules", s.createSchedule).Methods(http.MethodPost)
	api.HandleFunc("/reports/{id}", s.deleteReport).Methods(http.MethodDelete)
	api.HandleFunc("/reports/{id}/export", s.exportReport).Methods(http.MethodGet)

	return r
}

// ServeHTTP lets the server be mounted or tested directly.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Start listens on port until ctx is cancelled.
func (s *Server) Start(ctx context.Context, port int) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.WithField("addr", "http://localhost"+srv.Addr).Info("starting web server")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   rec.status,
			"duration": time.Since(start),
		}).Debug("request")
	})
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := viz.GenerateDashboardStats(s.db)
	if err != nil {
		s.serverError(w, err)
		return
	}

	data := map[string]interface{}{
		"Stats":           stats,
		"Statuses":        models.LeadStatuses,
		"Tabs":            models.Tabs,
		"Title":           "Dashboard",
		"ContentTemplate": "dashboard-content",
	}

	s.renderTemplate(w, "layout.html", data)
}

func (s *Server) handleContacts(w http.ResponseWriter, r *http.Request) {
	q, err := parseQuery(r.URL.Query(), s.opts.PerPage)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	contacts, err := db.ListContacts(s.db)
	if err != nil {
		s.serverError(w, err)
		return
	}

	data := map[string]interface{}{
		"Query":           q,
		"Result":          view.Build(contacts, q, s.opts.View),
		"Tabs":            models.Tabs,
		"Statuses":        models.LeadStatuses,
		"Owners":          bulk.Owners,
		"PerPageOptions":  models.PerPageOptions,
		"Title":           "Contacts",
		"ContentTemplate": "contacts-content",
	}

	s.renderTemplate(w, "layout.html", data)
}

func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	var dot string
	var err error

	switch r.URL.Query().Get("kind") {
	case "companies":
		dot, err = s.generator.GenerateCompanyGraph()
	case "", "owners":
		dot, err = s.generator.GenerateOwnerGraph()
	default:
		http.Error(w, "kind must be owners or companies", http.StatusBadRequest)
		return
	}
	if err != nil {
		s.serverError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/vnd.graphviz; charset=utf-8")
	_, _ = w.Write([]byte(dot))
}

func (s *Server) renderTemplate(w http.ResponseWriter, name string, data interface{}) {
	// The data map includes ContentTemplate to select the content block
	if err := s.templates.ExecuteTemplate(w, name, data); err != nil {
		s.logger.WithError(err).WithField("template", name).Error("template error")
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Server) serverError(w http.ResponseWriter, err error) {
	s.logger.WithError(err).Error("request failed")
	http.Error(w, err.Error(), http.StatusInternalServerError)
}
