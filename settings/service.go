// ABOUTME: Settings service holding the live configuration behind a mutex
// ABOUTME: Supports partial updates, resets, validation and JSON/YAML export and import
package settings

import (
	"bytes"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/harperreed/nexuscrm/exporter"
	"github.com/harperreed/nexuscrm/logging"
	"github.com/harperreed/nexuscrm/models"
)

// ExportVersion is written into every exported settings document.
const ExportVersion = "1.0"

var (
	ErrCompanyNameRequired = errors.New("Company name is required")
	ErrCurrencyRequired    = errors.New("Currency is required")
	ErrInvalidDocument     = errors.New("Invalid settings file format")
)

type Service struct {
	mu       sync.RWMutex
	settings Settings
	validate *validator.Validate
	logger   logrus.FieldLogger
}

func NewService(logger logrus.FieldLogger) *Service {
	return &Service{
		settings: Defaults(),
		validate: validator.New(),
		logger:   logging.Component(logger, "settings"),
	}
}

// All returns a copy of every category.
func (s *Service) All() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// Get returns a copy of one category.
func (s *Service) Get(category Category) (interface{}, error) {
	st := s.All()
	ptr, err := section(&st, category)
	if err != nil {
		return nil, err
	}
	return deref(ptr), nil
}

// Update merges a JSON object into category. Keys not present keep their
// value. A company patch must carry a non-empty name and a system patch a
// non-empty currency.
func (s *Service) Update(category Category, patch []byte) (interface{}, error) {
	var fields map[string]interface{}
	if err := json.Unmarshal(patch, &fields); err != nil {
		return nil, errors.Wrap(err, "failed to decode settings patch")
	}

	switch category {
	case CategoryCompany:
		if !nonEmpty(fields["name"]) {
			return nil, ErrCompanyNameRequired
		}
	case CategorySystem:
		if !nonEmpty(fields["currency"]) {
			return nil, ErrCurrencyRequired
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.settings
	ptr, err := section(&next, category)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(patch, ptr); err != nil {
		return nil, errors.Wrapf(err, "failed to apply %s settings", category)
	}

	s.settings = next
	s.logger.WithField("category", category).Info("settings updated")
	return deref(ptr), nil
}

// Reset restores the defaults of a category. Only system and notifications
// can be reset.
func (s *Service) Reset(category Category) (interface{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch category {
	case CategorySystem:
		s.settings.System = DefaultSystem()
		return s.settings.System, nil
	case CategoryNotifications:
		s.settings.Notifications = DefaultNotifications()
		return s.settings.Notifications, nil
	}
	return nil, &ResetError{Category: category}
}

// ResetError is returned when a category has no defaults to restore.
type ResetError struct {
	Category Category
}

func (e *ResetError) Error() string {
	return "Cannot reset " + string(e.Category) + " settings"
}

type ValidationResult struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}

// Validate checks what category would look like after applying patch,
// without changing anything.
func (s *Service) Validate(category Category, patch []byte) (*ValidationResult, error) {
	next := s.All()
	ptr, err := section(&next, category)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(patch)) > 0 {
		if err := json.Unmarshal(patch, ptr); err != nil {
			return nil, errors.Wrap(err, "failed to decode settings patch")
		}
	}

	msgs := s.check(category, ptr)
	return &ValidationResult{Valid: len(msgs) == 0, Errors: msgs}, nil
}

var fieldMessages = map[string]string{
	"Company.Name":                "Company name is required",
	"Company.Email":               "Invalid email format",
	"Company.Website":             "Invalid website URL",
	"Security.PasswordExpiration": "Password expiration must be between 30 and 365 days",
	"Security.SessionTimeout":     "Session timeout must be between 15 and 480 minutes",
}

func (s *Service) check(category Category, ptr interface{}) []string {
	if c, ok := ptr.(*Company); ok {
		trimmed := *c
		trimmed.Name = strings.TrimSpace(trimmed.Name)
		ptr = &trimmed
	}

	msgs := []string{}
	errs := s.validate.Struct(ptr)
	if errs == nil {
		return msgs
	}

	var verrs validator.ValidationErrors
	if !errors.As(errs, &verrs) {
		return append(msgs, errs.Error())
	}
	for _, err := range verrs {
		msg, ok := fieldMessages[err.StructNamespace()]
		if !ok {
			msg = err.Error()
		}
		msgs = append(msgs, msg)
	}
	return msgs
}

// Document is the exported settings file.
type Document struct {
	ExportDate time.Time `json:"exportDate" yaml:"exportDate"`
	Version    string    `json:"version" yaml:"version"`
	Settings   Settings  `json:"settings" yaml:"settings"`
}

// now is replaced in tests.
var now = time.Now

// Export renders every category as a json or yaml document.
func (s *Service) Export(format string) (*exporter.File, error) {
	t := now().UTC()
	doc := Document{ExportDate: t, Version: ExportVersion, Settings: s.All()}
	stamp := t.Format("2006-01-02")

	switch format {
	case "json", "":
		data, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return nil, errors.Wrap(err, "failed to encode settings")
		}
		return &exporter.File{
			Filename:    "crm_settings_" + stamp + ".json",
			Content:     string(data),
			ContentType: "application/json",
		}, nil
	case "yaml", "yml":
		data, err := yaml.Marshal(doc)
		if err != nil {
			return nil, errors.Wrap(err, "failed to encode settings")
		}
		return &exporter.File{
			Filename:    "crm_settings_" + stamp + ".yaml",
			Content:     string(data),
			ContentType: "application/yaml",
		}, nil
	}
	return nil, &models.UnsupportedFormatError{Format: format}
}

type ImportResult struct {
	Message           string     `json:"message"`
	CategoriesUpdated []Category `json:"categoriesUpdated"`
	Ignored           []string   `json:"ignored"`
}

// Import merges an exported JSON or YAML document category by category. Any
// failure leaves the current settings exactly as they were.
func (s *Service) Import(data []byte) (*ImportResult, error) {
	doc, err := decodeDocument(data)
	if err != nil {
		return nil, errors.Wrap(err, "Failed to import settings")
	}

	raw, ok := doc["settings"].(map[string]interface{})
	if !ok {
		return nil, errors.Wrap(ErrInvalidDocument, "Failed to import settings")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.settings
	result := &ImportResult{
		Message:           "Settings imported successfully",
		CategoriesUpdated: []Category{},
		Ignored:           []string{},
	}

	for _, category := range Categories {
		values, present := raw[string(category)]
		if !present {
			continue
		}
		if err := mergeSection(&next, category, values); err != nil {
			return nil, errors.Wrap(err, "Failed to import settings")
		}
		ptr, _ := section(&next, category)
		if msgs := s.check(category, ptr); len(msgs) > 0 {
			return nil, errors.Wrapf(ErrInvalidDocument, "Failed to import settings: %s", strings.Join(msgs, "; "))
		}
		result.CategoriesUpdated = append(result.CategoriesUpdated, category)
	}
	for key := range raw {
		if _, err := ParseCategory(key); err != nil {
			result.Ignored = append(result.Ignored, key)
		}
	}

	s.settings = next
	s.logger.WithField("categories", result.CategoriesUpdated).Info("settings imported")
	return result, nil
}

func decodeDocument(data []byte) (map[string]interface{}, error) {
	var doc map[string]interface{}
	trimmed := bytes.TrimSpace(data)
	if bytes.HasPrefix(trimmed, []byte("{")) {
		if err := json.Unmarshal(trimmed, &doc); err != nil {
			return nil, errors.Wrapf(ErrInvalidDocument, "invalid JSON: %v", err)
		}
		return doc, nil
	}
	if err := yaml.Unmarshal(trimmed, &doc); err != nil {
		return nil, errors.Wrapf(ErrInvalidDocument, "invalid YAML: %v", err)
	}
	if doc == nil {
		return nil, ErrInvalidDocument
	}
	return doc, nil
}

// mergeSection round-trips values through JSON so both input formats share
// the same merge rules.
func mergeSection(st *Settings, category Category, values interface{}) error {
	if _, ok := values.(map[string]interface{}); !ok {
		return errors.Errorf("%s settings must be an object", category)
	}
	data, err := json.Marshal(values)
	if err != nil {
		return errors.Wrapf(err, "failed to encode %s settings", category)
	}
	ptr, err := section(st, category)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, ptr); err != nil {
		return errors.Wrapf(err, "invalid %s settings", category)
	}
	return nil
}

func deref(ptr interface{}) interface{} {
	switch v := ptr.(type) {
	case *Company:
		return *v
	case *System:
		return *v
	case *Notifications:
		return *v
	case *Privacy:
		return *v
	case *Security:
		return *v
	}
	return ptr
}

func nonEmpty(v interface{}) bool {
	switch val := v.(type) {
	case nil:
		return false
	case string:
		return val != ""
	case bool:
		return val
	case float64:
		return val != 0
	}
	return true
}
