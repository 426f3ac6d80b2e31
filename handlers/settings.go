// ABOUTME: Settings and reports MCP tool handlers
// ABOUTME: Implements get_settings, update_settings, list_report_templates and generate_report tools
package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/nexuscrm/reports"
	"github.com/harperreed/nexuscrm/settings"
)

type SettingsHandlers struct {
	settings *settings.Service
	reports  *reports.Service
}

func NewSettingsHandlers(settingsService *settings.Service, reportService *reports.Service) *SettingsHandlers {
	return &SettingsHandlers{settings: settingsService, reports: reportService}
}

type GetSettingsInput struct {
	Category string `json:"category,omitempty" jsonschema:"company, system, notifications, privacy or security (default all)"`
}

type SettingsOutput struct {
	Category string                 `json:"category,omitempty"`
	Settings map[string]interface{} `json:"settings"`
}

func (h *SettingsHandlers) GetSettings(_ context.Context, request *mcp.CallToolRequest, input GetSettingsInput) (*mcp.CallToolResult, SettingsOutput, error) {
	if input.Category == "" {
		values, err := toMap(h.settings.All())
		if err != nil {
			return nil, SettingsOutput{}, err
		}
		return nil, SettingsOutput{Settings: values}, nil
	}

	category, err := settings.ParseCategory(input.Category)
	if err != nil {
		return nil, SettingsOutput{}, err
	}
	section, err := h.settings.Get(category)
	if err != nil {
		return nil, SettingsOutput{}, err
	}
	values, err := toMap(section)
	if err != nil {
		return nil, SettingsOutput{}, err
	}
	return nil, SettingsOutput{Category: string(category), Settings: values}, nil
}

type UpdateSettingsInput struct {
	Category string                 `json:"category" jsonschema:"Category to update (required)"`
	Values   map[string]interface{} `json:"values" jsonschema:"Fields to change; omitted fields keep their value"`
	DryRun   bool                   `json:"dry_run,omitempty" jsonschema:"Only validate the change"`
}

type UpdateSettingsOutput struct {
	Category string                 `json:"category"`
	Valid    bool                   `json:"valid"`
	Errors   []string               `json:"errors"`
	Settings map[string]interface{} `json:"settings,omitempty"`
}

func (h *SettingsHandlers) UpdateSettings(_ context.Context, request *mcp.CallToolRequest, input UpdateSettingsInput) (*mcp.CallToolResult, UpdateSettingsOutput, error) {
	category, err := settings.ParseCategory(input.Category)
	if err != nil {
		return nil, UpdateSettingsOutput{}, err
	}
	patch, err := json.Marshal(input.Values)
	if err != nil {
		return nil, UpdateSettingsOutput{}, fmt.Errorf("failed to encode values: %w", err)
	}

	check, err := h.settings.Validate(category, patch)
	if err != nil {
		return nil, UpdateSettingsOutput{}, err
	}
	out := UpdateSettingsOutput{Category: string(category), Valid: check.Valid, Errors: check.Errors}
	if out.Errors == nil {
		out.Errors = []string{}
	}
	if !check.Valid || input.DryRun {
		return nil, out, nil
	}

	section, err := h.settings.Update(category, patch)
	if err != nil {
		return nil, UpdateSettingsOutput{}, err
	}
	out.Settings, err = toMap(section)
	if err != nil {
		return nil, UpdateSettingsOutput{}, err
	}
	return nil, out, nil
}

type ListReportTemplatesInput struct{}

type ListReportTemplatesOutput struct {
	Templates []reports.Template `json:"templates"`
}

func (h *SettingsHandlers) ListReportTemplates(_ context.Context, request *mcp.CallToolRequest, input ListReportTemplatesInput) (*mcp.CallToolResult, ListReportTemplatesOutput, error) {
	return nil, ListReportTemplatesOutput{Templates: h.reports.Templates()}, nil
}

type GenerateReportInput struct {
	TemplateID int `json:"template_id" jsonschema:"Report template ID (1 contact analytics, 2 sales performance)"`
}

type GenerateReportOutput struct {
	ID           string                 `json:"id"`
	TemplateName string                 `json:"template_name"`
	GeneratedAt  string                 `json:"generated_at"`
	Data         map[string]interface{} `json:"data"`
}

func (h *SettingsHandlers) GenerateReport(ctx context.Context, request *mcp.CallToolRequest, input GenerateReportInput) (*mcp.CallToolResult, GenerateReportOutput, error) {
	report, err := h.reports.Generate(ctx, input.TemplateID, nil)
	if err != nil {
		return nil, GenerateReportOutput{}, err
	}
	data, err := toMap(report.Data)
	if err != nil {
		return nil, GenerateReportOutput{}, err
	}
	return nil, GenerateReportOutput{
		ID:           report.ID,
		TemplateName: report.TemplateName,
		GeneratedAt:  report.GeneratedAt.Format(time.RFC3339),
		Data:         data,
	}, nil
}

// toMap converts a struct into its JSON object form.
func toMap(v interface{}) (map[string]interface{}, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode: %w", err)
	}
	var out map[string]interface{}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to decode: %w", err)
	}
	return out, nil
}
