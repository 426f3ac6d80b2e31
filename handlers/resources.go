// ABOUTME: MCP resource handlers for exposing CRM data
// ABOUTME: Provides read-only access to contacts, the dashboard and settings via URI
package handlers

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/nexuscrm/db"
	"github.com/harperreed/nexuscrm/settings"
	"github.com/harperreed/nexuscrm/viz"
)

type ResourceHandlers struct {
	db       *sql.DB
	settings *settings.Service
}

func NewResourceHandlers(database *sql.DB, settingsService *settings.Service) *ResourceHandlers {
	return &ResourceHandlers{db: database, settings: settingsService}
}

// ReadResource handles resource read requests
func (h *ResourceHandlers) ReadResource(ctx context.Context, request *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	uri := request.Params.URI
	if !strings.HasPrefix(uri, "crm://") {
		return nil, fmt.Errorf("invalid URI scheme: expected crm://")
	}

	path := strings.TrimPrefix(uri, "crm://")
	parts := strings.Split(path, "/")

	switch parts[0] {
	case "contacts":
		if len(parts) == 1 {
			return h.readAllContacts()
		}
		return h.readContact(parts[1])

	case "dashboard":
		return h.readDashboard()

	case "activity":
		activities, err := db.ListActivities(h.db, 0, 50)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch activity: %w", err)
		}
		return jsonResource(uri, activities)

	case "settings":
		return jsonResource(uri, h.settings.All())

	default:
		return nil, fmt.Errorf("unknown resource: %s", parts[0])
	}
}

func (h *ResourceHandlers) readAllContacts() (*mcp.ReadResourceResult, error) {
	contacts, err := db.ListContacts(h.db)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch contacts: %w", err)
	}
	return jsonResource("crm://contacts", contacts)
}

func (h *ResourceHandlers) readContact(idStr string) (*mcp.ReadResourceResult, error) {
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid contact ID: %w", err)
	}

	contact, err := db.GetContact(h.db, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch contact: %w", err)
	}
	return jsonResource(fmt.Sprintf("crm://contacts/%d", id), contact)
}

func (h *ResourceHandlers) readDashboard() (*mcp.ReadResourceResult, error) {
	stats, err := viz.GenerateDashboardStats(h.db)
	if err != nil {
		return nil, fmt.Errorf("failed to build dashboard: %w", err)
	}

	return &mcp.ReadResourceResult{Contents: []*mcp.ResourceContents{
		{
			URI:      "crm://dashboard",
			MIMEType: "text/plain",
			Text:     viz.RenderDashboard(stats),
		},
	}}, nil
}

func jsonResource(uri string, v interface{}) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s: %w", uri, err)
	}

	return &mcp.ReadResourceResult{Contents: []*mcp.ResourceContents{
		{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}}, nil
}
