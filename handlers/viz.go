// ABOUTME: GraphViz visualization MCP handlers
// ABOUTME: Provides generate_graph and get_dashboard tools for agents
package handlers

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/nexuscrm/viz"
)

type VizHandlers struct {
	db *sql.DB
}

func NewVizHandlers(database *sql.DB) *VizHandlers {
	return &VizHandlers{db: database}
}

type GenerateGraphInput struct {
	Type string `json:"type" jsonschema:"Graph type: owners or companies"`
}

type GenerateGraphOutput struct {
	GraphType string `json:"graph_type"`
	DOTSource string `json:"dot_source"`
	NodeCount int    `json:"node_count"`
	EdgeCount int    `json:"edge_count"`
}

func (h *VizHandlers) GenerateGraph(_ context.Context, request *mcp.CallToolRequest, input GenerateGraphInput) (*mcp.CallToolResult, GenerateGraphOutput, error) {
	if input.Type == "" {
		return nil, GenerateGraphOutput{}, fmt.Errorf("type is required")
	}

	generator := viz.NewGraphGenerator(h.db)
	var dot string
	var err error

	switch input.Type {
	case "owners":
		dot, err = generator.GenerateOwnerGraph()
	case "companies":
		dot, err = generator.GenerateCompanyGraph()
	default:
		return nil, GenerateGraphOutput{}, fmt.Errorf("unknown graph type: %s (valid types: owners, companies)", input.Type)
	}

	if err != nil {
		return nil, GenerateGraphOutput{}, fmt.Errorf("failed to generate graph: %w", err)
	}

	// Count nodes and edges for stats
	nodeCount := strings.Count(dot, "shape=")
	edgeCount := strings.Count(dot, "->")

	return nil, GenerateGraphOutput{
		GraphType: input.Type,
		DOTSource: dot,
		NodeCount: nodeCount,
		EdgeCount: edgeCount,
	}, nil
}

type GetDashboardInput struct{}

type GetDashboardOutput struct {
	TotalContacts  int            `json:"total_contacts"`
	ByLeadStatus   map[string]int `json:"by_lead_status"`
	ByOwner        map[string]int `json:"by_owner"`
	StaleContacts  []string       `json:"stale_contacts"`
	RenderedReport string         `json:"rendered"`
}

func (h *VizHandlers) GetDashboard(_ context.Context, request *mcp.CallToolRequest, input GetDashboardInput) (*mcp.CallToolResult, GetDashboardOutput, error) {
	stats, err := viz.GenerateDashboardStats(h.db)
	if err != nil {
		return nil, GetDashboardOutput{}, fmt.Errorf("failed to build dashboard: %w", err)
	}

	out := GetDashboardOutput{
		TotalContacts:  stats.TotalContacts,
		ByLeadStatus:   map[string]int{},
		ByOwner:        map[string]int{},
		StaleContacts:  []string{},
		RenderedReport: viz.RenderDashboard(stats),
	}
	for status, n := range stats.PipelineByStatus {
		out.ByLeadStatus[string(status)] = n
	}
	for _, owner := range stats.Owners {
		out.ByOwner[owner.Owner] = owner.Contacts
	}
	for _, stale := range stats.StaleContacts {
		out.StaleContacts = append(out.StaleContacts, fmt.Sprintf("%s (%d days)", stale.Name, stale.DaysSince))
	}

	return nil, out, nil
}
