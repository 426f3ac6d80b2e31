// ABOUTME: Bulk action MCP tool handler
// ABOUTME: Runs owner, status, tag, export and delete actions over a contact selection
package handlers

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/nexuscrm/bulk"
)

type BulkHandlers struct {
	db *sql.DB
}

func NewBulkHandlers(database *sql.DB) *BulkHandlers {
	return &BulkHandlers{db: database}
}

type BulkActionInput struct {
	Action  string  `json:"action" jsonschema:"assign_owner, change_status, add_tags, export or delete"`
	IDs     []int64 `json:"ids" jsonschema:"Selected contact IDs"`
	Input   string  `json:"input,omitempty" jsonschema:"Owner name, lead status or comma-separated tags"`
	Confirm bool    `json:"confirm,omitempty" jsonschema:"Must be true to delete"`
}

type BulkActionOutput struct {
	Action      string   `json:"action"`
	Selected    int      `json:"selected"`
	Affected    int64    `json:"affected"`
	Message     string   `json:"message"`
	NeedsInput  string   `json:"needs_input,omitempty"`
	Prompt      string   `json:"prompt,omitempty"`
	Options     []string `json:"options,omitempty"`
	Filename    string   `json:"filename,omitempty"`
	FileContent string   `json:"file_content,omitempty"`
}

func (h *BulkHandlers) BulkAction(ctx context.Context, request *mcp.CallToolRequest, input BulkActionInput) (*mcp.CallToolResult, BulkActionOutput, error) {
	action, err := bulk.ParseAction(input.Action)
	if err != nil {
		return nil, BulkActionOutput{}, err
	}

	result, err := bulk.Run(ctx, h.db, bulk.Request{
		Action:    action,
		IDs:       input.IDs,
		Input:     input.Input,
		Confirmed: input.Confirm,
	})
	if err != nil {
		return nil, BulkActionOutput{}, fmt.Errorf("bulk %s failed: %w", action, err)
	}

	out := BulkActionOutput{
		Action:   string(result.Action),
		Selected: result.Selected,
		Affected: result.Affected,
		Message:  result.Message,
	}
	if result.NeedsInput != nil {
		out.NeedsInput = result.NeedsInput.Field
		out.Prompt = result.NeedsInput.Prompt
		out.Options = result.NeedsInput.Options
		out.Message = result.NeedsInput.Prompt
	}
	if result.File != nil {
		out.Filename = result.File.Filename
		out.FileContent = result.File.Content
	}

	return nil, out, nil
}
