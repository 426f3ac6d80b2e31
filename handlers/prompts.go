// ABOUTME: MCP prompt templates for CRM workflows
// ABOUTME: Builds contact summaries, pipeline reviews and follow-up suggestions from live data
package handlers

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/nexuscrm/db"
	"github.com/harperreed/nexuscrm/models"
	"github.com/harperreed/nexuscrm/viz"
)

type PromptHandlers struct {
	db *sql.DB
}

func NewPromptHandlers(database *sql.DB) *PromptHandlers {
	return &PromptHandlers{db: database}
}

// GetPrompt handles prompt requests
func (h *PromptHandlers) GetPrompt(ctx context.Context, request *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	args := request.Params.Arguments
	if args == nil {
		args = map[string]string{}
	}

	switch request.Params.Name {
	case "contact-summary":
		return h.getContactSummaryPrompt(args)
	case "pipeline-review":
		return h.getPipelineReviewPrompt()
	case "follow-up-suggestions":
		return h.getFollowUpSuggestionsPrompt(args)
	default:
		return nil, fmt.Errorf("unknown prompt: %s", request.Params.Name)
	}
}

func (h *PromptHandlers) getContactSummaryPrompt(args map[string]string) (*mcp.GetPromptResult, error) {
	idStr, ok := args["contact_id"]
	if !ok {
		return nil, fmt.Errorf("contact_id is required")
	}
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid contact_id: %w", err)
	}

	contact, err := db.GetContact(h.db, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch contact: %w", err)
	}

	var promptText strings.Builder
	fmt.Fprintf(&promptText, "Please provide a summary of %s.\n\n", contact.Name)
	promptText.WriteString("Contact Information:\n")
	fmt.Fprintf(&promptText, "- Email: %s\n", contact.Email)
	if contact.Phone != "" {
		fmt.Fprintf(&promptText, "- Phone: %s\n", contact.Phone)
	}
	if contact.Company != "" {
		fmt.Fprintf(&promptText, "- Company: %s\n", contact.Company)
	}
	fmt.Fprintf(&promptText, "- Lead status: %s\n", contact.LeadStatus)
	if contact.Owner != "" {
		fmt.Fprintf(&promptText, "- Owner: %s\n", contact.Owner)
	}
	fmt.Fprintf(&promptText, "- Newsletter subscriber: %t\n", contact.IsSubscribed)
	fmt.Fprintf(&promptText, "- Customer: %t\n", contact.IsCustomer)
	if len(contact.Topics) > 0 {
		fmt.Fprintf(&promptText, "- Topics: %s\n", strings.Join(contact.Topics, ", "))
	}
	fmt.Fprintf(&promptText, "- Created: %s\n", contact.CreatedDate.Format("2006-01-02"))
	fmt.Fprintf(&promptText, "- Last activity: %s\n", contact.LastActivity.Format("2006-01-02"))

	promptText.WriteString("\nPlease summarize where this contact stands and suggest a next step.")

	return textPrompt(fmt.Sprintf("Summary of %s", contact.Name), promptText.String()), nil
}

func (h *PromptHandlers) getPipelineReviewPrompt() (*mcp.GetPromptResult, error) {
	stats, err := viz.GenerateDashboardStats(h.db)
	if err != nil {
		return nil, fmt.Errorf("failed to build pipeline: %w", err)
	}

	var promptText strings.Builder
	fmt.Fprintf(&promptText, "Review the lead pipeline of %d contacts.\n\n", stats.TotalContacts)
	promptText.WriteString("Contacts by lead status:\n")
	for _, status := range models.LeadStatuses {
		fmt.Fprintf(&promptText, "- %s: %d\n", status, stats.PipelineByStatus[status])
	}

	promptText.WriteString("\nContacts by owner:\n")
	for _, owner := range stats.Owners {
		fmt.Fprintf(&promptText, "- %s: %d contacts, %d customers\n", owner.Owner, owner.Contacts, owner.Customers)
	}

	promptText.WriteString("\nPlease:")
	promptText.WriteString("\n1. Identify bottlenecks between lead statuses")
	promptText.WriteString("\n2. Compare owner workloads and conversion")
	promptText.WriteString("\n3. Recommend where to focus this week")

	return textPrompt("Lead pipeline review", promptText.String()), nil
}

func (h *PromptHandlers) getFollowUpSuggestionsPrompt(args map[string]string) (*mcp.GetPromptResult, error) {
	stats, err := viz.GenerateDashboardStats(h.db)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch contacts: %w", err)
	}

	daysSince := viz.StaleAfterDays
	if d, ok := args["days_since_contact"]; ok {
		n, err := strconv.Atoi(d)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("invalid days_since_contact: %q", d)
		}
		daysSince = n
	}

	var promptText strings.Builder
	fmt.Fprintf(&promptText, "Contacts that may need follow-up (no activity in %d+ days):\n\n", daysSince)

	count := 0
	for _, stale := range stats.StaleContacts {
		if stale.DaysSince < daysSince {
			continue
		}
		fmt.Fprintf(&promptText, "- %s (%d days)\n", stale.Name, stale.DaysSince)
		count++
	}
	if count == 0 {
		promptText.WriteString("All contacts have recent activity.\n")
	}

	promptText.WriteString("\nPlease:")
	promptText.WriteString("\n1. Prioritize which contacts to reach out to first")
	promptText.WriteString("\n2. Suggest personalized outreach approaches for each")
	promptText.WriteString("\n3. Identify any patterns in follow-up gaps")

	return textPrompt("Follow-up suggestions for contacts", promptText.String()), nil
}

func textPrompt(description, text string) *mcp.GetPromptResult {
	return &mcp.GetPromptResult{
		Description: description,
		Messages: []*mcp.PromptMessage{
			{
				Role:    "user",
				Content: &mcp.TextContent{Text: text},
			},
		},
	}
}
