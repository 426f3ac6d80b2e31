// ABOUTME: MCP server subcommand
// ABOUTME: Registers contact, import/export, bulk, settings and viz tools and serves them on stdio
package cli

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/harperreed/nexuscrm/handlers"
	"github.com/harperreed/nexuscrm/logging"
)

func newMCPCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Start the MCP server on stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			logging.Component(app.Logger, "mcp").Info("starting MCP server")
			return NewMCPServer(app).Run(cmd.Context(), &mcp.StdioTransport{})
		},
	}
}

// NewMCPServer builds the MCP server with every tool, resource and prompt registered.
func NewMCPServer(app *App) *mcp.Server {
	contactHandlers := handlers.NewContactHandlers(app.DB, app.viewOptions())
	transferHandlers := handlers.NewTransferHandlers(app.DB, app.Logger, app.Config.FuzzyMapping)
	bulkHandlers := handlers.NewBulkHandlers(app.DB)
	settingsHandlers := handlers.NewSettingsHandlers(app.Settings, app.Reports)
	vizHandlers := handlers.NewVizHandlers(app.DB)
	resourceHandlers := handlers.NewResourceHandlers(app.DB, app.Settings)
	promptHandlers := handlers.NewPromptHandlers(app.DB)

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "nexuscrm",
		Version: "0.1.0",
	}, nil)

	// Contacts
	mcp.AddTool(server, &mcp.Tool{
		Name:        "add_contact",
		Description: "Add a new contact to the CRM",
	}, contactHandlers.AddContact)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "find_contacts",
		Description: "Search, filter, sort and page through contacts",
	}, contactHandlers.FindContacts)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "update_contact",
		Description: "Update an existing contact's information",
	}, contactHandlers.UpdateContact)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "delete_contact",
		Description: "Delete a contact by ID",
	}, contactHandlers.DeleteContact)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_activity",
		Description: "Get the contact activity timeline, newest first",
	}, contactHandlers.GetActivity)

	// Import and export
	mcp.AddTool(server, &mcp.Tool{
		Name:        "import_csv",
		Description: "Import contacts from CSV text or a CSV file, with duplicate handling",
	}, transferHandlers.ImportCSV)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "export_contacts",
		Description: "Export contacts to CSV",
	}, transferHandlers.ExportContacts)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_import_template",
		Description: "Get the sample CSV used for contact imports",
	}, transferHandlers.ImportTemplate)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "bulk_action",
		Description: "Assign owner, change status, add tags, export or delete a selection of contacts",
	}, bulkHandlers.BulkAction)

	// Settings and reports
	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_settings",
		Description: "Read all settings or one category",
	}, settingsHandlers.GetSettings)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "update_settings",
		Description: "Validate and update one settings category",
	}, settingsHandlers.UpdateSettings)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_report_templates",
		Description: "List the available report templates",
	}, settingsHandlers.ListReportTemplates)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "generate_report",
		Description: "Generate a report from a template",
	}, settingsHandlers.GenerateReport)

	// Visualization
	mcp.AddTool(server, &mcp.Tool{
		Name:        "generate_graph",
		Description: "Generate a GraphViz DOT graph of contacts grouped by owner or company",
	}, vizHandlers.GenerateGraph)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_dashboard",
		Description: "Get pipeline, owner and stale contact statistics",
	}, vizHandlers.GetDashboard)

	// Resources
	server.AddResource(&mcp.Resource{
		URI:      "crm://contacts",
		Name:     "contacts",
		MIMEType: "application/json",
	}, resourceHandlers.ReadResource)

	server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: "crm://contacts/{id}",
		Name:        "contact",
		MIMEType:    "application/json",
	}, resourceHandlers.ReadResource)

	server.AddResource(&mcp.Resource{
		URI:      "crm://dashboard",
		Name:     "dashboard",
		MIMEType: "text/plain",
	}, resourceHandlers.ReadResource)

	server.AddResource(&mcp.Resource{
		URI:      "crm://activity",
		Name:     "activity",
		MIMEType: "application/json",
	}, resourceHandlers.ReadResource)

	server.AddResource(&mcp.Resource{
		URI:      "crm://settings",
		Name:     "settings",
		MIMEType: "application/json",
	}, resourceHandlers.ReadResource)

	// Prompts
	server.AddPrompt(&mcp.Prompt{
		Name:        "contact-summary",
		Description: "Summarize a contact and suggest a next step",
		Arguments: []*mcp.PromptArgument{
			{Name: "contact_id", Description: "Contact ID", Required: true},
		},
	}, promptHandlers.GetPrompt)

	server.AddPrompt(&mcp.Prompt{
		Name:        "pipeline-review",
		Description: "Review the lead pipeline and owner workloads",
	}, promptHandlers.GetPrompt)

	server.AddPrompt(&mcp.Prompt{
		Name:        "follow-up-suggestions",
		Description: "Suggest contacts to follow up with",
		Arguments: []*mcp.PromptArgument{
			{Name: "days_since_contact", Description: "Minimum days since last activity (default 30)"},
		},
	}, promptHandlers.GetPrompt)

	return server
}
