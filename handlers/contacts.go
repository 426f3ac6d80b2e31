// ABOUTME: Contact MCP tool handlers
// ABOUTME: Implements add, find, update and delete contact tools plus the activity timeline
package handlers

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/nexuscrm/db"
	"github.com/harperreed/nexuscrm/importer"
	"github.com/harperreed/nexuscrm/models"
	"github.com/harperreed/nexuscrm/view"
)

type ContactHandlers struct {
	db   *sql.DB
	opts view.Options
}

func NewContactHandlers(database *sql.DB, opts view.Options) *ContactHandlers {
	return &ContactHandlers{db: database, opts: opts}
}

type AddContactInput struct {
	Name       string   `json:"name" jsonschema:"Contact name (required)"`
	Email      string   `json:"email" jsonschema:"Contact email address (required)"`
	Phone      string   `json:"phone,omitempty" jsonschema:"Contact phone number"`
	Company    string   `json:"company,omitempty" jsonschema:"Company name"`
	LeadStatus string   `json:"lead_status,omitempty" jsonschema:"New Lead, Qualified, Customer or Unqualified (default New Lead)"`
	Topics     []string `json:"topics,omitempty" jsonschema:"Topics of interest"`
	Owner      string   `json:"owner,omitempty" jsonschema:"Account owner"`
	Subscribed bool     `json:"is_subscribed,omitempty" jsonschema:"Newsletter subscriber"`
	Customer   bool     `json:"is_customer,omitempty" jsonschema:"Paying customer"`
}

type ContactOutput struct {
	ID           int64    `json:"id"`
	Name         string   `json:"name"`
	Email        string   `json:"email"`
	Phone        string   `json:"phone,omitempty"`
	Company      string   `json:"company,omitempty"`
	LeadStatus   string   `json:"lead_status"`
	Topics       []string `json:"topics"`
	Owner        string   `json:"owner,omitempty"`
	IsSubscribed bool     `json:"is_subscribed"`
	IsCustomer   bool     `json:"is_customer"`
	CreatedDate  string   `json:"created_date"`
	LastActivity string   `json:"last_activity"`
}

func (h *ContactHandlers) AddContact(_ context.Context, request *mcp.CallToolRequest, input AddContactInput) (*mcp.CallToolResult, ContactOutput, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ContactOutput{}, fmt.Errorf("name is required")
	}
	email := strings.TrimSpace(input.Email)
	if !importer.IsValidEmail(email) {
		return nil, ContactOutput{}, fmt.Errorf("invalid email: %q", input.Email)
	}

	status := models.LeadStatusNewLead
	if input.LeadStatus != "" {
		var err error
		status, err = models.ParseLeadStatus(input.LeadStatus)
		if err != nil {
			return nil, ContactOutput{}, err
		}
	}

	contact := &models.Contact{
		Name:         name,
		Email:        email,
		Phone:        input.Phone,
		Company:      input.Company,
		LeadStatus:   status,
		Owner:        input.Owner,
		IsSubscribed: input.Subscribed,
		IsCustomer:   input.Customer,
	}
	contact.AddTopics(input.Topics...)

	if err := db.CreateContact(h.db, contact); err != nil {
		return nil, ContactOutput{}, fmt.Errorf("failed to create contact: %w", err)
	}

	return nil, contactToOutput(contact), nil
}

type FindContactsInput struct {
	Query         string   `json:"query,omitempty" jsonschema:"Search name, email or company (case-insensitive) and phone (exact substring)"`
	Tab           string   `json:"tab,omitempty" jsonschema:"all, subscribers, unsubscribed or customers"`
	Owner         string   `json:"owner,omitempty" jsonschema:"Only contacts owned by this person"`
	LeadStatus    []string `json:"lead_status,omitempty" jsonschema:"Only contacts in one of these lead statuses"`
	SortBy        string   `json:"sort_by,omitempty" jsonschema:"name, email, phone, leadStatus, createdDate or lastActivity"`
	SortDirection string   `json:"sort_direction,omitempty" jsonschema:"asc or desc"`
	Page          int      `json:"page,omitempty" jsonschema:"1-based page number (default 1)"`
	PerPage       int      `json:"per_page,omitempty" jsonschema:"10, 25, 50 or 100 (default 25)"`
}

type FindContactsOutput struct {
	Contacts      []ContactOutput `json:"contacts"`
	TotalMatching int             `json:"total_matching"`
	Page          int             `json:"page"`
	TotalPages    int             `json:"total_pages"`
}

func (h *ContactHandlers) FindContacts(_ context.Context, request *mcp.CallToolRequest, input FindContactsInput) (*mcp.CallToolResult, FindContactsOutput, error) {
	q, err := buildQuery(input)
	if err != nil {
		return nil, FindContactsOutput{}, err
	}

	contacts, err := db.ListContacts(h.db)
	if err != nil {
		return nil, FindContactsOutput{}, fmt.Errorf("failed to find contacts: %w", err)
	}

	result := view.Build(contacts, q, h.opts)
	out := FindContactsOutput{
		Contacts:      make([]ContactOutput, len(result.Items)),
		TotalMatching: result.TotalMatching,
		Page:          result.Page.CurrentPage,
		TotalPages:    result.TotalPages,
	}
	for i := range result.Items {
		out.Contacts[i] = contactToOutput(&result.Items[i])
	}

	return nil, out, nil
}

func buildQuery(input FindContactsInput) (view.Query, error) {
	q := view.DefaultQuery()
	q.Filters.SearchQuery = input.Query
	q.Filters.Owner = input.Owner

	tab, err := models.ParseTab(input.Tab)
	if err != nil {
		return q, err
	}
	q.Filters.ActiveTab = tab

	for _, raw := range input.LeadStatus {
		status, err := models.ParseLeadStatus(raw)
		if err != nil {
			return q, err
		}
		if !q.Filters.HasLeadStatus(status) {
			q.Filters.LeadStatus = append(q.Filters.LeadStatus, status)
		}
	}

	if input.SortBy != "" {
		field, err := view.ParseSortField(input.SortBy)
		if err != nil {
			return q, err
		}
		q.Sort.Field = field
	}
	switch strings.ToLower(input.SortDirection) {
	case "", "asc":
		q.Sort.Direction = view.Asc
	case "desc":
		q.Sort.Direction = view.Desc
	default:
		return q, fmt.Errorf("sort_direction must be asc or desc")
	}

	if input.PerPage != 0 {
		if !models.ValidPerPage(input.PerPage) {
			return q, fmt.Errorf("per_page must be one of %v", models.PerPageOptions)
		}
		q.Page = q.Page.WithPerPage(input.PerPage)
	}
	if input.Page > 0 {
		q.Page.CurrentPage = input.Page
	}

	return q, nil
}

type UpdateContactInput struct {
	ID           int64     `json:"id" jsonschema:"Contact ID (required)"`
	Name         *string   `json:"name,omitempty" jsonschema:"Updated contact name"`
	Email        *string   `json:"email,omitempty" jsonschema:"Updated email address"`
	Phone        *string   `json:"phone,omitempty" jsonschema:"Updated phone number"`
	Company      *string   `json:"company,omitempty" jsonschema:"Updated company"`
	LeadStatus   *string   `json:"lead_status,omitempty" jsonschema:"Updated lead status"`
	Topics       *[]string `json:"topics,omitempty" jsonschema:"Replacement topic list"`
	Owner        *string   `json:"owner,omitempty" jsonschema:"Updated owner"`
	IsSubscribed *bool     `json:"is_subscribed,omitempty" jsonschema:"Updated newsletter subscription"`
	IsCustomer   *bool     `json:"is_customer,omitempty" jsonschema:"Updated customer flag"`
}

func (h *ContactHandlers) UpdateContact(_ context.Context, request *mcp.CallToolRequest, input UpdateContactInput) (*mcp.CallToolResult, ContactOutput, error) {
	if input.ID == 0 {
		return nil, ContactOutput{}, fmt.Errorf("id is required")
	}

	update := db.ContactUpdate{
		Name:         input.Name,
		Email:        input.Email,
		Phone:        input.Phone,
		Company:      input.Company,
		Topics:       input.Topics,
		Owner:        input.Owner,
		IsSubscribed: input.IsSubscribed,
		IsCustomer:   input.IsCustomer,
	}
	if input.Email != nil && !importer.IsValidEmail(*input.Email) {
		return nil, ContactOutput{}, fmt.Errorf("invalid email: %q", *input.Email)
	}
	if input.LeadStatus != nil {
		status, err := models.ParseLeadStatus(*input.LeadStatus)
		if err != nil {
			return nil, ContactOutput{}, err
		}
		update.LeadStatus = &status
	}

	contact, err := db.UpdateContact(h.db, input.ID, update)
	if err != nil {
		return nil, ContactOutput{}, fmt.Errorf("failed to update contact: %w", err)
	}

	return nil, contactToOutput(contact), nil
}

type DeleteContactInput struct {
	ID int64 `json:"id" jsonschema:"Contact ID (required)"`
}

type DeleteContactOutput struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func (h *ContactHandlers) DeleteContact(_ context.Context, request *mcp.CallToolRequest, input DeleteContactInput) (*mcp.CallToolResult, DeleteContactOutput, error) {
	if input.ID == 0 {
		return nil, DeleteContactOutput{}, fmt.Errorf("id is required")
	}

	if err := db.DeleteContact(h.db, input.ID); err != nil {
		return nil, DeleteContactOutput{}, fmt.Errorf("failed to delete contact: %w", err)
	}

	return nil, DeleteContactOutput{
		Success: true,
		Message: fmt.Sprintf("Deleted contact %d", input.ID),
	}, nil
}

type GetActivityInput struct {
	ContactID int64 `json:"contact_id,omitempty" jsonschema:"Only this contact's history (default all contacts)"`
	Limit     int   `json:"limit,omitempty" jsonschema:"Maximum entries, newest first (default 20)"`
}

type GetActivityOutput struct {
	Activities []models.Activity `json:"activities"`
}

func (h *ContactHandlers) GetActivity(_ context.Context, request *mcp.CallToolRequest, input GetActivityInput) (*mcp.CallToolResult, GetActivityOutput, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = 20
	}
	activities, err := db.ListActivities(h.db, input.ContactID, limit)
	if err != nil {
		return nil, GetActivityOutput{}, fmt.Errorf("failed to load activity: %w", err)
	}
	return nil, GetActivityOutput{Activities: activities}, nil
}

func contactToOutput(contact *models.Contact) ContactOutput {
	topics := contact.Topics
	if topics == nil {
		topics = []string{}
	}
	return ContactOutput{
		ID:           contact.ID,
		Name:         contact.Name,
		Email:        contact.Email,
		Phone:        contact.Phone,
		Company:      contact.Company,
		LeadStatus:   string(contact.LeadStatus),
		Topics:       topics,
		Owner:        contact.Owner,
		IsSubscribed: contact.IsSubscribed,
		IsCustomer:   contact.IsCustomer,
		CreatedDate:  contact.CreatedDate.Format(time.RFC3339),
		LastActivity: contact.LastActivity.Format(time.RFC3339),
	}
}
