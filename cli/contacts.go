// ABOUTME: Contact CLI commands
// ABOUTME: Human-friendly commands for listing, editing and reviewing the activity of contacts
package cli

import (
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/harperreed/nexuscrm/db"
	"github.com/harperreed/nexuscrm/importer"
	"github.com/harperreed/nexuscrm/models"
	"github.com/harperreed/nexuscrm/view"
)

func newContactsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "contacts",
		Short: "Manage contacts",
	}
	cmd.AddCommand(
		newContactsListCmd(app),
		newContactsAddCmd(app),
		newContactsUpdateCmd(app),
		newContactsDeleteCmd(app),
		newContactsActivityCmd(app),
	)
	return cmd
}

func newContactsListCmd(app *App) *cobra.Command {
	var (
		query    string
		tab      string
		owner    string
		statuses []string
		sortBy   string
		desc     bool
		page     int
		perPage  int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List contacts with search, filters, sorting and paging",
		RunE: func(cmd *cobra.Command, args []string) error {
			q := view.DefaultQuery()
			q.Filters.SearchQuery = query
			q.Filters.Owner = owner

			activeTab, err := models.ParseTab(tab)
			if err != nil {
				return err
			}
			q.Filters.ActiveTab = activeTab

			for _, raw := range statuses {
				status, err := models.ParseLeadStatus(raw)
				if err != nil {
					return err
				}
				if !q.Filters.HasLeadStatus(status) {
					q.Filters.LeadStatus = append(q.Filters.LeadStatus, status)
				}
			}

			if sortBy != "" {
				field, err := view.ParseSortField(sortBy)
				if err != nil {
					return err
				}
				q.Sort.Field = field
			}
			if desc {
				q.Sort.Direction = view.Desc
			}

			if perPage == 0 {
				perPage = app.Config.PerPage
			}
			if !models.ValidPerPage(perPage) {
				return fmt.Errorf("--per-page must be one of %v", models.PerPageOptions)
			}
			q.Page = q.Page.WithPerPage(perPage)
			if page > 0 {
				q.Page.CurrentPage = page
			}

			contacts, err := db.ListContacts(app.DB)
			if err != nil {
				return fmt.Errorf("failed to list contacts: %w", err)
			}
			result := view.Build(contacts, q, app.viewOptions())

			out := cmd.OutOrStdout()
			if len(result.Items) == 0 {
				fmt.Fprintln(out, "No contacts found")
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			_, _ = fmt.Fprintln(w, "ID\tNAME\tEMAIL\tPHONE\tCOMPANY\tSTATUS\tOWNER")
			_, _ = fmt.Fprintln(w, "--\t----\t-----\t-----\t-------\t------\t-----")
			for _, c := range result.Items {
				_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
					c.ID, c.Name, c.Email, dash(c.Phone), dash(c.Company), c.LeadStatus, dash(c.Owner))
			}
			_ = w.Flush()

			fmt.Fprintf(out, "\nShowing %d to %d of %d results (page %d of %d)\n",
				result.StartItem, result.EndItem, result.TotalMatching,
				result.Page.CurrentPage, result.TotalPages)
			return nil
		},
	}

	cmd.Flags().StringVarP(&query, "query", "q", "", "Search name, email, company or phone")
	cmd.Flags().StringVar(&tab, "tab", "all", "all, subscribers, unsubscribed or customers")
	cmd.Flags().StringVar(&owner, "owner", "", "Only contacts owned by this person")
	cmd.Flags().StringSliceVar(&statuses, "status", nil, "Lead status filter (repeatable)")
	cmd.Flags().StringVar(&sortBy, "sort", "", "name, email, phone, leadStatus, createdDate or lastActivity")
	cmd.Flags().BoolVar(&desc, "desc", false, "Sort descending")
	cmd.Flags().IntVar(&page, "page", 1, "Page number")
	cmd.Flags().IntVar(&perPage, "per-page", 0, "Rows per page: 10, 25, 50 or 100")
	return cmd
}

func newContactsAddCmd(app *App) *cobra.Command {
	var (
		name       string
		email      string
		phone      string
		company    string
		status     string
		topics     []string
		owner      string
		subscribed bool
		customer   bool
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a new contact",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(name) == "" {
				return fmt.Errorf("--name is required")
			}
			if !importer.IsValidEmail(strings.TrimSpace(email)) {
				return fmt.Errorf("invalid email: %q", email)
			}
			leadStatus, err := models.ParseLeadStatus(status)
			if err != nil {
				return err
			}

			contact := &models.Contact{
				Name:         strings.TrimSpace(name),
				Email:        strings.TrimSpace(email),
				Phone:        phone,
				Company:      company,
				LeadStatus:   leadStatus,
				Owner:        owner,
				IsSubscribed: subscribed,
				IsCustomer:   customer,
			}
			contact.AddTopics(topics...)

			if err := db.CreateContact(app.DB, contact); err != nil {
				return fmt.Errorf("failed to create contact: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "✓ Contact created: %s (ID: %d)\n", contact.Name, contact.ID)
			fmt.Fprintf(out, "  Email: %s\n", contact.Email)
			if contact.Company != "" {
				fmt.Fprintf(out, "  Company: %s\n", contact.Company)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Contact name (required)")
	cmd.Flags().StringVar(&email, "email", "", "Email address (required)")
	cmd.Flags().StringVar(&phone, "phone", "", "Phone number")
	cmd.Flags().StringVar(&company, "company", "", "Company name")
	cmd.Flags().StringVar(&status, "status", string(models.LeadStatusNewLead), "Lead status")
	cmd.Flags().StringSliceVar(&topics, "topic", nil, "Topic of interest (repeatable)")
	cmd.Flags().StringVar(&owner, "owner", "", "Account owner")
	cmd.Flags().BoolVar(&subscribed, "subscribed", false, "Newsletter subscriber")
	cmd.Flags().BoolVar(&customer, "customer", false, "Paying customer")
	return cmd
}

func newContactsUpdateCmd(app *App) *cobra.Command {
	var (
		name       string
		email      string
		phone      string
		company    string
		status     string
		topics     []string
		owner      string
		subscribed bool
		customer   bool
	)

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update an existing contact",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			var update db.ContactUpdate
			if flags.Changed("name") {
				update.Name = &name
			}
			if flags.Changed("email") {
				if !importer.IsValidEmail(email) {
					return fmt.Errorf("invalid email: %q", email)
				}
				update.Email = &email
			}
			if flags.Changed("phone") {
				update.Phone = &phone
			}
			if flags.Changed("company") {
				update.Company = &company
			}
			if flags.Changed("status") {
				leadStatus, err := models.ParseLeadStatus(status)
				if err != nil {
					return err
				}
				update.LeadStatus = &leadStatus
			}
			if flags.Changed("topic") {
				update.Topics = &topics
			}
			if flags.Changed("owner") {
				update.Owner = &owner
			}
			if flags.Changed("subscribed") {
				update.IsSubscribed = &subscribed
			}
			if flags.Changed("customer") {
				update.IsCustomer = &customer
			}

			contact, err := db.UpdateContact(app.DB, id, update)
			if err != nil {
				return fmt.Errorf("failed to update contact: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "✓ Contact updated: %s (ID: %d)\n", contact.Name, contact.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Contact name")
	cmd.Flags().StringVar(&email, "email", "", "Email address")
	cmd.Flags().StringVar(&phone, "phone", "", "Phone number")
	cmd.Flags().StringVar(&company, "company", "", "Company name")
	cmd.Flags().StringVar(&status, "status", "", "Lead status")
	cmd.Flags().StringSliceVar(&topics, "topic", nil, "Replacement topic list (repeatable)")
	cmd.Flags().StringVar(&owner, "owner", "", "Account owner")
	cmd.Flags().BoolVar(&subscribed, "subscribed", false, "Newsletter subscriber")
	cmd.Flags().BoolVar(&customer, "customer", false, "Paying customer")
	return cmd
}

func newContactsDeleteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a contact",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := db.DeleteContact(app.DB, id); err != nil {
				return fmt.Errorf("failed to delete contact: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Contact deleted: %d\n", id)
			return nil
		},
	}
}

func newContactsActivityCmd(app *App) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "activity [id]",
		Short: "Show the activity timeline, newest first",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var contactID int64
			if len(args) == 1 {
				id, err := parseID(args[0])
				if err != nil {
					return err
				}
				contactID = id
			}

			activities, err := db.ListActivities(app.DB, contactID, limit)
			if err != nil {
				return fmt.Errorf("failed to load activity: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(activities) == 0 {
				fmt.Fprintln(out, "No activity yet")
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			_, _ = fmt.Fprintln(w, "WHEN\tVERB\tCONTACT\tSOURCE\tFIELDS")
			for _, a := range activities {
				fields := make([]string, 0, len(a.Changes))
				for field := range a.Changes {
					fields = append(fields, field)
				}
				sort.Strings(fields)
				_, _ = fmt.Fprintf(w, "%s\t%s\t%s (%d)\t%s\t%s\n",
					a.CreatedAt.Format("2006-01-02 15:04"), a.Verb, a.ContactName, a.ContactID,
					a.Source, dash(strings.Join(fields, ",")))
			}
			return w.Flush()
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum entries (0 for all)")
	return cmd
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
