package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/harperreed/nexuscrm/bulk"
	"github.com/harperreed/nexuscrm/models"
	"github.com/harperreed/nexuscrm/view"
)

// sortKeys maps the number keys to sortable columns.
var sortKeys = map[string]view.SortField{
	"1": view.SortName,
	"2": view.SortEmail,
	"3": view.SortPhone,
	"4": view.SortLeadStatus,
	"5": view.SortCreatedDate,
	"6": view.SortLastActivity,
}

func (m Model) renderListView() string {
	var s strings.Builder

	// Title
	s.WriteString(titleStyle.Render("NEXUS CRM"))
	s.WriteString("\n\n")

	// Tabs
	s.WriteString(m.renderTabs())
	s.WriteString("\n\n")

	if m.searching || m.query.Filters.SearchQuery != "" {
		s.WriteString(m.searchInput.View())
		s.WriteString("\n")
	}
	if filters := m.describeFilters(); filters != "" {
		s.WriteString(filters)
		s.WriteString("\n")
	}

	// Table
	if m.err != nil {
		s.WriteString(fmt.Sprintf("Error: %v", m.err))
	} else {
		s.WriteString(m.renderContactsTable())
	}
	s.WriteString("\n")
	s.WriteString(m.renderPager())

	if m.message != "" {
		s.WriteString("\n")
		s.WriteString(messageStyle.Render(m.message))
	}

	s.WriteString("\n")
	s.WriteString(m.renderListHelp())

	return s.String()
}

func (m Model) renderTabs() string {
	var rendered []string
	for _, tab := range models.Tabs {
		label := fmt.Sprintf("%s (%d)", tab.Label(), m.result.TabCounts[tab])
		if tab == m.query.Filters.ActiveTab {
			rendered = append(rendered, tabActiveStyle.Render(label))
		} else {
			rendered = append(rendered, tabInactiveStyle.Render(label))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}

func (m Model) describeFilters() string {
	var parts []string
	f := m.query.Filters
	if f.Owner != "" {
		parts = append(parts, "owner: "+f.Owner)
	}
	if len(f.LeadStatus) > 0 {
		statuses := make([]string, len(f.LeadStatus))
		for i, st := range f.LeadStatus {
			statuses[i] = string(st)
		}
		parts = append(parts, "status: "+strings.Join(statuses, ", "))
	}
	if len(parts) == 0 {
		return ""
	}
	return helpStyle.Render("Filters: " + strings.Join(parts, " • "))
}

func (m Model) columnTitle(title string, field view.SortField) string {
	if m.query.Sort.Field != field {
		return title
	}
	if m.query.Sort.Direction == view.Desc {
		return title + " ▼"
	}
	return title + " ▲"
}

func (m Model) renderContactsTable() string {
	columns := []table.Column{
		{Title: m.columnTitle("Name", view.SortName), Width: 22},
		{Title: m.columnTitle("Email", view.SortEmail), Width: 28},
		{Title: m.columnTitle("Phone", view.SortPhone), Width: 16},
		{Title: "Company", Width: 18},
		{Title: m.columnTitle("Status", view.SortLeadStatus), Width: 13},
		{Title: m.columnTitle("Created", view.SortCreatedDate), Width: 12},
		{Title: m.columnTitle("Activity", view.SortLastActivity), Width: 12},
	}

	rows := make([]table.Row, 0, len(m.result.Items))
	for _, contact := range m.result.Items {
		rows = append(rows, table.Row{
			contact.Name,
			contact.Email,
			contact.Phone,
			contact.Company,
			string(contact.LeadStatus),
			contact.CreatedDate.Format("2006-01-02"),
			contact.LastActivity.Format("2006-01-02"),
		})
	}

	height := m.height - 14
	if height < 5 {
		height = 5
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithFocused(true),
		table.WithHeight(height),
	)

	if m.selectedRow < len(rows) {
		t.SetCursor(m.selectedRow)
	}

	return t.View()
}

func (m Model) renderPager() string {
	r := m.result
	pages := make([]string, 0, len(r.DisplayPages))
	for _, p := range r.DisplayPages {
		if p == r.Page.CurrentPage {
			pages = append(pages, fmt.Sprintf("[%d]", p))
		} else {
			pages = append(pages, strconv.Itoa(p))
		}
	}
	return fmt.Sprintf("Showing %d-%d of %d • Page %s of %d • %d per page",
		r.StartItem, r.EndItem, r.TotalMatching, strings.Join(pages, " "), r.TotalPages, r.Page.PerPage)
}

func (m Model) renderListHelp() string {
	help := []string{
		"↑/↓: Navigate",
		"←/→: Page",
		"Tab: Switch tabs",
		"/: Search",
		"1-6: Sort",
		"+: Per page",
		"o: Owner",
		"f: Status",
		"c: Clear",
		"Enter: Details",
		"d: Delete",
		"g: Graph",
		"q: Quit",
	}
	return helpStyle.Render(strings.Join(help, " • "))
}

func (m Model) handleListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if field, ok := sortKeys[key]; ok {
		m.query.Sort = m.query.Sort.Toggle(field)
		m.refresh()
		return m, nil
	}

	m.message = ""
	switch key {
	case "up", "k":
		if m.selectedRow > 0 {
			m.selectedRow--
		}
	case "down", "j":
		if m.selectedRow < len(m.result.Items)-1 {
			m.selectedRow++
		}
	case "right", "l", "pgdown":
		if m.query.Page.CurrentPage < m.result.TotalPages {
			m.query.Page.CurrentPage++
			m.selectedRow = 0
			m.refresh()
		}
	case "left", "h", "pgup":
		if m.query.Page.CurrentPage > 1 {
			m.query.Page.CurrentPage--
			m.selectedRow = 0
			m.refresh()
		}
	case "tab":
		m.query.Filters.ActiveTab = nextTab(m.query.Filters.ActiveTab)
		m.resetPage()
	case "+":
		m.query.Page = m.query.Page.WithPerPage(nextPerPage(m.query.Page.PerPage))
		m.selectedRow = 0
		m.refresh()
	case "o":
		m.query.Filters.Owner = nextOwner(m.query.Filters.Owner)
		m.resetPage()
	case "f":
		m.query.Filters.LeadStatus = nextStatusFilter(m.query.Filters.LeadStatus)
		m.resetPage()
	case "c":
		m.query.Filters.Clear()
		m.searchInput.SetValue("")
		m.resetPage()
	case "/":
		m.searching = true
		m.searchInput.Focus()
	case "enter":
		if id, ok := m.selectedContactID(); ok {
			m.selectedID = id
			m.viewMode = ViewDetail
		}
	case "d":
		if id, ok := m.selectedContactID(); ok {
			m.selectedID = id
			m.viewMode = ViewConfirmDelete
		}
	case "g":
		m.viewMode = ViewGraph
		if err := m.generateGraph(); err != nil {
			m.graphDOT = "Error: " + err.Error()
		}
	}

	return m, nil
}

func (m Model) handleSearchKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.searching = false
		m.searchInput.Blur()
		return m, nil
	case "esc":
		m.searching = false
		m.searchInput.Blur()
		m.searchInput.SetValue("")
		m.query.Filters.SearchQuery = ""
		m.resetPage()
		return m, nil
	case "ctrl+c":
		return m, tea.Quit
	}

	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	if m.searchInput.Value() != m.query.Filters.SearchQuery {
		m.query.Filters.SearchQuery = m.searchInput.Value()
		m.resetPage()
	}
	return m, cmd
}

// resetPage goes back to the first page after a filter change.
func (m *Model) resetPage() {
	m.query.Page.CurrentPage = 1
	m.selectedRow = 0
	m.refresh()
}

func (m Model) selectedContactID() (int64, bool) {
	if m.selectedRow < 0 || m.selectedRow >= len(m.result.Items) {
		return 0, false
	}
	return m.result.Items[m.selectedRow].ID, true
}

func nextTab(current models.Tab) models.Tab {
	for i, tab := range models.Tabs {
		if tab == current {
			return models.Tabs[(i+1)%len(models.Tabs)]
		}
	}
	return models.TabAll
}

func nextPerPage(current int) int {
	for i, n := range models.PerPageOptions {
		if n == current {
			return models.PerPageOptions[(i+1)%len(models.PerPageOptions)]
		}
	}
	return models.DefaultPerPage
}

// nextOwner cycles no filter, then each owner in turn.
func nextOwner(current string) string {
	if current == "" {
		return bulk.Owners[0]
	}
	for i, owner := range bulk.Owners {
		if owner == current && i+1 < len(bulk.Owners) {
			return bulk.Owners[i+1]
		}
	}
	return ""
}

// nextStatusFilter cycles no filter, then a single status at a time.
func nextStatusFilter(current []models.LeadStatus) []models.LeadStatus {
	if len(current) != 1 {
		return []models.LeadStatus{models.LeadStatuses[0]}
	}
	for i, status := range models.LeadStatuses {
		if status == current[0] && i+1 < len(models.LeadStatuses) {
			return []models.LeadStatus{models.LeadStatuses[i+1]}
		}
	}
	return nil
}
