// ABOUTME: Terminal User Interface using bubbletea framework
// ABOUTME: Interactive contacts table driven by the view engine
package tui

import (
	"database/sql"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/harperreed/nexuscrm/db"
	"github.com/harperreed/nexuscrm/models"
	"github.com/harperreed/nexuscrm/view"
)

// ViewMode represents the current TUI view
type ViewMode int

const (
	ViewList ViewMode = iota
	ViewDetail
	ViewGraph
	ViewConfirmDelete
)

// Model is the main bubbletea model
type Model struct {
	db       *sql.DB
	viewMode ViewMode

	// Table state fed to view.Build
	query  view.Query
	opts   view.Options
	result view.Result

	// List view state
	selectedRow int
	searching   bool
	searchInput textinput.Model

	// Detail view state
	selectedID int64

	// Graph view state
	graphDOT  string
	graphKind int

	message string

	// UI state
	width  int
	height int
	err    error
}

// NewModel creates a new TUI model showing the first page at perPage rows.
func NewModel(database *sql.DB, opts view.Options, perPage int) Model {
	input := textinput.New()
	input.Placeholder = "name, email, company or phone"
	input.Prompt = "/ "
	input.CharLimit = 64

	query := view.DefaultQuery()
	if models.ValidPerPage(perPage) {
		query.Page = query.Page.WithPerPage(perPage)
	}

	m := Model{
		db:          database,
		viewMode:    ViewList,
		query:       query,
		opts:        opts,
		searchInput: input,
		width:       80,
		height:      24,
	}
	m.refresh()
	return m
}

// Run starts the full-screen program and blocks until the user quits.
func Run(database *sql.DB, opts view.Options, perPage int) error {
	p := tea.NewProgram(NewModel(database, opts, perPage), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	}
	return m, nil
}

func (m Model) View() string {
	switch m.viewMode {
	case ViewList:
		return m.renderListView()
	case ViewDetail:
		return m.renderDetailView()
	case ViewGraph:
		return m.renderGraphView()
	case ViewConfirmDelete:
		return m.renderConfirmDeleteView()
	}
	return ""
}

func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.searching {
		return m.handleSearchKeys(msg)
	}

	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	}

	// Delegate to view-specific handlers
	switch m.viewMode {
	case ViewList:
		return m.handleListKeys(msg)
	case ViewDetail:
		return m.handleDetailKeys(msg)
	case ViewGraph:
		return m.handleGraphKeys(msg)
	case ViewConfirmDelete:
		return m.handleConfirmDeleteKeys(msg)
	}

	return m, nil
}

// refresh rebuilds the working set from the store and clamps the cursor.
func (m *Model) refresh() {
	contacts, err := db.ListContacts(m.db)
	if err != nil {
		m.err = err
		return
	}
	m.err = nil
	m.result = view.Build(contacts, m.query, m.opts)
	m.query.Page = m.result.Page

	if m.selectedRow >= len(m.result.Items) {
		m.selectedRow = len(m.result.Items) - 1
	}
	if m.selectedRow < 0 {
		m.selectedRow = 0
	}
}

// Query returns the table state currently shown.
func (m Model) Query() view.Query {
	return m.query
}

// Result returns the last working set built for the table.
func (m Model) Result() view.Result {
	return m.result
}

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			MarginBottom(1)

	tabActiveStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			Background(lipgloss.Color("235")).
			Padding(0, 2)

	tabInactiveStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("240")).
				Padding(0, 2)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			MarginTop(1)

	messageStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))
)
