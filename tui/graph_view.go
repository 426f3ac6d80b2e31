package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/harperreed/nexuscrm/viz"
)

// graphKinds are cycled with tab in the graph view.
var graphKinds = []string{"owners", "companies", "dashboard"}

func (m Model) renderGraphView() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render("GRAPH VIEW: " + strings.ToUpper(graphKinds[m.graphKind])))
	s.WriteString("\n\n")

	if m.graphDOT == "" {
		s.WriteString("Generating graph...\n")
	} else {
		s.WriteString(lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")).
			Render(m.graphDOT))
	}

	s.WriteString("\n\n")
	s.WriteString(m.renderGraphHelp())

	return s.String()
}

func (m Model) renderGraphHelp() string {
	help := []string{
		"Tab: Owners/Companies/Dashboard",
		"Esc: Back",
		"q: Quit",
	}
	return helpStyle.Render(strings.Join(help, " • "))
}

func (m Model) handleGraphKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.viewMode = ViewList
		m.graphDOT = ""
	case "tab":
		m.graphKind = (m.graphKind + 1) % len(graphKinds)
		if err := m.generateGraph(); err != nil {
			m.graphDOT = "Error: " + err.Error()
		}
	}

	return m, nil
}

func (m *Model) generateGraph() error {
	var out string
	var err error

	switch graphKinds[m.graphKind] {
	case "owners":
		out, err = viz.NewGraphGenerator(m.db).GenerateOwnerGraph()
	case "companies":
		out, err = viz.NewGraphGenerator(m.db).GenerateCompanyGraph()
	case "dashboard":
		var stats *viz.DashboardStats
		stats, err = viz.GenerateDashboardStats(m.db)
		if err == nil {
			out = viz.RenderDashboard(stats)
		}
	}

	if err != nil {
		return err
	}

	m.graphDOT = out
	return nil
}
