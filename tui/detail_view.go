package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/harperreed/nexuscrm/db"
)

var (
	fieldLabelStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			Width(20)

	fieldValueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))
)

func (m Model) renderDetailView() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render("CONTACT DETAIL"))
	s.WriteString("\n\n")
	s.WriteString(m.renderContactDetail())
	s.WriteString("\n\n")
	s.WriteString(m.renderDetailHelp())

	return s.String()
}

func (m Model) renderContactDetail() string {
	contact, err := db.GetContact(m.db, m.selectedID)
	if err != nil {
		return fmt.Sprintf("Error: %v", err)
	}

	var s strings.Builder

	s.WriteString(m.renderField("ID", fmt.Sprintf("%d", contact.ID)))
	s.WriteString(m.renderField("Name", contact.Name))
	s.WriteString(m.renderField("Email", contact.Email))
	s.WriteString(m.renderField("Phone", contact.Phone))
	s.WriteString(m.renderField("Company", contact.Company))
	s.WriteString(m.renderField("Lead Status", string(contact.LeadStatus)))
	s.WriteString(m.renderField("Owner", contact.Owner))
	s.WriteString(m.renderField("Subscribed", yesNo(contact.IsSubscribed)))
	s.WriteString(m.renderField("Customer", yesNo(contact.IsCustomer)))
	s.WriteString(m.renderField("Created", contact.CreatedDate.Format("2006-01-02")))
	s.WriteString(m.renderField("Last Activity", contact.LastActivity.Format("2006-01-02 15:04")))

	s.WriteString("\n")
	s.WriteString(lipgloss.NewStyle().Bold(true).Render("TOPICS"))
	s.WriteString("\n")
	if len(contact.Topics) == 0 {
		s.WriteString("  -\n")
	}
	for _, topic := range contact.Topics {
		s.WriteString(fmt.Sprintf("  • %s\n", topic))
	}

	return s.String()
}

func (m Model) renderField(label, value string) string {
	if value == "" {
		value = "-"
	}
	return fmt.Sprintf("%s %s\n",
		fieldLabelStyle.Render(label+":"),
		fieldValueStyle.Render(value))
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func (m Model) renderDetailHelp() string {
	help := []string{
		"Esc: Back",
		"d: Delete",
		"q: Quit",
	}
	return helpStyle.Render(strings.Join(help, " • "))
}

func (m Model) handleDetailKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.viewMode = ViewList
	case "d":
		m.viewMode = ViewConfirmDelete
	}

	return m, nil
}
