// ABOUTME: Terminal dashboard statistics and rendering
// ABOUTME: Provides ASCII dashboard for CRM overview
package viz

import (
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/harperreed/nexuscrm/db"
	"github.com/harperreed/nexuscrm/models"
	"github.com/harperreed/nexuscrm/view"
)

// StaleAfterDays is how long without activity before a contact needs attention.
const StaleAfterDays = 30

type DashboardStats struct {
	TotalContacts int
	TabCounts     map[models.Tab]int

	// Lead status pipeline
	PipelineByStatus map[models.LeadStatus]int

	// Contacts per owner; unowned contacts count under "Unassigned"
	Owners []OwnerStats

	// Recent activity (last 7 days)
	RecentActivity []ActivityItem

	// Needs attention
	StaleContacts []StaleContact
}

type OwnerStats struct {
	Owner     string
	Contacts  int
	Customers int
}

type ActivityItem struct {
	Date        time.Time
	Description string
}

type StaleContact struct {
	ID        int64
	Name      string
	DaysSince int
}

func GenerateDashboardStats(database *sql.DB) (*DashboardStats, error) {
	contacts, err := db.ListContacts(database)
	if err != nil {
		return nil, errors.Wrap(err, "failed to fetch contacts")
	}
	return BuildDashboardStats(contacts, time.Now()), nil
}

// BuildDashboardStats computes the dashboard for a snapshot as of now.
func BuildDashboardStats(contacts []models.Contact, now time.Time) *DashboardStats {
	stats := &DashboardStats{
		TotalContacts:    len(contacts),
		TabCounts:        view.TabCounts(contacts),
		PipelineByStatus: make(map[models.LeadStatus]int),
	}

	owners := map[string]*OwnerStats{}
	weekAgo := now.AddDate(0, 0, -7)

	for _, contact := range contacts {
		stats.PipelineByStatus[contact.LeadStatus]++

		owner := contact.Owner
		if owner == "" {
			owner = "Unassigned"
		}
		ostats, ok := owners[owner]
		if !ok {
			ostats = &OwnerStats{Owner: owner}
			owners[owner] = ostats
		}
		ostats.Contacts++
		if contact.IsCustomer {
			ostats.Customers++
		}

		if contact.LastActivity.After(weekAgo) {
			stats.RecentActivity = append(stats.RecentActivity, ActivityItem{
				Date:        contact.LastActivity,
				Description: fmt.Sprintf("%s (%s)", contact.Name, contact.LeadStatus),
			})
		}

		daysSince := int(now.Sub(contact.LastActivity).Hours() / 24)
		if daysSince >= StaleAfterDays {
			stats.StaleContacts = append(stats.StaleContacts, StaleContact{
				ID:        contact.ID,
				Name:      contact.Name,
				DaysSince: daysSince,
			})
		}
	}

	for _, ostats := range owners {
		stats.Owners = append(stats.Owners, *ostats)
	}
	sort.Slice(stats.Owners, func(i, j int) bool {
		if stats.Owners[i].Contacts != stats.Owners[j].Contacts {
			return stats.Owners[i].Contacts > stats.Owners[j].Contacts
		}
		return stats.Owners[i].Owner < stats.Owners[j].Owner
	})

	sort.Slice(stats.RecentActivity, func(i, j int) bool {
		return stats.RecentActivity[i].Date.After(stats.RecentActivity[j].Date)
	})

	return stats
}

func RenderDashboard(stats *DashboardStats) string {
	var out strings.Builder

	// Header
	out.WriteString("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")
	out.WriteString("  NEXUS CRM DASHBOARD\n")
	out.WriteString("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n\n")

	// Pipeline overview
	out.WriteString("LEAD PIPELINE\n")
	renderPipeline(&out, stats.PipelineByStatus)
	out.WriteString("\n")

	// Stats
	out.WriteString("STATS\n")
	out.WriteString(fmt.Sprintf("  📇 %d contacts  📬 %d subscribers  🔕 %d unsubscribed  ⭐ %d customers\n\n",
		stats.TotalContacts,
		stats.TabCounts[models.TabSubscribers],
		stats.TabCounts[models.TabUnsubscribed],
		stats.TabCounts[models.TabCustomers]))

	if len(stats.Owners) > 0 {
		out.WriteString("OWNERS\n")
		for _, o := range stats.Owners {
			out.WriteString(fmt.Sprintf("  %-15s %3d contacts  %3d customers\n", o.Owner, o.Contacts, o.Customers))
		}
		out.WriteString("\n")
	}

	if len(stats.RecentActivity) > 0 {
		out.WriteString("RECENT ACTIVITY\n")
		for _, item := range stats.RecentActivity {
			out.WriteString(fmt.Sprintf("  %s  %s\n", item.Date.Format("Jan 02"), item.Description))
		}
		out.WriteString("\n")
	}

	// Needs attention
	if len(stats.StaleContacts) > 0 {
		out.WriteString("NEEDS ATTENTION\n")
		out.WriteString(fmt.Sprintf("  ⚠️  %d contacts - no activity in %d+ days\n", len(stats.StaleContacts), StaleAfterDays))
	}

	return out.String()
}

func renderPipeline(out *strings.Builder, pipeline map[models.LeadStatus]int) {
	// Find max count for scaling
	maxCount := 0
	for _, count := range pipeline {
		if count > maxCount {
			maxCount = count
		}
	}
	if maxCount == 0 {
		maxCount = 1
	}

	// Render each status in pipeline order
	for _, status := range models.LeadStatuses {
		count := pipeline[status]

		// Calculate bar length (0-10 blocks)
		barLength := (count * 10) / maxCount
		bar := strings.Repeat("█", barLength) + strings.Repeat("░", 10-barLength)

		out.WriteString(fmt.Sprintf("  %-12s %s  %2d\n", status, bar, count))
	}
}
