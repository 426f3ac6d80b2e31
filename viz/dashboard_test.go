// ABOUTME: Tests for dashboard statistics and rendering
// ABOUTME: Uses a fixed clock and small snapshots
package viz

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/nexuscrm/db"
	"github.com/harperreed/nexuscrm/models"
)

func TestBuildDashboardStats(t *testing.T) {
	now := time.Date(2024, 6, 30, 12, 0, 0, 0, time.UTC)
	contacts := []models.Contact{
		{ID: 1, Name: "A", LeadStatus: models.LeadStatusCustomer, Owner: "John Smith", IsSubscribed: true, IsCustomer: true, LastActivity: now.AddDate(0, 0, -2)},
		{ID: 2, Name: "B", LeadStatus: models.LeadStatusNewLead, Owner: "John Smith", LastActivity: now.AddDate(0, 0, -45)},
		{ID: 3, Name: "C", LeadStatus: models.LeadStatusNewLead, LastActivity: now.AddDate(0, 0, -30)},
	}

	stats := BuildDashboardStats(contacts, now)

	assert.Equal(t, 3, stats.TotalContacts)
	assert.Equal(t, 1, stats.TabCounts[models.TabSubscribers])
	assert.Equal(t, 2, stats.PipelineByStatus[models.LeadStatusNewLead])
	assert.Equal(t, []OwnerStats{
		{Owner: "John Smith", Contacts: 2, Customers: 1},
		{Owner: "Unassigned", Contacts: 1},
	}, stats.Owners)

	require.Len(t, stats.RecentActivity, 1)
	assert.Equal(t, "A (Customer)", stats.RecentActivity[0].Description)

	require.Len(t, stats.StaleContacts, 2)
	assert.Equal(t, int64(2), stats.StaleContacts[0].ID)
	assert.Equal(t, 45, stats.StaleContacts[0].DaysSince)
}

func TestRenderDashboard(t *testing.T) {
	database, err := db.OpenSeeded(db.MemoryPath)
	require.NoError(t, err)
	defer database.Close()

	stats, err := GenerateDashboardStats(database)
	require.NoError(t, err)

	out := RenderDashboard(stats)
	assert.Contains(t, out, "NEXUS CRM DASHBOARD")
	assert.Contains(t, out, "LEAD PIPELINE")
	assert.Contains(t, out, "Unqualified")
	assert.Contains(t, out, "12 contacts")
	assert.Contains(t, out, "NEEDS ATTENTION")
}

func TestRenderDashboardEmpty(t *testing.T) {
	out := RenderDashboard(BuildDashboardStats(nil, time.Now()))

	assert.Contains(t, out, "0 contacts")
	assert.NotContains(t, out, "OWNERS")
	assert.NotContains(t, out, "NEEDS ATTENTION")
}
