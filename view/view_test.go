// ABOUTME: Tests for the contact view engine
// ABOUTME: Covers filtering order, sort toggling, pagination windows and tab counts
package view

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/nexuscrm/models"
)

func day(n int) time.Time {
	return time.Date(2024, 1, n, 0, 0, 0, 0, time.UTC)
}

func sampleContacts() []models.Contact {
	return []models.Contact{
		{ID: 1, Name: "Michael Chen", Email: "michael@acmecorp.com", Phone: "555-0101", Company: "Acme Corp",
			LeadStatus: models.LeadStatusCustomer, Owner: "John Smith", IsSubscribed: true, IsCustomer: true, CreatedDate: day(3)},
		{ID: 2, Name: "sarah Williams", Email: "sarah@techstart.io", Phone: "555-0102", Company: "TechStart",
			LeadStatus: models.LeadStatusQualified, Owner: "Emily Davis", IsSubscribed: true, CreatedDate: day(1)},
		{ID: 3, Name: "David Rodriguez", Email: "david@globalsys.com", Phone: "555-0103", Company: "Global Systems",
			LeadStatus: models.LeadStatusNewLead, Owner: "John Smith", CreatedDate: day(5)},
		{ID: 4, Name: "Emma Thompson", Email: "emma@innovate.co", Phone: "(555) 0104", Company: "Innovate",
			LeadStatus: models.LeadStatusUnqualified, CreatedDate: day(2)},
	}
}

func ids(contacts []models.Contact) []int64 {
	out := make([]int64, len(contacts))
	for i, c := range contacts {
		out[i] = c.ID
	}
	return out
}

func TestSearchIsCaseInsensitiveOnCompany(t *testing.T) {
	f := models.FilterState{SearchQuery: "acme"}
	got := Filter(sampleContacts(), f, Options{})

	assert.Equal(t, []int64{1}, ids(got))
}

func TestSearchFields(t *testing.T) {
	contacts := sampleContacts()

	assert.Equal(t, []int64{2}, ids(Filter(contacts, models.FilterState{SearchQuery: "SARAH"}, Options{})))
	assert.Equal(t, []int64{3}, ids(Filter(contacts, models.FilterState{SearchQuery: "globalsys"}, Options{})))
	assert.Equal(t, []int64{3}, ids(Filter(contacts, models.FilterState{SearchQuery: "0103"}, Options{})))
	assert.Equal(t, []int64{4}, ids(Filter(contacts, models.FilterState{SearchQuery: "(555)"}, Options{})))
	assert.Empty(t, Filter(contacts, models.FilterState{SearchQuery: "nobody"}, Options{}))
}

func TestTabFilters(t *testing.T) {
	contacts := sampleContacts()

	tests := []struct {
		tab  models.Tab
		want []int64
	}{
		{models.TabAll, []int64{1, 2, 3, 4}},
		{models.TabSubscribers, []int64{1, 2}},
		{models.TabUnsubscribed, []int64{3, 4}},
		{models.TabCustomers, []int64{1}},
	}
	for _, tt := range tests {
		got := Filter(contacts, models.FilterState{ActiveTab: tt.tab}, Options{})
		assert.Equal(t, tt.want, ids(got), "tab %s", tt.tab)
	}
}

func TestOwnerAndLeadStatusFilters(t *testing.T) {
	contacts := sampleContacts()

	got := Filter(contacts, models.FilterState{Owner: "John Smith"}, Options{})
	assert.Equal(t, []int64{1, 3}, ids(got))

	got = Filter(contacts, models.FilterState{
		Owner:      "John Smith",
		LeadStatus: []models.LeadStatus{models.LeadStatusNewLead, models.LeadStatusQualified},
	}, Options{})
	assert.Equal(t, []int64{3}, ids(got))
}

func TestDateRangeOnlyWhenEnabled(t *testing.T) {
	contacts := sampleContacts()
	f := models.FilterState{DateRange: &models.DateRange{Start: day(2), End: day(3)}}

	assert.Len(t, Filter(contacts, f, Options{}), 4)

	got := Filter(contacts, f, Options{FilterByDateRange: true})
	assert.Equal(t, []int64{1, 4}, ids(got))
}

func TestFilterIsConjunction(t *testing.T) {
	contacts := sampleContacts()
	f := models.FilterState{
		SearchQuery: "555",
		ActiveTab:   models.TabSubscribers,
		LeadStatus:  []models.LeadStatus{models.LeadStatusQualified},
	}

	got := Filter(contacts, f, Options{})
	for _, c := range got {
		assert.True(t, c.IsSubscribed)
		assert.Equal(t, models.LeadStatusQualified, c.LeadStatus)
	}
	assert.Equal(t, []int64{2}, ids(got))
}

func TestSortToggle(t *testing.T) {
	s := DefaultSort()
	assert.Equal(t, SortState{Field: SortName, Direction: Asc}, s)

	s = s.Toggle(SortLeadStatus)
	assert.Equal(t, SortState{Field: SortLeadStatus, Direction: Asc}, s)

	s = s.Toggle(SortLeadStatus)
	assert.Equal(t, SortState{Field: SortLeadStatus, Direction: Desc}, s)

	s = s.Toggle(SortLeadStatus)
	assert.Equal(t, SortState{Field: SortLeadStatus, Direction: Asc}, s)

	s = s.Toggle(SortEmail)
	assert.Equal(t, SortState{Field: SortEmail, Direction: Asc}, s)
}

func TestSortByLeadStatusBothDirections(t *testing.T) {
	contacts := sampleContacts()

	Sort(contacts, SortState{Field: SortLeadStatus, Direction: Asc})
	assert.Equal(t, []int64{1, 3, 2, 4}, ids(contacts))

	Sort(contacts, SortState{Field: SortLeadStatus, Direction: Desc})
	assert.Equal(t, []int64{4, 2, 3, 1}, ids(contacts))
}

func TestSortNameIgnoresCase(t *testing.T) {
	contacts := sampleContacts()
	Sort(contacts, DefaultSort())

	assert.Equal(t, []int64{3, 4, 1, 2}, ids(contacts))
}

func TestSortDatesAsInstants(t *testing.T) {
	contacts := sampleContacts()
	Sort(contacts, SortState{Field: SortCreatedDate, Direction: Desc})

	assert.Equal(t, []int64{3, 1, 4, 2}, ids(contacts))
}

func TestSortIsStable(t *testing.T) {
	contacts := []models.Contact{
		{ID: 1, LeadStatus: models.LeadStatusNewLead},
		{ID: 2, LeadStatus: models.LeadStatusCustomer},
		{ID: 3, LeadStatus: models.LeadStatusNewLead},
		{ID: 4, LeadStatus: models.LeadStatusCustomer},
	}

	Sort(contacts, SortState{Field: SortLeadStatus, Direction: Desc})
	assert.Equal(t, []int64{1, 3, 2, 4}, ids(contacts))
}

func TestPaginateWindows(t *testing.T) {
	contacts := make([]models.Contact, 23)
	for i := range contacts {
		contacts[i].ID = int64(i + 1)
	}

	items, pages := Paginate(contacts, models.PageState{CurrentPage: 3, PerPage: 10})
	assert.Equal(t, 3, pages)
	assert.Equal(t, []int64{21, 22, 23}, ids(items))

	items, _ = Paginate(contacts, models.PageState{CurrentPage: 4, PerPage: 10})
	assert.Empty(t, items)
}

func TestPaginationInvariant(t *testing.T) {
	for _, total := range []int{0, 1, 9, 10, 11, 25, 99, 100, 101, 250} {
		for _, perPage := range append([]int{1, 3, 7}, models.PerPageOptions...) {
			contacts := make([]models.Contact, total)
			for i := range contacts {
				contacts[i].ID = int64(i + 1)
			}

			_, pages := Paginate(contacts, models.PageState{CurrentPage: 1, PerPage: perPage})
			wantPages := (total + perPage - 1) / perPage
			require.Equal(t, wantPages, pages, "total %d perPage %d", total, perPage)

			seen := []int64{}
			for p := 1; p <= pages; p++ {
				items, _ := Paginate(contacts, models.PageState{CurrentPage: p, PerPage: perPage})
				assert.LessOrEqual(t, len(items), perPage)
				seen = append(seen, ids(items)...)
			}
			assert.Equal(t, ids(contacts), seen, fmt.Sprintf("total %d perPage %d", total, perPage))
		}
	}
}

func TestPaginateHonoursAnyPositivePageSize(t *testing.T) {
	contacts := make([]models.Contact, 23)
	for i := range contacts {
		contacts[i].ID = int64(i + 1)
	}

	for perPage, wantPages := range map[int]int{1: 23, 5: 5, 7: 4, 20: 2} {
		_, pages := Paginate(contacts, models.PageState{CurrentPage: 1, PerPage: perPage})
		assert.Equal(t, wantPages, pages, "perPage %d", perPage)
	}

	items, pages := Paginate(contacts, models.PageState{CurrentPage: 4, PerPage: 7})
	assert.Equal(t, 4, pages)
	assert.Equal(t, []int64{22, 23}, ids(items))

	items, pages = Paginate(contacts, models.PageState{CurrentPage: 0, PerPage: 0})
	assert.Equal(t, 1, pages)
	assert.Len(t, items, 23)
}

func TestBuildKeepsCustomPageSize(t *testing.T) {
	q := DefaultQuery()
	q.Page = models.PageState{CurrentPage: 2, PerPage: 3}
	result := Build(sampleContacts(), q, Options{})

	assert.Equal(t, 3, result.Page.PerPage)
	assert.Equal(t, 2, result.TotalPages)
	assert.Len(t, result.Items, 1)
	assert.Equal(t, 4, result.StartItem)
	assert.Equal(t, 4, result.EndItem)
}

func TestDisplayPages(t *testing.T) {
	tests := []struct {
		current, total int
		want           []int
	}{
		{1, 10, []int{1, 2, 3, 4}},
		{2, 10, []int{1, 2, 3, 4, 5}},
		{5, 10, []int{4, 5, 6, 7, 8}},
		{9, 10, []int{8, 9, 10}},
		{10, 10, []int{9, 10}},
		{1, 1, []int{1}},
		{1, 0, []int{}},
		{7, 3, []int{}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DisplayPages(tt.current, tt.total), "current %d total %d", tt.current, tt.total)
	}
}

func TestTabCountsIgnoreFilters(t *testing.T) {
	contacts := sampleContacts()
	q := DefaultQuery()
	q.Filters.SearchQuery = "acme"

	result := Build(contacts, q, Options{})

	assert.Equal(t, 1, result.TotalMatching)
	assert.Equal(t, map[models.Tab]int{
		models.TabAll:          4,
		models.TabSubscribers:  2,
		models.TabUnsubscribed: 2,
		models.TabCustomers:    1,
	}, result.TabCounts)
}

func TestBuildSortsBeforePaging(t *testing.T) {
	contacts := make([]models.Contact, 12)
	for i := range contacts {
		contacts[i] = models.Contact{ID: int64(i + 1), Name: fmt.Sprintf("Contact %02d", 12-i)}
	}

	q := DefaultQuery()
	q.Page = models.PageState{CurrentPage: 2, PerPage: 10}
	result := Build(contacts, q, Options{})

	assert.Equal(t, []int64{2, 1}, ids(result.Items))
	assert.Equal(t, 2, result.TotalPages)
	assert.Equal(t, 11, result.StartItem)
	assert.Equal(t, 12, result.EndItem)
	assert.Equal(t, []int{1, 2}, result.DisplayPages)

	// the caller's snapshot is untouched
	assert.Equal(t, int64(1), contacts[0].ID)
}

func TestBuildNormalizesPage(t *testing.T) {
	result := Build(sampleContacts(), Query{}, Options{})

	assert.Equal(t, models.DefaultPageState(), result.Page)
	assert.Len(t, result.Items, 4)
	assert.Equal(t, 1, result.StartItem)
	assert.Equal(t, 4, result.EndItem)
}

func TestBuildEmptyPage(t *testing.T) {
	q := DefaultQuery()
	q.Filters.SearchQuery = "nobody"
	result := Build(sampleContacts(), q, Options{})

	assert.Empty(t, result.Items)
	assert.Zero(t, result.TotalPages)
	assert.Zero(t, result.StartItem)
	assert.Zero(t, result.EndItem)
	assert.Empty(t, result.DisplayPages)
}
