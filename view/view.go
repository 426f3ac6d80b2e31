// ABOUTME: Contact view engine for the contacts table
// ABOUTME: Filters, sorts and paginates a snapshot of the store into the visible working set
package view

import (
	"strings"

	"github.com/harperreed/nexuscrm/models"
)

// Query is everything the table state contributes to a view.
type Query struct {
	Filters models.FilterState `json:"filters"`
	Sort    SortState          `json:"sort"`
	Page    models.PageState   `json:"page"`
}

// DefaultQuery shows the first page of all contacts sorted by name.
func DefaultQuery() Query {
	return Query{
		Filters: models.FilterState{ActiveTab: models.TabAll},
		Sort:    DefaultSort(),
		Page:    models.DefaultPageState(),
	}
}

// Options switches optional behaviour.
type Options struct {
	// FilterByDateRange applies Filters.DateRange to CreatedDate. When false
	// a date range is carried in state but does not filter.
	FilterByDateRange bool
}

type Result struct {
	Items         []models.Contact   `json:"items"`
	TotalMatching int                `json:"totalMatching"`
	TotalPages    int                `json:"totalPages"`
	Page          models.PageState   `json:"page"`
	DisplayPages  []int              `json:"displayPages"`
	TabCounts     map[models.Tab]int `json:"tabCounts"`
	// StartItem and EndItem are the 1-based positions shown on this page,
	// both zero when the page is empty.
	StartItem int `json:"startItem"`
	EndItem   int `json:"endItem"`
}

// Build produces the working set for q. contacts is not modified.
func Build(contacts []models.Contact, q Query, opts Options) Result {
	page := q.Page.Normalize()

	filtered := Filter(contacts, q.Filters, opts)
	Sort(filtered, q.Sort)
	items, totalPages := Paginate(filtered, page)

	result := Result{
		Items:         items,
		TotalMatching: len(filtered),
		TotalPages:    totalPages,
		Page:          page,
		DisplayPages:  DisplayPages(page.CurrentPage, totalPages),
		TabCounts:     TabCounts(contacts),
	}
	if len(items) > 0 {
		result.StartItem = (page.CurrentPage-1)*page.PerPage + 1
		result.EndItem = result.StartItem + len(items) - 1
	}
	return result
}

// Filter returns the contacts passing every filter, in input order. Filters
// run search, tab, owner, lead status, then date range.
func Filter(contacts []models.Contact, f models.FilterState, opts Options) []models.Contact {
	query := strings.ToLower(f.SearchQuery)

	out := make([]models.Contact, 0, len(contacts))
	for _, c := range contacts {
		if query != "" && !matchesSearch(c, f.SearchQuery, query) {
			continue
		}
		if !inTab(c, f.ActiveTab) {
			continue
		}
		if f.Owner != "" && c.Owner != f.Owner {
			continue
		}
		if len(f.LeadStatus) > 0 && !f.HasLeadStatus(c.LeadStatus) {
			continue
		}
		if opts.FilterByDateRange && f.DateRange != nil && !inRange(c, f.DateRange) {
			continue
		}
		out = append(out, c)
	}
	return out
}

// Name, email and company match case-insensitively; phone matches the raw
// query as typed.
func matchesSearch(c models.Contact, raw, lowered string) bool {
	return strings.Contains(strings.ToLower(c.Name), lowered) ||
		strings.Contains(strings.ToLower(c.Email), lowered) ||
		strings.Contains(strings.ToLower(c.Company), lowered) ||
		strings.Contains(c.Phone, raw)
}

func inTab(c models.Contact, tab models.Tab) bool {
	switch tab {
	case models.TabSubscribers:
		return c.IsSubscribed
	case models.TabUnsubscribed:
		return !c.IsSubscribed
	case models.TabCustomers:
		return c.IsCustomer
	default:
		return true
	}
}

// inRange is inclusive on both ends. A zero bound is open.
func inRange(c models.Contact, r *models.DateRange) bool {
	if !r.Start.IsZero() && c.CreatedDate.Before(r.Start) {
		return false
	}
	if !r.End.IsZero() && c.CreatedDate.After(r.End) {
		return false
	}
	return true
}

// TabCounts counts the whole snapshot per tab, ignoring every filter.
func TabCounts(contacts []models.Contact) map[models.Tab]int {
	counts := map[models.Tab]int{
		models.TabAll:          len(contacts),
		models.TabSubscribers:  0,
		models.TabUnsubscribed: 0,
		models.TabCustomers:    0,
	}
	for _, c := range contacts {
		if c.IsSubscribed {
			counts[models.TabSubscribers]++
		} else {
			counts[models.TabUnsubscribed]++
		}
		if c.IsCustomer {
			counts[models.TabCustomers]++
		}
	}
	return counts
}
