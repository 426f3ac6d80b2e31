// ABOUTME: Data models for CRM entities
// ABOUTME: Defines Contact, lead statuses, list filters and paging state
package models

import (
	"strings"
	"time"

	"github.com/pkg/errors"
)

type LeadStatus string

const (
	LeadStatusNewLead     LeadStatus = "New Lead"
	LeadStatusQualified   LeadStatus = "Qualified"
	LeadStatusCustomer    LeadStatus = "Customer"
	LeadStatusUnqualified LeadStatus = "Unqualified"
)

// LeadStatuses lists the lead statuses in pipeline order.
var LeadStatuses = []LeadStatus{
	LeadStatusNewLead,
	LeadStatusQualified,
	LeadStatusCustomer,
	LeadStatusUnqualified,
}

var ErrInvalidLeadStatus = errors.New("invalid lead status")

// ParseLeadStatus matches s case-insensitively against the known statuses.
func ParseLeadStatus(s string) (LeadStatus, error) {
	trimmed := strings.TrimSpace(s)
	for _, status := range LeadStatuses {
		if strings.EqualFold(trimmed, string(status)) {
			return status, nil
		}
	}
	return "", errors.Wrapf(ErrInvalidLeadStatus, "%q", s)
}

type Contact struct {
	ID           int64      `json:"Id"`
	Name         string     `json:"name"`
	FirstName    string     `json:"firstName,omitempty"`
	LastName     string     `json:"lastName,omitempty"`
	Email        string     `json:"email"`
	Phone        string     `json:"phone"`
	Company      string     `json:"company"`
	LeadStatus   LeadStatus `json:"leadStatus"`
	Topics       []string   `json:"topics"`
	Owner        string     `json:"owner,omitempty"`
	IsSubscribed bool       `json:"isSubscribed"`
	IsCustomer   bool       `json:"isCustomer"`
	Avatar       *string    `json:"avatar"`
	CreatedDate  time.Time  `json:"createdDate"`
	LastActivity time.Time  `json:"lastActivity"`
}

// HasTopic reports whether topic is in the contact's topic set.
func (c *Contact) HasTopic(topic string) bool {
	for _, t := range c.Topics {
		if t == topic {
			return true
		}
	}
	return false
}

// AddTopics appends topics not already present, keeping display order.
func (c *Contact) AddTopics(topics ...string) {
	for _, topic := range topics {
		topic = strings.TrimSpace(topic)
		if topic == "" || c.HasTopic(topic) {
			continue
		}
		c.Topics = append(c.Topics, topic)
	}
}

// Tab selects the contact segment shown in the table.
type Tab string

const (
	TabAll          Tab = "all"
	TabSubscribers  Tab = "subscribers"
	TabUnsubscribed Tab = "unsubscribed"
	TabCustomers    Tab = "customers"
)

var Tabs = []Tab{TabAll, TabSubscribers, TabUnsubscribed, TabCustomers}

// Label returns the human readable tab title.
func (t Tab) Label() string {
	switch t {
	case TabSubscribers:
		return "Newsletter subscribers"
	case TabUnsubscribed:
		return "Unsubscribed"
	case TabCustomers:
		return "All customers"
	default:
		return "All contacts"
	}
}

func ParseTab(s string) (Tab, error) {
	if s == "" {
		return TabAll, nil
	}
	for _, t := range Tabs {
		if string(t) == s {
			return t, nil
		}
	}
	return "", errors.Errorf("unknown tab %q", s)
}

type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// FilterState holds the contact table filters.
type FilterState struct {
	SearchQuery string       `json:"searchQuery"`
	ActiveTab   Tab          `json:"activeTab"`
	Owner       string       `json:"owner,omitempty"`
	LeadStatus  []LeadStatus `json:"leadStatus"`
	DateRange   *DateRange   `json:"dateRange,omitempty"`
}

// Clear resets every filter including the search query.
func (f *FilterState) Clear() {
	*f = FilterState{ActiveTab: f.ActiveTab}
}

// HasLeadStatus reports whether status is selected in the lead status filter.
func (f *FilterState) HasLeadStatus(status LeadStatus) bool {
	for _, s := range f.LeadStatus {
		if s == status {
			return true
		}
	}
	return false
}

// ToggleLeadStatus adds status to the filter, or removes it if present.
func (f *FilterState) ToggleLeadStatus(status LeadStatus) {
	for i, s := range f.LeadStatus {
		if s == status {
			f.LeadStatus = append(f.LeadStatus[:i:i], f.LeadStatus[i+1:]...)
			return
		}
	}
	f.LeadStatus = append(f.LeadStatus, status)
}

// PerPageOptions are the page sizes offered by the contacts table.
var PerPageOptions = []int{10, 25, 50, 100}

const DefaultPerPage = 25

type PageState struct {
	CurrentPage int `json:"currentPage"`
	PerPage     int `json:"perPage"`
}

// DefaultPageState returns the first page at the default page size.
func DefaultPageState() PageState {
	return PageState{CurrentPage: 1, PerPage: DefaultPerPage}
}

// WithPerPage changes the page size and goes back to the first page.
func (p PageState) WithPerPage(perPage int) PageState {
	return PageState{CurrentPage: 1, PerPage: perPage}
}

// Normalize moves the page to at least 1 and replaces a non-positive page
// size with the default. Any positive page size is kept; surfaces offering
// a fixed choice check it with ValidPerPage.
func (p PageState) Normalize() PageState {
	if p.CurrentPage < 1 {
		p.CurrentPage = 1
	}
	if p.PerPage <= 0 {
		p.PerPage = DefaultPerPage
	}
	return p
}

// ValidPerPage reports whether n is one of PerPageOptions.
func ValidPerPage(n int) bool {
	for _, opt := range PerPageOptions {
		if opt == n {
			return true
		}
	}
	return false
}

// UnsupportedFormatError is returned when an export or import format
// is not implemented.
type UnsupportedFormatError struct {
	Format string
}

func (e *UnsupportedFormatError) Error() string {
	return "unsupported format: " + e.Format
}
