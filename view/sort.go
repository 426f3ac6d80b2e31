package view

import (
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/harperreed/nexuscrm/models"
)

type SortField string

const (
	SortName         SortField = "name"
	SortEmail        SortField = "email"
	SortPhone        SortField = "phone"
	SortLeadStatus   SortField = "leadStatus"
	SortCreatedDate  SortField = "createdDate"
	SortLastActivity SortField = "lastActivity"
)

var SortFields = []SortField{SortName, SortEmail, SortPhone, SortLeadStatus, SortCreatedDate, SortLastActivity}

func ParseSortField(s string) (SortField, error) {
	for _, f := range SortFields {
		if string(f) == s {
			return f, nil
		}
	}
	return "", errors.Errorf("unknown sort field %q", s)
}

type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

type SortState struct {
	Field     SortField `json:"field"`
	Direction Direction `json:"direction"`
}

func DefaultSort() SortState {
	return SortState{Field: SortName, Direction: Asc}
}

// Toggle flips the direction when field is already the sort field and
// otherwise sorts ascending by field.
func (s SortState) Toggle(field SortField) SortState {
	if s.Field == field {
		if s.Direction == Asc {
			return SortState{Field: field, Direction: Desc}
		}
		return SortState{Field: field, Direction: Asc}
	}
	return SortState{Field: field, Direction: Asc}
}

// Sort orders contacts in place. Equal keys keep their relative order in
// both directions. Strings compare case-insensitively, dates as instants.
func Sort(contacts []models.Contact, s SortState) {
	if s.Field == "" {
		s = DefaultSort()
	}
	desc := s.Direction == Desc

	sort.SliceStable(contacts, func(i, j int) bool {
		c := compare(&contacts[i], &contacts[j], s.Field)
		if desc {
			return c > 0
		}
		return c < 0
	})
}

func compare(a, b *models.Contact, field SortField) int {
	switch field {
	case SortCreatedDate:
		return compareTime(a.CreatedDate.UnixNano(), b.CreatedDate.UnixNano())
	case SortLastActivity:
		return compareTime(a.LastActivity.UnixNano(), b.LastActivity.UnixNano())
	case SortEmail:
		return strings.Compare(strings.ToLower(a.Email), strings.ToLower(b.Email))
	case SortPhone:
		return strings.Compare(strings.ToLower(a.Phone), strings.ToLower(b.Phone))
	case SortLeadStatus:
		return strings.Compare(strings.ToLower(string(a.LeadStatus)), strings.ToLower(string(b.LeadStatus)))
	default:
		return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	}
}

func compareTime(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
