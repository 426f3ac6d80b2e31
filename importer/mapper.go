// ABOUTME: Suggests which CSV header feeds which contact field
// ABOUTME: Exact and substring matching against known labels, with an optional fuzzy pass
package importer

import (
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// Mapping maps a raw CSV header to a canonical contact field.
type Mapping map[string]string

// Canonical contact fields an import can populate.
const (
	FieldName         = "name"
	FieldFirstName    = "firstName"
	FieldLastName     = "lastName"
	FieldEmail        = "email"
	FieldPhone        = "phone"
	FieldCompany      = "company"
	FieldLeadStatus   = "leadStatus"
	FieldTopics       = "topics"
	FieldCreatedDate  = "createdDate"
	FieldLastActivity = "lastActivity"
)

// FieldLabel pairs a display label with its canonical field.
type FieldLabel struct {
	Label string `json:"label"`
	Field string `json:"field"`
}

// Declaration order matters: the substring pass takes the first hit.
var fieldLabels = []FieldLabel{
	{"Name", FieldName},
	{"First Name", FieldFirstName},
	{"Last Name", FieldLastName},
	{"Email", FieldEmail},
	{"Phone", FieldPhone},
	{"Company", FieldCompany},
	{"Lead Status", FieldLeadStatus},
	{"Topics", FieldTopics},
	{"Created Date", FieldCreatedDate},
	{"Last Activity", FieldLastActivity},
}

// CanonicalFields lists the known labels and the fields they map to.
func CanonicalFields() []FieldLabel {
	out := make([]FieldLabel, len(fieldLabels))
	copy(out, fieldLabels)
	return out
}

// IsCanonicalField reports whether field is a known contact field.
func IsCanonicalField(field string) bool {
	for _, fl := range fieldLabels {
		if fl.Field == field {
			return true
		}
	}
	return false
}

// SuggestMapping proposes a field for each header. A header equal to a label
// (ignoring case and surrounding space) wins; otherwise the first label that
// contains the header, or is contained by it, is used. Headers matching
// nothing are left out. A blank header is contained in every label and so
// maps to name, the first one.
func SuggestMapping(headers []string) Mapping {
	mapping := Mapping{}
	for _, header := range headers {
		if field, ok := heuristicMatch(header); ok {
			mapping[header] = field
		}
	}
	return mapping
}

// SuggestMappingFuzzy runs SuggestMapping and then tries a fuzzy match for
// the headers it could not place.
func SuggestMappingFuzzy(headers []string) Mapping {
	mapping := SuggestMapping(headers)
	for _, header := range headers {
		if _, ok := mapping[header]; ok {
			continue
		}
		if field, ok := fuzzyMatch(header); ok {
			mapping[header] = field
		}
	}
	return mapping
}

func heuristicMatch(header string) (string, bool) {
	normalized := strings.ToLower(strings.TrimSpace(header))

	for _, fl := range fieldLabels {
		if strings.ToLower(fl.Label) == normalized {
			return fl.Field, true
		}
	}

	for _, fl := range fieldLabels {
		label := strings.ToLower(fl.Label)
		if strings.Contains(normalized, label) || strings.Contains(label, normalized) {
			return fl.Field, true
		}
	}

	return "", false
}

// minFuzzyHeader keeps one- and two-letter headers from matching everything.
const minFuzzyHeader = 3

func fuzzyMatch(header string) (string, bool) {
	normalized := strings.ToLower(strings.TrimSpace(header))
	if len(normalized) < minFuzzyHeader {
		return "", false
	}

	labels := make([]string, len(fieldLabels))
	for i, fl := range fieldLabels {
		labels[i] = strings.ToLower(fl.Label)
	}

	// Header characters in order inside a label ("eml" -> "email"), or a
	// label's characters in order inside the header ("e-mail addr" -> "email").
	ranks := fuzzy.RankFindNormalizedFold(normalized, labels)
	for i, label := range labels {
		if fuzzy.MatchNormalizedFold(label, normalized) {
			ranks = append(ranks, fuzzy.Rank{
				Source:        label,
				Target:        label,
				Distance:      fuzzy.LevenshteinDistance(label, normalized),
				OriginalIndex: i,
			})
		}
	}
	if len(ranks) == 0 {
		return "", false
	}

	sort.SliceStable(ranks, func(i, j int) bool {
		if ranks[i].Distance != ranks[j].Distance {
			return ranks[i].Distance < ranks[j].Distance
		}
		return ranks[i].OriginalIndex < ranks[j].OriginalIndex
	})
	return fieldLabels[ranks[0].OriginalIndex].Field, true
}
