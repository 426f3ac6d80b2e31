package web

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/harperreed/nexuscrm/models"
	"github.com/harperreed/nexuscrm/view"
)

const dateLayout = "2006-01-02"

// parseQuery reads the table state from query parameters:
// q, tab, owner, status (repeatable or comma separated), sort, dir,
// page, perPage, from and to.
func parseQuery(values url.Values, defaultPerPage int) (view.Query, error) {
	q := view.DefaultQuery()
	q.Page = q.Page.WithPerPage(defaultPerPage)

	q.Filters.SearchQuery = values.Get("q")
	q.Filters.Owner = values.Get("owner")

	tab, err := models.ParseTab(values.Get("tab"))
	if err != nil {
		return q, err
	}
	q.Filters.ActiveTab = tab

	for _, raw := range values["status"] {
		for _, part := range strings.Split(raw, ",") {
			if strings.TrimSpace(part) == "" {
				continue
			}
			status, err := models.ParseLeadStatus(part)
			if err != nil {
				return q, err
			}
			if !q.Filters.HasLeadStatus(status) {
				q.Filters.LeadStatus = append(q.Filters.LeadStatus, status)
			}
		}
	}

	if raw := values.Get("sort"); raw != "" {
		field, err := view.ParseSortField(raw)
		if err != nil {
			return q, err
		}
		q.Sort.Field = field
	}
	switch values.Get("dir") {
	case "", string(view.Asc):
		q.Sort.Direction = view.Asc
	case string(view.Desc):
		q.Sort.Direction = view.Desc
	default:
		return q, errors.Errorf("dir must be asc or desc, got %q", values.Get("dir"))
	}

	if raw := values.Get("perPage"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || !models.ValidPerPage(n) {
			return q, errors.Errorf("perPage must be one of %v", models.PerPageOptions)
		}
		q.Page = q.Page.WithPerPage(n)
	}
	if raw := values.Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return q, errors.Errorf("invalid page %q", raw)
		}
		q.Page.CurrentPage = n
	}

	from, to := values.Get("from"), values.Get("to")
	if from != "" && to != "" {
		start, err := time.Parse(dateLayout, from)
		if err != nil {
			return q, errors.Wrap(err, "invalid from date")
		}
		end, err := time.Parse(dateLayout, to)
		if err != nil {
			return q, errors.Wrap(err, "invalid to date")
		}
		q.Filters.DateRange = &models.DateRange{Start: start, End: end.Add(24*time.Hour - time.Nanosecond)}
	}

	return q, nil
}

// encodeQuery is the inverse of parseQuery.
func encodeQuery(q view.Query) url.Values {
	v := url.Values{}
	f := q.Filters
	if f.SearchQuery != "" {
		v.Set("q", f.SearchQuery)
	}
	if f.ActiveTab != "" && f.ActiveTab != models.TabAll {
		v.Set("tab", string(f.ActiveTab))
	}
	if f.Owner != "" {
		v.Set("owner", f.Owner)
	}
	for _, status := range f.LeadStatus {
		v.Add("status", string(status))
	}
	if f.DateRange != nil {
		v.Set("from", f.DateRange.Start.Format(dateLayout))
		v.Set("to", f.DateRange.End.Format(dateLayout))
	}
	if q.Sort.Field != "" {
		v.Set("sort", string(q.Sort.Field))
		v.Set("dir", string(q.Sort.Direction))
	}
	v.Set("perPage", strconv.Itoa(q.Page.PerPage))
	v.Set("page", strconv.Itoa(q.Page.CurrentPage))
	return v
}

func pageURL(q view.Query, page int) string {
	q.Page.CurrentPage = page
	return "/contacts?" + encodeQuery(q).Encode()
}

func sortURL(q view.Query, field string) string {
	q.Sort = q.Sort.Toggle(view.SortField(field))
	q.Page.CurrentPage = 1
	return "/contacts?" + encodeQuery(q).Encode()
}

func tabURL(q view.Query, tab models.Tab) string {
	q.Filters.ActiveTab = tab
	q.Page.CurrentPage = 1
	return "/contacts?" + encodeQuery(q).Encode()
}
