package view

import "github.com/harperreed/nexuscrm/models"

// Paginate returns the slice of contacts on page p and the page count.
// Pages past the end are empty.
func Paginate(contacts []models.Contact, p models.PageState) ([]models.Contact, int) {
	p = p.Normalize()
	total := len(contacts)
	totalPages := (total + p.PerPage - 1) / p.PerPage

	start := (p.CurrentPage - 1) * p.PerPage
	if start >= total {
		return []models.Contact{}, totalPages
	}
	end := start + p.PerPage
	if end > total {
		end = total
	}
	return contacts[start:end], totalPages
}

// DisplayPages lists the page numbers offered as direct links: from one
// before the current page up to three after it, clipped to [1, total].
func DisplayPages(current, total int) []int {
	from := current - 1
	if from < 1 {
		from = 1
	}
	to := current + 3
	if to > total {
		to = total
	}

	pages := []int{}
	for p := from; p <= to; p++ {
		pages = append(pages, p)
	}
	return pages
}
