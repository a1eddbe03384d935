package filter

import (
	"github.com/tender-discovery-api/internal/models"
)

// Default window shape for list pagination
const (
	DefaultSiblings   = 1
	DefaultBoundaries = 1
)

// PageWindow lists the page links to render: the first and last boundaries
// pages, current ± siblings, and one ellipsis for every gap. A total of one
// page or less yields [1].
func PageWindow(current, total, siblings, boundaries int) []models.PageItem {
	if total <= 1 {
		return []models.PageItem{{Page: 1}}
	}
	if siblings < 0 {
		siblings = 0
	}
	if boundaries < 1 {
		boundaries = 1
	}
	current = clamp(current, 1, total)

	var pages []int
	add := func(from, to int) {
		for i := max(from, 1); i <= min(to, total); i++ {
			if len(pages) == 0 || i > pages[len(pages)-1] {
				pages = append(pages, i)
			}
		}
	}
	add(1, boundaries)
	add(current-siblings, current+siblings)
	add(total-boundaries+1, total)

	items := make([]models.PageItem, 0, len(pages)+2)
	for i, p := range pages {
		if i > 0 && p > pages[i-1]+1 {
			items = append(items, models.PageItem{Ellipsis: true})
		}
		items = append(items, models.PageItem{Page: p})
	}
	return items
}

// PageCount is the number of pages needed for total items, at least one
func PageCount(total, pageSize int) int {
	if pageSize <= 0 || total <= 0 {
		return 1
	}
	return (total + pageSize - 1) / pageSize
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
