package filter

import (
	"slices"
	"time"

	"github.com/tender-discovery-api/internal/models"
)

// Pipeline filters, sorts and pages an in-memory record set
type Pipeline struct {
	// Location resolves closing date bounds. Nil means UTC.
	Location *time.Location
	// PageSize applies when the selection carries none
	PageSize int
}

// Input is one pipeline run
type Input struct {
	Records []models.Tender
	// UpstreamTotal is the size of the unfiltered set as reported upstream
	UpstreamTotal int
	Selection     models.Selection
	// SavedIDs is the caller's saved-tender set, consulted by the saved view
	SavedIDs map[string]bool
}

// Result is the visible page
type Result struct {
	Items     []models.Tender
	Total     int
	Page      int
	PageSize  int
	PageCount int
	Pages     []models.PageItem
}

// Run applies every filter, then a stable sort, then the page slice. When
// the selection restricts the set, the total is the filtered length and an
// out-of-range page is clamped; otherwise the upstream total passes through
// and the records are taken to be the requested page already, cut to the
// page size. Run never modifies in.Records.
func (p Pipeline) Run(in Input) Result {
	sel := in.Selection
	size := sel.PageSize
	if size <= 0 {
		size = p.PageSize
	}
	if size <= 0 {
		size = 20
	}

	closing := ParseClosingRange(sel.ClosingAfter, sel.ClosingBefore, p.Location)
	savedOnly := sel.View == models.ViewSaved

	matched := make([]models.Tender, 0, len(in.Records))
	for _, t := range in.Records {
		if t.ID == "" {
			continue
		}
		if savedOnly && !in.SavedIDs[t.ID] {
			continue
		}
		if !Match(t, sel.Filters, closing) {
			continue
		}
		matched = append(matched, t)
	}
	slices.SortStableFunc(matched, Comparator(sel.Sort))

	res := Result{PageSize: size}
	if sel.Restricted() {
		res.Total = len(matched)
	} else {
		res.Total = max(in.UpstreamTotal, len(matched))
	}
	res.PageCount = PageCount(res.Total, size)
	res.Page = clamp(sel.Page, 1, res.PageCount)

	if sel.Restricted() {
		start := min((res.Page-1)*size, len(matched))
		end := min(start+size, len(matched))
		res.Items = matched[start:end]
	} else {
		res.Items = matched[:min(size, len(matched))]
	}
	res.Pages = PageWindow(res.Page, res.PageCount, DefaultSiblings, DefaultBoundaries)
	return res
}
