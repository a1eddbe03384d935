package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// SortKey orders a tender list
type SortKey string

const (
	SortPublishedAsc  SortKey = "published_at"
	SortPublishedDesc SortKey = "-published_at"
	SortClosingAsc    SortKey = "closing_at"
	SortClosingDesc   SortKey = "-closing_at"
)

// DefaultSort is used for empty or unknown sort keys
const DefaultSort = SortPublishedDesc

// ValidSortKeys defines accepted sort keys
var ValidSortKeys = map[SortKey]bool{
	SortPublishedAsc:  true,
	SortPublishedDesc: true,
	SortClosingAsc:    true,
	SortClosingDesc:   true,
}

// View selects which records a list shows
type View string

const (
	ViewAll   View = "all"
	ViewSaved View = "saved"
)

// Filters are the user-facing filter values. Empty values match everything.
type Filters struct {
	Query         string `json:"q,omitempty" form:"q"`
	Source        string `json:"source,omitempty" form:"source"`
	Category      string `json:"category,omitempty" form:"category"`
	Location      string `json:"location,omitempty" form:"location"`
	ClosingAfter  string `json:"closing_after,omitempty" form:"closing_after"`
	ClosingBefore string `json:"closing_before,omitempty" form:"closing_before"`
}

// Restricting reports whether any predicate filter is set. Blank values
// match everything and do not count.
func (f Filters) Restricting() bool {
	return set(f.Query) || f.LocalOnly()
}

// LocalOnly reports whether a filter the upstream API does not apply is set
func (f Filters) LocalOnly() bool {
	return set(f.Source) || set(f.Category) || set(f.Location) ||
		set(f.ClosingAfter) || set(f.ClosingBefore)
}

func set(v string) bool {
	return strings.TrimSpace(v) != ""
}

// MaxPage is the highest page number a list request may ask for
const MaxPage = 10000

// Selection is the filter, sort and page state of a list view
type Selection struct {
	Filters
	Sort     SortKey `json:"sort,omitempty" form:"sort"`
	View     View    `json:"view,omitempty" form:"view"`
	Page     int     `json:"page,omitempty" form:"page"`
	PageSize int     `json:"page_size,omitempty" form:"page_size"`
}

// Restricted reports whether the visible set differs from the upstream set
func (s Selection) Restricted() bool {
	return s.Filters.Restricting() || s.View == ViewSaved
}

// Transition moves to next. Changing any filter, the sort key or the view
// resets the page to 1.
func (s Selection) Transition(next Selection) Selection {
	if next.Filters != s.Filters || next.Sort != s.Sort || next.View != s.View {
		next.Page = 1
	}
	if next.Page < 1 {
		next.Page = 1
	}
	return next
}

// PageItem is one entry of a pagination window: a page number or an ellipsis
type PageItem struct {
	Page     int
	Ellipsis bool
}

// Ellipsis is the marker rendered for collapsed page ranges
const Ellipsis = "…"

// MarshalJSON renders a page as a number and an ellipsis as "…"
func (p PageItem) MarshalJSON() ([]byte, error) {
	if p.Ellipsis {
		return json.Marshal(Ellipsis)
	}
	return json.Marshal(p.Page)
}

// UnmarshalJSON accepts a page number or the ellipsis marker
func (p *PageItem) UnmarshalJSON(data []byte) error {
	var s string
	if json.Unmarshal(data, &s) == nil {
		if s != Ellipsis {
			return fmt.Errorf("invalid page item %q", s)
		}
		*p = PageItem{Ellipsis: true}
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*p = PageItem{Page: n}
	return nil
}

// TenderPage is one page of a filtered list
type TenderPage struct {
	Items     []TenderView `json:"items"`
	Total     int          `json:"total"`
	Page      int          `json:"page"`
	PageSize  int          `json:"page_size"`
	PageCount int          `json:"page_count"`
	Pages     []PageItem   `json:"pages"`
}
