// Package filter narrows, orders and pages canonical tender records in
// memory. Every function here is pure and total.
package filter

import (
	"strings"
	"time"

	"github.com/tender-discovery-api/internal/models"
	"github.com/tender-discovery-api/internal/normalize"
)

// Predicate tests one record against one filter value. An empty value
// matches every record.
type Predicate func(t models.Tender, value string) bool

// MatchesText reports whether the folded query occurs in the folded text
// fields of t.
func MatchesText(t models.Tender, q string) bool {
	needle := normalize.Norm(q)
	if needle == "" {
		return true
	}
	hay := normalize.Norm(strings.Join([]string{t.Title, t.Buyer, t.Location, t.Category, t.Description, t.Summary}, " "))
	return strings.Contains(hay, needle)
}

// MatchesSource compares the detected source slug with the filter value
func MatchesSource(t models.Tender, source string) bool {
	want := normalize.SourceSlug(source)
	if want == "" {
		return true
	}
	return normalize.SourceSlug(t.Source) == want
}

// MatchesCategory compares category slugs
func MatchesCategory(t models.Tender, category string) bool {
	want := normalize.CategorySlug(category)
	if want == "" {
		return true
	}
	return normalize.CategorySlug(t.Category) == want
}

// MatchesLocation is a folded substring match on location
func MatchesLocation(t models.Tender, location string) bool {
	needle := normalize.Norm(location)
	if needle == "" {
		return true
	}
	return strings.Contains(normalize.Norm(t.Location), needle)
}

// ClosingRange is an inclusive window on closing dates. A nil bound is open.
type ClosingRange struct {
	From *time.Time
	To   *time.Time
}

// ParseClosingRange resolves YYYY-MM-DD bounds to the start of the first
// day and the last instant of the second, in loc. Unparseable bounds are
// treated as absent.
func ParseClosingRange(after, before string, loc *time.Location) ClosingRange {
	if loc == nil {
		loc = time.UTC
	}
	var r ClosingRange
	if d, ok := parseDay(after, loc); ok {
		r.From = &d
	}
	if d, ok := parseDay(before, loc); ok {
		end := d.AddDate(0, 0, 1).Add(-time.Nanosecond)
		r.To = &end
	}
	return r
}

func parseDay(s string, loc *time.Location) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if len(s) > len("2006-01-02") {
		s = s[:len("2006-01-02")]
	}
	d, err := time.ParseInLocation("2006-01-02", s, loc)
	if err != nil {
		return time.Time{}, false
	}
	return d, true
}

// Active reports whether any bound is set
func (r ClosingRange) Active() bool {
	return r.From != nil || r.To != nil
}

// Contains reports whether t closes inside the window. Undated tenders only
// pass an inactive window.
func (r ClosingRange) Contains(t models.Tender) bool {
	if !r.Active() {
		return true
	}
	if t.ClosingAt == nil {
		return false
	}
	if r.From != nil && t.ClosingAt.Before(*r.From) {
		return false
	}
	if r.To != nil && t.ClosingAt.After(*r.To) {
		return false
	}
	return true
}

// Match applies every filter in f to t
func Match(t models.Tender, f models.Filters, closing ClosingRange) bool {
	checks := []struct {
		pred  Predicate
		value string
	}{
		{MatchesText, f.Query},
		{MatchesSource, f.Source},
		{MatchesCategory, f.Category},
		{MatchesLocation, f.Location},
	}
	for _, c := range checks {
		if !c.pred(t, c.value) {
			return false
		}
	}
	return closing.Contains(t)
}
