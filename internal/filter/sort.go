package filter

import (
	"time"

	"github.com/tender-discovery-api/internal/models"
)

// Comparator returns the ordering for key, for use with
// slices.SortStableFunc. Unknown keys order newest published first.
// Missing dates compare as the earliest possible value.
func Comparator(key models.SortKey) func(a, b models.Tender) int {
	if !models.ValidSortKeys[key] {
		key = models.DefaultSort
	}

	field := func(t models.Tender) *time.Time { return t.PublishedAt }
	if key == models.SortClosingAsc || key == models.SortClosingDesc {
		field = func(t models.Tender) *time.Time { return t.ClosingAt }
	}
	desc := key == models.SortPublishedDesc || key == models.SortClosingDesc

	return func(a, b models.Tender) int {
		c := compareTimes(field(a), field(b))
		if desc {
			return -c
		}
		return c
	}
}

func compareTimes(a, b *time.Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	return a.Compare(*b)
}
