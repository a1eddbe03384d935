package normalize

import (
	"fmt"
	"strings"
	"time"

	"github.com/tender-discovery-api/internal/models"
)

const day = 24 * time.Hour

// StatusFromClosing labels a tender by how soon it closes and returns the
// urgency class ("danger", "warning" or "").
func StatusFromClosing(closing *time.Time, now time.Time) (label, urgency string) {
	if closing == nil {
		return "Open", ""
	}
	diff := closing.Sub(now)
	switch {
	case diff <= 0:
		return "Closed", ""
	case diff <= day:
		return "Closing today", "danger"
	case diff <= 3*day:
		return "Closing in 3 days", "warning"
	case diff <= 7*day:
		return "Closing soon", "warning"
	}
	return "Open", ""
}

// Badge marks recently published tenders
func Badge(published *time.Time, now time.Time) string {
	if published == nil {
		return ""
	}
	age := now.Sub(*published)
	switch {
	case age <= day:
		return "NEW"
	case age <= 3*day:
		return "Updated"
	}
	return ""
}

// Countdown renders the time left until closing ("3d", "5h", "2mo 4d").
// Closed or undated tenders yield "".
func Countdown(closing *time.Time, now time.Time) string {
	if closing == nil {
		return ""
	}
	diff := closing.Sub(now)
	if diff <= 0 {
		return ""
	}
	mins := int(diff / time.Minute)
	hours := mins / 60
	days := hours / 24

	switch {
	case days > 30:
		months, rem := days/30, days%30
		if rem == 0 {
			return fmt.Sprintf("%dmo", months)
		}
		return fmt.Sprintf("%dmo %dd", months, rem)
	case days > 0:
		return fmt.Sprintf("%dd", days)
	case hours > 0:
		return fmt.Sprintf("%dh", hours)
	}
	return fmt.Sprintf("%dm", mins)
}

// Subline joins buyer and location for list rows, skipping placeholders and
// a buyer that merely repeats the source.
func Subline(buyer, location, source string) string {
	var parts []string
	if IsMeaningful(buyer) && !strings.EqualFold(buyer, source) && !strings.EqualFold(buyer, PrettySource(source)) {
		parts = append(parts, buyer)
	}
	if IsMeaningful(location) {
		parts = append(parts, location)
	}
	return strings.Join(parts, " • ")
}

// Present annotates a tender with its display fields as of now
func Present(t models.Tender, now time.Time) models.TenderView {
	label, urgency := StatusFromClosing(t.ClosingAt, now)
	return models.TenderView{
		Tender:      t,
		SourceLabel: PrettySource(t.Source),
		StatusLabel: label,
		Urgency:     urgency,
		Badge:       Badge(t.PublishedAt, now),
		Countdown:   Countdown(t.ClosingAt, now),
		Subline:     Subline(t.Buyer, t.Location, t.Source),
	}
}
