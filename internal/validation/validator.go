package validation

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/tender-discovery-api/internal/models"
	"github.com/tender-discovery-api/internal/normalize"
)

var (
	emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	dayRegex   = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
)

// Limits on request fields
const (
	MaxPageSize   = 100
	MaxQueryLen   = 200
	MaxNameLen    = 100
	MaxSearchName = 80
	MaxChatLen    = 2000
	MaxSpeechLen  = 3000
)

// ValidationError represents a single validation error
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
}

// Validator provides validation methods
type Validator struct {
	categoryLabels map[string]bool
}

// NewValidator creates a new validator instance
func NewValidator() *Validator {
	labels := make(map[string]bool, len(normalize.Categories))
	for _, c := range normalize.Categories {
		labels[c.Label] = true
	}
	return &Validator{categoryLabels: labels}
}

// ValidateSelection validates list filter, sort and page parameters
func (v *Validator) ValidateSelection(sel *models.Selection) []ValidationError {
	var errors []ValidationError

	if utf8.RuneCountInString(sel.Query) > MaxQueryLen {
		errors = append(errors, ValidationError{Field: "q", Message: fmt.Sprintf("q must be at most %d characters", MaxQueryLen)})
	}

	if sel.Sort != "" && !models.ValidSortKeys[sel.Sort] {
		errors = append(errors, ValidationError{
			Field:   "sort",
			Message: "invalid sort, must be one of: published_at, -published_at, closing_at, -closing_at",
			Value:   sel.Sort,
		})
	}

	if sel.View != "" && sel.View != models.ViewAll && sel.View != models.ViewSaved {
		errors = append(errors, ValidationError{Field: "view", Message: "invalid view, must be one of: all, saved", Value: sel.View})
	}

	after, afterOK := v.day("closing_after", sel.ClosingAfter, &errors)
	before, beforeOK := v.day("closing_before", sel.ClosingBefore, &errors)
	if afterOK && beforeOK && after.After(before) {
		errors = append(errors, ValidationError{Field: "closing_before", Message: "closing_before must not be earlier than closing_after", Value: sel.ClosingBefore})
	}

	if sel.Page < 0 || sel.Page > models.MaxPage {
		errors = append(errors, ValidationError{Field: "page", Message: fmt.Sprintf("page must be between 1 and %d", models.MaxPage), Value: sel.Page})
	}
	if sel.PageSize < 0 || sel.PageSize > MaxPageSize {
		errors = append(errors, ValidationError{Field: "page_size", Message: fmt.Sprintf("page_size must be between 1 and %d", MaxPageSize), Value: sel.PageSize})
	}

	return errors
}

// day checks an optional YYYY-MM-DD value
func (v *Validator) day(field, value string, errors *[]ValidationError) (time.Time, bool) {
	if value == "" {
		return time.Time{}, false
	}
	if !dayRegex.MatchString(value) {
		*errors = append(*errors, ValidationError{Field: field, Message: "invalid date, expected YYYY-MM-DD", Value: value})
		return time.Time{}, false
	}
	d, err := time.Parse("2006-01-02", value)
	if err != nil {
		*errors = append(*errors, ValidationError{Field: field, Message: "invalid calendar date", Value: value})
		return time.Time{}, false
	}
	return d, true
}

// ValidatePreferences validates a preferences record
func (v *Validator) ValidatePreferences(p *models.Preferences) []ValidationError {
	var errors []ValidationError

	if utf8.RuneCountInString(p.Name) > MaxNameLen {
		errors = append(errors, ValidationError{Field: "name", Message: fmt.Sprintf("name must be at most %d characters", MaxNameLen)})
	}
	if utf8.RuneCountInString(p.Location) > MaxNameLen {
		errors = append(errors, ValidationError{Field: "location", Message: fmt.Sprintf("location must be at most %d characters", MaxNameLen)})
	}

	if p.Notifications != "" && !models.ValidNotifications[p.Notifications] {
		errors = append(errors, ValidationError{
			Field:   "notifications",
			Message: "invalid notifications, must be one of: none, daily, closing",
			Value:   p.Notifications,
		})
	}

	seen := make(map[string]bool, len(p.Categories))
	for _, c := range p.Categories {
		switch {
		case !v.categoryLabels[c]:
			errors = append(errors, ValidationError{Field: "categories", Message: "unknown category", Value: c})
		case seen[c]:
			errors = append(errors, ValidationError{Field: "categories", Message: "duplicate category", Value: c})
		}
		seen[c] = true
	}

	return errors
}

// ValidateSavedSearch validates a named selection
func (v *Validator) ValidateSavedSearch(name string, sel *models.Selection) []ValidationError {
	var errors []ValidationError

	name = strings.TrimSpace(name)
	if name == "" {
		errors = append(errors, ValidationError{Field: "name", Message: "name is required"})
	} else if utf8.RuneCountInString(name) > MaxSearchName {
		errors = append(errors, ValidationError{Field: "name", Message: fmt.Sprintf("name must be at most %d characters", MaxSearchName)})
	}

	return append(errors, v.ValidateSelection(sel)...)
}

// ValidateChat validates a chat message
func (v *Validator) ValidateChat(message string) []ValidationError {
	return v.text("message", message, MaxChatLen)
}

// ValidateSpeech validates text to synthesize
func (v *Validator) ValidateSpeech(text string) []ValidationError {
	return v.text("text", text, MaxSpeechLen)
}

func (v *Validator) text(field, value string, limit int) []ValidationError {
	if strings.TrimSpace(value) == "" {
		return []ValidationError{{Field: field, Message: field + " is required"}}
	}
	if utf8.RuneCountInString(value) > limit {
		return []ValidationError{{Field: field, Message: fmt.Sprintf("%s must be at most %d characters", field, limit)}}
	}
	return nil
}

// ValidateEmail checks an identity email
func (v *Validator) ValidateEmail(email string) []ValidationError {
	if email == "" {
		return []ValidationError{{Field: "email", Message: "email is required"}}
	}
	if !emailRegex.MatchString(email) {
		return []ValidationError{{Field: "email", Message: "invalid email format", Value: email}}
	}
	return nil
}
