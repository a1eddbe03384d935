package models

import (
	"time"
)

// RawRecord is an upstream record with unpredictable key names. Only the
// normalize package reads it.
type RawRecord map[string]any

// Known publisher slugs
const (
	SourceETenders = "etenders"
	SourceEskom    = "eskom"
	SourceSANRAL   = "sanral"
	SourceTransnet = "transnet"
)

// UntitledTender is the title placeholder for records without one
const UntitledTender = "(no title)"

// Tender is the canonical tender record used by filtering and rendering
type Tender struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Buyer       string     `json:"buyer"`
	Category    string     `json:"category"`
	Source      string     `json:"source"`
	Status      string     `json:"status"`
	PublishedAt *time.Time `json:"published_at"`
	ClosingAt   *time.Time `json:"closing_at"`
	Location    string     `json:"location"`
	URL         *string    `json:"url"`
	Summary     string     `json:"summary"`
	Description string     `json:"description,omitempty"`
}

// TenderView is a tender annotated with display fields
type TenderView struct {
	Tender
	SourceLabel string `json:"source_label"`
	StatusLabel string `json:"status_label"`
	Urgency     string `json:"urgency,omitempty"` // "danger", "warning" or empty
	Badge       string `json:"badge,omitempty"`
	Countdown   string `json:"countdown,omitempty"`
	Subline     string `json:"subline,omitempty"`
}

// Document is a file attached to a tender
type Document struct {
	ID   string  `json:"id"`
	Name string  `json:"name"`
	URL  *string `json:"url"`
	Type string  `json:"type"`
	Size *int64  `json:"size"`
}

// Contact is a person listed for a tender
type Contact struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
	Role  string `json:"role"`
}

// TenderDetail is a single tender with its documents and contacts
type TenderDetail struct {
	TenderView
	Documents []Document `json:"documents"`
	Contacts  []Contact  `json:"contacts"`
}

// RawPage is a normalized upstream list response
type RawPage struct {
	Items []Tender
	Total int
}

// Source is a publishing organization
type Source struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Stats is the normalized upstream statistics response
type Stats struct {
	Total       int            `json:"total"`
	BySource    map[string]int `json:"by_source"`
	ByCategory  map[string]int `json:"by_category"`
	LastUpdated *string        `json:"last_updated"`
}

// Summary is a generated plain-language tender summary
type Summary struct {
	Summary string `json:"summary"`
}
