package models

import (
	"strings"
	"time"
)

// Notification frequencies
const (
	NotifyNone    = "none"
	NotifyDaily   = "daily"
	NotifyClosing = "closing"
)

// ValidNotifications defines allowed notification settings
var ValidNotifications = map[string]bool{
	NotifyNone:    true,
	NotifyDaily:   true,
	NotifyClosing: true,
}

// Preferences is the per-identity user preferences record
type Preferences struct {
	Name          string   `json:"name"`
	Location      string   `json:"location"`
	Notifications string   `json:"notifications"`
	Categories    []string `json:"categories"`
}

// DefaultPreferences returns the record created on first login
func DefaultPreferences() Preferences {
	return Preferences{
		Notifications: NotifyNone,
		Categories:    []string{},
	}
}

// Normalized returns p with an unknown notification setting reset to none
// and categories reduced to a set in first-seen order.
func (p Preferences) Normalized() Preferences {
	if !ValidNotifications[p.Notifications] {
		p.Notifications = NotifyNone
	}
	categories := make([]string, 0, len(p.Categories))
	seen := make(map[string]bool, len(p.Categories))
	for _, c := range p.Categories {
		c = strings.TrimSpace(c)
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		categories = append(categories, c)
	}
	p.Categories = categories
	return p
}

// SavedSearch is a named set of filters
type SavedSearch struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Filters   Selection `json:"filters"`
	CreatedAt time.Time `json:"created_at"`
}

// MaxSavedSearches caps the saved search list per identity
const MaxSavedSearches = 20

// PreferencesSnapshot is a preferences record queued for mirroring upstream
type PreferencesSnapshot struct {
	Email       string
	AccessToken string
	Preferences Preferences
	QueuedAt    time.Time
}
