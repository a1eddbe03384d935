package models_test

import (
	"slices"
	"testing"

	"github.com/tender-discovery-api/internal/models"
)

func TestSelection_Transition(t *testing.T) {
	current := models.Selection{
		Filters: models.Filters{Query: "road", Source: "sanral"},
		Sort:    models.SortClosingAsc,
		View:    models.ViewAll,
		Page:    4,
	}

	tests := []struct {
		name     string
		change   func(s *models.Selection)
		wantPage int
	}{
		{"unchanged keeps page", func(s *models.Selection) { s.Page = 4 }, 4},
		{"page move keeps page", func(s *models.Selection) { s.Page = 7 }, 7},
		{"page size change keeps page", func(s *models.Selection) { s.PageSize = 50 }, 4},
		{"query change resets", func(s *models.Selection) { s.Query = "bridge" }, 1},
		{"source change resets", func(s *models.Selection) { s.Source = "eskom" }, 1},
		{"category change resets", func(s *models.Selection) { s.Category = "Security" }, 1},
		{"location change resets", func(s *models.Selection) { s.Location = "Limpopo" }, 1},
		{"closing after change resets", func(s *models.Selection) { s.ClosingAfter = "2024-03-01" }, 1},
		{"closing before change resets", func(s *models.Selection) { s.ClosingBefore = "2024-03-31" }, 1},
		{"sort change resets", func(s *models.Selection) { s.Sort = models.SortPublishedDesc }, 1},
		{"view change resets", func(s *models.Selection) { s.View = models.ViewSaved }, 1},
		{"page below one", func(s *models.Selection) { s.Page = 0 }, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next := current
			tt.change(&next)
			got := current.Transition(next)
			if got.Page != tt.wantPage {
				t.Errorf("Expected page %d, got %d", tt.wantPage, got.Page)
			}
			got.Page = next.Page
			if got != next {
				t.Errorf("Transition changed more than the page: %+v", got)
			}
		})
	}
}

func TestSelection_Restricted(t *testing.T) {
	tests := []struct {
		name string
		sel  models.Selection
		want bool
	}{
		{"empty", models.Selection{}, false},
		{"sort only", models.Selection{Sort: models.SortClosingAsc}, false},
		{"blank query", models.Selection{Filters: models.Filters{Query: "   "}}, false},
		{"blank source", models.Selection{Filters: models.Filters{Source: " "}}, false},
		{"blank location and category", models.Selection{Filters: models.Filters{Location: "\t", Category: " "}}, false},
		{"query", models.Selection{Filters: models.Filters{Query: "road"}}, true},
		{"source", models.Selection{Filters: models.Filters{Source: "eskom"}}, true},
		{"closing bound", models.Selection{Filters: models.Filters{ClosingBefore: "2024-03-31"}}, true},
		{"saved view", models.Selection{View: models.ViewSaved}, true},
	}

	for _, tt := range tests {
		if got := tt.sel.Restricted(); got != tt.want {
			t.Errorf("%s: Restricted() = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestPreferences_Normalized(t *testing.T) {
	tests := []struct {
		name              string
		in                models.Preferences
		wantNotifications string
		wantCategories    []string
	}{
		{"defaults", models.Preferences{}, models.NotifyNone, []string{}},
		{"valid kept", models.Preferences{Notifications: models.NotifyClosing, Categories: []string{"Security"}}, models.NotifyClosing, []string{"Security"}},
		{"unknown notifications", models.Preferences{Notifications: "weekly"}, models.NotifyNone, []string{}},
		{"duplicate categories", models.Preferences{Categories: []string{"Security", "Corporate", "Security"}}, models.NotifyNone, []string{"Security", "Corporate"}},
		{"blank categories", models.Preferences{Categories: []string{"", " ", "Corporate"}}, models.NotifyNone, []string{"Corporate"}},
	}

	for _, tt := range tests {
		got := tt.in.Normalized()
		if got.Notifications != tt.wantNotifications {
			t.Errorf("%s: notifications = %q, want %q", tt.name, got.Notifications, tt.wantNotifications)
		}
		if !slices.Equal(got.Categories, tt.wantCategories) || got.Categories == nil {
			t.Errorf("%s: categories = %v, want %v", tt.name, got.Categories, tt.wantCategories)
		}
	}
}
