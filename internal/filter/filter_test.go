package filter

import (
	"encoding/json"
	"fmt"
	"slices"
	"testing"
	"time"

	"github.com/tender-discovery-api/internal/models"
)

func at(s string) *time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return &t
}

func TestPredicates_VacuousTruth(t *testing.T) {
	records := []models.Tender{
		{},
		{ID: "1", Title: "Road resurfacing", Buyer: "SANRAL", Source: "sanral", Category: "Construction", Location: "Gauteng", ClosingAt: at("2024-03-15T12:00:00Z")},
	}
	preds := map[string]Predicate{
		"text":     MatchesText,
		"source":   MatchesSource,
		"category": MatchesCategory,
		"location": MatchesLocation,
	}

	for name, pred := range preds {
		for _, r := range records {
			if !pred(r, "") {
				t.Errorf("%s predicate rejected %+v on empty value", name, r)
			}
		}
	}
	for _, r := range records {
		if !(ClosingRange{}).Contains(r) {
			t.Errorf("Inactive range rejected %+v", r)
		}
		if !Match(r, models.Filters{}, ClosingRange{}) {
			t.Errorf("Empty filters rejected %+v", r)
		}
	}
}

func TestMatchesText(t *testing.T) {
	tender := models.Tender{
		Title:    "Supply & Delivery of Transformers",
		Buyer:    "Eskom Holdings",
		Location: "Mpumalanga",
		Summary:  "Three-phase units.",
	}

	tests := []struct {
		q    string
		want bool
	}{
		{"supply and delivery", true},
		{"SUPPLY & DELIVERY", true},
		{"eskom", true},
		{"three phase", true},
		{"mpumalanga", true},
		{"cleaning", false},
	}
	for _, tt := range tests {
		if got := MatchesText(tender, tt.q); got != tt.want {
			t.Errorf("MatchesText(%q) = %v, want %v", tt.q, got, tt.want)
		}
	}
}

func TestMatchesSourceCategoryLocation(t *testing.T) {
	tender := models.Tender{Source: "transnet", Category: "CIVIL/CONSTRUCTION", Location: "Durban, KwaZulu-Natal"}

	if !MatchesSource(tender, "Transnet") || MatchesSource(tender, "eskom") {
		t.Error("Unexpected source match")
	}
	if !MatchesSource(models.Tender{Source: "etenders"}, "National eTenders") {
		t.Error("Expected alias to match")
	}
	if !MatchesCategory(tender, "Construction & Civil") || MatchesCategory(tender, "Security") {
		t.Error("Unexpected category match")
	}
	if MatchesCategory(models.Tender{}, "Security") {
		t.Error("Uncategorised tender should not match a category filter")
	}
	if !MatchesLocation(tender, "kwazulu natal") || MatchesLocation(tender, "cape") {
		t.Error("Unexpected location match")
	}
}

func TestClosingRange(t *testing.T) {
	sameDay := models.Tender{ID: "1", ClosingAt: at("2024-03-15T12:00:00Z")}
	undated := models.Tender{ID: "2"}

	tests := []struct {
		name   string
		after  string
		before string
		tender models.Tender
		want   bool
	}{
		{"same day inclusive", "2024-03-15", "2024-03-15", sameDay, true},
		{"after only", "2024-03-15", "", sameDay, true},
		{"before only", "", "2024-03-15", sameDay, true},
		{"too early", "2024-03-16", "", sameDay, false},
		{"too late", "", "2024-03-14", sameDay, false},
		{"undated excluded", "2024-03-01", "", undated, false},
		{"undated in open range", "", "", undated, true},
		{"bad bound ignored", "soon", "", undated, true},
		{"timestamp bound uses its date", "2024-03-15T18:00:00Z", "", sameDay, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := ParseClosingRange(tt.after, tt.before, time.UTC)
			if got := r.Contains(tt.tender); got != tt.want {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestClosingRange_Location(t *testing.T) {
	sast := time.FixedZone("SAST", 2*60*60)
	// 23:30 UTC on the 15th is already the 16th in SAST
	tender := models.Tender{ClosingAt: at("2024-03-15T23:30:00Z")}

	if ParseClosingRange("", "2024-03-15", sast).Contains(tender) {
		t.Error("Expected tender closing on the 16th local time to be excluded")
	}
	if !ParseClosingRange("", "2024-03-15", time.UTC).Contains(tender) {
		t.Error("Expected tender to be included in UTC")
	}
}

func TestComparator(t *testing.T) {
	a := models.Tender{ID: "a", PublishedAt: at("2024-01-01T00:00:00Z"), ClosingAt: at("2024-06-01T00:00:00Z")}
	b := models.Tender{ID: "b", PublishedAt: at("2024-02-01T00:00:00Z"), ClosingAt: at("2024-05-01T00:00:00Z")}
	none := models.Tender{ID: "none"}

	tests := []struct {
		key  models.SortKey
		want []string
	}{
		{models.SortPublishedDesc, []string{"b", "a", "none"}},
		{models.SortPublishedAsc, []string{"none", "a", "b"}},
		{models.SortClosingAsc, []string{"none", "b", "a"}},
		{models.SortClosingDesc, []string{"a", "b", "none"}},
		{"", []string{"b", "a", "none"}},
		{"bogus", []string{"b", "a", "none"}},
	}

	for _, tt := range tests {
		list := []models.Tender{none, a, b}
		slices.SortStableFunc(list, Comparator(tt.key))
		var got []string
		for _, r := range list {
			got = append(got, r.ID)
		}
		if !slices.Equal(got, tt.want) {
			t.Errorf("Sort %q: expected %v, got %v", tt.key, tt.want, got)
		}
	}
}

func TestComparator_Stable(t *testing.T) {
	list := []models.Tender{{ID: "1"}, {ID: "2"}, {ID: "3"}}
	slices.SortStableFunc(list, Comparator(models.SortClosingDesc))
	if list[0].ID != "1" || list[1].ID != "2" || list[2].ID != "3" {
		t.Errorf("Expected ties to keep input order, got %v", list)
	}
}

func TestPageWindow(t *testing.T) {
	tests := []struct {
		current, total, siblings, boundaries int
		want                                 string
	}{
		{5, 10, 1, 1, `[1,"…",4,5,6,"…",10]`},
		{1, 1, 1, 1, `[1]`},
		{3, 0, 1, 1, `[1]`},
		{1, 10, 1, 1, `[1,2,"…",10]`},
		{10, 10, 1, 1, `[1,"…",9,10]`},
		{2, 5, 1, 1, `[1,2,3,"…",5]`},
		{3, 5, 1, 1, `[1,2,3,4,5]`},
		{50, 10, 1, 1, `[1,"…",9,10]`},
		{5, 10, 2, 2, `[1,2,3,4,5,6,7,"…",9,10]`},
	}

	for _, tt := range tests {
		name := fmt.Sprintf("%d/%d s%d b%d", tt.current, tt.total, tt.siblings, tt.boundaries)
		t.Run(name, func(t *testing.T) {
			out, err := json.Marshal(PageWindow(tt.current, tt.total, tt.siblings, tt.boundaries))
			if err != nil {
				t.Fatalf("marshal: %v", err)
			}
			if string(out) != tt.want {
				t.Errorf("Expected %s, got %s", tt.want, out)
			}
		})
	}
}

func TestPageCount(t *testing.T) {
	if PageCount(0, 20) != 1 || PageCount(20, 20) != 1 || PageCount(21, 20) != 2 || PageCount(5, 0) != 1 {
		t.Error("Unexpected page count")
	}
}
