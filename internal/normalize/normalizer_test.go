package normalize

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/tender-discovery-api/internal/models"
)

func decode(t *testing.T, s string) any {
	t.Helper()
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		t.Fatalf("bad fixture: %v", err)
	}
	return v
}

func TestTender_EmptyRecord(t *testing.T) {
	n := New(zerolog.Nop())

	tender := n.Tender(models.RawRecord{})

	if tender.ID != "" {
		t.Errorf("Expected empty id, got %q", tender.ID)
	}
	if tender.Title != models.UntitledTender {
		t.Errorf("Expected placeholder title, got %q", tender.Title)
	}
	if tender.Source != "" {
		t.Errorf("Expected no source guess, got %q", tender.Source)
	}
	if tender.PublishedAt != nil || tender.ClosingAt != nil {
		t.Error("Expected absent dates")
	}
	if tender.URL != nil {
		t.Error("Expected nil url")
	}
}

func TestTender_FallbackChains(t *testing.T) {
	n := New(zerolog.Nop())

	tests := []struct {
		name    string
		raw     string
		wantID  string
		wantTtl string
		wantByr string
	}{
		{"primary fields", `{"id":"T-1","title":"Road works","buyer":"SANRAL"}`, "T-1", "Road works", "SANRAL"},
		{"reference number", `{"referenceNumber":"REF/9","name":"Fencing","issuer":"City"}`, "REF/9", "Fencing", "City"},
		{"mongo id", `{"_id":"abc"}`, "abc", models.UntitledTender, ""},
		{"numeric id", `{"id":42,"title":"Numeric"}`, "42", "Numeric", ""},
		{"ocds release", `{"ocid":"ocds-1","tender":{"title":"Nested"},"buyer":{"name":"Dept of Health"}}`, "ocds-1", "Nested", "Dept of Health"},
		{"blank title", `{"id":"x","title":"   "}`, "x", models.UntitledTender, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := decode(t, tt.raw).(map[string]any)
			got := n.Tender(raw)
			if got.ID != tt.wantID {
				t.Errorf("Expected id %q, got %q", tt.wantID, got.ID)
			}
			if got.Title != tt.wantTtl {
				t.Errorf("Expected title %q, got %q", tt.wantTtl, got.Title)
			}
			if got.Buyer != tt.wantByr {
				t.Errorf("Expected buyer %q, got %q", tt.wantByr, got.Buyer)
			}
		})
	}
}

func TestTender_Dates(t *testing.T) {
	n := New(zerolog.Nop())

	raw := decode(t, `{"id":"1","publishedAt":"2024-03-01","closing_at":"not a date"}`).(map[string]any)
	got := n.Tender(raw)

	if got.PublishedAt == nil {
		t.Fatal("Expected published date from publishedAt")
	}
	want := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	if !got.PublishedAt.Equal(want) {
		t.Errorf("Expected %v, got %v", want, got.PublishedAt)
	}
	if got.ClosingAt != nil {
		t.Errorf("Invalid date should be absent, got %v", got.ClosingAt)
	}
}

func TestDetectSource(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"explicit wins over id", `{"source":"eskom","source_id":3}`, "eskom"},
		{"explicit alias", `{"source":"Transnet SOC"}`, "transnet"},
		{"alternate spelling", `{"source":"transral"}`, "transnet"},
		{"explicit unknown kept lowercase", `{"source":"City Of Cape Town"}`, "city of cape town"},
		{"source name", `{"source_name":"Eskom Holdings"}`, "eskom"},
		{"publisher", `{"publisher":"National eTenders portal"}`, "etenders"},
		{"numeric id", `{"source_id":3}`, "sanral"},
		{"string id", `{"source_id":"4"}`, "transnet"},
		{"unknown id", `{"source_id":9}`, ""},
		{"buyer heuristic", `{"buyer":"South African National Roads Agency"}`, "sanral"},
		{"buyer eskom", `{"buyer":"Eskom Distribution"}`, "eskom"},
		{"nothing", `{"buyer":"Department of Health"}`, ""},
		{"blank explicit falls through", `{"source":"  ","source_id":1}`, "etenders"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := decode(t, tt.raw).(map[string]any)
			if got := DetectSource(raw); got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestList_PayloadShapes(t *testing.T) {
	n := New(zerolog.Nop())

	tests := []struct {
		name      string
		payload   string
		wantItems int
		wantTotal int
	}{
		{"bare array", `[{"id":"1"},{"id":"2"}]`, 2, 2},
		{"results with total", `{"results":[{"id":"1"}],"total":120}`, 1, 120},
		{"items with count", `{"items":[{"id":"1"},{"id":"2"}],"count":"57"}`, 2, 57},
		{"releases", `{"releases":[{"ocid":"o-1"}]}`, 1, 1},
		{"empty object", `{}`, 0, 0},
		{"null", `null`, 0, 0},
		{"non-object entries skipped", `[{"id":"1"},"junk",3]`, 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := n.List(decode(t, tt.payload))
			if len(page.Items) != tt.wantItems {
				t.Errorf("Expected %d items, got %d", tt.wantItems, len(page.Items))
			}
			if page.Total != tt.wantTotal {
				t.Errorf("Expected total %d, got %d", tt.wantTotal, page.Total)
			}
		})
	}
}

func TestDocumentsAndContacts(t *testing.T) {
	n := New(zerolog.Nop())

	docs := n.Documents(decode(t, `{"results":[{"document_id":"d1","filename":"bid.pdf","download_url":"https://x/bid.pdf","filesize":2048},{}]}`))
	if len(docs) != 2 {
		t.Fatalf("Expected 2 documents, got %d", len(docs))
	}
	if docs[0].ID != "d1" || docs[0].Name != "bid.pdf" {
		t.Errorf("Unexpected document: %+v", docs[0])
	}
	if docs[0].URL == nil || *docs[0].URL != "https://x/bid.pdf" {
		t.Errorf("Expected download url, got %v", docs[0].URL)
	}
	if docs[0].Size == nil || *docs[0].Size != 2048 {
		t.Errorf("Expected size 2048, got %v", docs[0].Size)
	}
	if docs[1].ID == "" || docs[1].Name != "Document" {
		t.Errorf("Expected generated id and placeholder name, got %+v", docs[1])
	}

	contacts := n.Contacts(decode(t, `[{"fullname":"Thandi M","mail":"t@example.com","mobile":"082"}]`))
	if len(contacts) != 1 {
		t.Fatalf("Expected 1 contact, got %d", len(contacts))
	}
	c := contacts[0]
	if c.Name != "Thandi M" || c.Email != "t@example.com" || c.Phone != "082" || c.ID == "" {
		t.Errorf("Unexpected contact: %+v", c)
	}
}

func TestStats(t *testing.T) {
	n := New(zerolog.Nop())

	stats := n.Stats(decode(t, `{
		"count": 1036,
		"by_source": [{"source":"Eskom","count":123},{"name":"sanral","total":"45"}],
		"byCategory": {"Construction": 10},
		"last_updated": "2024-05-01T10:00:00Z"
	}`))

	if stats.Total != 1036 {
		t.Errorf("Expected total 1036, got %d", stats.Total)
	}
	if stats.BySource["eskom"] != 123 || stats.BySource["sanral"] != 45 {
		t.Errorf("Unexpected by_source: %v", stats.BySource)
	}
	if stats.ByCategory["Construction"] != 10 {
		t.Errorf("Unexpected by_category: %v", stats.ByCategory)
	}
	if stats.LastUpdated == nil || *stats.LastUpdated != "2024-05-01T10:00:00Z" {
		t.Errorf("Unexpected last_updated: %v", stats.LastUpdated)
	}

	empty := n.Stats(nil)
	if empty.Total != 0 || empty.BySource == nil || empty.ByCategory == nil {
		t.Errorf("Expected zero stats with empty maps, got %+v", empty)
	}
}

func TestSources(t *testing.T) {
	n := New(zerolog.Nop())

	got := n.Sources(decode(t, `[{"id":"ESKOM","name":"ESKOM"},{"name":"Transnet"}]`))
	if len(got) != 2 || got[0].ID != "eskom" || got[1].ID != "transnet" {
		t.Errorf("Unexpected sources: %+v", got)
	}

	defaults := n.Sources(nil)
	if len(defaults) != 4 {
		t.Errorf("Expected 4 default sources, got %d", len(defaults))
	}
}
