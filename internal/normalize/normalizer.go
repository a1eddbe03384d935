package normalize

import (
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/tender-discovery-api/internal/models"
)

// Normalizer turns upstream payloads into canonical records. It never fails:
// every field falls back to a default and unparseable dates are dropped
// with a warning.
type Normalizer struct {
	log zerolog.Logger
}

// New creates a Normalizer
func New(log zerolog.Logger) *Normalizer {
	return &Normalizer{log: log.With().Str("component", "normalize").Logger()}
}

// Tender normalizes one raw tender record
func (n *Normalizer) Tender(raw models.RawRecord) models.Tender {
	t := models.Tender{
		ID:          firstText(raw, "id", "referenceNumber", "_id", "ocid"),
		Title:       firstText(raw, "title", "name"),
		Buyer:       firstText(raw, "buyer", "issuer"),
		Category:    firstText(raw, "category"),
		Source:      DetectSource(raw),
		Status:      firstText(raw, "status"),
		Location:    firstText(raw, "location"),
		Summary:     firstText(raw, "summary"),
		Description: firstText(raw, "description"),
	}

	if t.Title == "" {
		t.Title = text(nested(raw, "tender", "title"))
	}
	if t.Title == "" {
		t.Title = models.UntitledTender
	}
	if t.Description == "" {
		t.Description = text(nested(raw, "tender", "description"))
	}
	if u := firstText(raw, "url"); u != "" {
		t.URL = &u
	}

	t.PublishedAt = n.date(t.ID, "published_at",
		firstText(raw, "published_at", "publishedAt"),
		text(nested(raw, "tender", "tenderPeriod", "startDate")))
	t.ClosingAt = n.date(t.ID, "closing_at",
		firstText(raw, "closing_at", "closingAt"),
		text(nested(raw, "tender", "tenderPeriod", "endDate")))

	return t
}

// date parses the first non-empty candidate
func (n *Normalizer) date(id, field string, candidates ...string) *time.Time {
	for _, c := range candidates {
		if c == "" {
			continue
		}
		if t := ParseDate(c); t != nil {
			return t
		}
		n.log.Warn().Str("tender_id", id).Str("field", field).Str("value", c).Msg("Unparseable date treated as absent")
		return nil
	}
	return nil
}

// List normalizes a tender list payload. The total comes from total or
// count, falling back to the number of records received.
func (n *Normalizer) List(payload any) models.RawPage {
	raws := records(payload)
	page := models.RawPage{
		Items: make([]models.Tender, 0, len(raws)),
		Total: len(raws),
	}
	for _, raw := range raws {
		page.Items = append(page.Items, n.Tender(raw))
	}

	if obj, ok := object(payload); ok {
		for _, key := range []string{"total", "count"} {
			if f, ok := number(obj[key]); ok {
				page.Total = int(f)
				break
			}
		}
	}
	return page
}

// Documents normalizes a document list payload
func (n *Normalizer) Documents(payload any) []models.Document {
	raws := records(payload)
	docs := make([]models.Document, 0, len(raws))
	for _, raw := range raws {
		d := models.Document{
			ID:   firstText(raw, "id", "document_id", "key", "name"),
			Name: firstText(raw, "name", "filename", "title"),
			Type: firstText(raw, "type", "mime"),
		}
		if d.ID == "" {
			d.ID = uuid.NewString()
		}
		if d.Name == "" {
			d.Name = "Document"
		}
		if u := firstText(raw, "url", "download_url", "s3_url"); u != "" {
			d.URL = &u
		}
		for _, key := range []string{"size", "filesize"} {
			if f, ok := number(raw[key]); ok {
				size := int64(f)
				d.Size = &size
				break
			}
		}
		docs = append(docs, d)
	}
	return docs
}

// Contacts normalizes a contact list payload
func (n *Normalizer) Contacts(payload any) []models.Contact {
	raws := records(payload)
	contacts := make([]models.Contact, 0, len(raws))
	for _, raw := range raws {
		c := models.Contact{
			ID:    firstText(raw, "id", "contact_id"),
			Name:  firstText(raw, "name", "fullname"),
			Email: firstText(raw, "email", "mail"),
			Phone: firstText(raw, "phone", "tel", "mobile"),
			Role:  firstText(raw, "role", "position"),
		}
		if c.ID == "" {
			c.ID = uuid.NewString()
		}
		if c.Name == "" {
			c.Name = "Contact"
		}
		contacts = append(contacts, c)
	}
	return contacts
}

// Stats normalizes a statistics payload. Breakdowns may arrive as objects
// or as arrays of {source|category|name|id, count|total|value}.
func (n *Normalizer) Stats(payload any) models.Stats {
	stats := models.Stats{
		BySource:   map[string]int{},
		ByCategory: map[string]int{},
	}
	obj, ok := object(payload)
	if !ok {
		return stats
	}

	switch {
	case isNumber(obj["total"]):
		stats.Total = intOf(obj["total"])
	case isNumber(obj["count"]):
		stats.Total = intOf(obj["count"])
	case isNumber(nested(obj, "tenders", "total")):
		stats.Total = intOf(nested(obj, "tenders", "total"))
	default:
		if arr, ok := obj["results"].([]any); ok {
			stats.Total = len(arr)
		}
	}

	breakdown(stats.BySource, true, obj["bySource"], obj["by_source"], obj["sources"])
	breakdown(stats.ByCategory, false, obj["byCategory"], obj["by_category"], obj["categories"])

	if s := firstText(obj, "lastUpdated", "last_updated", "updatedAt", "generatedAt"); s != "" {
		stats.LastUpdated = &s
	}
	return stats
}

func breakdown(dst map[string]int, lowerKeys bool, candidates ...any) {
	for _, c := range candidates {
		if c == nil {
			continue
		}
		if arr, ok := c.([]any); ok {
			for _, item := range arr {
				row, ok := object(item)
				if !ok {
					continue
				}
				key := firstText(row, "source", "category", "name", "id")
				if key == "" {
					continue
				}
				dst[breakdownKey(key, lowerKeys)] = intOf(firstValue(row, "count", "total", "value"))
			}
			return
		}
		if m, ok := object(c); ok {
			for k, v := range m {
				dst[breakdownKey(k, lowerKeys)] = intOf(v)
			}
			return
		}
	}
}

func breakdownKey(k string, lower bool) string {
	if lower {
		return SourceSlug(k)
	}
	return k
}

// Sources normalizes a publisher list, falling back to DefaultSources
func (n *Normalizer) Sources(payload any) []models.Source {
	raws := records(payload)
	out := make([]models.Source, 0, len(raws))
	for _, raw := range raws {
		id := firstText(raw, "id", "name")
		if id == "" {
			continue
		}
		out = append(out, models.Source{
			ID:   SourceSlug(id),
			Name: firstText(raw, "name", "id"),
		})
	}
	if len(out) == 0 {
		return DefaultSources()
	}
	return out
}

func firstValue(raw models.RawRecord, keys ...string) any {
	for _, key := range keys {
		if v, ok := raw[key]; ok && v != nil {
			return v
		}
	}
	return nil
}

func isNumber(v any) bool {
	_, ok := number(v)
	return ok
}

func intOf(v any) int {
	f, _ := number(v)
	return int(f)
}

// Summary extracts summary text from a summariser response
func (n *Normalizer) Summary(payload any) models.Summary {
	if s, ok := payload.(string); ok {
		return models.Summary{Summary: s}
	}
	obj, ok := object(payload)
	if !ok {
		return models.Summary{}
	}
	return models.Summary{Summary: firstText(obj, "summary", "text", "result", "message")}
}
