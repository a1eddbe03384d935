package normalize

import (
	"math"
	"strings"

	"github.com/tender-discovery-api/internal/models"
)

var sourceAliases = map[string]string{
	"eskom":             models.SourceEskom,
	"sanral":            models.SourceSANRAL,
	"transnet":          models.SourceTransnet,
	"transral":          models.SourceTransnet,
	"transnet soc":      models.SourceTransnet,
	"etenders":          models.SourceETenders,
	"e-tenders":         models.SourceETenders,
	"national etenders": models.SourceETenders,
}

var sourceIDs = map[int]string{
	1: models.SourceETenders,
	2: models.SourceEskom,
	3: models.SourceSANRAL,
	4: models.SourceTransnet,
}

// DetectSource derives the publisher slug of a raw record. First match wins:
// explicit source field, source_name/publisher text, numeric source_id,
// buyer text. No match yields "".
func DetectSource(raw models.RawRecord) string {
	if s, ok := raw["source"].(string); ok && strings.TrimSpace(s) != "" {
		low := strings.ToLower(strings.TrimSpace(s))
		if slug, ok := sourceAliases[low]; ok {
			return slug
		}
		return low
	}

	for _, key := range []string{"source_name", "publisher"} {
		if s, ok := raw[key].(string); ok {
			if slug := sourceFromText(s); slug != "" {
				return slug
			}
		}
	}

	if slug := SourceFromID(raw["source_id"]); slug != "" {
		return slug
	}

	if buyer := text(raw["buyer"]); buyer != "" {
		return sourceFromBuyer(buyer)
	}

	return ""
}

// SourceFromID maps the numeric publisher id to its slug
func SourceFromID(v any) string {
	f, ok := number(v)
	if !ok || f != math.Trunc(f) {
		return ""
	}
	return sourceIDs[int(f)]
}

func sourceFromText(s string) string {
	low := strings.ToLower(s)
	switch {
	case strings.Contains(low, "eskom"):
		return models.SourceEskom
	case strings.Contains(low, "sanral"):
		return models.SourceSANRAL
	case strings.Contains(low, "transnet"), strings.Contains(low, "transral"):
		return models.SourceTransnet
	case strings.Contains(low, "etender"), strings.Contains(low, "e-tender"):
		return models.SourceETenders
	}
	return ""
}

func sourceFromBuyer(buyer string) string {
	// TODO: a buyer naming another organization ("... on behalf of Eskom")
	// is misattributed; needs a curated buyer list to disambiguate.
	low := strings.ToLower(buyer)
	switch {
	case strings.Contains(low, "sanral"), strings.Contains(low, "national roads"):
		return models.SourceSANRAL
	case strings.Contains(low, "eskom"):
		return models.SourceEskom
	case strings.Contains(low, "transnet"):
		return models.SourceTransnet
	}
	return ""
}

// SourceSlug reduces a source value (a detected slug or a filter value) to
// a comparable form.
func SourceSlug(v string) string {
	low := strings.ToLower(strings.TrimSpace(v))
	if slug, ok := sourceAliases[low]; ok {
		return slug
	}
	return Norm(v)
}

// PrettySource renders a source slug for display
func PrettySource(s string) string {
	switch strings.ToLower(s) {
	case "":
		return ""
	case models.SourceEskom:
		return "ESKOM"
	case models.SourceSANRAL:
		return "SANRAL"
	case models.SourceTransnet:
		return "Transnet"
	case models.SourceETenders, "national etenders":
		return "National eTenders"
	}
	return capitalize(s)
}

// DefaultSources is the publisher list used when the upstream has none
func DefaultSources() []models.Source {
	return []models.Source{
		{ID: models.SourceEskom, Name: "ESKOM"},
		{ID: models.SourceSANRAL, Name: "SANRAL"},
		{ID: models.SourceTransnet, Name: "Transnet"},
		{ID: models.SourceETenders, Name: "National eTenders"},
	}
}
