package normalize

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/tender-discovery-api/internal/models"
)

// text coerces a raw value to a trimmed string. Objects yield their "name".
func text(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	case map[string]any:
		return text(t["name"])
	case models.RawRecord:
		return text(t["name"])
	default:
		return ""
	}
}

// firstText returns the first non-empty value among keys
func firstText(raw models.RawRecord, keys ...string) string {
	for _, key := range keys {
		if s := text(raw[key]); s != "" {
			return s
		}
	}
	return ""
}

// number coerces a raw value to a float
func number(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// object returns v as a record when it is a JSON object
func object(v any) (models.RawRecord, bool) {
	switch t := v.(type) {
	case map[string]any:
		return models.RawRecord(t), true
	case models.RawRecord:
		return t, true
	default:
		return nil, false
	}
}

// nested walks a path of object keys
func nested(raw models.RawRecord, path ...string) any {
	var cur any = raw
	for _, key := range path {
		obj, ok := object(cur)
		if !ok {
			return nil
		}
		cur = obj[key]
	}
	return cur
}

// records extracts the record list from a bare array or an object holding
// it under results, items or releases.
func records(payload any) []models.RawRecord {
	var list []any
	switch t := payload.(type) {
	case []any:
		list = t
	default:
		obj, ok := object(payload)
		if !ok {
			return nil
		}
		for _, key := range []string{"results", "items", "releases"} {
			if arr, ok := obj[key].([]any); ok {
				list = arr
				break
			}
		}
	}

	out := make([]models.RawRecord, 0, len(list))
	for _, item := range list {
		if rec, ok := object(item); ok {
			out = append(out, rec)
		}
	}
	return out
}
