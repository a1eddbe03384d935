// Package userstate holds the per-identity preferences, saved tenders and
// saved searches, persisted under identity-derived storage keys.
package userstate

import (
	"strings"
)

// Kind names one identity-keyed record
type Kind string

const (
	KindPreferences Kind = "prefs"
	KindSaved       Kind = "saved"
	KindSearches    Kind = "searches"
)

// AnonymousIdentity stands in for a missing email
const AnonymousIdentity = "user"

// Key derives the storage key of kind for identity. Identity is trimmed and
// lower-cased so the same login always maps to the same record.
func Key(identity string, kind Kind) string {
	id := strings.ToLower(strings.TrimSpace(identity))
	if id == "" {
		id = AnonymousIdentity
	}
	return "tt_" + string(kind) + "_" + id
}
