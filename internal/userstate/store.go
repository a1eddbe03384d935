package userstate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/tender-discovery-api/internal/models"
	"github.com/tender-discovery-api/internal/repository"
)

// ErrNotLoggedIn is returned by mutations on a store without an identity
var ErrNotLoggedIn = errors.New("not logged in")

// Store is the state of one identity. Reads are served from memory after
// Login; every mutation is written through to the repository.
type Store struct {
	repo repository.UserRecordRepository
	log  zerolog.Logger
	now  func() time.Time

	mu       sync.RWMutex
	identity string
	loggedIn bool
	prefs    models.Preferences
	saved    []string
	searches []models.SavedSearch
}

// NewStore creates a logged-out store
func NewStore(repo repository.UserRecordRepository, log zerolog.Logger) *Store {
	return &Store{
		repo:  repo,
		log:   log.With().Str("component", "userstate").Logger(),
		now:   time.Now,
		prefs: models.DefaultPreferences(),
	}
}

// Login loads every record of identity. Missing or malformed records load
// as defaults.
func (s *Store) Login(ctx context.Context, identity string) error {
	prefs := models.DefaultPreferences()
	var saved []string
	var searches []models.SavedSearch

	if err := s.load(ctx, Key(identity, KindPreferences), &prefs); err != nil {
		return err
	}
	prefs = prefs.Normalized()
	if err := s.load(ctx, Key(identity, KindSaved), &saved); err != nil {
		return err
	}
	if err := s.load(ctx, Key(identity, KindSearches), &searches); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.identity = identity
	s.loggedIn = true
	s.prefs = prefs
	s.saved = compact(saved)
	s.searches = searches
	return nil
}

// load decodes the record under key into dst. dst keeps its contents when
// the record is absent or malformed.
func (s *Store) load(ctx context.Context, key string, dst any) error {
	raw, found, err := s.repo.Get(ctx, key)
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", key, err)
	}
	if !found || strings.TrimSpace(raw) == "" {
		return nil
	}

	// snapshot dst so a half-decoded record can be rolled back
	scratch, err := json.Marshal(dst)
	if err != nil {
		return fmt.Errorf("failed to prepare %s: %w", key, err)
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("Ignoring malformed stored record")
		_ = json.Unmarshal(scratch, dst)
	}
	return nil
}

// Logout clears in-memory state. Stored records are kept.
func (s *Store) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.identity = ""
	s.loggedIn = false
	s.prefs = models.DefaultPreferences()
	s.saved = nil
	s.searches = nil
}

// Identity returns the logged-in identity, or ""
func (s *Store) Identity() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.identity
}

// CanSave reports whether the store accepts mutations
func (s *Store) CanSave() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loggedIn
}

// Preferences returns a copy of the preferences record
func (s *Store) Preferences() models.Preferences {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p := s.prefs
	p.Categories = slices.Clone(s.prefs.Categories)
	return p
}

// SetPreferences replaces the preferences record
func (s *Store) SetPreferences(ctx context.Context, p models.Preferences) error {
	p = p.Normalized()
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loggedIn {
		return ErrNotLoggedIn
	}
	if err := s.persist(ctx, KindPreferences, p); err != nil {
		return err
	}
	s.prefs = p
	return nil
}

// Saved returns the saved tender ids in the order they were added
func (s *Store) Saved() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.saved)
}

// SavedSet returns the saved tender ids as a set
func (s *Store) SavedSet() map[string]bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	set := make(map[string]bool, len(s.saved))
	for _, id := range s.saved {
		set[id] = true
	}
	return set
}

// AddSaved appends id to the saved set. Adding a saved id is a no-op.
func (s *Store) AddSaved(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loggedIn {
		return ErrNotLoggedIn
	}
	if slices.Contains(s.saved, id) {
		return nil
	}
	next := append(slices.Clone(s.saved), id)
	if err := s.persist(ctx, KindSaved, next); err != nil {
		return err
	}
	s.saved = next
	return nil
}

// RemoveSaved drops id from the saved set
func (s *Store) RemoveSaved(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loggedIn {
		return ErrNotLoggedIn
	}
	if !slices.Contains(s.saved, id) {
		return nil
	}
	next := slices.DeleteFunc(slices.Clone(s.saved), func(x string) bool { return x == id })
	if err := s.persist(ctx, KindSaved, next); err != nil {
		return err
	}
	s.saved = next
	return nil
}

// Searches returns the saved searches, newest first
func (s *Store) Searches() []models.SavedSearch {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.searches)
}

// Search looks up one saved search
func (s *Store) Search(id string) (models.SavedSearch, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, ss := range s.searches {
		if ss.ID == id {
			return ss, true
		}
	}
	return models.SavedSearch{}, false
}

// AddSearch stores a named selection at the front of the list, dropping the
// oldest entries beyond MaxSavedSearches.
func (s *Store) AddSearch(ctx context.Context, name string, sel models.Selection) (models.SavedSearch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loggedIn {
		return models.SavedSearch{}, ErrNotLoggedIn
	}

	sel.Page = 0
	item := models.SavedSearch{
		ID:        uuid.NewString(),
		Name:      strings.TrimSpace(name),
		Filters:   sel,
		CreatedAt: s.now().UTC(),
	}
	next := append([]models.SavedSearch{item}, s.searches...)
	if len(next) > models.MaxSavedSearches {
		next = next[:models.MaxSavedSearches]
	}
	if err := s.persist(ctx, KindSearches, next); err != nil {
		return models.SavedSearch{}, err
	}
	s.searches = next
	return item, nil
}

// RemoveSearch deletes a saved search and reports whether it existed
func (s *Store) RemoveSearch(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loggedIn {
		return false, ErrNotLoggedIn
	}
	idx := slices.IndexFunc(s.searches, func(ss models.SavedSearch) bool { return ss.ID == id })
	if idx < 0 {
		return false, nil
	}
	next := slices.Delete(slices.Clone(s.searches), idx, idx+1)
	if err := s.persist(ctx, KindSearches, next); err != nil {
		return false, err
	}
	s.searches = next
	return true, nil
}

// persist must be called with mu held
func (s *Store) persist(ctx context.Context, kind Kind, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", kind, err)
	}
	key := Key(s.identity, kind)
	if err := s.repo.Put(ctx, key, string(data)); err != nil {
		return fmt.Errorf("failed to persist %s: %w", key, err)
	}
	return nil
}

// compact drops empty and repeated ids, keeping first occurrences
func compact(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
