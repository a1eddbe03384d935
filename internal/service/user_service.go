package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/tender-discovery-api/internal/auth"
	"github.com/tender-discovery-api/internal/models"
	"github.com/tender-discovery-api/internal/repository"
	"github.com/tender-discovery-api/internal/userstate"
)

// userService is the concrete implementation of UserService. Each call
// opens a store for the caller's identity; the repository is the source of
// truth.
type userService struct {
	repo     repository.UserRecordRepository
	prefsAPI PreferencesAPI
	mirror   MirrorService
	now      func() time.Time
	log      zerolog.Logger
}

func newUserService(repo repository.UserRecordRepository, prefsAPI PreferencesAPI, mirror MirrorService, log zerolog.Logger) *userService {
	return &userService{
		repo:     repo,
		prefsAPI: prefsAPI,
		mirror:   mirror,
		now:      time.Now,
		log:      log.With().Str("service", "user").Logger(),
	}
}

func (s *userService) open(ctx context.Context, id auth.Identity) (*userstate.Store, error) {
	if strings.TrimSpace(id.Email) == "" {
		return nil, userstate.ErrNotLoggedIn
	}
	st := userstate.NewStore(s.repo, s.log)
	if err := st.Login(ctx, id.Email); err != nil {
		return nil, err
	}
	return st, nil
}

// Preferences returns the stored record. An identity with no local record
// is seeded from the upstream preferences endpoint when it has one.
func (s *userService) Preferences(ctx context.Context, id auth.Identity) (*models.Preferences, error) {
	st, err := s.open(ctx, id)
	if err != nil {
		return nil, err
	}
	prefs := st.Preferences()

	if s.prefsAPI == nil {
		return &prefs, nil
	}
	_, found, err := s.repo.Get(ctx, userstate.Key(id.Email, userstate.KindPreferences))
	if err != nil || found {
		return &prefs, nil
	}
	remote, ok, err := s.prefsAPI.Get(ctx, id.Email)
	if err != nil {
		s.log.Warn().Err(err).Str("email", id.Email).Msg("Upstream preferences unavailable")
		return &prefs, nil
	}
	if !ok {
		return &prefs, nil
	}
	remote = remote.Normalized()
	if err := st.SetPreferences(ctx, remote); err != nil {
		s.log.Warn().Err(err).Str("email", id.Email).Msg("Failed to seed preferences from upstream")
	}
	return &remote, nil
}

// SetPreferences replaces the record and queues it for mirroring
func (s *userService) SetPreferences(ctx context.Context, id auth.Identity, prefs models.Preferences) (*models.Preferences, error) {
	st, err := s.open(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := st.SetPreferences(ctx, prefs); err != nil {
		return nil, fmt.Errorf("failed to save preferences: %w", err)
	}
	stored := st.Preferences()

	if s.mirror != nil && !s.mirror.Enqueue(models.PreferencesSnapshot{
		Email:       id.Email,
		AccessToken: id.AccessToken,
		Preferences: stored,
		QueuedAt:    s.now(),
	}) {
		s.log.Warn().Str("email", id.Email).Msg("Preference mirror queue full, snapshot dropped")
	}
	return &stored, nil
}

// Saved returns the saved tender ids in insertion order
func (s *userService) Saved(ctx context.Context, id auth.Identity) ([]string, error) {
	st, err := s.open(ctx, id)
	if err != nil {
		return nil, err
	}
	return st.Saved(), nil
}

// SavedSet returns the saved tender ids as a set
func (s *userService) SavedSet(ctx context.Context, id auth.Identity) (map[string]bool, error) {
	st, err := s.open(ctx, id)
	if err != nil {
		return nil, err
	}
	return st.SavedSet(), nil
}

// AddSaved saves a tender and returns the updated list
func (s *userService) AddSaved(ctx context.Context, id auth.Identity, tenderID string) ([]string, error) {
	st, err := s.open(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := st.AddSaved(ctx, tenderID); err != nil {
		return nil, fmt.Errorf("failed to save tender: %w", err)
	}
	return st.Saved(), nil
}

// RemoveSaved unsaves a tender and returns the updated list
func (s *userService) RemoveSaved(ctx context.Context, id auth.Identity, tenderID string) ([]string, error) {
	st, err := s.open(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := st.RemoveSaved(ctx, tenderID); err != nil {
		return nil, fmt.Errorf("failed to unsave tender: %w", err)
	}
	return st.Saved(), nil
}

// Searches returns the saved searches, newest first
func (s *userService) Searches(ctx context.Context, id auth.Identity) ([]models.SavedSearch, error) {
	st, err := s.open(ctx, id)
	if err != nil {
		return nil, err
	}
	return st.Searches(), nil
}

// AddSearch stores a named selection
func (s *userService) AddSearch(ctx context.Context, id auth.Identity, name string, sel models.Selection) (*models.SavedSearch, error) {
	st, err := s.open(ctx, id)
	if err != nil {
		return nil, err
	}
	item, err := st.AddSearch(ctx, name, sel)
	if err != nil {
		return nil, fmt.Errorf("failed to save search: %w", err)
	}
	return &item, nil
}

// RemoveSearch deletes a saved search
func (s *userService) RemoveSearch(ctx context.Context, id auth.Identity, searchID string) error {
	st, err := s.open(ctx, id)
	if err != nil {
		return err
	}
	existed, err := st.RemoveSearch(ctx, searchID)
	if err != nil {
		return fmt.Errorf("failed to delete search: %w", err)
	}
	if !existed {
		return ErrNotFound
	}
	return nil
}

// Search looks up one saved search
func (s *userService) Search(ctx context.Context, id auth.Identity, searchID string) (*models.SavedSearch, error) {
	st, err := s.open(ctx, id)
	if err != nil {
		return nil, err
	}
	item, ok := st.Search(searchID)
	if !ok {
		return nil, ErrNotFound
	}
	return &item, nil
}
