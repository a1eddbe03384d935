package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"github.com/tender-discovery-api/internal/auth"
	"github.com/tender-discovery-api/internal/config"
	"github.com/tender-discovery-api/internal/models"
	"github.com/tender-discovery-api/internal/normalize"
	"github.com/tender-discovery-api/internal/repository"
	"github.com/tender-discovery-api/internal/upstream"
)

// ErrNotFound is returned when a tender or saved search does not exist
var ErrNotFound = errors.New("not found")

// TendersAPI is the upstream tenders catalogue
type TendersAPI interface {
	List(ctx context.Context, q upstream.ListQuery) (models.RawPage, error)
	Get(ctx context.Context, id string) (models.Tender, error)
	Documents(ctx context.Context, id string) ([]models.Document, error)
	Contacts(ctx context.Context, id string) ([]models.Contact, error)
	Stats(ctx context.Context, force bool) (models.Stats, error)
	Sources(ctx context.Context) []models.Source
	Summarise(ctx context.Context, payload any) (models.Summary, error)
}

// PreferencesAPI is the upstream preferences record
type PreferencesAPI interface {
	Get(ctx context.Context, email string) (models.Preferences, bool, error)
	Put(ctx context.Context, email, accessToken string, prefs models.Preferences) error
}

// ChatAPI is the chatbot backend
type ChatAPI interface {
	Ask(ctx context.Context, message string, meta map[string]any) (string, error)
}

// SpeechAPI is the text to speech backend
type SpeechAPI interface {
	Synthesize(ctx context.Context, text string, opts map[string]any) (string, error)
}

// Upstreams groups the external collaborators
type Upstreams struct {
	Tenders     TendersAPI
	Preferences PreferencesAPI
	Chat        ChatAPI
	Speech      SpeechAPI
}

// NewUpstreams builds the HTTP clients of every collaborator
func NewUpstreams(cfg *config.UpstreamConfig, log zerolog.Logger) Upstreams {
	return Upstreams{
		Tenders:     upstream.NewTendersClient(cfg, normalize.New(log), log),
		Preferences: upstream.NewPreferencesClient(cfg, log),
		Chat:        upstream.NewChatClient(cfg, log),
		Speech:      upstream.NewSpeechClient(cfg, log),
	}
}

// TenderService defines the interface for tender reads
type TenderService interface {
	List(ctx context.Context, sel models.Selection, saved map[string]bool) (*models.TenderPage, error)
	Get(ctx context.Context, id string) (*models.TenderDetail, error)
	Documents(ctx context.Context, id string) ([]models.Document, error)
	Contacts(ctx context.Context, id string) ([]models.Contact, error)
	Stats(ctx context.Context, force bool) (*models.Stats, error)
	Sources(ctx context.Context) []models.Source
	Categories() []normalize.Category
	Summarise(ctx context.Context, id string) (*models.Summary, error)
}

// UserService defines the interface for per-identity state
type UserService interface {
	Preferences(ctx context.Context, id auth.Identity) (*models.Preferences, error)
	SetPreferences(ctx context.Context, id auth.Identity, prefs models.Preferences) (*models.Preferences, error)
	Saved(ctx context.Context, id auth.Identity) ([]string, error)
	SavedSet(ctx context.Context, id auth.Identity) (map[string]bool, error)
	AddSaved(ctx context.Context, id auth.Identity, tenderID string) ([]string, error)
	RemoveSaved(ctx context.Context, id auth.Identity, tenderID string) ([]string, error)
	Searches(ctx context.Context, id auth.Identity) ([]models.SavedSearch, error)
	AddSearch(ctx context.Context, id auth.Identity, name string, sel models.Selection) (*models.SavedSearch, error)
	RemoveSearch(ctx context.Context, id auth.Identity, searchID string) error
	Search(ctx context.Context, id auth.Identity, searchID string) (*models.SavedSearch, error)
}

// MirrorService defines the interface for the preference mirror
type MirrorService interface {
	StartProcessor(ctx context.Context)
	StopProcessor()
	Enqueue(snap models.PreferencesSnapshot) bool
}

// AssistantService defines the interface for chat and speech
type AssistantService interface {
	Chat(ctx context.Context, message string, meta map[string]any) (string, error)
	Speak(ctx context.Context, text string, opts map[string]any) (string, error)
}

// Services holds all service interfaces
type Services struct {
	Tenders   TenderService
	Users     UserService
	Mirror    MirrorService
	Assistant AssistantService
}

// NewServices creates all services
func NewServices(repos *repository.Repositories, up Upstreams, cfg *config.Config, log zerolog.Logger) *Services {
	mirrorSvc := newMirrorService(up.Preferences, &cfg.Mirror, log)
	tenderSvc := newTenderService(up.Tenders, &cfg.Listing, log)
	userSvc := newUserService(repos.UserRecords, up.Preferences, mirrorSvc, log)
	assistantSvc := newAssistantService(up.Chat, up.Speech, log)

	return &Services{
		Tenders:   tenderSvc,
		Users:     userSvc,
		Mirror:    mirrorSvc,
		Assistant: assistantSvc,
	}
}
