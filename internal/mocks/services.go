package mocks

import (
	"context"
	"net/http"
	"sync"

	"github.com/tender-discovery-api/internal/auth"
	"github.com/tender-discovery-api/internal/models"
	"github.com/tender-discovery-api/internal/normalize"
	"github.com/tender-discovery-api/internal/service"
	"github.com/tender-discovery-api/internal/upstream"
)

// MockTendersAPI is a mock implementation of TendersAPI
type MockTendersAPI struct {
	mu            sync.Mutex
	Tenders       []models.Tender
	Total         int
	DocumentsByID map[string][]models.Document
	ContactsByID  map[string][]models.Contact
	StatsResult   models.Stats
	SummaryText   string

	ListError      error
	GetError       error
	DocumentsError error
	ContactsError  error
	StatsError     error
	SummariseError error

	Queries   []upstream.ListQuery
	Summaries []any
}

// Verify interface compliance
var _ service.TendersAPI = (*MockTendersAPI)(nil)

func NewMockTendersAPI(tenders ...models.Tender) *MockTendersAPI {
	return &MockTendersAPI{
		Tenders:    tenders,
		Total:      len(tenders),
		DocumentsByID: make(map[string][]models.Document),
		ContactsByID:  make(map[string][]models.Contact),
	}
}

// List returns the requested page of Tenders
func (m *MockTendersAPI) List(ctx context.Context, q upstream.ListQuery) (models.RawPage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Queries = append(m.Queries, q)
	if m.ListError != nil {
		return models.RawPage{}, m.ListError
	}
	start := min(max(q.Page-1, 0)*q.PageSize, len(m.Tenders))
	end := min(start+q.PageSize, len(m.Tenders))
	items := make([]models.Tender, end-start)
	copy(items, m.Tenders[start:end])
	return models.RawPage{Items: items, Total: m.Total}, nil
}

func (m *MockTendersAPI) Get(ctx context.Context, id string) (models.Tender, error) {
	if m.GetError != nil {
		return models.Tender{}, m.GetError
	}
	for _, t := range m.Tenders {
		if t.ID == id {
			return t, nil
		}
	}
	return models.Tender{}, &upstream.Error{Op: "GET tenders/" + id, Status: http.StatusNotFound, Message: "not found"}
}

func (m *MockTendersAPI) Documents(ctx context.Context, id string) ([]models.Document, error) {
	if m.DocumentsError != nil {
		return nil, m.DocumentsError
	}
	return m.DocumentsByID[id], nil
}

func (m *MockTendersAPI) Contacts(ctx context.Context, id string) ([]models.Contact, error) {
	if m.ContactsError != nil {
		return nil, m.ContactsError
	}
	return m.ContactsByID[id], nil
}

func (m *MockTendersAPI) Stats(ctx context.Context, force bool) (models.Stats, error) {
	if m.StatsError != nil {
		return models.Stats{}, m.StatsError
	}
	return m.StatsResult, nil
}

func (m *MockTendersAPI) Sources(ctx context.Context) []models.Source {
	return normalize.DefaultSources()
}

func (m *MockTendersAPI) Summarise(ctx context.Context, payload any) (models.Summary, error) {
	m.mu.Lock()
	m.Summaries = append(m.Summaries, payload)
	m.mu.Unlock()
	if m.SummariseError != nil {
		return models.Summary{}, m.SummariseError
	}
	return models.Summary{Summary: m.SummaryText}, nil
}

// MockPreferencesAPI is a mock implementation of PreferencesAPI
type MockPreferencesAPI struct {
	mu       sync.Mutex
	Records  map[string]models.Preferences
	GetError error
	PutError error
	Puts     []models.PreferencesSnapshot
	// Done receives one value per Put call when non-nil
	Done chan struct{}
}

// Verify interface compliance
var _ service.PreferencesAPI = (*MockPreferencesAPI)(nil)

func NewMockPreferencesAPI() *MockPreferencesAPI {
	return &MockPreferencesAPI{Records: make(map[string]models.Preferences)}
}

func (m *MockPreferencesAPI) Get(ctx context.Context, email string) (models.Preferences, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetError != nil {
		return models.Preferences{}, false, m.GetError
	}
	p, ok := m.Records[email]
	if !ok {
		return models.DefaultPreferences(), false, nil
	}
	return p, true, nil
}

func (m *MockPreferencesAPI) Put(ctx context.Context, email, accessToken string, prefs models.Preferences) error {
	m.mu.Lock()
	m.Puts = append(m.Puts, models.PreferencesSnapshot{Email: email, AccessToken: accessToken, Preferences: prefs})
	err := m.PutError
	if err == nil {
		m.Records[email] = prefs
	}
	m.mu.Unlock()
	if m.Done != nil {
		m.Done <- struct{}{}
	}
	return err
}

// PutCount returns the number of Put calls so far
func (m *MockPreferencesAPI) PutCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Puts)
}

// MockChatAPI is a mock implementation of ChatAPI
type MockChatAPI struct {
	Reply string
	Err   error
	Asked []string
}

var _ service.ChatAPI = (*MockChatAPI)(nil)

func (m *MockChatAPI) Ask(ctx context.Context, message string, meta map[string]any) (string, error) {
	m.Asked = append(m.Asked, message)
	return m.Reply, m.Err
}

// MockSpeechAPI is a mock implementation of SpeechAPI
type MockSpeechAPI struct {
	Audio string
	Err   error
}

var _ service.SpeechAPI = (*MockSpeechAPI)(nil)

func (m *MockSpeechAPI) Synthesize(ctx context.Context, text string, opts map[string]any) (string, error) {
	return m.Audio, m.Err
}

// MockTenderService is a mock implementation of TenderService
type MockTenderService struct {
	ListFunc      func(ctx context.Context, sel models.Selection, saved map[string]bool) (*models.TenderPage, error)
	GetFunc       func(ctx context.Context, id string) (*models.TenderDetail, error)
	SummariseFunc func(ctx context.Context, id string) (*models.Summary, error)
	StatsResult   *models.Stats
	StatsError    error
	Selections    []models.Selection
	SavedSets     []map[string]bool
}

// Verify interface compliance
var _ service.TenderService = (*MockTenderService)(nil)

func NewMockTenderService() *MockTenderService {
	return &MockTenderService{StatsResult: &models.Stats{BySource: map[string]int{}, ByCategory: map[string]int{}}}
}

func (m *MockTenderService) List(ctx context.Context, sel models.Selection, saved map[string]bool) (*models.TenderPage, error) {
	m.Selections = append(m.Selections, sel)
	m.SavedSets = append(m.SavedSets, saved)
	if m.ListFunc != nil {
		return m.ListFunc(ctx, sel, saved)
	}
	return &models.TenderPage{Items: []models.TenderView{}, Page: 1, PageSize: 20, PageCount: 1, Pages: []models.PageItem{{Page: 1}}}, nil
}

func (m *MockTenderService) Get(ctx context.Context, id string) (*models.TenderDetail, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, id)
	}
	return nil, service.ErrNotFound
}

func (m *MockTenderService) Documents(ctx context.Context, id string) ([]models.Document, error) {
	return []models.Document{}, nil
}

func (m *MockTenderService) Contacts(ctx context.Context, id string) ([]models.Contact, error) {
	return []models.Contact{}, nil
}

func (m *MockTenderService) Stats(ctx context.Context, force bool) (*models.Stats, error) {
	return m.StatsResult, m.StatsError
}

func (m *MockTenderService) Sources(ctx context.Context) []models.Source {
	return normalize.DefaultSources()
}

func (m *MockTenderService) Categories() []normalize.Category {
	return normalize.Categories
}

func (m *MockTenderService) Summarise(ctx context.Context, id string) (*models.Summary, error) {
	if m.SummariseFunc != nil {
		return m.SummariseFunc(ctx, id)
	}
	return &models.Summary{Summary: "summary of " + id}, nil
}

// MockAssistantService is a mock implementation of AssistantService
type MockAssistantService struct {
	Reply string
	Audio string
	Err   error
}

var _ service.AssistantService = (*MockAssistantService)(nil)

func (m *MockAssistantService) Chat(ctx context.Context, message string, meta map[string]any) (string, error) {
	return m.Reply, m.Err
}

func (m *MockAssistantService) Speak(ctx context.Context, text string, opts map[string]any) (string, error) {
	return m.Audio, m.Err
}

// MockMirrorService is a mock implementation of MirrorService
type MockMirrorService struct {
	mu        sync.Mutex
	Snapshots []models.PreferencesSnapshot
	Full      bool
}

var _ service.MirrorService = (*MockMirrorService)(nil)

func (m *MockMirrorService) StartProcessor(ctx context.Context) {}

func (m *MockMirrorService) StopProcessor() {}

func (m *MockMirrorService) Enqueue(snap models.PreferencesSnapshot) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Full {
		return false
	}
	m.Snapshots = append(m.Snapshots, snap)
	return true
}

// Identity returns a test identity for email
func Identity(email string) auth.Identity {
	return auth.Identity{Email: email, AccessToken: "token-" + email}
}
