package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/tender-discovery-api/internal/api"
	"github.com/tender-discovery-api/internal/auth"
	"github.com/tender-discovery-api/internal/config"
	"github.com/tender-discovery-api/internal/mocks"
	"github.com/tender-discovery-api/internal/models"
	"github.com/tender-discovery-api/internal/repository"
	"github.com/tender-discovery-api/internal/service"
	"github.com/tender-discovery-api/internal/upstream"
)

const testSecret = "test-secret"

type testEnv struct {
	router  *gin.Engine
	tenders *mocks.MockTendersAPI
	repo    *mocks.MockUserRecordRepository
	chat    *mocks.MockChatAPI
}

func testConfig() *config.Config {
	return &config.Config{
		Server:  config.ServerConfig{Port: "8080"},
		Listing: config.ListingConfig{PageSize: 20, FetchChunk: 400, Timezone: "UTC", DetailCacheSize: 100},
		Auth:    config.AuthConfig{JWTSecret: testSecret, DevHeader: true},
		Mirror:  config.MirrorConfig{Workers: 1, QueueSize: 16},
	}
}

func sampleTenders(n int) []models.Tender {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]models.Tender, n)
	for i := range out {
		published := base.Add(time.Duration(i) * time.Hour)
		out[i] = models.Tender{
			ID:          fmt.Sprintf("t%d", i),
			Title:       "Security services",
			Buyer:       "Eskom Holdings",
			Source:      models.SourceEskom,
			Category:    "Security",
			Location:    "Gauteng",
			PublishedAt: &published,
		}
	}
	return out
}

func setupTestRouter(records ...models.Tender) *testEnv {
	gin.SetMode(gin.TestMode)

	env := &testEnv{
		tenders: mocks.NewMockTendersAPI(records...),
		repo:    mocks.NewMockUserRecordRepository(),
		chat:    &mocks.MockChatAPI{Reply: "Try the Eskom tenders."},
	}
	cfg := testConfig()
	services := service.NewServices(
		&repository.Repositories{UserRecords: env.repo},
		service.Upstreams{
			Tenders:     env.tenders,
			Preferences: mocks.NewMockPreferencesAPI(),
			Chat:        env.chat,
			Speech:      &mocks.MockSpeechAPI{Audio: "SUQz"},
		},
		cfg,
		zerolog.Nop(),
	)
	env.router = api.NewRouter(services, cfg, zerolog.Nop())
	return env
}

func (e *testEnv) do(method, path string, body any, header map[string]string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

var asLebo = map[string]string{auth.DevHeader: "lebo@example.com"}

func TestHealthEndpoint(t *testing.T) {
	env := setupTestRouter()

	w := env.do("GET", "/health", nil, nil)
	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	var response map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &response)

	if response["status"] != "healthy" {
		t.Errorf("Expected status 'healthy', got %v", response["status"])
	}
	if response["service"] != "tender-discovery-api" {
		t.Errorf("Expected service name, got %v", response["service"])
	}
}

func TestHealthEndpoint_Unhealthy(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := testConfig()
	services := service.NewServices(
		&repository.Repositories{UserRecords: mocks.NewMockUserRecordRepository()},
		service.Upstreams{Tenders: mocks.NewMockTendersAPI()},
		cfg,
		zerolog.Nop(),
	)
	router := api.NewRouter(services, cfg, zerolog.Nop(), func(ctx context.Context) error {
		return fmt.Errorf("database unreachable")
	})

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected status 503, got %d", w.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	env := setupTestRouter()

	w := env.do("GET", "/metrics", nil, nil)
	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "stats_cache_hits_total") {
		t.Error("Expected service collectors in metrics output")
	}
}

func TestListTenders(t *testing.T) {
	env := setupTestRouter(sampleTenders(200)...)

	w := env.do("GET", "/v1/tenders?q=security&page=5", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var page struct {
		Items     []map[string]any `json:"items"`
		Total     int              `json:"total"`
		Page      int              `json:"page"`
		PageCount int              `json:"page_count"`
		Pages     []any            `json:"pages"`
	}
	json.Unmarshal(w.Body.Bytes(), &page)

	if page.Total != 200 || page.PageCount != 10 || page.Page != 5 {
		t.Errorf("Unexpected page: total=%d count=%d page=%d", page.Total, page.PageCount, page.Page)
	}
	if len(page.Items) != 20 {
		t.Errorf("Expected 20 items, got %d", len(page.Items))
	}
	want := []any{float64(1), "…", float64(4), float64(5), float64(6), "…", float64(10)}
	if fmt.Sprint(page.Pages) != fmt.Sprint(want) {
		t.Errorf("Expected pages %v, got %v", want, page.Pages)
	}
	if page.Items[0]["source_label"] != "ESKOM" {
		t.Errorf("Expected presented rows, got %v", page.Items[0])
	}
}

func TestListTenders_ValidationErrors(t *testing.T) {
	env := setupTestRouter()

	tests := []struct {
		name           string
		url            string
		expectedStatus int
		expectedError  string
	}{
		{
			name:           "invalid sort",
			url:            "/v1/tenders?sort=title",
			expectedStatus: http.StatusBadRequest,
			expectedError:  "validation failed",
		},
		{
			name:           "inverted closing range",
			url:            "/v1/tenders?closing_after=2024-05-01&closing_before=2024-04-01",
			expectedStatus: http.StatusBadRequest,
			expectedError:  "validation failed",
		},
		{
			name:           "non-numeric page",
			url:            "/v1/tenders?page=two",
			expectedStatus: http.StatusBadRequest,
			expectedError:  "invalid query parameters",
		},
		{
			name:           "page size too large",
			url:            "/v1/tenders?page_size=1000",
			expectedStatus: http.StatusBadRequest,
			expectedError:  "validation failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do("GET", tt.url, nil, nil)
			if w.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d", tt.expectedStatus, w.Code)
			}

			var response map[string]interface{}
			json.Unmarshal(w.Body.Bytes(), &response)

			errMsg, _ := response["error"].(string)
			if !strings.Contains(errMsg, tt.expectedError) {
				t.Errorf("Expected error containing '%s', got '%s'", tt.expectedError, errMsg)
			}
		})
	}
}

func TestListTenders_UpstreamErrors(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		expectedStatus int
	}{
		{"timeout", fmt.Errorf("tenders: %w", upstream.ErrTimeout), http.StatusGatewayTimeout},
		{"bad gateway", &upstream.Error{Op: "GET tenders/tenders", Status: 500, Message: "boom"}, http.StatusBadGateway},
		{"not configured", fmt.Errorf("tenders: %w", upstream.ErrNotConfigured), http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := setupTestRouter()
			env.tenders.ListError = tt.err

			w := env.do("GET", "/v1/tenders", nil, nil)
			if w.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d", tt.expectedStatus, w.Code)
			}
		})
	}
}

func TestSavedView(t *testing.T) {
	env := setupTestRouter(sampleTenders(30)...)

	for _, id := range []string{"t3", "t17"} {
		if w := env.do("PUT", "/v1/me/saved/"+id, nil, asLebo); w.Code != http.StatusOK {
			t.Fatalf("Expected status 200 saving %s, got %d", id, w.Code)
		}
	}

	w := env.do("GET", "/v1/tenders?view=saved&sort=published_at", nil, asLebo)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var page models.TenderPage
	json.Unmarshal(w.Body.Bytes(), &page)
	if page.Total != 2 || page.Items[0].ID != "t3" {
		t.Errorf("Unexpected saved view: total=%d items=%v", page.Total, page.Items)
	}

	// anonymous callers have nothing saved
	w = env.do("GET", "/v1/tenders?view=saved", nil, nil)
	json.Unmarshal(w.Body.Bytes(), &page)
	if page.Total != 0 {
		t.Errorf("Expected empty anonymous saved view, got %d", page.Total)
	}
}

func TestGetTender(t *testing.T) {
	env := setupTestRouter(sampleTenders(2)...)
	env.tenders.ContactsByID["t1"] = []models.Contact{{ID: "c1", Name: "Thandi"}}

	w := env.do("GET", "/v1/tenders/t1", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var detail models.TenderDetail
	json.Unmarshal(w.Body.Bytes(), &detail)
	if detail.ID != "t1" || len(detail.Contacts) != 1 {
		t.Errorf("Unexpected detail %+v", detail)
	}

	if w := env.do("GET", "/v1/tenders/missing", nil, nil); w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestSummarise_NoRoute(t *testing.T) {
	env := setupTestRouter(sampleTenders(1)...)
	env.tenders.SummariseError = upstream.ErrNoSummaryRoute

	w := env.do("POST", "/v1/tenders/t0/summary", nil, nil)
	if w.Code != http.StatusNotImplemented {
		t.Errorf("Expected status 501, got %d", w.Code)
	}
}

func TestMe_RequiresIdentity(t *testing.T) {
	env := setupTestRouter()

	if w := env.do("GET", "/v1/me/preferences", nil, nil); w.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d", w.Code)
	}

	w := env.do("GET", "/v1/me/preferences", nil, map[string]string{"Authorization": "Bearer not-a-jwt"})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401 for bad token, got %d", w.Code)
	}
}

func TestPreferences_BearerToken(t *testing.T) {
	env := setupTestRouter()
	token, err := auth.NewVerifier(&config.AuthConfig{JWTSecret: testSecret}).Sign("a@b.com", time.Hour)
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}
	header := map[string]string{"Authorization": "Bearer " + token}

	w := env.do("PUT", "/v1/me/preferences", models.Preferences{
		Name:          "Ayanda",
		Notifications: models.NotifyDaily,
		Categories:    []string{"Security"},
	}, header)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	w = env.do("GET", "/v1/me/preferences", nil, header)
	var prefs models.Preferences
	json.Unmarshal(w.Body.Bytes(), &prefs)
	if prefs.Name != "Ayanda" || prefs.Notifications != models.NotifyDaily {
		t.Errorf("Unexpected preferences %+v", prefs)
	}
}

func TestPreferences_Invalid(t *testing.T) {
	env := setupTestRouter()

	w := env.do("PUT", "/v1/me/preferences", map[string]any{
		"notifications": "hourly",
		"categories":    []string{"Gardening"},
	}, asLebo)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("Expected status 400, got %d", w.Code)
	}

	var response struct {
		Details []map[string]any `json:"details"`
	}
	json.Unmarshal(w.Body.Bytes(), &response)
	if len(response.Details) != 2 {
		t.Errorf("Expected 2 validation details, got %v", response.Details)
	}
	if env.repo.PutCalls != 0 {
		t.Errorf("Invalid preferences should not be stored")
	}
}

func TestSavedSearches(t *testing.T) {
	records := sampleTenders(50)
	for i := 0; i < 30; i++ {
		records[i].Location = "Limpopo"
	}
	env := setupTestRouter(records...)

	w := env.do("POST", "/v1/me/searches", map[string]any{
		"name":    "Limpopo security",
		"filters": map[string]any{"location": "limpopo", "page": 3},
	}, asLebo)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", w.Code, w.Body.String())
	}
	var item models.SavedSearch
	json.Unmarshal(w.Body.Bytes(), &item)
	if item.ID == "" || item.Filters.Page != 0 {
		t.Errorf("Unexpected saved search %+v", item)
	}

	w = env.do("GET", "/v1/me/searches/"+item.ID+"/tenders", nil, asLebo)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var page models.TenderPage
	json.Unmarshal(w.Body.Bytes(), &page)
	if page.Total != 30 || page.Page != 1 || len(page.Items) != 20 {
		t.Errorf("Unexpected run: total=%d page=%d items=%d", page.Total, page.Page, len(page.Items))
	}

	w = env.do("GET", "/v1/me/searches/"+item.ID+"/tenders?page=2", nil, asLebo)
	json.Unmarshal(w.Body.Bytes(), &page)
	if page.Page != 2 || len(page.Items) != 10 {
		t.Errorf("Expected page 2 with 10 items, got page=%d items=%d", page.Page, len(page.Items))
	}

	if w := env.do("DELETE", "/v1/me/searches/"+item.ID, nil, asLebo); w.Code != http.StatusNoContent {
		t.Errorf("Expected status 204, got %d", w.Code)
	}
	if w := env.do("GET", "/v1/me/searches/"+item.ID+"/tenders", nil, asLebo); w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404 after delete, got %d", w.Code)
	}
}

func TestSavedSearch_MissingName(t *testing.T) {
	env := setupTestRouter()

	w := env.do("POST", "/v1/me/searches", map[string]any{"filters": map[string]any{}}, asLebo)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
}

func TestAssistant(t *testing.T) {
	env := setupTestRouter()

	w := env.do("POST", "/v1/assistant/chat", map[string]any{"message": "security tenders?"}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var reply map[string]string
	json.Unmarshal(w.Body.Bytes(), &reply)
	if reply["reply"] != "Try the Eskom tenders." {
		t.Errorf("Unexpected reply %v", reply)
	}

	if w := env.do("POST", "/v1/assistant/chat", map[string]any{"message": "  "}, nil); w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for blank message, got %d", w.Code)
	}

	w = env.do("POST", "/v1/assistant/speech", map[string]any{"text": "hello"}, nil)
	var audio map[string]string
	json.Unmarshal(w.Body.Bytes(), &audio)
	if w.Code != http.StatusOK || audio["audioBase64"] != "SUQz" {
		t.Errorf("Unexpected speech response %d %v", w.Code, audio)
	}
}

func TestCORSPreflight(t *testing.T) {
	env := setupTestRouter()

	w := env.do("OPTIONS", "/v1/tenders", nil, nil)
	if w.Code != http.StatusNoContent {
		t.Errorf("Expected status 204, got %d", w.Code)
	}
	if !strings.Contains(w.Header().Get("Access-Control-Allow-Headers"), "Authorization") {
		t.Error("Expected Authorization in allowed headers")
	}
}

func TestUserRecordsPersist(t *testing.T) {
	env := setupTestRouter()

	env.do("PUT", "/v1/me/saved/t1", nil, asLebo)
	if n, _ := env.repo.Count(context.Background()); n != 1 {
		t.Fatalf("Expected 1 stored record, got %d", n)
	}

	if w := env.do("DELETE", "/v1/me", nil, asLebo); w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404 for DELETE /v1/me, got %d", w.Code)
	}
	if n, _ := env.repo.Count(context.Background()); n != 1 {
		t.Errorf("Expected the stored record to remain, got %d", n)
	}
}
