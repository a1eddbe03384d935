package upstream

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/tender-discovery-api/internal/config"
	"github.com/tender-discovery-api/internal/metrics"
	"github.com/tender-discovery-api/internal/models"
	"github.com/tender-discovery-api/internal/normalize"
	"golang.org/x/sync/singleflight"
)

// ErrNoSummaryRoute is returned when no summariser route exists upstream
var ErrNoSummaryRoute = errors.New("summary route not found on the tenders API")

// summaryRoutes are tried in order; a 404 moves to the next
var summaryRoutes = []string{"/summarise", "/ai/summarise", "/ai/summary", "/summary"}

// ListQuery is one tenders list request
type ListQuery struct {
	Page          int
	PageSize      int
	Query         string
	Sort          models.SortKey
	Source        string
	Category      string
	Location      string
	ClosingAfter  string
	ClosingBefore string
}

func (q ListQuery) values() url.Values {
	page := min(max(q.Page, 1), models.MaxPage)
	size := max(q.PageSize, 1)
	sort := q.Sort
	if sort == "" {
		sort = models.DefaultSort
	}

	v := url.Values{}
	v.Set("page", strconv.Itoa(page))
	v.Set("pageSize", strconv.Itoa(size))
	v.Set("limit", strconv.Itoa(size))
	v.Set("offset", strconv.Itoa((page-1)*size))
	v.Set("sort", string(sort))
	for key, val := range map[string]string{
		"q":              q.Query,
		"source":         q.Source,
		"category":       q.Category,
		"location":       q.Location,
		"closing_after":  q.ClosingAfter,
		"closing_before": q.ClosingBefore,
	} {
		if val != "" {
			v.Set(key, val)
		}
	}
	return v
}

// TendersClient reads the tenders API
type TendersClient struct {
	c    *client
	norm *normalize.Normalizer
	ttl  time.Duration
	now  func() time.Time

	sfg     singleflight.Group
	mu      sync.Mutex
	stats   *models.Stats
	statsAt time.Time
}

// NewTendersClient creates a tenders API client
func NewTendersClient(cfg *config.UpstreamConfig, norm *normalize.Normalizer, log zerolog.Logger) *TendersClient {
	return &TendersClient{
		c:    newClient("tenders", cfg.TendersBaseURL, cfg.Timeout, log),
		norm: norm,
		ttl:  cfg.StatsTTL,
		now:  time.Now,
	}
}

// List fetches one page of tenders
func (t *TendersClient) List(ctx context.Context, q ListQuery) (models.RawPage, error) {
	payload, err := t.c.getJSON(ctx, request{path: "/tenders", query: q.values()})
	if err != nil {
		return models.RawPage{}, err
	}
	return t.norm.List(payload), nil
}

// Get fetches a single tender
func (t *TendersClient) Get(ctx context.Context, id string) (models.Tender, error) {
	payload, err := t.c.getJSON(ctx, request{path: "/tenders/" + url.PathEscape(id)})
	if err != nil {
		return models.Tender{}, err
	}
	raw, ok := payload.(map[string]any)
	if !ok {
		return models.Tender{}, &Error{Op: "GET tenders/tenders/" + id, Status: http.StatusNotFound, Message: "no tender in response"}
	}
	tender := t.norm.Tender(raw)
	if tender.ID == "" {
		tender.ID = id
	}
	return tender, nil
}

// Documents lists the documents of a tender, falling back to the
// /documents?tenderId= route when the nested one fails.
func (t *TendersClient) Documents(ctx context.Context, id string) ([]models.Document, error) {
	if id == "" {
		return []models.Document{}, nil
	}
	payload, err := t.withFallback(ctx, id, "documents")
	if err != nil {
		return nil, err
	}
	return t.norm.Documents(payload), nil
}

// Contacts lists the contacts of a tender with the same fallback as
// Documents.
func (t *TendersClient) Contacts(ctx context.Context, id string) ([]models.Contact, error) {
	if id == "" {
		return []models.Contact{}, nil
	}
	payload, err := t.withFallback(ctx, id, "contacts")
	if err != nil {
		return nil, err
	}
	return t.norm.Contacts(payload), nil
}

func (t *TendersClient) withFallback(ctx context.Context, id, resource string) (any, error) {
	payload, err := t.c.getJSON(ctx, request{path: "/tenders/" + url.PathEscape(id) + "/" + resource})
	if err == nil {
		return payload, nil
	}
	if ctx.Err() != nil {
		return nil, err
	}
	t.c.log.Debug().Err(err).Str("tender_id", id).Str("resource", resource).Msg("Nested route failed, trying fallback")
	return t.c.getJSON(ctx, request{path: "/" + resource, query: url.Values{"tenderId": {id}}})
}

// Stats returns the catalogue statistics, served from memory for the
// configured TTL unless force is set. Concurrent refreshes share one
// upstream call.
func (t *TendersClient) Stats(ctx context.Context, force bool) (models.Stats, error) {
	if !force {
		if cached, ok := t.cachedStats(); ok {
			metrics.StatsCacheHitsTotal.Inc()
			return cached, nil
		}
	}

	// the refresh is shared, so one caller going away must not fail the rest
	shared := context.WithoutCancel(ctx)
	v, err, _ := t.sfg.Do("stats", func() (interface{}, error) {
		// another caller may have refreshed it meanwhile
		if !force {
			if cached, ok := t.cachedStats(); ok {
				return cached, nil
			}
		}
		payload, err := t.c.getJSON(shared, request{path: "/stats"})
		if err != nil {
			return nil, err
		}
		stats := t.norm.Stats(payload)

		t.mu.Lock()
		t.stats = &stats
		t.statsAt = t.now()
		t.mu.Unlock()
		return stats, nil
	})
	if err != nil {
		return models.Stats{}, err
	}
	return v.(models.Stats), nil
}

func (t *TendersClient) cachedStats() (models.Stats, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stats == nil || t.now().Sub(t.statsAt) >= t.ttl {
		return models.Stats{}, false
	}
	return *t.stats, true
}

// Sources lists the publishers. Failures fall back to the known four.
func (t *TendersClient) Sources(ctx context.Context) []models.Source {
	payload, err := t.c.getJSON(ctx, request{path: "/sources"})
	if err != nil {
		t.c.log.Debug().Err(err).Msg("Sources endpoint unavailable, using defaults")
		return normalize.DefaultSources()
	}
	return t.norm.Sources(payload)
}

// Summarise posts payload to the first summariser route that exists
func (t *TendersClient) Summarise(ctx context.Context, payload any) (models.Summary, error) {
	for _, path := range summaryRoutes {
		data, err := t.c.do(ctx, request{method: http.MethodPost, path: path, body: payload})
		if StatusOf(err) == http.StatusNotFound {
			continue
		}
		if err != nil {
			return models.Summary{}, fmt.Errorf("summarise via %s: %w", path, err)
		}
		v, err := decode(data)
		if err != nil {
			// a 2xx plain-text body is the summary itself
			return models.Summary{Summary: string(data)}, nil
		}
		return t.norm.Summary(v), nil
	}
	return models.Summary{}, ErrNoSummaryRoute
}
