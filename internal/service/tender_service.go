package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/tender-discovery-api/internal/cache"
	"github.com/tender-discovery-api/internal/config"
	"github.com/tender-discovery-api/internal/filter"
	"github.com/tender-discovery-api/internal/metrics"
	"github.com/tender-discovery-api/internal/models"
	"github.com/tender-discovery-api/internal/normalize"
	"github.com/tender-discovery-api/internal/upstream"
	"golang.org/x/sync/errgroup"
)

// tenderService is the concrete implementation of TenderService
type tenderService struct {
	api      TendersAPI
	pipeline filter.Pipeline
	chunk    int
	seen     *cache.LRU[string, models.Tender]
	now      func() time.Time
	log      zerolog.Logger
}

func newTenderService(api TendersAPI, cfg *config.ListingConfig, log zerolog.Logger) *tenderService {
	return &tenderService{
		api: api,
		pipeline: filter.Pipeline{
			Location: cfg.Location(),
			PageSize: cfg.PageSize,
		},
		chunk: max(cfg.FetchChunk, 1),
		seen:  cache.New[string, models.Tender](max(cfg.DetailCacheSize, 1)),
		now:   time.Now,
		log:   log.With().Str("service", "tender").Logger(),
	}
}

// List returns one visible page. A restricted selection is filtered over a
// single large chunk, so matches beyond the chunk are not seen.
func (s *tenderService) List(ctx context.Context, sel models.Selection, saved map[string]bool) (*models.TenderPage, error) {
	size := sel.PageSize
	if size <= 0 {
		size = s.pipeline.PageSize
	}
	restricted := sel.Restricted()

	q := upstream.ListQuery{
		Page:     max(sel.Page, 1),
		PageSize: size,
		Query:    strings.TrimSpace(sel.Query),
		Sort:     sel.Sort,
	}
	mode := "passthrough"
	if restricted {
		q.Page = 1
		q.PageSize = s.chunk
		mode = "local"
	}

	raw, err := s.api.List(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to list tenders: %w", err)
	}
	for _, t := range raw.Items {
		if t.ID != "" {
			s.seen.Add(t.ID, t)
		}
	}

	metrics.PipelineRunsTotal.WithLabelValues(mode).Inc()
	metrics.PipelineRecords.Observe(float64(len(raw.Items)))

	res := s.pipeline.Run(filter.Input{
		Records:       raw.Items,
		UpstreamTotal: raw.Total,
		Selection:     sel,
		SavedIDs:      saved,
	})

	now := s.now()
	page := &models.TenderPage{
		Items:     make([]models.TenderView, 0, len(res.Items)),
		Total:     res.Total,
		Page:      res.Page,
		PageSize:  res.PageSize,
		PageCount: res.PageCount,
		Pages:     res.Pages,
	}
	for _, t := range res.Items {
		page.Items = append(page.Items, normalize.Present(t, now))
	}

	s.log.Debug().
		Str("mode", mode).
		Int("fetched", len(raw.Items)).
		Int("total", res.Total).
		Int("page", res.Page).
		Msg("Listed tenders")
	return page, nil
}

// Get fetches a tender with its documents and contacts concurrently.
// Document and contact failures degrade to empty lists; a failed tender
// read falls back to the last list row seen for id.
func (s *tenderService) Get(ctx context.Context, id string) (*models.TenderDetail, error) {
	var (
		tender    models.Tender
		documents []models.Document
		contacts  []models.Contact
	)

	var g errgroup.Group
	g.Go(func() error {
		var err error
		tender, err = s.api.Get(ctx, id)
		return err
	})
	g.Go(func() error {
		docs, err := s.api.Documents(ctx, id)
		if err != nil {
			s.log.Warn().Err(err).Str("tender_id", id).Msg("Failed to fetch documents")
			docs = nil
		}
		documents = docs
		return nil
	})
	g.Go(func() error {
		cs, err := s.api.Contacts(ctx, id)
		if err != nil {
			s.log.Warn().Err(err).Str("tender_id", id).Msg("Failed to fetch contacts")
			cs = nil
		}
		contacts = cs
		return nil
	})

	if err := g.Wait(); err != nil {
		cached, ok := s.seen.Get(id)
		if !ok {
			if upstream.StatusOf(err) == http.StatusNotFound {
				return nil, ErrNotFound
			}
			return nil, fmt.Errorf("failed to get tender %s: %w", id, err)
		}
		s.log.Warn().Err(err).Str("tender_id", id).Msg("Serving tender from list cache")
		metrics.DetailCacheFallbackTotal.Inc()
		tender = cached
	}

	if documents == nil {
		documents = []models.Document{}
	}
	if contacts == nil {
		contacts = []models.Contact{}
	}
	return &models.TenderDetail{
		TenderView: normalize.Present(tender, s.now()),
		Documents:  documents,
		Contacts:   contacts,
	}, nil
}

// Documents lists the documents of a tender
func (s *tenderService) Documents(ctx context.Context, id string) ([]models.Document, error) {
	docs, err := s.api.Documents(ctx, id)
	if err != nil {
		return nil, s.notFound(err, "documents", id)
	}
	return docs, nil
}

// Contacts lists the contacts of a tender
func (s *tenderService) Contacts(ctx context.Context, id string) ([]models.Contact, error) {
	cs, err := s.api.Contacts(ctx, id)
	if err != nil {
		return nil, s.notFound(err, "contacts", id)
	}
	return cs, nil
}

func (s *tenderService) notFound(err error, what, id string) error {
	if upstream.StatusOf(err) == http.StatusNotFound {
		return ErrNotFound
	}
	return fmt.Errorf("failed to get %s of %s: %w", what, id, err)
}

// Stats returns catalogue statistics
func (s *tenderService) Stats(ctx context.Context, force bool) (*models.Stats, error) {
	stats, err := s.api.Stats(ctx, force)
	if err != nil {
		return nil, fmt.Errorf("failed to get stats: %w", err)
	}
	return &stats, nil
}

// Sources lists the publishers
func (s *tenderService) Sources(ctx context.Context) []models.Source {
	return s.api.Sources(ctx)
}

// Categories lists the canonical categories
func (s *tenderService) Categories() []normalize.Category {
	return normalize.Categories
}

type summaryRequest struct {
	TenderID    string     `json:"tenderId"`
	Title       string     `json:"title"`
	Buyer       string     `json:"buyer"`
	Category    string     `json:"category"`
	Description string     `json:"description"`
	ClosingAt   *time.Time `json:"closingDate"`
}

// Summarise asks the upstream summariser for a plain-language summary
func (s *tenderService) Summarise(ctx context.Context, id string) (*models.Summary, error) {
	tender, ok := s.seen.Get(id)
	if !ok {
		t, err := s.api.Get(ctx, id)
		if err != nil {
			return nil, s.notFound(err, "tender", id)
		}
		tender = t
	}

	sum, err := s.api.Summarise(ctx, summaryRequest{
		TenderID:    id,
		Title:       tender.Title,
		Buyer:       tender.Buyer,
		Category:    tender.Category,
		Description: tender.Description,
		ClosingAt:   tender.ClosingAt,
	})
	if err != nil {
		if errors.Is(err, upstream.ErrNoSummaryRoute) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to summarise %s: %w", id, err)
	}
	return &sum, nil
}
