package service

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/tender-discovery-api/internal/config"
	"github.com/tender-discovery-api/internal/metrics"
	"github.com/tender-discovery-api/internal/models"
)

// mirrorService copies preference writes to the upstream preferences
// endpoint in the background. Delivery is best-effort: a failed snapshot is
// logged and counted, never retried.
type mirrorService struct {
	api     PreferencesAPI
	queue   chan models.PreferencesSnapshot
	log     zerolog.Logger
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.Mutex
	running bool
	// sem bounds concurrent upstream writes
	sem     chan struct{}
}

func newMirrorService(api PreferencesAPI, cfg *config.MirrorConfig, log zerolog.Logger) *mirrorService {
	workers := cfg.Workers
	if workers <= 0 {
		workers = min(max(runtime.NumCPU(), 2), 8)
	}
	size := max(cfg.QueueSize, 1)

	log.Info().Int("max_workers", workers).Int("queue_size", size).Msg("Initializing preference mirror worker pool")

	return &mirrorService{
		api:   api,
		queue: make(chan models.PreferencesSnapshot, size),
		log:   log.With().Str("service", "mirror").Logger(),
		sem:   make(chan struct{}, workers),
	}
}

// Enqueue queues a snapshot without blocking. It reports false when the
// queue is full and the snapshot was dropped.
func (s *mirrorService) Enqueue(snap models.PreferencesSnapshot) bool {
	select {
	case s.queue <- snap:
		metrics.MirrorQueueDepth.Set(float64(len(s.queue)))
		return true
	default:
		metrics.MirrorResultsTotal.WithLabelValues("dropped").Inc()
		return false
	}
}

// StartProcessor drains the queue until ctx is cancelled or StopProcessor
// is called. It blocks; run it in its own goroutine.
func (s *mirrorService) StartProcessor(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.ctx, s.cancel = context.WithCancel(ctx)
	runCtx := s.ctx
	s.mu.Unlock()

	s.log.Info().Msg("Preference mirror started")

	for {
		select {
		case <-runCtx.Done():
			s.log.Info().Int("pending", len(s.queue)).Msg("Preference mirror stopping")
			return
		case snap := <-s.queue:
			metrics.MirrorQueueDepth.Set(float64(len(s.queue)))
			// blocks while every worker is busy
			select {
			case s.sem <- struct{}{}:
			case <-runCtx.Done():
				metrics.MirrorResultsTotal.WithLabelValues("dropped").Inc()
				return
			}
			s.wg.Add(1)
			go s.deliver(runCtx, snap)
		}
	}
}

// StopProcessor stops the processor and waits for in-flight writes
func (s *mirrorService) StopProcessor() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}

	s.cancel()
	s.wg.Wait()
	s.running = false
	s.log.Info().Msg("Preference mirror stopped")
}

func (s *mirrorService) deliver(ctx context.Context, snap models.PreferencesSnapshot) {
	defer s.wg.Done()
	defer func() { <-s.sem }()

	defer func() {
		if r := recover(); r != nil {
			s.log.Error().
				Interface("panic", r).
				Str("email", snap.Email).
				Msg("Preference mirror panicked - recovered")
			metrics.MirrorResultsTotal.WithLabelValues("error").Inc()
		}
	}()

	if s.api == nil {
		metrics.MirrorResultsTotal.WithLabelValues("dropped").Inc()
		return
	}
	if err := s.api.Put(ctx, snap.Email, snap.AccessToken, snap.Preferences); err != nil {
		s.log.Warn().Err(err).Str("email", snap.Email).Msg("Failed to mirror preferences")
		metrics.MirrorResultsTotal.WithLabelValues("error").Inc()
		return
	}
	s.log.Debug().Str("email", snap.Email).Dur("lag", time.Since(snap.QueuedAt)).Msg("Mirrored preferences")
	metrics.MirrorResultsTotal.WithLabelValues("ok").Inc()
}
