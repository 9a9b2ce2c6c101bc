package services

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/zemedica/feereference/backend/internal/domain/entities"
	"github.com/zemedica/feereference/backend/internal/domain/providers"
)

// resourcePatterns maps an event resource to the response cache patterns it
// invalidates. Reference data changes rarely, so every write invalidates the
// whole resource family rather than tracking individual keys.
var resourcePatterns = map[string][]string{
	"procedure_code":          {"http:cache:*procedure-codes*"},
	"fee_schedule":            {"http:cache:*fee-schedules*"},
	"physician_fee_reference": {"http:cache:*physician-fee-references*"},
	"medication":              {"http:cache:*medications*"},
	"surgery_bundle":          {"http:cache:*surgery-bundles*"},
}

// CacheInvalidationService invalidates cached responses when reference data
// changes
type CacheInvalidationService struct {
	cache    providers.CacheProvider
	eventBus providers.EventBus
	ctx      context.Context
	cancel   context.CancelFunc
}

// NewCacheInvalidationService creates a new cache invalidation service
func NewCacheInvalidationService(cache providers.CacheProvider, eventBus providers.EventBus) *CacheInvalidationService {
	ctx, cancel := context.WithCancel(context.Background())
	return &CacheInvalidationService{
		cache:    cache,
		eventBus: eventBus,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start begins listening for reference change events and invalidating cache
func (s *CacheInvalidationService) Start() error {
	eventChan, err := s.eventBus.Subscribe(s.ctx, providers.ReferenceChangesChannel)
	if err != nil {
		return fmt.Errorf("failed to subscribe to reference changes: %w", err)
	}

	go s.processEvents(eventChan)
	log.Info().Msg("cache invalidation service started")
	return nil
}

// Stop stops the cache invalidation service
func (s *CacheInvalidationService) Stop() {
	s.cancel()
	log.Info().Msg("cache invalidation service stopped")
}

func (s *CacheInvalidationService) processEvents(eventChan <-chan *entities.ReferenceEvent) {
	for {
		select {
		case <-s.ctx.Done():
			return
		case event := <-eventChan:
			if event == nil {
				continue
			}
			s.handleEvent(event)
		}
	}
}

func (s *CacheInvalidationService) handleEvent(event *entities.ReferenceEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	log.Debug().
		Str("event_id", event.ID).
		Str("resource", event.Resource).
		Str("record_id", event.RecordID).
		Str("type", string(event.Type)).
		Msg("processing cache invalidation")

	patterns, ok := resourcePatterns[event.Resource]
	if !ok {
		log.Warn().Str("resource", event.Resource).Msg("no invalidation patterns for resource")
		return
	}

	for _, pattern := range patterns {
		if err := s.cache.DeletePattern(ctx, pattern); err != nil {
			log.Warn().Err(err).Str("pattern", pattern).Msg("failed to invalidate cache pattern")
			continue
		}
		log.Info().Str("pattern", pattern).Msg("invalidated cache pattern")
	}
}

// InvalidateAll clears every cached response. Used after bulk data loads.
func (s *CacheInvalidationService) InvalidateAll(ctx context.Context) error {
	if err := s.cache.DeletePattern(ctx, "http:cache:*"); err != nil {
		return fmt.Errorf("failed to invalidate response cache: %w", err)
	}
	log.Info().Msg("invalidated all cached responses")
	return nil
}

// InvalidateResource clears cached responses for a single resource family
func (s *CacheInvalidationService) InvalidateResource(ctx context.Context, resource string) error {
	patterns, ok := resourcePatterns[resource]
	if !ok {
		return fmt.Errorf("unknown resource: %s", resource)
	}
	for _, pattern := range patterns {
		if err := s.cache.DeletePattern(ctx, pattern); err != nil {
			return fmt.Errorf("failed to invalidate pattern %s: %w", pattern, err)
		}
	}
	return nil
}
