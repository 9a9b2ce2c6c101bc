package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/zemedica/feereference/backend/internal/domain/providers"
	"github.com/zemedica/feereference/backend/internal/domain/repositories"
)

// CacheWarmingService pre-loads frequently requested reference data into
// cache so the first lookups after a deploy or invalidation stay fast
type CacheWarmingService struct {
	procedureRepo repositories.ProcedureCodeRepository
	scheduleRepo  repositories.FeeScheduleRepository
	cache         providers.CacheProvider
}

// NewCacheWarmingService creates a new cache warming service
func NewCacheWarmingService(
	procedureRepo repositories.ProcedureCodeRepository,
	scheduleRepo repositories.FeeScheduleRepository,
	cache providers.CacheProvider,
) *CacheWarmingService {
	return &CacheWarmingService{
		procedureRepo: procedureRepo,
		scheduleRepo:  scheduleRepo,
		cache:         cache,
	}
}

// WarmCache warms the cache with frequently accessed reference data
func (s *CacheWarmingService) WarmCache(ctx context.Context) error {
	log.Info().Msg("starting cache warming")

	if err := s.warmProcedureCodes(ctx); err != nil {
		log.Warn().Err(err).Msg("failed to warm procedure codes")
	}
	if err := s.warmActiveSchedules(ctx); err != nil {
		log.Warn().Err(err).Msg("failed to warm fee schedules")
	}

	log.Info().Msg("cache warming completed")
	return nil
}

// warmProcedureCodes caches individual records for the first pages of codes,
// keyed by code value the way the lookup endpoint reads them
func (s *CacheWarmingService) warmProcedureCodes(ctx context.Context) error {
	codes, err := s.procedureRepo.List(ctx, repositories.ProcedureCodeFilter{
		Limit:  200,
		Offset: 0,
	})
	if err != nil {
		return fmt.Errorf("failed to fetch procedure codes: %w", err)
	}

	items := make(map[string][]byte)
	for _, code := range codes {
		data, err := json.Marshal(code)
		if err != nil {
			log.Warn().Err(err).Str("code", code.Code).Msg("failed to marshal procedure code")
			continue
		}
		items[fmt.Sprintf("procedure_code:%s", code.Code)] = data
	}

	if len(items) > 0 {
		// Reference data: one hour TTL, refreshed by periodic warming
		if err := s.cache.SetMulti(ctx, items, 3600); err != nil {
			return fmt.Errorf("failed to cache procedure codes: %w", err)
		}
		log.Info().Int("count", len(items)).Msg("warmed procedure code cache")
	}

	return nil
}

// warmActiveSchedules caches the active fee schedule list
func (s *CacheWarmingService) warmActiveSchedules(ctx context.Context) error {
	active := true
	schedules, err := s.scheduleRepo.List(ctx, repositories.FeeScheduleFilter{
		IsActive: &active,
		Limit:    50,
	})
	if err != nil {
		return fmt.Errorf("failed to fetch fee schedules: %w", err)
	}

	data, err := json.Marshal(schedules)
	if err != nil {
		return fmt.Errorf("failed to marshal fee schedules: %w", err)
	}

	if err := s.cache.Set(ctx, "fee_schedules:active", data, 3600); err != nil {
		return fmt.Errorf("failed to cache fee schedules: %w", err)
	}

	log.Info().Int("count", len(schedules)).Msg("warmed fee schedule cache")
	return nil
}

// StartPeriodicWarming starts a background goroutine that periodically warms
// the cache until ctx is cancelled
func (s *CacheWarmingService) StartPeriodicWarming(ctx context.Context, interval time.Duration) {
	if err := s.WarmCache(ctx); err != nil {
		log.Warn().Err(err).Msg("initial cache warming failed")
	}

	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("stopping cache warming service")
				return
			case <-ticker.C:
				if err := s.WarmCache(context.Background()); err != nil {
					log.Warn().Err(err).Msg("periodic cache warming failed")
				}
			}
		}
	}()
	log.Info().Dur("interval", interval).Msg("started periodic cache warming")
}
