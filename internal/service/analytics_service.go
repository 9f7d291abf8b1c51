package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/uni-iro/mou-registry-api/internal/models"
)

// AnalyticsRepository describes the persistence layer required by AnalyticsService.
type AnalyticsRepository interface {
	CountAll(ctx context.Context) (int, error)
	CountCompleted(ctx context.Context) (int, error)
	CountActive(ctx context.Context, now time.Time) (int, error)
	CountPending(ctx context.Context) (int, error)
	CountExpiringBetween(ctx context.Context, after, before time.Time) (int, error)
}

const analyticsOverviewKey = "analytics:overview"

// analyticsExpiringWindow bounds the dashboard's expiring counter.
const analyticsExpiringWindow = 30 * 24 * time.Hour

// AnalyticsService computes register-wide dashboard counters with cache
// integration.
type AnalyticsService struct {
	repo    AnalyticsRepository
	cache   *CacheService
	metrics *MetricsService
	logger  *zap.Logger
}

// NewAnalyticsService constructs an analytics service.
func NewAnalyticsService(repo AnalyticsRepository, cache *CacheService, metrics *MetricsService, logger *zap.Logger) *AnalyticsService {
	return &AnalyticsService{repo: repo, cache: cache, metrics: metrics, logger: logger}
}

// Overview returns the dashboard counters. The boolean indicates whether the
// payload originated from cache.
func (s *AnalyticsService) Overview(ctx context.Context) (models.DashboardAnalytics, bool, error) {
	var cached models.DashboardAnalytics
	if s.cache != nil {
		if hit, err := s.cache.Get(ctx, analyticsOverviewKey, &cached); err != nil {
			return models.DashboardAnalytics{}, false, fmt.Errorf("get analytics cache: %w", err)
		} else if hit {
			return cached, true, nil
		}
	}

	now := time.Now().UTC()
	start := time.Now()

	total, err := s.repo.CountAll(ctx)
	if err != nil {
		return models.DashboardAnalytics{}, false, err
	}
	active, err := s.repo.CountActive(ctx, now)
	if err != nil {
		return models.DashboardAnalytics{}, false, err
	}
	pending, err := s.repo.CountPending(ctx)
	if err != nil {
		return models.DashboardAnalytics{}, false, err
	}
	expiring, err := s.repo.CountExpiringBetween(ctx, now, now.Add(analyticsExpiringWindow))
	if err != nil {
		return models.DashboardAnalytics{}, false, err
	}
	completed, err := s.repo.CountCompleted(ctx)
	if err != nil {
		return models.DashboardAnalytics{}, false, err
	}

	if s.metrics != nil {
		s.metrics.ObserveDBQuery("analytics_overview", time.Since(start))
	}

	overview := models.DashboardAnalytics{
		TotalSubmissions:   total,
		ActiveSubmissions:  active,
		PendingSubmissions: pending,
		ExpiringMOUs:       expiring,
	}
	if total > 0 {
		overview.ApprovalRate = float64(completed) / float64(total) * 100
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, analyticsOverviewKey, overview, 0); err != nil && s.logger != nil {
			s.logger.Warn("cache analytics overview", zap.Error(err))
		}
	}
	return overview, false, nil
}

// SystemMetrics returns system instrumentation snapshot.
func (s *AnalyticsService) SystemMetrics() models.AnalyticsSystemMetrics {
	if s.metrics == nil {
		return models.AnalyticsSystemMetrics{}
	}
	return s.metrics.Snapshot()
}
