package analytics

import (
	"context"
	"fmt"
	"strconv"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/jwalitptl/eventflow-api/internal/analytics"
	"github.com/jwalitptl/eventflow-api/internal/lifecycle"
	"github.com/jwalitptl/eventflow-api/internal/model"
	"github.com/jwalitptl/eventflow-api/internal/repository"
	"github.com/jwalitptl/eventflow-api/pkg/errors"
	"github.com/jwalitptl/eventflow-api/pkg/logger"
	"github.com/jwalitptl/eventflow-api/pkg/metrics"
)

const (
	minYear = 1970
	maxYear = 9999
)

// Period is a half-open [Start, End) range of creation times
type Period struct {
	Start time.Time
	End   time.Time
	Label string
}

// ResolvePeriod returns the calendar year, or one month of it when month is
// non-zero. Dates are UTC.
func ResolvePeriod(year, month int) (Period, error) {
	var fields []errors.FieldError
	if year < minYear || year > maxYear {
		fields = append(fields, errors.FieldError{Field: "year", Message: fmt.Sprintf("year must be between %d and %d", minYear, maxYear)})
	}
	if month < 0 || month > 12 {
		fields = append(fields, errors.FieldError{Field: "month", Message: "month must be between 1 and 12"})
	}
	if len(fields) > 0 {
		return Period{}, errors.Validation(fields...)
	}

	if month == 0 {
		start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
		return Period{Start: start, End: start.AddDate(1, 0, 0), Label: strconv.Itoa(year)}, nil
	}
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	return Period{Start: start, End: start.AddDate(0, 1, 0), Label: fmt.Sprintf("%d-%d", year, month)}, nil
}

type Service struct {
	repo    repository.EventRepository
	cache   *gocache.Cache
	logger  *logger.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewService(repo repository.EventRepository, ttl time.Duration, logger *logger.Logger, metrics *metrics.Metrics) *Service {
	return &Service{
		repo:    repo,
		cache:   gocache.New(ttl, 2*ttl),
		logger:  logger,
		metrics: metrics,
		now:     time.Now,
	}
}

// ComputeForPeriod builds the report for a year, or a single month when month is non-zero. Admin only.
func (s *Service) ComputeForPeriod(ctx context.Context, actor model.Actor, year, month int) (*model.AnalyticsReport, error) {
	if err := lifecycle.CanReview(actor); err != nil {
		return nil, err
	}
	period, err := ResolvePeriod(year, month)
	if err != nil {
		return nil, err
	}
	return s.Compute(ctx, period)
}

// Compute returns the report for period, served from cache until the TTL
// expires or Invalidate is called. The trailing trend window is the one in
// effect when the report was built. Callers get their own copy.
func (s *Service) Compute(ctx context.Context, period Period) (*model.AnalyticsReport, error) {
	if cached, ok := s.cache.Get(period.Label); ok {
		s.metrics.AnalyticsCache.WithLabelValues("hit").Inc()
		return cached.(*model.AnalyticsReport).Clone(), nil
	}
	s.metrics.AnalyticsCache.WithLabelValues("miss").Inc()

	periodRows, err := s.repo.ListAnalyticsRows(ctx, period.Start, period.End)
	if err != nil {
		return nil, errors.Internal(fmt.Errorf("failed to load analytics rows: %w", err))
	}

	now := s.now().UTC()
	trailingRows, err := s.repo.ListAnalyticsRows(ctx, now.Add(-analytics.TrendWindow), now)
	if err != nil {
		return nil, errors.Internal(fmt.Errorf("failed to load trend rows: %w", err))
	}

	report := analytics.Aggregate(period.Label, periodRows, trailingRows)
	s.cache.SetDefault(period.Label, report)
	s.logger.Debug("Analytics report computed", "period", period.Label, "events", report.TotalEvents)
	return report.Clone(), nil
}

// Invalidate drops every cached report
func (s *Service) Invalidate() {
	s.cache.Flush()
}
