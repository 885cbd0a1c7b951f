package service

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-fee-api/internal/dto"
	"github.com/noah-isme/sma-fee-api/internal/models"
)

const overviewCacheKey = "fees:overview"

type feeStatsRepository interface {
	AdminFeeStats(ctx context.Context) ([]models.ClassFeeStat, error)
	ClassList(ctx context.Context) ([]models.ClassSection, error)
}

// OverviewService turns raw per-class fee statistics into the sorted, summed
// school overview.
type OverviewService struct {
	repo   feeStatsRepository
	cache  *CacheService
	logger *zap.Logger
	ttl    time.Duration
}

// NewOverviewService constructs the service.
func NewOverviewService(repo feeStatsRepository, cache *CacheService, logger *zap.Logger, ttl time.Duration) *OverviewService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &OverviewService{repo: repo, cache: cache, logger: logger, ttl: ttl}
}

// Overview returns school totals plus the ordered class list and indicates
// cache utilisation.
func (s *OverviewService) Overview(ctx context.Context) (*dto.FeeOverviewResponse, bool, error) {
	if s.cache != nil {
		var cached dto.FeeOverviewResponse
		hit, err := s.cache.Get(ctx, overviewCacheKey, &cached)
		if err == nil && hit {
			return &cached, true, nil
		}
	}

	stats, err := s.repo.AdminFeeStats(ctx)
	if err != nil {
		return nil, false, err
	}

	overview := Aggregate(stats)
	if s.cache != nil {
		if err := s.cache.Set(ctx, overviewCacheKey, overview, s.ttl); err != nil {
			s.logger.Warn("overview cache write failed", zap.Error(err))
		}
	}
	return overview, false, nil
}

// ClassList returns the class selector entries. A repository failure degrades
// to an empty list so the selector can still render.
func (s *OverviewService) ClassList(ctx context.Context) []dto.ClassSectionItem {
	classes, err := s.repo.ClassList(ctx)
	if err != nil {
		s.logger.Warn("class list fetch failed", zap.Error(err))
		return []dto.ClassSectionItem{}
	}
	items := make([]dto.ClassSectionItem, 0, len(classes))
	for _, class := range classes {
		items = append(items, dto.ClassSectionItem{
			ID:        class.ID,
			ClassName: class.ClassName,
			Section:   class.Section,
		})
	}
	return items
}

// Aggregate sums the fee columns across every class and orders the classes by
// the number embedded in the class name, then by section. The input slice is
// left untouched.
func Aggregate(stats []models.ClassFeeStat) *dto.FeeOverviewResponse {
	overview := &dto.FeeOverviewResponse{Classes: make([]dto.ClassFeeOverviewItem, 0, len(stats))}

	for _, stat := range stats {
		expected := deref(stat.TotalExpectedFee)
		collected := deref(stat.TotalCollectedFee)
		pending := deref(stat.TotalPendingFee)

		overview.Totals.Expected += expected
		overview.Totals.Collected += collected
		overview.Totals.Pending += pending

		overview.Classes = append(overview.Classes, dto.ClassFeeOverviewItem{
			ClassSectionID: stat.ClassSectionID,
			ClassName:      stat.ClassName,
			Section:        stat.Section,
			Expected:       expected,
			Collected:      collected,
			Pending:        pending,
		})
	}

	sort.SliceStable(overview.Classes, func(i, j int) bool {
		left, right := overview.Classes[i], overview.Classes[j]
		leftNum, rightNum := classNumber(left.ClassName), classNumber(right.ClassName)
		if leftNum != rightNum {
			return leftNum < rightNum
		}
		return left.Section < right.Section
	})

	return overview
}

// classNumber extracts the integer embedded in a class name. Names without
// digits sort as 0.
func classNumber(name string) int {
	var digits strings.Builder
	for _, r := range name {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	if digits.Len() == 0 {
		return 0
	}
	value, err := strconv.Atoi(digits.String())
	if err != nil {
		return 0
	}
	return value
}

func deref(value *float64) float64 {
	if value == nil {
		return 0
	}
	return *value
}
