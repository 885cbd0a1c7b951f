package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-fee-api/internal/models"
	appErrors "github.com/noah-isme/sma-fee-api/pkg/errors"
)

type stubCacheRepo struct {
	store map[string][]byte
}

func (s *stubCacheRepo) Get(_ context.Context, key string, dest interface{}) error {
	if s.store == nil {
		return appErrors.ErrCacheMiss
	}
	raw, ok := s.store[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (s *stubCacheRepo) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if s.store == nil {
		s.store = map[string][]byte{}
	}
	s.store[key] = raw
	return nil
}

func (s *stubCacheRepo) DeleteByPattern(_ context.Context, _ string) error {
	s.store = nil
	return nil
}

type fakeFeeStatsRepo struct {
	stats      []models.ClassFeeStat
	classes    []models.ClassSection
	statsErr   error
	classesErr error
	statsCalls int
}

func (f *fakeFeeStatsRepo) AdminFeeStats(context.Context) ([]models.ClassFeeStat, error) {
	f.statsCalls++
	return f.stats, f.statsErr
}

func (f *fakeFeeStatsRepo) ClassList(context.Context) ([]models.ClassSection, error) {
	return f.classes, f.classesErr
}

func ptr(v float64) *float64 { return &v }

func TestAggregateSortsNumericThenAlphabetic(t *testing.T) {
	stats := []models.ClassFeeStat{
		{ClassSectionID: "1", ClassName: "Class 2", Section: "A"},
		{ClassSectionID: "2", ClassName: "Class 10", Section: "B"},
		{ClassSectionID: "3", ClassName: "Class 2", Section: "B"},
		{ClassSectionID: "4", ClassName: "ClassX", Section: "A"},
	}

	overview := Aggregate(stats)

	order := make([]string, 0, len(overview.Classes))
	for _, class := range overview.Classes {
		order = append(order, class.ClassName+"-"+class.Section)
	}
	assert.Equal(t, []string{"ClassX-A", "Class 2-A", "Class 2-B", "Class 10-B"}, order)
}

func TestAggregateSortIsStable(t *testing.T) {
	stats := []models.ClassFeeStat{
		{ClassSectionID: "first", ClassName: "Class 5", Section: "A"},
		{ClassSectionID: "second", ClassName: "Grade 5", Section: "A"},
	}

	overview := Aggregate(stats)

	require.Len(t, overview.Classes, 2)
	assert.Equal(t, "first", overview.Classes[0].ClassSectionID)
	assert.Equal(t, "second", overview.Classes[1].ClassSectionID)
}

func TestAggregateTotalsTreatMissingAsZero(t *testing.T) {
	stats := []models.ClassFeeStat{
		{ClassName: "Class 1", Section: "A", TotalExpectedFee: ptr(5000), TotalCollectedFee: ptr(3000), TotalPendingFee: ptr(2000)},
		{ClassName: "Class 2", Section: "A", TotalExpectedFee: nil, TotalCollectedFee: nil, TotalPendingFee: nil},
		{ClassName: "Class 3", Section: "A", TotalExpectedFee: ptr(1000), TotalCollectedFee: ptr(1000), TotalPendingFee: ptr(0)},
	}

	overview := Aggregate(stats)

	assert.Equal(t, 6000.0, overview.Totals.Expected)
	assert.Equal(t, 4000.0, overview.Totals.Collected)
	assert.Equal(t, 2000.0, overview.Totals.Pending)
	assert.Equal(t, overview.Totals.Expected, overview.Totals.Collected+overview.Totals.Pending)
}

func TestAggregateDoesNotMutateInput(t *testing.T) {
	stats := []models.ClassFeeStat{
		{ClassSectionID: "1", ClassName: "Class 9", Section: "B"},
		{ClassSectionID: "2", ClassName: "Class 1", Section: "A"},
	}

	_ = Aggregate(stats)

	assert.Equal(t, "1", stats[0].ClassSectionID)
	assert.Equal(t, "2", stats[1].ClassSectionID)
}

func TestOverviewServiceCachesResult(t *testing.T) {
	repo := &fakeFeeStatsRepo{stats: []models.ClassFeeStat{
		{ClassName: "Class 1", Section: "A", TotalExpectedFee: ptr(100), TotalCollectedFee: ptr(60), TotalPendingFee: ptr(40)},
	}}
	cacheSvc := NewCacheService(&stubCacheRepo{}, nil, time.Minute, zap.NewNop(), true)
	svc := NewOverviewService(repo, cacheSvc, zap.NewNop(), time.Minute)

	ctx := context.Background()
	first, hit, err := svc.Overview(ctx)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 100.0, first.Totals.Expected)

	second, hit2, err := svc.Overview(ctx)
	require.NoError(t, err)
	assert.True(t, hit2)
	assert.Equal(t, first.Totals, second.Totals)
	assert.Equal(t, 1, repo.statsCalls)
}

func TestOverviewServicePropagatesRepoError(t *testing.T) {
	repo := &fakeFeeStatsRepo{statsErr: errors.New("db down")}
	svc := NewOverviewService(repo, nil, zap.NewNop(), time.Minute)

	_, _, err := svc.Overview(context.Background())
	require.Error(t, err)
}

func TestOverviewServiceClassListDegradesToEmpty(t *testing.T) {
	repo := &fakeFeeStatsRepo{classesErr: errors.New("db down")}
	svc := NewOverviewService(repo, nil, zap.NewNop(), time.Minute)

	items := svc.ClassList(context.Background())
	assert.NotNil(t, items)
	assert.Empty(t, items)
}
