package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-fee-api/internal/models"
)

type fakeTimetableRepo struct {
	week *models.WeeklyTimetable
	err  error
}

func (f *fakeTimetableRepo) WeeklyByStudent(context.Context, string, time.Time) (*models.WeeklyTimetable, error) {
	return f.week, f.err
}

func sampleWeek() *models.WeeklyTimetable {
	return &models.WeeklyTimetable{
		ClassTeacher: models.ClassTeacher{TeacherID: "t-2", TeacherName: "Ms Achieng"},
		Days: []models.DayEntry{
			{
				Day:  "MONDAY",
				Date: "2025-01-06",
				Periods: []models.Period{
					{SubjectID: "S1", SubjectName: "Mathematics", TeacherID: "T1", TeacherName: "Mr Okello", StartTime: "08:00", EndTime: "08:40"},
					{SubjectID: "S2", SubjectName: "English", TeacherID: "t-2", TeacherName: "Ms Achieng", StartTime: "08:40", EndTime: "09:20"},
				},
			},
			{
				Day:  "TUESDAY",
				Date: "2025-01-07",
				Periods: []models.Period{
					{SubjectID: "S1", SubjectName: "Mathematics", TeacherID: "T2", TeacherName: "Substitute", StartTime: "10:00", EndTime: "10:40"},
				},
			},
			{Day: "WEDNESDAY", Date: "2025-01-08"},
		},
	}
}

func TestUniqueSubjectsFirstWriteWins(t *testing.T) {
	days := []models.DayEntry{
		{Day: "MONDAY", Periods: []models.Period{
			{SubjectID: "S1", SubjectName: "Mathematics", TeacherID: "T1"},
		}},
		{Day: "TUESDAY", Periods: []models.Period{
			{SubjectID: "S1", SubjectName: "Maths (renamed)", TeacherID: "T2"},
		}},
	}

	subjects := UniqueSubjects(days)

	require.Len(t, subjects, 1)
	assert.Equal(t, "T1", subjects[0].TeacherID)
	assert.Equal(t, "Mathematics", subjects[0].SubjectName)
}

func TestUniqueSubjectsPreservesEncounterOrder(t *testing.T) {
	subjects := UniqueSubjects(sampleWeek().Days)

	require.Len(t, subjects, 2)
	assert.Equal(t, "S1", subjects[0].SubjectID)
	assert.Equal(t, "S2", subjects[1].SubjectID)
}

func TestDefaultSubjectPrefersClassTeacher(t *testing.T) {
	subjects := UniqueSubjects(sampleWeek().Days)

	def, ok := DefaultSubject(subjects, "t-2")
	require.True(t, ok)
	assert.Equal(t, "S2", def.SubjectID)
}

func TestDefaultSubjectFallsBackToFirst(t *testing.T) {
	subjects := UniqueSubjects(sampleWeek().Days)

	def, ok := DefaultSubject(subjects, "t-404")
	require.True(t, ok)
	assert.Equal(t, "S1", def.SubjectID)
}

func TestDefaultSubjectEmptyWeek(t *testing.T) {
	_, ok := DefaultSubject(nil, "t-2")
	assert.False(t, ok)
}

func TestScheduleForKeepsWeekOrderAndTagsDays(t *testing.T) {
	periods := ScheduleFor(sampleWeek().Days, "S1")

	require.Len(t, periods, 2)
	assert.Equal(t, "MONDAY", periods[0].Day)
	assert.Equal(t, "TUESDAY", periods[1].Day)
	assert.Equal(t, "08:00", periods[0].StartTime)
}

func TestScheduleForUnknownSubjectIsEmpty(t *testing.T) {
	periods := ScheduleFor(sampleWeek().Days, "S404")
	assert.NotNil(t, periods)
	assert.Empty(t, periods)
}

func TestMarksForDotsSubjectDaysAndSelectsToday(t *testing.T) {
	marks := MarksFor(sampleWeek().Days, "S1", "2025-01-08")

	require.Contains(t, marks, "2025-01-06")
	assert.True(t, marks["2025-01-06"].Marked)
	assert.False(t, marks["2025-01-06"].Selected)

	require.Contains(t, marks, "2025-01-08")
	assert.True(t, marks["2025-01-08"].Selected)
	assert.False(t, marks["2025-01-08"].Marked)
}

func TestMarksForMergesSelectedOntoDottedToday(t *testing.T) {
	marks := MarksFor(sampleWeek().Days, "S1", "2025-01-06")

	mark := marks["2025-01-06"]
	assert.True(t, mark.Marked)
	assert.True(t, mark.Selected)
	assert.NotEmpty(t, mark.DotColor)
}

func TestMarksForSkipsUndatedDays(t *testing.T) {
	days := []models.DayEntry{
		{Day: "MONDAY", Periods: []models.Period{{SubjectID: "S1"}}},
	}

	marks := MarksFor(days, "S1", "2025-01-06")

	require.Len(t, marks, 1)
	assert.True(t, marks["2025-01-06"].Selected)
}

func TestTodaysPeriodsMatchesDate(t *testing.T) {
	periods := TodaysPeriods(sampleWeek().Days, "2025-01-07")
	require.Len(t, periods, 1)
	assert.Equal(t, "S1", periods[0].SubjectID)
}

func TestTodaysPeriodsNoMatchingDay(t *testing.T) {
	periods := TodaysPeriods(sampleWeek().Days, "2025-01-12")
	assert.NotNil(t, periods)
	assert.Empty(t, periods)
}

func TestTimetableServiceWeeklyComposesSubjects(t *testing.T) {
	svc := NewTimetableService(&fakeTimetableRepo{week: sampleWeek()}, zap.NewNop())

	resp := svc.Weekly(context.Background(), "stu-1")

	require.Len(t, resp.Subjects, 2)
	assert.Equal(t, "S2", resp.DefaultSubjectID)
	assert.Equal(t, "t-2", resp.ClassTeacher.TeacherID)
}

func TestTimetableServiceFetchFailureYieldsEmptyState(t *testing.T) {
	svc := NewTimetableService(&fakeTimetableRepo{err: errors.New("db down")}, zap.NewNop())
	ctx := context.Background()

	weekly := svc.Weekly(ctx, "stu-1")
	assert.Empty(t, weekly.Subjects)
	assert.Empty(t, weekly.DefaultSubjectID)

	today := svc.Today(ctx, "stu-1", time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC))
	assert.Empty(t, today.Periods)

	marks := svc.CalendarMarks(ctx, "stu-1", "S1", time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC))
	require.Contains(t, marks.Marks, "2025-01-06")
	assert.True(t, marks.Marks["2025-01-06"].Selected)
}

func TestWeekStartOf(t *testing.T) {
	// Thursday 9 Jan 2025 -> Monday 6 Jan 2025.
	start := weekStartOf(time.Date(2025, 1, 9, 15, 30, 0, 0, time.UTC))
	assert.Equal(t, "2025-01-06", start.Format("2006-01-02"))

	// Sunday belongs to the week that began the previous Monday.
	start = weekStartOf(time.Date(2025, 1, 12, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, "2025-01-06", start.Format("2006-01-02"))

	// A Monday maps to itself.
	start = weekStartOf(time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, "2025-01-06", start.Format("2006-01-02"))
}
