package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-fee-api/internal/dto"
	"github.com/noah-isme/sma-fee-api/internal/models"
)

const markDotColor = "blue"

type weeklyTimetableFetcher interface {
	WeeklyByStudent(ctx context.Context, studentID string, weekStart time.Time) (*models.WeeklyTimetable, error)
}

// TimetableService derives subject lists, per-subject schedules and calendar
// marking metadata from a student's weekly timetable. A fetch failure is a
// valid "no data yet" state: consumers get empty collections, never an error.
type TimetableService struct {
	repo   weeklyTimetableFetcher
	logger *zap.Logger
	now    func() time.Time
}

// NewTimetableService constructs the service.
func NewTimetableService(repo weeklyTimetableFetcher, logger *zap.Logger) *TimetableService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TimetableService{repo: repo, logger: logger, now: time.Now}
}

// Weekly returns the raw week together with the deduplicated subject list and
// the viewer's default subject.
func (s *TimetableService) Weekly(ctx context.Context, studentID string) *dto.WeeklyTimetableResponse {
	week := s.fetchWeek(ctx, studentID, s.now().UTC())

	subjects := UniqueSubjects(week.Days)
	items := make([]dto.UniqueSubjectItem, 0, len(subjects))
	for _, subject := range subjects {
		items = append(items, dto.UniqueSubjectItem{
			SubjectID:   subject.SubjectID,
			SubjectName: subject.SubjectName,
			TeacherID:   subject.TeacherID,
			TeacherName: subject.TeacherName,
		})
	}

	response := &dto.WeeklyTimetableResponse{
		ClassTeacher: week.ClassTeacher,
		Days:         week.Days,
		Subjects:     items,
	}
	if def, ok := DefaultSubject(subjects, week.ClassTeacher.TeacherID); ok {
		response.DefaultSubjectID = def.SubjectID
	}
	return response
}

// SubjectSchedule lists every period of one subject across the week.
func (s *TimetableService) SubjectSchedule(ctx context.Context, studentID, subjectID string) *dto.SubjectScheduleResponse {
	week := s.fetchWeek(ctx, studentID, s.now().UTC())
	return &dto.SubjectScheduleResponse{
		SubjectID: subjectID,
		Periods:   ScheduleFor(week.Days, subjectID),
	}
}

// CalendarMarks computes calendar decoration for the week plus the selected
// today marker.
func (s *TimetableService) CalendarMarks(ctx context.Context, studentID, subjectID string, today time.Time) *dto.CalendarMarksResponse {
	week := s.fetchWeek(ctx, studentID, today)
	return &dto.CalendarMarksResponse{
		Marks: MarksFor(week.Days, subjectID, today.Format("2006-01-02")),
	}
}

// Today returns the periods taught on the given date.
func (s *TimetableService) Today(ctx context.Context, studentID string, today time.Time) *dto.TodayScheduleResponse {
	week := s.fetchWeek(ctx, studentID, today)
	date := today.Format("2006-01-02")
	return &dto.TodayScheduleResponse{
		Date:    date,
		Periods: TodaysPeriods(week.Days, date),
	}
}

func (s *TimetableService) fetchWeek(ctx context.Context, studentID string, ref time.Time) *models.WeeklyTimetable {
	weekStart := weekStartOf(ref)
	week, err := s.repo.WeeklyByStudent(ctx, studentID, weekStart)
	if err != nil {
		s.logger.Error("weekly timetable fetch failed", zap.String("student_id", studentID), zap.Error(err))
		return &models.WeeklyTimetable{}
	}
	if week == nil {
		return &models.WeeklyTimetable{}
	}
	return week
}

// weekStartOf returns the Monday of the week containing t.
func weekStartOf(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return day.AddDate(0, 0, -offset)
}

// UniqueSubjects scans all periods across all days in encounter order. The
// first occurrence of a subject id wins; later occurrences are ignored even
// when their teacher differs.
func UniqueSubjects(days []models.DayEntry) []models.UniqueSubject {
	seen := make(map[string]struct{})
	var subjects []models.UniqueSubject
	for _, day := range days {
		for _, period := range day.Periods {
			if _, ok := seen[period.SubjectID]; ok {
				continue
			}
			seen[period.SubjectID] = struct{}{}
			subjects = append(subjects, models.UniqueSubject{
				SubjectID:   period.SubjectID,
				SubjectName: period.SubjectName,
				TeacherID:   period.TeacherID,
				TeacherName: period.TeacherName,
			})
		}
	}
	return subjects
}

// DefaultSubject picks the subject taught by the class teacher, falling back
// to the first subject. The second return is false when there are no subjects.
func DefaultSubject(subjects []models.UniqueSubject, classTeacherID string) (models.UniqueSubject, bool) {
	if len(subjects) == 0 {
		return models.UniqueSubject{}, false
	}
	if classTeacherID != "" {
		for _, subject := range subjects {
			if subject.TeacherID == classTeacherID {
				return subject, true
			}
		}
	}
	return subjects[0], true
}

// ScheduleFor flattens the week keeping only periods of the given subject,
// tagging each with its source day. Day ordering of the input is preserved.
func ScheduleFor(days []models.DayEntry, subjectID string) []dto.SubjectPeriodItem {
	items := make([]dto.SubjectPeriodItem, 0)
	for _, day := range days {
		for _, period := range day.Periods {
			if period.SubjectID != subjectID {
				continue
			}
			items = append(items, dto.SubjectPeriodItem{
				Day:         day.Day,
				SubjectID:   period.SubjectID,
				SubjectName: period.SubjectName,
				TeacherID:   period.TeacherID,
				TeacherName: period.TeacherName,
				StartTime:   period.StartTime,
				EndTime:     period.EndTime,
			})
		}
	}
	return items
}

// MarksFor dot-marks every dated day that teaches the subject, then merges a
// selected marker onto today without clobbering an existing dot.
func MarksFor(days []models.DayEntry, subjectID, today string) map[string]models.CalendarMark {
	marks := make(map[string]models.CalendarMark)
	for _, day := range days {
		if day.Date == "" {
			continue
		}
		for _, period := range day.Periods {
			if period.SubjectID == subjectID {
				marks[day.Date] = models.CalendarMark{Marked: true, DotColor: markDotColor}
				break
			}
		}
	}
	mark := marks[today]
	mark.Selected = true
	marks[today] = mark
	return marks
}

// TodaysPeriods returns the periods of the day entry whose date equals today.
func TodaysPeriods(days []models.DayEntry, today string) []models.Period {
	for _, day := range days {
		if day.Date == today {
			return day.Periods
		}
	}
	return []models.Period{}
}
