package dto

import "github.com/noah-isme/sma-fee-api/internal/models"

// UniqueSubjectItem is a deduplicated subject+teacher pairing for one week.
type UniqueSubjectItem struct {
	SubjectID   string `json:"subjectId"`
	SubjectName string `json:"subjectName"`
	TeacherID   string `json:"teacherId"`
	TeacherName string `json:"teacherName"`
}

// WeeklyTimetableResponse wraps the raw week plus derived subject metadata.
type WeeklyTimetableResponse struct {
	ClassTeacher     models.ClassTeacher `json:"classTeacher"`
	Days             []models.DayEntry   `json:"weeklyTimetable"`
	Subjects         []UniqueSubjectItem `json:"subjects"`
	DefaultSubjectID string              `json:"defaultSubjectId,omitempty"`
}

// SubjectPeriodItem is a period tagged with the day it belongs to.
type SubjectPeriodItem struct {
	Day         string `json:"day"`
	SubjectID   string `json:"subjectId"`
	SubjectName string `json:"subjectName"`
	TeacherID   string `json:"teacherId"`
	TeacherName string `json:"teacherName"`
	StartTime   string `json:"startTime"`
	EndTime     string `json:"endTime"`
}

// SubjectScheduleResponse lists every period of one subject across the week.
type SubjectScheduleResponse struct {
	SubjectID string              `json:"subjectId"`
	Periods   []SubjectPeriodItem `json:"periods"`
}

// CalendarMarksResponse maps dates to their calendar decoration.
type CalendarMarksResponse struct {
	Marks map[string]models.CalendarMark `json:"marks"`
}

// TodayScheduleResponse lists the periods taught on the requested date.
type TodayScheduleResponse struct {
	Date    string          `json:"date"`
	Periods []models.Period `json:"periods"`
}
