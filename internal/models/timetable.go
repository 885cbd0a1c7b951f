package models

// Period is one taught slot inside a day of the weekly timetable.
type Period struct {
	SubjectID   string `db:"subject_id" json:"subject_id"`
	SubjectName string `db:"subject_name" json:"subject_name"`
	TeacherID   string `db:"teacher_id" json:"teacher_id"`
	TeacherName string `db:"teacher_name" json:"teacher_name"`
	StartTime   string `db:"start_time" json:"start_time"`
	EndTime     string `db:"end_time" json:"end_time"`
}

// DayEntry groups the periods of a single day. Date may be empty when the
// week is a template without concrete dates.
type DayEntry struct {
	Day     string   `json:"day"`
	Date    string   `json:"date"`
	Periods []Period `json:"periods"`
}

// ClassTeacher identifies the homeroom teacher attached to a weekly timetable.
type ClassTeacher struct {
	TeacherID   string `db:"teacher_id" json:"teacher_id"`
	TeacherName string `db:"teacher_name" json:"teacher_name"`
}

// WeeklyTimetable is the raw weekly snapshot for one student.
type WeeklyTimetable struct {
	ClassTeacher ClassTeacher `json:"class_teacher"`
	Days         []DayEntry   `json:"weekly_timetable"`
}

// UniqueSubject is a subject+teacher pairing deduplicated across a week.
type UniqueSubject struct {
	SubjectID   string `json:"subject_id"`
	SubjectName string `json:"subject_name"`
	TeacherID   string `json:"teacher_id"`
	TeacherName string `json:"teacher_name"`
}

// CalendarMark carries calendar decoration for a single date.
type CalendarMark struct {
	Marked   bool   `json:"marked"`
	DotColor string `json:"dot_color,omitempty"`
	Selected bool   `json:"selected"`
}
