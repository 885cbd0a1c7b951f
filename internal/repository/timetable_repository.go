package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-fee-api/internal/models"
)

// School weeks run Monday through Saturday.
var weekDays = []string{"MONDAY", "TUESDAY", "WEDNESDAY", "THURSDAY", "FRIDAY", "SATURDAY"}

// TimetableRepository loads weekly timetable snapshots for students.
type TimetableRepository struct {
	db *sqlx.DB
}

// NewTimetableRepository constructs the repository.
func NewTimetableRepository(db *sqlx.DB) *TimetableRepository {
	return &TimetableRepository{db: db}
}

type periodRow struct {
	DayIndex    int    `db:"day_index"`
	SubjectID   string `db:"subject_id"`
	SubjectName string `db:"subject_name"`
	TeacherID   string `db:"teacher_id"`
	TeacherName string `db:"teacher_name"`
	StartTime   string `db:"start_time"`
	EndTime     string `db:"end_time"`
}

// WeeklyByStudent assembles the student's week starting at weekStart (a Monday).
// Every school day is present in the result, dated, even when it has no periods.
func (r *TimetableRepository) WeeklyByStudent(ctx context.Context, studentID string, weekStart time.Time) (*models.WeeklyTimetable, error) {
	const teacherQuery = `SELECT t.id AS teacher_id, t.full_name AS teacher_name
        FROM students s
        JOIN class_sections cs ON cs.id = s.class_section_id
        JOIN teachers t ON t.id = cs.class_teacher_id
        WHERE s.id = $1`

	var classTeacher models.ClassTeacher
	if err := r.db.GetContext(ctx, &classTeacher, teacherQuery, studentID); err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("class teacher for %s: %w", studentID, err)
		}
	}

	const periodQuery = `SELECT p.day_index, p.subject_id, sub.name AS subject_name,
        p.teacher_id, t.full_name AS teacher_name, p.start_time, p.end_time
        FROM periods p
        JOIN students s ON s.class_section_id = p.class_section_id
        JOIN subjects sub ON sub.id = p.subject_id
        JOIN teachers t ON t.id = p.teacher_id
        WHERE s.id = $1
        ORDER BY p.day_index, p.start_time`

	var rows []periodRow
	if err := r.db.SelectContext(ctx, &rows, periodQuery, studentID); err != nil {
		return nil, fmt.Errorf("weekly periods for %s: %w", studentID, err)
	}

	days := make([]models.DayEntry, len(weekDays))
	for i, name := range weekDays {
		days[i] = models.DayEntry{
			Day:  name,
			Date: weekStart.AddDate(0, 0, i).Format("2006-01-02"),
		}
	}
	for _, row := range rows {
		if row.DayIndex < 0 || row.DayIndex >= len(days) {
			continue
		}
		days[row.DayIndex].Periods = append(days[row.DayIndex].Periods, models.Period{
			SubjectID:   row.SubjectID,
			SubjectName: row.SubjectName,
			TeacherID:   row.TeacherID,
			TeacherName: row.TeacherName,
			StartTime:   row.StartTime,
			EndTime:     row.EndTime,
		})
	}

	return &models.WeeklyTimetable{ClassTeacher: classTeacher, Days: days}, nil
}
