package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

func newTimetableRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestTimetableRepositoryWeeklyByStudent(t *testing.T) {
	db, mock, cleanup := newTimetableRepoMock(t)
	defer cleanup()
	repo := NewTimetableRepository(db)

	teacherRows := sqlmock.NewRows([]string{"teacher_id", "teacher_name"}).
		AddRow("t-1", "Mr Okello")
	mock.ExpectQuery("SELECT t.id AS teacher_id").
		WithArgs("stu-1").
		WillReturnRows(teacherRows)

	periodRows := sqlmock.NewRows([]string{"day_index", "subject_id", "subject_name", "teacher_id", "teacher_name", "start_time", "end_time"}).
		AddRow(0, "sub-1", "Mathematics", "t-1", "Mr Okello", "08:00", "08:40").
		AddRow(0, "sub-2", "English", "t-2", "Ms Achieng", "08:40", "09:20").
		AddRow(2, "sub-1", "Mathematics", "t-1", "Mr Okello", "10:00", "10:40")
	mock.ExpectQuery("SELECT p.day_index").
		WithArgs("stu-1").
		WillReturnRows(periodRows)

	weekStart := time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC) // a Monday
	week, err := repo.WeeklyByStudent(context.Background(), "stu-1", weekStart)
	require.NoError(t, err)
	require.Equal(t, "t-1", week.ClassTeacher.TeacherID)
	require.Len(t, week.Days, 6)
	require.Equal(t, "MONDAY", week.Days[0].Day)
	require.Equal(t, "2025-01-06", week.Days[0].Date)
	require.Len(t, week.Days[0].Periods, 2)
	require.Equal(t, "2025-01-08", week.Days[2].Date)
	require.Len(t, week.Days[2].Periods, 1)
	require.Empty(t, week.Days[1].Periods)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableRepositoryWeeklyByStudentNoClassTeacher(t *testing.T) {
	db, mock, cleanup := newTimetableRepoMock(t)
	defer cleanup()
	repo := NewTimetableRepository(db)

	mock.ExpectQuery("SELECT t.id AS teacher_id").
		WithArgs("stu-9").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery("SELECT p.day_index").
		WithArgs("stu-9").
		WillReturnRows(sqlmock.NewRows([]string{"day_index", "subject_id", "subject_name", "teacher_id", "teacher_name", "start_time", "end_time"}))

	weekStart := time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)
	week, err := repo.WeeklyByStudent(context.Background(), "stu-9", weekStart)
	require.NoError(t, err)
	require.Empty(t, week.ClassTeacher.TeacherID)
	require.Len(t, week.Days, 6)
	require.NoError(t, mock.ExpectationsWereMet())
}
