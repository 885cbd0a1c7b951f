package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-fee-api/internal/dto"
	appErrors "github.com/noah-isme/sma-fee-api/pkg/errors"
	"github.com/noah-isme/sma-fee-api/pkg/response"
)

type timetableService interface {
	Weekly(ctx context.Context, studentID string) *dto.WeeklyTimetableResponse
	SubjectSchedule(ctx context.Context, studentID, subjectID string) *dto.SubjectScheduleResponse
	CalendarMarks(ctx context.Context, studentID, subjectID string, today time.Time) *dto.CalendarMarksResponse
	Today(ctx context.Context, studentID string, today time.Time) *dto.TodayScheduleResponse
}

// TimetableHandler wires the student timetable views to HTTP endpoints. The
// authenticated student is always the viewer; there is no cross-student access.
type TimetableHandler struct {
	service timetableService
	now     func() time.Time
}

// NewTimetableHandler constructs the handler.
func NewTimetableHandler(svc timetableService) *TimetableHandler {
	return &TimetableHandler{service: svc, now: time.Now}
}

// Weekly godoc
// @Summary Weekly timetable with derived subject list
// @Tags Timetable
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /timetable/weekly [get]
func (h *TimetableHandler) Weekly(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	resp := h.service.Weekly(c.Request.Context(), claims.UserID)
	response.JSON(c, http.StatusOK, resp, nil)
}

// SubjectSchedule godoc
// @Summary All periods of one subject across the week
// @Tags Timetable
// @Produce json
// @Param subjectId path string true "Subject ID"
// @Success 200 {object} response.Envelope
// @Router /timetable/subjects/{subjectId} [get]
func (h *TimetableHandler) SubjectSchedule(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	subjectID := strings.TrimSpace(c.Param("subjectId"))
	if subjectID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "subject id is required"))
		return
	}
	resp := h.service.SubjectSchedule(c.Request.Context(), claims.UserID, subjectID)
	response.JSON(c, http.StatusOK, resp, nil)
}

// CalendarMarks godoc
// @Summary Calendar decoration for a subject's teaching days
// @Tags Timetable
// @Produce json
// @Param subjectId query string true "Subject ID"
// @Param date query string false "Reference date (YYYY-MM-DD). Defaults to today"
// @Success 200 {object} response.Envelope
// @Router /timetable/marks [get]
func (h *TimetableHandler) CalendarMarks(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	subjectID := strings.TrimSpace(c.Query("subjectId"))
	if subjectID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "subjectId is required"))
		return
	}
	date, err := h.refDate(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	resp := h.service.CalendarMarks(c.Request.Context(), claims.UserID, subjectID, date)
	response.JSON(c, http.StatusOK, resp, nil)
}

// Today godoc
// @Summary Periods taught on the given date
// @Tags Timetable
// @Produce json
// @Param date query string false "Date (YYYY-MM-DD). Defaults to today"
// @Success 200 {object} response.Envelope
// @Router /timetable/today [get]
func (h *TimetableHandler) Today(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	date, err := h.refDate(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	resp := h.service.Today(c.Request.Context(), claims.UserID, date)
	response.JSON(c, http.StatusOK, resp, nil)
}

func (h *TimetableHandler) refDate(c *gin.Context) (time.Time, error) {
	raw := strings.TrimSpace(c.Query("date"))
	if raw == "" {
		return h.now().UTC(), nil
	}
	parsed, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, appErrors.Clone(appErrors.ErrValidation, "invalid date format, expected YYYY-MM-DD")
	}
	return parsed, nil
}
