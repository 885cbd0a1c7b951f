package handler

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-fee-api/internal/dto"
	"github.com/noah-isme/sma-fee-api/internal/middleware"
	"github.com/noah-isme/sma-fee-api/internal/service"
	appErrors "github.com/noah-isme/sma-fee-api/pkg/errors"
	"github.com/noah-isme/sma-fee-api/pkg/response"
)

type overviewService interface {
	Overview(ctx context.Context) (*dto.FeeOverviewResponse, bool, error)
	ClassList(ctx context.Context) []dto.ClassSectionItem
}

type assignmentService interface {
	Roster(ctx context.Context, classSectionID string) ([]dto.StudentFeeStatusItem, error)
	StartDraft(ctx context.Context, req dto.CreateDraftRequest) (*dto.DraftResponse, error)
	Toggle(sessionID string, req dto.ToggleRowRequest) (*dto.DraftResponse, error)
	SetAmount(sessionID string, req dto.SetAmountRequest) (*dto.DraftResponse, error)
	Submit(ctx context.Context, sessionID string) (*dto.SubmitResponse, error)
	Cancel(sessionID string)
}

type exportService interface {
	RenderOverview(ctx context.Context, format service.ExportFormat) (*service.ExportResult, error)
}

// FeeHandler wires the fee overview and assignment workflow to HTTP endpoints.
type FeeHandler struct {
	overview    overviewService
	assignments assignmentService
	exports     exportService
}

// NewFeeHandler constructs the handler. The export service may be nil when
// exports are disabled.
func NewFeeHandler(overview overviewService, assignments assignmentService, exports exportService) *FeeHandler {
	return &FeeHandler{overview: overview, assignments: assignments, exports: exports}
}

// Overview godoc
// @Summary School-wide fee collection overview
// @Tags Fees
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /fees/overview [get]
func (h *FeeHandler) Overview(c *gin.Context) {
	summary, cacheHit, err := h.overview.Overview(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	response.JSON(c, http.StatusOK, summary, nil, middleware.ExtractMeta(c))
}

// ExportOverview godoc
// @Summary Download the fee overview as CSV or PDF
// @Tags Fees
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "csv or pdf (default csv)"
// @Success 200 {file} file
// @Router /fees/overview/export [get]
func (h *FeeHandler) ExportOverview(c *gin.Context) {
	if h.exports == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "exports are disabled"))
		return
	}
	format := service.ExportFormat(strings.ToLower(strings.TrimSpace(c.DefaultQuery("format", "csv"))))
	result, err := h.exports.RenderOverview(c.Request.Context(), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
	c.Data(http.StatusOK, result.ContentType, result.Content)
}

// Classes godoc
// @Summary List class sections for the class selector
// @Tags Fees
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /fees/classes [get]
func (h *FeeHandler) Classes(c *gin.Context) {
	items := h.overview.ClassList(c.Request.Context())
	response.JSON(c, http.StatusOK, items, nil)
}

// ClassRoster godoc
// @Summary List a class section's students with fee standing
// @Tags Fees
// @Produce json
// @Param id path string true "Class section ID"
// @Success 200 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /fees/classes/{id}/students [get]
func (h *FeeHandler) ClassRoster(c *gin.Context) {
	classSectionID := strings.TrimSpace(c.Param("id"))
	if classSectionID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "class section id is required"))
		return
	}
	items, err := h.assignments.Roster(c.Request.Context(), classSectionID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// StartDraft godoc
// @Summary Open a fee assignment review session
// @Tags Fees
// @Accept json
// @Produce json
// @Param payload body dto.CreateDraftRequest true "Charge definition"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /fees/assignments/draft [post]
func (h *FeeHandler) StartDraft(c *gin.Context) {
	var req dto.CreateDraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid charge definition payload"))
		return
	}
	draft, err := h.assignments.StartDraft(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, draft)
}

// ToggleRow godoc
// @Summary Toggle a student's inclusion in the draft
// @Tags Fees
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param payload body dto.ToggleRowRequest true "Student to toggle"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /fees/assignments/{id}/toggle [patch]
func (h *FeeHandler) ToggleRow(c *gin.Context) {
	var req dto.ToggleRowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid toggle payload"))
		return
	}
	draft, err := h.assignments.Toggle(c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, draft, nil)
}

// SetAmount godoc
// @Summary Edit a student's proposed amount in the draft
// @Tags Fees
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param payload body dto.SetAmountRequest true "Amount edit"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /fees/assignments/{id}/amount [patch]
func (h *FeeHandler) SetAmount(c *gin.Context) {
	var req dto.SetAmountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid amount payload"))
		return
	}
	draft, err := h.assignments.SetAmount(c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, draft, nil)
}

// Submit godoc
// @Summary Submit the compiled assignment batch
// @Tags Fees
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /fees/assignments/{id}/submit [post]
func (h *FeeHandler) Submit(c *gin.Context) {
	result, err := h.assignments.Submit(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Cancel godoc
// @Summary Discard a review session
// @Tags Fees
// @Param id path string true "Session ID"
// @Success 204 {object} response.Envelope
// @Router /fees/assignments/{id} [delete]
func (h *FeeHandler) Cancel(c *gin.Context) {
	h.assignments.Cancel(c.Param("id"))
	response.NoContent(c)
}
