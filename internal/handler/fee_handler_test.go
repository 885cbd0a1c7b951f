package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-fee-api/internal/dto"
	"github.com/noah-isme/sma-fee-api/internal/service"
	appErrors "github.com/noah-isme/sma-fee-api/pkg/errors"
)

type fakeOverviewSrv struct {
	resp *dto.FeeOverviewResponse
	hit  bool
	err  error
}

func (f *fakeOverviewSrv) Overview(context.Context) (*dto.FeeOverviewResponse, bool, error) {
	return f.resp, f.hit, f.err
}

func (f *fakeOverviewSrv) ClassList(context.Context) []dto.ClassSectionItem {
	return []dto.ClassSectionItem{{ID: "cs-1", ClassName: "Class 1", Section: "A"}}
}

type fakeAssignmentSrv struct {
	roster      []dto.StudentFeeStatusItem
	rosterErr   error
	draft       *dto.DraftResponse
	draftErr    error
	submit      *dto.SubmitResponse
	submitErr   error
	cancelledID string
	lastSession string
}

func (f *fakeAssignmentSrv) Roster(context.Context, string) ([]dto.StudentFeeStatusItem, error) {
	return f.roster, f.rosterErr
}

func (f *fakeAssignmentSrv) StartDraft(_ context.Context, req dto.CreateDraftRequest) (*dto.DraftResponse, error) {
	return f.draft, f.draftErr
}

func (f *fakeAssignmentSrv) Toggle(sessionID string, _ dto.ToggleRowRequest) (*dto.DraftResponse, error) {
	f.lastSession = sessionID
	return f.draft, f.draftErr
}

func (f *fakeAssignmentSrv) SetAmount(sessionID string, _ dto.SetAmountRequest) (*dto.DraftResponse, error) {
	f.lastSession = sessionID
	return f.draft, f.draftErr
}

func (f *fakeAssignmentSrv) Submit(_ context.Context, sessionID string) (*dto.SubmitResponse, error) {
	f.lastSession = sessionID
	return f.submit, f.submitErr
}

func (f *fakeAssignmentSrv) Cancel(sessionID string) {
	f.cancelledID = sessionID
}

type fakeExportSrv struct {
	result *service.ExportResult
	err    error
}

func (f *fakeExportSrv) RenderOverview(context.Context, service.ExportFormat) (*service.ExportResult, error) {
	return f.result, f.err
}

func newFeeContext(t *testing.T, method, target string, body string) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	c.Request = httptest.NewRequest(method, target, reader)
	if body != "" {
		c.Request.Header.Set("Content-Type", "application/json")
	}
	return c, rec
}

func TestFeeHandlerOverviewSuccess(t *testing.T) {
	handler := NewFeeHandler(&fakeOverviewSrv{
		resp: &dto.FeeOverviewResponse{Totals: dto.FeeTotals{Expected: 100}},
		hit:  true,
	}, &fakeAssignmentSrv{}, nil)

	c, rec := newFeeContext(t, http.MethodGet, "/fees/overview", "")
	handler.Overview(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, true, envelope.Meta["cache_hit"])
}

func TestFeeHandlerOverviewError(t *testing.T) {
	handler := NewFeeHandler(&fakeOverviewSrv{err: appErrors.ErrInternal}, &fakeAssignmentSrv{}, nil)

	c, rec := newFeeContext(t, http.MethodGet, "/fees/overview", "")
	handler.Overview(c)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestFeeHandlerExportDisabled(t *testing.T) {
	handler := NewFeeHandler(&fakeOverviewSrv{}, &fakeAssignmentSrv{}, nil)

	c, rec := newFeeContext(t, http.MethodGet, "/fees/overview/export", "")
	handler.ExportOverview(c)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestFeeHandlerExportStreamsFile(t *testing.T) {
	handler := NewFeeHandler(&fakeOverviewSrv{}, &fakeAssignmentSrv{}, &fakeExportSrv{
		result: &service.ExportResult{Content: []byte("a,b\n"), ContentType: "text/csv", Filename: "fee-overview.csv"},
	})

	c, rec := newFeeContext(t, http.MethodGet, "/fees/overview/export?format=csv", "")
	handler.ExportOverview(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "fee-overview.csv")
	assert.Equal(t, "a,b\n", rec.Body.String())
}

func TestFeeHandlerClassRosterRequiresID(t *testing.T) {
	handler := NewFeeHandler(&fakeOverviewSrv{}, &fakeAssignmentSrv{}, nil)

	c, rec := newFeeContext(t, http.MethodGet, "/fees/classes//students", "")
	handler.ClassRoster(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFeeHandlerClassRosterSuccess(t *testing.T) {
	handler := NewFeeHandler(&fakeOverviewSrv{}, &fakeAssignmentSrv{
		roster: []dto.StudentFeeStatusItem{{StudentID: "stu-1", StudentName: "Asha", TotalFee: 5000, Status: "UNPAID"}},
	}, nil)

	c, rec := newFeeContext(t, http.MethodGet, "/fees/classes/cs-1/students", "")
	c.Params = gin.Params{{Key: "id", Value: "cs-1"}}
	handler.ClassRoster(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "stu-1")
}

func TestFeeHandlerStartDraftRejectsMalformedJSON(t *testing.T) {
	handler := NewFeeHandler(&fakeOverviewSrv{}, &fakeAssignmentSrv{}, nil)

	c, rec := newFeeContext(t, http.MethodPost, "/fees/assignments/draft", "{not json")
	handler.StartDraft(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFeeHandlerStartDraftSuccess(t *testing.T) {
	handler := NewFeeHandler(&fakeOverviewSrv{}, &fakeAssignmentSrv{
		draft: &dto.DraftResponse{SessionID: "sess-1", FeeName: "Lab Fee"},
	}, nil)

	payload := `{"feeName":"Lab Fee","classSectionId":"cs-1","mode":"FIXED","magnitude":"2000","dueDate":"2025-02-01"}`
	c, rec := newFeeContext(t, http.MethodPost, "/fees/assignments/draft", payload)
	handler.StartDraft(c)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), "sess-1")
}

func TestFeeHandlerToggleRoutesSessionID(t *testing.T) {
	srv := &fakeAssignmentSrv{draft: &dto.DraftResponse{SessionID: "sess-1"}}
	handler := NewFeeHandler(&fakeOverviewSrv{}, srv, nil)

	c, rec := newFeeContext(t, http.MethodPatch, "/fees/assignments/sess-1/toggle", `{"studentId":"stu-1"}`)
	c.Params = gin.Params{{Key: "id", Value: "sess-1"}}
	handler.ToggleRow(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "sess-1", srv.lastSession)
}

func TestFeeHandlerSubmitMapsWorkflowErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"session expired", appErrors.ErrSessionNotFound, http.StatusNotFound},
		{"nothing selected", appErrors.ErrNoStudentsSelected, http.StatusUnprocessableEntity},
		{"double submit", appErrors.ErrSubmitInFlight, http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewFeeHandler(&fakeOverviewSrv{}, &fakeAssignmentSrv{submitErr: tt.err}, nil)

			c, rec := newFeeContext(t, http.MethodPost, "/fees/assignments/sess-1/submit", "")
			c.Params = gin.Params{{Key: "id", Value: "sess-1"}}
			handler.Submit(c)

			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestFeeHandlerSubmitSuccess(t *testing.T) {
	handler := NewFeeHandler(&fakeOverviewSrv{}, &fakeAssignmentSrv{
		submit: &dto.SubmitResponse{SubmittedCount: 3},
	}, nil)

	c, rec := newFeeContext(t, http.MethodPost, "/fees/assignments/sess-1/submit", "")
	c.Params = gin.Params{{Key: "id", Value: "sess-1"}}
	handler.Submit(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"submittedCount":3`)
}

func TestFeeHandlerCancelIsNoContent(t *testing.T) {
	srv := &fakeAssignmentSrv{}
	handler := NewFeeHandler(&fakeOverviewSrv{}, srv, nil)

	c, rec := newFeeContext(t, http.MethodDelete, "/fees/assignments/sess-1", "")
	c.Params = gin.Params{{Key: "id", Value: "sess-1"}}
	handler.Cancel(c)
	c.Writer.WriteHeaderNow()

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "sess-1", srv.cancelledID)
}

type responseEnvelope struct {
	Data map[string]interface{} `json:"data"`
	Meta map[string]interface{} `json:"meta"`
}
