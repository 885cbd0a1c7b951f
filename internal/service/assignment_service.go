package service

import (
	"context"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-fee-api/internal/dto"
	"github.com/noah-isme/sma-fee-api/internal/models"
	appErrors "github.com/noah-isme/sma-fee-api/pkg/errors"
)

type rosterFetcher interface {
	ClassRoster(ctx context.Context, classSectionID string) ([]models.StudentFeeStatus, error)
}

type assignmentWriter interface {
	BulkCreateAssignments(ctx context.Context, entries []models.AssignmentBatchEntry) error
}

// reviewSession is one administrator's in-flight assignment workflow: the
// frozen charge definition plus the editable per-student review table.
type reviewSession struct {
	ID         string
	Def        models.ChargeDefinition
	Order      []string
	Rows       map[string]*models.ReviewRow
	CreatedAt  time.Time
	Submitting bool
}

type sessionStore struct {
	ttl   time.Duration
	mu    sync.RWMutex
	items map[string]*reviewSession
}

func newSessionStore(ttl time.Duration) *sessionStore {
	return &sessionStore{
		ttl:   ttl,
		items: make(map[string]*reviewSession),
	}
}

func (s *sessionStore) Save(session *reviewSession) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[session.ID] = session
}

func (s *sessionStore) Get(id string) (*reviewSession, bool) {
	s.mu.RLock()
	session, ok := s.items[id]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if time.Since(session.CreatedAt) > s.ttl {
		s.Delete(id)
		return nil, false
	}
	return session, true
}

func (s *sessionStore) Delete(id string) {
	s.mu.Lock()
	delete(s.items, id)
	s.mu.Unlock()
}

// AssignmentServiceConfig governs workflow behaviour.
type AssignmentServiceConfig struct {
	DraftTTL time.Duration
}

// AssignmentService drives the two-phase fee assignment workflow: compute
// initial per-student amounts from a charge definition, let the administrator
// edit the review table, then submit the compiled batch.
type AssignmentService struct {
	roster    rosterFetcher
	writer    assignmentWriter
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
	store     *sessionStore
	mu        sync.Mutex
}

// NewAssignmentService constructs the service.
func NewAssignmentService(roster rosterFetcher, writer assignmentWriter, cache *CacheService, validate *validator.Validate, logger *zap.Logger, cfg AssignmentServiceConfig) *AssignmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.DraftTTL <= 0 {
		cfg.DraftTTL = 30 * time.Minute
	}
	return &AssignmentService{
		roster:    roster,
		writer:    writer,
		cache:     cache,
		validator: validate,
		logger:    logger,
		store:     newSessionStore(cfg.DraftTTL),
	}
}

// StartDraft validates the charge definition, loads the class roster and opens
// a review session with computed initial amounts. A roster load failure aborts
// the phase transition: no session is created.
func (s *AssignmentService) StartDraft(ctx context.Context, req dto.CreateDraftRequest) (*dto.DraftResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid charge definition")
	}

	def, err := parseChargeDefinition(req)
	if err != nil {
		return nil, err
	}

	roster, err := s.roster.ClassRoster(ctx, def.ClassSectionID)
	if err != nil {
		s.logger.Error("roster fetch failed", zap.String("class_section_id", def.ClassSectionID), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrRosterLoadFailed.Code, appErrors.ErrRosterLoadFailed.Status, appErrors.ErrRosterLoadFailed.Message)
	}

	session := &reviewSession{
		ID:        uuid.NewString(),
		Def:       *def,
		Order:     make([]string, 0, len(roster)),
		Rows:      computeInitialAmounts(roster, *def),
		CreatedAt: time.Now(),
	}
	for _, student := range roster {
		session.Order = append(session.Order, student.StudentID)
	}
	s.store.Save(session)

	s.logger.Info("review session opened",
		zap.String("session_id", session.ID),
		zap.String("fee_name", def.FeeName),
		zap.String("mode", string(def.Mode)),
		zap.Int("students", len(roster)),
	)

	return s.draftResponse(session), nil
}

// Toggle flips a student's inclusion flag. Unknown students are a no-op; the
// stored amount text is never touched.
func (s *AssignmentService) Toggle(sessionID string, req dto.ToggleRowRequest) (*dto.DraftResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.store.Get(sessionID)
	if !ok {
		return nil, appErrors.ErrSessionNotFound
	}
	if row, exists := session.Rows[req.StudentID]; exists {
		row.Included = !row.Included
	}
	return s.draftResponse(session), nil
}

// SetAmount replaces the row's proposed amount with the given text verbatim.
// The text is not validated here so in-progress typing (e.g. "12.") survives;
// compile decides what is submittable.
func (s *AssignmentService) SetAmount(sessionID string, req dto.SetAmountRequest) (*dto.DraftResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.store.Get(sessionID)
	if !ok {
		return nil, appErrors.ErrSessionNotFound
	}
	if row, exists := session.Rows[req.StudentID]; exists {
		row.ProposedAmount = req.Amount
	}
	return s.draftResponse(session), nil
}

// Submit compiles the review table and persists the batch. An empty batch is
// refused and the session stays open; a write failure also preserves the
// session so the administrator can retry without re-entering data.
func (s *AssignmentService) Submit(ctx context.Context, sessionID string) (*dto.SubmitResponse, error) {
	s.mu.Lock()
	session, ok := s.store.Get(sessionID)
	if !ok {
		s.mu.Unlock()
		return nil, appErrors.ErrSessionNotFound
	}
	if session.Submitting {
		s.mu.Unlock()
		return nil, appErrors.ErrSubmitInFlight
	}
	batch := compile(session)
	if len(batch) == 0 {
		s.mu.Unlock()
		return nil, appErrors.ErrNoStudentsSelected
	}
	session.Submitting = true
	s.mu.Unlock()

	if err := s.writer.BulkCreateAssignments(ctx, batch); err != nil {
		s.mu.Lock()
		session.Submitting = false
		s.mu.Unlock()
		s.logger.Error("bulk assignment failed", zap.String("session_id", sessionID), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to submit fee assignments")
	}

	s.store.Delete(sessionID)
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, overviewCacheKey); err != nil {
			s.logger.Warn("overview cache invalidation failed", zap.Error(err))
		}
	}

	s.logger.Info("fee assignments submitted",
		zap.String("session_id", sessionID),
		zap.Int("students", len(batch)),
	)
	return &dto.SubmitResponse{SubmittedCount: len(batch)}, nil
}

// Cancel discards the review session. Cancelling an unknown or expired
// session is not an error.
func (s *AssignmentService) Cancel(sessionID string) {
	s.store.Delete(sessionID)
}

// Roster lists a class section's students with their fee standing, as shown
// on the charge definition form.
func (s *AssignmentService) Roster(ctx context.Context, classSectionID string) ([]dto.StudentFeeStatusItem, error) {
	roster, err := s.roster.ClassRoster(ctx, classSectionID)
	if err != nil {
		s.logger.Error("roster fetch failed", zap.String("class_section_id", classSectionID), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrRosterLoadFailed.Code, appErrors.ErrRosterLoadFailed.Status, appErrors.ErrRosterLoadFailed.Message)
	}
	items := make([]dto.StudentFeeStatusItem, 0, len(roster))
	for _, student := range roster {
		items = append(items, dto.StudentFeeStatusItem{
			StudentID:   student.StudentID,
			StudentName: student.StudentName,
			TotalFee:    deref(student.TotalFee),
			Balance:     deref(student.BalanceAmount),
			Status:      student.Status,
		})
	}
	return items, nil
}

func (s *AssignmentService) draftResponse(session *reviewSession) *dto.DraftResponse {
	rows := make([]dto.ReviewRowItem, 0, len(session.Order))
	for _, studentID := range session.Order {
		row, ok := session.Rows[studentID]
		if !ok {
			continue
		}
		rows = append(rows, dto.ReviewRowItem{
			StudentID:      row.StudentID,
			StudentName:    row.StudentName,
			ReferenceTotal: row.ReferenceTotal,
			ProposedAmount: row.ProposedAmount,
			Included:       row.Included,
		})
	}
	return &dto.DraftResponse{
		SessionID: session.ID,
		FeeName:   session.Def.FeeName,
		Mode:      string(session.Def.Mode),
		DueDate:   session.Def.DueDate.Format("2006-01-02"),
		Rows:      rows,
	}
}

func parseChargeDefinition(req dto.CreateDraftRequest) (*models.ChargeDefinition, error) {
	mode := models.CalculationMode(req.Mode)

	magnitude, err := strconv.ParseFloat(strings.TrimSpace(req.Magnitude), 64)
	if err != nil || math.IsInf(magnitude, 0) || math.IsNaN(magnitude) || magnitude <= 0 {
		if mode == models.ModePercentage {
			return nil, appErrors.Clone(appErrors.ErrValidation, "a positive percent value is required")
		}
		return nil, appErrors.Clone(appErrors.ErrValidation, "a positive amount is required")
	}

	dueDate, err := time.Parse("2006-01-02", req.DueDate)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid due date, expected YYYY-MM-DD")
	}

	return &models.ChargeDefinition{
		FeeName:        strings.TrimSpace(req.FeeName),
		ClassSectionID: req.ClassSectionID,
		Mode:           mode,
		Magnitude:      magnitude,
		DueDate:        dueDate,
	}, nil
}

// computeInitialAmounts derives every student's proposed amount from the
// charge definition. FIXED charges every student the magnitude unrounded;
// PERCENTAGE rounds totalFee × percent / 100 to the nearest whole unit.
// Students without a recorded total fee are treated as owing 0.
func computeInitialAmounts(roster []models.StudentFeeStatus, def models.ChargeDefinition) map[string]*models.ReviewRow {
	rows := make(map[string]*models.ReviewRow, len(roster))
	for _, student := range roster {
		total := 0.0
		if student.TotalFee != nil {
			total = *student.TotalFee
		}

		var amount string
		switch def.Mode {
		case models.ModePercentage:
			amount = formatAmount(math.Round(total * def.Magnitude / 100))
		default:
			amount = formatAmount(def.Magnitude)
		}

		rows[student.StudentID] = &models.ReviewRow{
			StudentID:      student.StudentID,
			StudentName:    student.StudentName,
			ReferenceTotal: total,
			ProposedAmount: amount,
			Included:       true,
		}
	}
	return rows
}

// compile is a deterministic filter-map over the review table: only rows that
// are included and whose amount text parses to a finite number make it into
// the batch. Everything else is silently dropped, by contract.
func compile(session *reviewSession) []models.AssignmentBatchEntry {
	dueDate := session.Def.DueDate.Format("2006-01-02")
	entries := make([]models.AssignmentBatchEntry, 0, len(session.Order))
	for _, studentID := range session.Order {
		row, ok := session.Rows[studentID]
		if !ok || !row.Included {
			continue
		}
		amount, err := strconv.ParseFloat(strings.TrimSpace(row.ProposedAmount), 64)
		if err != nil || math.IsInf(amount, 0) || math.IsNaN(amount) {
			continue
		}
		entries = append(entries, models.AssignmentBatchEntry{
			StudentID: row.StudentID,
			FeeName:   session.Def.FeeName,
			Amount:    amount,
			DueDate:   dueDate,
		})
	}
	return entries
}

func formatAmount(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}
