package dto

// FeeTotals sums the fee columns across every class section.
type FeeTotals struct {
	Expected  float64 `json:"expected"`
	Collected float64 `json:"collected"`
	Pending   float64 `json:"pending"`
}

// ClassFeeOverviewItem is one sorted row of the fee overview.
type ClassFeeOverviewItem struct {
	ClassSectionID string  `json:"classSectionId"`
	ClassName      string  `json:"className"`
	Section        string  `json:"section"`
	Expected       float64 `json:"totalExpectedFee"`
	Collected      float64 `json:"totalCollectedFee"`
	Pending        float64 `json:"totalPendingFee"`
}

// FeeOverviewResponse carries school totals plus the ordered class list.
type FeeOverviewResponse struct {
	Totals  FeeTotals              `json:"totals"`
	Classes []ClassFeeOverviewItem `json:"classes"`
}

// ClassSectionItem is a class selector entry.
type ClassSectionItem struct {
	ID        string `json:"id"`
	ClassName string `json:"className"`
	Section   string `json:"section"`
}

// StudentFeeStatusItem is one student's fee standing in a class roster.
type StudentFeeStatusItem struct {
	StudentID   string  `json:"studentId"`
	StudentName string  `json:"studentName"`
	TotalFee    float64 `json:"totalFee"`
	Balance     float64 `json:"balanceAmount"`
	Status      string  `json:"status"`
}

// CreateDraftRequest defines the administrator's charge definition input.
// Magnitude arrives as raw text exactly as typed into the form.
type CreateDraftRequest struct {
	FeeName        string `json:"feeName" validate:"required"`
	ClassSectionID string `json:"classSectionId" validate:"required"`
	Mode           string `json:"mode" validate:"required,oneof=FIXED PERCENTAGE"`
	Magnitude      string `json:"magnitude" validate:"required"`
	DueDate        string `json:"dueDate" validate:"required,datetime=2006-01-02"`
}

// ReviewRowItem is one editable student row of a draft session.
type ReviewRowItem struct {
	StudentID      string  `json:"studentId"`
	StudentName    string  `json:"studentName"`
	ReferenceTotal float64 `json:"referenceTotalFee"`
	ProposedAmount string  `json:"proposedAmount"`
	Included       bool    `json:"included"`
}

// DraftResponse returns the opened review session with its initial rows.
type DraftResponse struct {
	SessionID string          `json:"sessionId"`
	FeeName   string          `json:"feeName"`
	Mode      string          `json:"mode"`
	DueDate   string          `json:"dueDate"`
	Rows      []ReviewRowItem `json:"rows"`
}

// ToggleRowRequest flips a student's inclusion flag.
type ToggleRowRequest struct {
	StudentID string `json:"studentId" validate:"required"`
}

// SetAmountRequest replaces a student's proposed amount text verbatim.
type SetAmountRequest struct {
	StudentID string `json:"studentId" validate:"required"`
	Amount    string `json:"amount"`
}

// SubmitResponse confirms how many students were charged.
type SubmitResponse struct {
	SubmittedCount int `json:"submittedCount"`
}
