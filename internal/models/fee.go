package models

import "time"

// CalculationMode selects how a proposed per-student amount is derived.
type CalculationMode string

const (
	// ModeFixed charges every student the same flat amount.
	ModeFixed CalculationMode = "FIXED"
	// ModePercentage charges a percentage of each student's total fee.
	ModePercentage CalculationMode = "PERCENTAGE"
)

// ClassFeeStat is a per-class fee snapshot used by the overview dashboard.
// Upstream guarantees expected = collected + pending; it is not re-checked here.
type ClassFeeStat struct {
	ClassSectionID    string   `db:"class_section_id" json:"class_section_id"`
	ClassName         string   `db:"class_name" json:"class_name"`
	Section           string   `db:"section" json:"section"`
	TotalExpectedFee  *float64 `db:"total_expected_fee" json:"total_expected_fee"`
	TotalCollectedFee *float64 `db:"total_collected_fee" json:"total_collected_fee"`
	TotalPendingFee   *float64 `db:"total_pending_fee" json:"total_pending_fee"`
}

// StudentFeeStatus is one student's fee standing within a class section.
type StudentFeeStatus struct {
	StudentID     string   `db:"student_id" json:"student_id"`
	StudentName   string   `db:"student_name" json:"student_name"`
	TotalFee      *float64 `db:"total_fee" json:"total_fee"`
	BalanceAmount *float64 `db:"balance_amount" json:"balance_amount"`
	Status        string   `db:"status" json:"status"`
}

// ChargeDefinition describes a new fee charge before per-student amounts exist.
// It is immutable once a review session has been opened from it.
type ChargeDefinition struct {
	FeeName        string          `json:"fee_name" validate:"required"`
	ClassSectionID string          `json:"class_section_id" validate:"required"`
	Mode           CalculationMode `json:"mode" validate:"required,oneof=FIXED PERCENTAGE"`
	Magnitude      float64         `json:"magnitude" validate:"required,gt=0"`
	DueDate        time.Time       `json:"due_date" validate:"required"`
}

// ReviewRow is one student's editable proposed entry during the review phase.
// Amount stays raw text until compile time so in-progress typing survives edits.
type ReviewRow struct {
	StudentID      string  `json:"student_id"`
	StudentName    string  `json:"student_name"`
	ReferenceTotal float64 `json:"reference_total_fee"`
	ProposedAmount string  `json:"proposed_amount"`
	Included       bool    `json:"included"`
}

// AssignmentBatchEntry is the finalized, submission-ready record for one student.
type AssignmentBatchEntry struct {
	StudentID string  `db:"student_id" json:"studentId"`
	FeeName   string  `db:"fee_name" json:"feeName"`
	Amount    float64 `db:"amount" json:"amount"`
	DueDate   string  `db:"due_date" json:"dueDate"`
}

// ClassSection is a lightweight class entry for selector lists.
type ClassSection struct {
	ID        string `db:"id" json:"id"`
	ClassName string `db:"class_name" json:"class_name"`
	Section   string `db:"section" json:"section"`
}
