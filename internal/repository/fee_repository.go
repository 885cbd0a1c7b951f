package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-fee-api/internal/models"
)

// FeeRepository handles persistence for fee statistics and assignments.
type FeeRepository struct {
	db *sqlx.DB
}

// NewFeeRepository constructs the repository.
func NewFeeRepository(db *sqlx.DB) *FeeRepository {
	return &FeeRepository{db: db}
}

// AdminFeeStats returns per-class fee aggregates for the overview dashboard.
// Classes without any fee records come back with NULL sums; callers treat
// those as zero.
func (r *FeeRepository) AdminFeeStats(ctx context.Context) ([]models.ClassFeeStat, error) {
	const query = `SELECT cs.id AS class_section_id, cs.class_name, cs.section,
        SUM(sf.total_fee) AS total_expected_fee,
        SUM(sf.paid_amount) AS total_collected_fee,
        SUM(sf.balance_amount) AS total_pending_fee
        FROM class_sections cs
        LEFT JOIN student_fees sf ON sf.class_section_id = cs.id
        GROUP BY cs.id, cs.class_name, cs.section`

	var stats []models.ClassFeeStat
	if err := r.db.SelectContext(ctx, &stats, query); err != nil {
		return nil, fmt.Errorf("admin fee stats: %w", err)
	}
	return stats, nil
}

// ClassList returns every class section for selector dropdowns.
func (r *FeeRepository) ClassList(ctx context.Context) ([]models.ClassSection, error) {
	const query = `SELECT id, class_name, section FROM class_sections ORDER BY class_name, section`

	var classes []models.ClassSection
	if err := r.db.SelectContext(ctx, &classes, query); err != nil {
		return nil, fmt.Errorf("list class sections: %w", err)
	}
	return classes, nil
}

// ClassRoster returns the fee standing of every student in a class section.
func (r *FeeRepository) ClassRoster(ctx context.Context, classSectionID string) ([]models.StudentFeeStatus, error) {
	const query = `SELECT s.id AS student_id, s.full_name AS student_name,
        sf.total_fee, sf.balance_amount, COALESCE(sf.status, 'UNPAID') AS status
        FROM students s
        LEFT JOIN student_fees sf ON sf.student_id = s.id
        WHERE s.class_section_id = $1
        ORDER BY s.full_name`

	var roster []models.StudentFeeStatus
	if err := r.db.SelectContext(ctx, &roster, query, classSectionID); err != nil {
		return nil, fmt.Errorf("class roster %s: %w", classSectionID, err)
	}
	return roster, nil
}

// BulkCreateAssignments persists a compiled batch inside one transaction.
// Either every entry lands or none do.
func (r *FeeRepository) BulkCreateAssignments(ctx context.Context, entries []models.AssignmentBatchEntry) error {
	if len(entries) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin assignment tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const insert = `INSERT INTO fee_assignments (id, student_id, fee_name, amount, due_date, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)`

	now := time.Now().UTC()
	for _, entry := range entries {
		if _, err := tx.ExecContext(ctx, insert, uuid.NewString(), entry.StudentID, entry.FeeName, entry.Amount, entry.DueDate, now); err != nil {
			return fmt.Errorf("insert assignment for %s: %w", entry.StudentID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit assignment tx: %w", err)
	}
	return nil
}
