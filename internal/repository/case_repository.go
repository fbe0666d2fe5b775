package repository

import (
	"context"
	"fmt"

	"github.com/erikstalman/med-claim-navigator-sub000/internal/models"
)

type CaseRepository struct {
	db Execer
}

func NewCaseRepository(db Execer) *CaseRepository {
	return &CaseRepository{db: db}
}

// Upsert writes the case row. An unassigned case stores a NULL doctor_id.
func (r *CaseRepository) Upsert(ctx context.Context, c models.PatientCase) error {
	const query = `
		INSERT INTO patient_cases (
			id, patient_name, accident_date, submission_date, status, priority, injury_type,
			doctor_id, admin_id, claim_amount, documents_count, evaluation_status, created_by, last_updated
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7,
			$8, $9, $10, $11, $12, $13, $14
		)
		ON CONFLICT (id) DO UPDATE SET
			patient_name = EXCLUDED.patient_name,
			accident_date = EXCLUDED.accident_date,
			submission_date = EXCLUDED.submission_date,
			status = EXCLUDED.status,
			priority = EXCLUDED.priority,
			injury_type = EXCLUDED.injury_type,
			doctor_id = EXCLUDED.doctor_id,
			admin_id = EXCLUDED.admin_id,
			claim_amount = EXCLUDED.claim_amount,
			documents_count = EXCLUDED.documents_count,
			evaluation_status = EXCLUDED.evaluation_status,
			last_updated = EXCLUDED.last_updated
	`

	_, err := r.db.Exec(ctx, query,
		c.ID,
		c.PatientName,
		c.AccidentDate,
		c.SubmissionDate,
		string(c.Status),
		string(c.Priority),
		c.InjuryType,
		nullable(c.DoctorID),
		nullable(c.AdminID),
		c.ClaimAmount,
		c.DocumentsCount,
		c.EvaluationStatus,
		nullable(c.CreatedBy),
		c.LastUpdated,
	)
	if err != nil {
		return fmt.Errorf("upsert case %s: %w", c.ID, err)
	}
	return nil
}

// Delete removes the case; documents follow through ON DELETE CASCADE.
func (r *CaseRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM patient_cases WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete case %s: %w", id, err)
	}
	return nil
}

// DeleteExcept removes every row whose id is not in keep.
func (r *CaseRepository) DeleteExcept(ctx context.Context, keep []string) error {
	if keep == nil {
		keep = []string{}
	}
	if _, err := r.db.Exec(ctx, `DELETE FROM patient_cases WHERE id <> ALL($1::text[])`, keep); err != nil {
		return fmt.Errorf("prune cases: %w", err)
	}
	return nil
}
