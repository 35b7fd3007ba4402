package requisitions

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// Create inserts a requisition and its assigned assessments.
func (r *PGRepo) Create(ctx context.Context, req Requisition, assessments []Assessment) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	const query = `
INSERT INTO job_requisitions (id, title, description, required_skills, required_tools, minimum_experience, required_education_level, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	skills, err := json.Marshal(emptyIfNil(req.RequiredSkills))
	if err != nil {
		return fmt.Errorf("marshal skills: %w", err)
	}
	tools, err := json.Marshal(emptyIfNil(req.RequiredTools))
	if err != nil {
		return fmt.Errorf("marshal tools: %w", err)
	}

	if _, err := tx.ExecContext(ctx, query,
		req.ID,
		req.Title,
		req.Description,
		skills,
		tools,
		req.MinimumExperience,
		req.RequiredEducationLevel,
		req.CreatedAt,
	); err != nil {
		return err
	}

	const assessmentQuery = `
INSERT INTO requisition_assessments (requisition_id, assessment_id, assessment_name)
VALUES ($1, $2, $3)`

	for _, a := range assessments {
		if _, err := tx.ExecContext(ctx, assessmentQuery, req.ID, a.AssessmentID, a.AssessmentName); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// GetByID returns a requisition by its identifier.
func (r *PGRepo) GetByID(ctx context.Context, id string) (Requisition, error) {
	const query = `
SELECT id, title, description, required_skills, required_tools, minimum_experience, required_education_level, created_at
FROM job_requisitions
WHERE id = $1`

	var req Requisition
	var skills, tools []byte
	err := r.DB.QueryRowContext(ctx, query, id).Scan(
		&req.ID,
		&req.Title,
		&req.Description,
		&skills,
		&tools,
		&req.MinimumExperience,
		&req.RequiredEducationLevel,
		&req.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Requisition{}, ErrNotFound
		}
		return Requisition{}, err
	}

	if err := json.Unmarshal(skills, &req.RequiredSkills); err != nil {
		return Requisition{}, fmt.Errorf("unmarshal skills: %w", err)
	}
	if err := json.Unmarshal(tools, &req.RequiredTools); err != nil {
		return Requisition{}, fmt.Errorf("unmarshal tools: %w", err)
	}
	return req, nil
}

// ListAssessments returns the assessments assigned to a requisition.
func (r *PGRepo) ListAssessments(ctx context.Context, requisitionID string) ([]Assessment, error) {
	const query = `
SELECT assessment_id, assessment_name
FROM requisition_assessments
WHERE requisition_id = $1
ORDER BY assessment_id`

	rows, err := r.DB.QueryContext(ctx, query, requisitionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Assessment{}
	for rows.Next() {
		var a Assessment
		if err := rows.Scan(&a.AssessmentID, &a.AssessmentName); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func emptyIfNil(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}

var _ Repo = (*PGRepo)(nil)
