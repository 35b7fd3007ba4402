package candidates

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const candidateColumns = `
id, requisition_id, first_name, last_name, email, age, phones, location,
resume_key, resume_media_type,
skills, tools, experiences, educations, years_of_experience, education_level,
matching_score, justification, rating, status,
in_progress, failed, last_error, last_evaluated_at, updated_by,
created_at, updated_at`

// Create inserts a new candidate. A second application for the same email
// and requisition returns ErrDuplicate.
func (r *PGRepo) Create(ctx context.Context, cand Candidate) error {
	const query = `
INSERT INTO candidates (
    id, requisition_id, first_name, last_name, email, age, phones, location,
    resume_key, resume_media_type,
    skills, tools, experiences, educations, years_of_experience, education_level,
    status, updated_by, created_at, updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)`

	phones, err := marshalJSON(cand.Phones)
	if err != nil {
		return err
	}
	skills, err := marshalJSON(cand.Skills)
	if err != nil {
		return err
	}
	tools, err := marshalJSON(cand.Tools)
	if err != nil {
		return err
	}
	experiences, err := marshalJSON(cand.Experiences)
	if err != nil {
		return err
	}
	educations, err := marshalJSON(cand.Educations)
	if err != nil {
		return err
	}

	_, err = r.DB.ExecContext(ctx, query,
		cand.ID,
		cand.RequisitionID,
		cand.FirstName,
		cand.LastName,
		cand.Email,
		cand.Age,
		phones,
		cand.Location,
		cand.ResumeKey,
		cand.ResumeMediaType,
		skills,
		tools,
		experiences,
		educations,
		cand.YearsOfExperience,
		cand.EducationLevel,
		cand.Status,
		cand.UpdatedBy,
		cand.CreatedAt,
		cand.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

// GetByID returns a candidate by identifier.
func (r *PGRepo) GetByID(ctx context.Context, id string) (Candidate, error) {
	query := `SELECT ` + candidateColumns + ` FROM candidates WHERE id = $1`
	return r.scanCandidate(r.DB.QueryRowContext(ctx, query, id))
}

// GetByEmailAndRequisitionTitle resolves a candidate by email and the title
// of the requisition they applied to. An empty title matches any requisition.
func (r *PGRepo) GetByEmailAndRequisitionTitle(ctx context.Context, email, title string) (Candidate, error) {
	query := `
SELECT ` + prefixColumns("c") + `
FROM candidates c
JOIN job_requisitions j ON j.id = c.requisition_id
WHERE lower(c.email) = lower($1) AND ($2 = '' OR j.title = $2)
ORDER BY c.created_at DESC
LIMIT 1`
	return r.scanCandidate(r.DB.QueryRowContext(ctx, query, email, title))
}

// BeginEvaluation flips in_progress false->true and resets failure flags.
func (r *PGRepo) BeginEvaluation(ctx context.Context, id, updatedBy string) (bool, error) {
	const query = `
UPDATE candidates
SET in_progress = TRUE, failed = FALSE, last_error = '', updated_by = $2, updated_at = $3
WHERE id = $1 AND in_progress = FALSE`

	res, err := r.DB.ExecContext(ctx, query, id, updatedBy, time.Now().UTC())
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if affected == 0 {
		// Distinguish "already running" from "no such candidate".
		var exists bool
		if err := r.DB.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM candidates WHERE id = $1)`, id).Scan(&exists); err != nil {
			return false, err
		}
		if !exists {
			return false, ErrNotFound
		}
		return false, nil
	}
	return true, nil
}

// FinishEvaluation overwrites the evaluation state wholesale and releases
// the in_progress flag.
func (r *PGRepo) FinishEvaluation(ctx context.Context, id string, res EvaluationResult, updatedBy string) error {
	const query = `
UPDATE candidates
SET first_name = $2, last_name = $3, age = $4, phones = $5, location = $6,
    skills = $7, tools = $8, experiences = $9, educations = $10,
    years_of_experience = $11, education_level = $12,
    matching_score = $13, justification = $14, rating = $15, status = $16,
    failed = $17, last_error = $18,
    in_progress = FALSE, last_evaluated_at = $19, updated_by = $20, updated_at = $19
WHERE id = $1`

	phones, err := marshalJSON(res.Phones)
	if err != nil {
		return err
	}
	skills, err := marshalJSON(res.Skills)
	if err != nil {
		return err
	}
	tools, err := marshalJSON(res.Tools)
	if err != nil {
		return err
	}
	experiences, err := marshalJSON(res.Experiences)
	if err != nil {
		return err
	}
	educations, err := marshalJSON(res.Educations)
	if err != nil {
		return err
	}

	out, err := r.DB.ExecContext(ctx, query,
		id,
		res.FirstName,
		res.LastName,
		res.Age,
		phones,
		res.Location,
		skills,
		tools,
		experiences,
		educations,
		res.YearsOfExperience,
		res.EducationLevel,
		res.MatchingScore,
		res.Justification,
		res.Rating,
		res.Status,
		res.Failed,
		res.LastError,
		time.Now().UTC(),
		updatedBy,
	)
	if err != nil {
		return err
	}
	affected, err := out.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// ReleaseEvaluation clears in_progress without touching the rest of the state.
func (r *PGRepo) ReleaseEvaluation(ctx context.Context, id string) error {
	const query = `UPDATE candidates SET in_progress = FALSE, updated_at = $2 WHERE id = $1`
	_, err := r.DB.ExecContext(ctx, query, id, time.Now().UTC())
	return err
}

// ListAssessments returns the candidate's assessment rows ordered by id.
func (r *PGRepo) ListAssessments(ctx context.Context, candidateID string) ([]AssessmentRecord, error) {
	const query = `
SELECT assessment_id, assessment_name, sent, completed, score
FROM candidate_assessments
WHERE candidate_id = $1
ORDER BY assessment_id`

	rows, err := r.DB.QueryContext(ctx, query, candidateID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectAssessments(rows)
}

// AppendAssessment upserts an assessment row for an invite dispatch.
func (r *PGRepo) AppendAssessment(ctx context.Context, candidateID string, rec AssessmentRecord) error {
	const query = `
INSERT INTO candidate_assessments (candidate_id, assessment_id, assessment_name, sent, completed, score)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (candidate_id, assessment_id)
DO UPDATE SET assessment_name = EXCLUDED.assessment_name, sent = EXCLUDED.sent`

	_, err := r.DB.ExecContext(ctx, query,
		candidateID,
		rec.AssessmentID,
		rec.AssessmentName,
		rec.Sent,
		rec.Completed,
		rec.Score,
	)
	return err
}

// CompleteAssessment upserts one completion under a row lock on the
// candidate, then lets finalize decide whether the aggregate outcome is due.
func (r *PGRepo) CompleteAssessment(ctx context.Context, candidateID, assessmentID, assessmentName string, score float64, updatedBy string, finalize func(records []AssessmentRecord) (AggregateUpdate, bool, error)) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var locked string
	err = tx.QueryRowContext(ctx, `SELECT id FROM candidates WHERE id = $1 FOR UPDATE`, candidateID).Scan(&locked)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}

	const upsert = `
INSERT INTO candidate_assessments (candidate_id, assessment_id, assessment_name, sent, completed, score)
VALUES ($1, $2, $3, FALSE, TRUE, $4)
ON CONFLICT (candidate_id, assessment_id)
DO UPDATE SET completed = TRUE, score = EXCLUDED.score`

	if _, err := tx.ExecContext(ctx, upsert, candidateID, assessmentID, assessmentName, score); err != nil {
		return err
	}

	rows, err := tx.QueryContext(ctx, `
SELECT assessment_id, assessment_name, sent, completed, score
FROM candidate_assessments
WHERE candidate_id = $1
ORDER BY assessment_id`, candidateID)
	if err != nil {
		return err
	}
	records, err := collectAssessments(rows)
	rows.Close()
	if err != nil {
		return err
	}

	update, done, err := finalize(records)
	if err != nil {
		return err
	}
	if done {
		const aggregate = `
UPDATE candidates
SET rating = $2, status = $3, updated_by = $4, updated_at = $5
WHERE id = $1`
		if _, err := tx.ExecContext(ctx, aggregate, candidateID, update.Rating, update.Status, updatedBy, time.Now().UTC()); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// Capabilities reports the optional features this repo supports.
func (r *PGRepo) Capabilities() Capabilities {
	return Capabilities{AssessmentRows: true, RowLocking: true}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *PGRepo) scanCandidate(row rowScanner) (Candidate, error) {
	var cand Candidate
	var phones, skills, tools, experiences, educations []byte
	var lastEvaluatedAt sql.NullTime

	err := row.Scan(
		&cand.ID,
		&cand.RequisitionID,
		&cand.FirstName,
		&cand.LastName,
		&cand.Email,
		&cand.Age,
		&phones,
		&cand.Location,
		&cand.ResumeKey,
		&cand.ResumeMediaType,
		&skills,
		&tools,
		&experiences,
		&educations,
		&cand.YearsOfExperience,
		&cand.EducationLevel,
		&cand.MatchingScore,
		&cand.Justification,
		&cand.Rating,
		&cand.Status,
		&cand.InProgress,
		&cand.Failed,
		&cand.LastError,
		&lastEvaluatedAt,
		&cand.UpdatedBy,
		&cand.CreatedAt,
		&cand.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Candidate{}, ErrNotFound
		}
		return Candidate{}, err
	}

	if err := json.Unmarshal(phones, &cand.Phones); err != nil {
		return Candidate{}, fmt.Errorf("unmarshal phones: %w", err)
	}
	if err := json.Unmarshal(skills, &cand.Skills); err != nil {
		return Candidate{}, fmt.Errorf("unmarshal skills: %w", err)
	}
	if err := json.Unmarshal(tools, &cand.Tools); err != nil {
		return Candidate{}, fmt.Errorf("unmarshal tools: %w", err)
	}
	if err := json.Unmarshal(experiences, &cand.Experiences); err != nil {
		return Candidate{}, fmt.Errorf("unmarshal experiences: %w", err)
	}
	if err := json.Unmarshal(educations, &cand.Educations); err != nil {
		return Candidate{}, fmt.Errorf("unmarshal educations: %w", err)
	}
	if lastEvaluatedAt.Valid {
		cand.LastEvaluatedAt = &lastEvaluatedAt.Time
	}
	return cand, nil
}

func collectAssessments(rows *sql.Rows) ([]AssessmentRecord, error) {
	out := []AssessmentRecord{}
	for rows.Next() {
		var rec AssessmentRecord
		if err := rows.Scan(&rec.AssessmentID, &rec.AssessmentName, &rec.Sent, &rec.Completed, &rec.Score); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func marshalJSON(v any) ([]byte, error) {
	switch t := v.(type) {
	case []string:
		if t == nil {
			v = []string{}
		}
	case []Experience:
		if t == nil {
			v = []Experience{}
		}
	case []Education:
		if t == nil {
			v = []Education{}
		}
	}
	out, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal json field: %w", err)
	}
	return out, nil
}

func prefixColumns(alias string) string {
	cols := strings.Split(candidateColumns, ",")
	for i, c := range cols {
		cols[i] = alias + "." + strings.TrimSpace(c)
	}
	return strings.Join(cols, ", ")
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "unique constraint")
}

var _ Repo = (*PGRepo)(nil)
