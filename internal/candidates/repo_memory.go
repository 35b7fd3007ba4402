package candidates

import (
	"context"
	"strings"
	"sync"
	"time"
)

// MemoryRepo is an in-memory implementation of Repo. Requisition titles are
// registered separately since the memory variant has no join to run.
type MemoryRepo struct {
	mu          sync.Mutex
	data        map[string]*Candidate
	assessments map[string][]AssessmentRecord
	titles      map[string]string // requisitionID -> title
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		data:        make(map[string]*Candidate),
		assessments: make(map[string][]AssessmentRecord),
		titles:      make(map[string]string),
	}
}

// RegisterRequisitionTitle records the title used by
// GetByEmailAndRequisitionTitle lookups.
func (r *MemoryRepo) RegisterRequisitionTitle(requisitionID, title string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.titles[requisitionID] = title
}

// Create stores a new candidate, rejecting duplicate applications.
func (r *MemoryRepo) Create(ctx context.Context, cand Candidate) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.data {
		if strings.EqualFold(existing.Email, cand.Email) && existing.RequisitionID == cand.RequisitionID {
			return ErrDuplicate
		}
	}
	clone := cand
	r.data[cand.ID] = &clone
	return nil
}

// GetByID returns a candidate by identifier.
func (r *MemoryRepo) GetByID(ctx context.Context, id string) (Candidate, error) {
	if err := ctx.Err(); err != nil {
		return Candidate{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cand, ok := r.data[id]
	if !ok {
		return Candidate{}, ErrNotFound
	}
	return *cand, nil
}

// GetByEmailAndRequisitionTitle resolves a candidate by email and
// requisition title. An empty title matches any requisition.
func (r *MemoryRepo) GetByEmailAndRequisitionTitle(ctx context.Context, email, title string) (Candidate, error) {
	if err := ctx.Err(); err != nil {
		return Candidate{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var newest *Candidate
	for _, cand := range r.data {
		if !strings.EqualFold(cand.Email, email) {
			continue
		}
		if title != "" && r.titles[cand.RequisitionID] != title {
			continue
		}
		if newest == nil || cand.CreatedAt.After(newest.CreatedAt) {
			newest = cand
		}
	}
	if newest == nil {
		return Candidate{}, ErrNotFound
	}
	return *newest, nil
}

// BeginEvaluation flips in_progress false->true and resets failure flags.
func (r *MemoryRepo) BeginEvaluation(ctx context.Context, id, updatedBy string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cand, ok := r.data[id]
	if !ok {
		return false, ErrNotFound
	}
	if cand.InProgress {
		return false, nil
	}
	cand.InProgress = true
	cand.Failed = false
	cand.LastError = ""
	cand.UpdatedBy = updatedBy
	cand.UpdatedAt = time.Now().UTC()
	return true, nil
}

// FinishEvaluation overwrites the evaluation state wholesale.
func (r *MemoryRepo) FinishEvaluation(ctx context.Context, id string, res EvaluationResult, updatedBy string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cand, ok := r.data[id]
	if !ok {
		return ErrNotFound
	}
	now := time.Now().UTC()
	cand.FirstName = res.FirstName
	cand.LastName = res.LastName
	cand.Age = res.Age
	cand.Phones = append([]string(nil), res.Phones...)
	cand.Location = res.Location
	cand.Skills = append([]string(nil), res.Skills...)
	cand.Tools = append([]string(nil), res.Tools...)
	cand.Experiences = append([]Experience(nil), res.Experiences...)
	cand.Educations = append([]Education(nil), res.Educations...)
	cand.YearsOfExperience = res.YearsOfExperience
	cand.EducationLevel = res.EducationLevel
	cand.MatchingScore = res.MatchingScore
	cand.Justification = res.Justification
	cand.Rating = res.Rating
	cand.Status = res.Status
	cand.Failed = res.Failed
	cand.LastError = res.LastError
	cand.InProgress = false
	cand.LastEvaluatedAt = &now
	cand.UpdatedBy = updatedBy
	cand.UpdatedAt = now
	return nil
}

// ReleaseEvaluation clears in_progress.
func (r *MemoryRepo) ReleaseEvaluation(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cand, ok := r.data[id]
	if !ok {
		return ErrNotFound
	}
	cand.InProgress = false
	cand.UpdatedAt = time.Now().UTC()
	return nil
}

// ListAssessments returns the candidate's assessment rows.
func (r *MemoryRepo) ListAssessments(ctx context.Context, candidateID string) ([]AssessmentRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]AssessmentRecord(nil), r.assessments[candidateID]...), nil
}

// AppendAssessment upserts an assessment row for an invite dispatch.
func (r *MemoryRepo) AppendAssessment(ctx context.Context, candidateID string, rec AssessmentRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	records := r.assessments[candidateID]
	for i := range records {
		if records[i].AssessmentID == rec.AssessmentID {
			records[i].AssessmentName = rec.AssessmentName
			records[i].Sent = rec.Sent
			return nil
		}
	}
	r.assessments[candidateID] = append(records, rec)
	return nil
}

// CompleteAssessment upserts a completion and applies the aggregate outcome
// when finalize reports the set is done.
func (r *MemoryRepo) CompleteAssessment(ctx context.Context, candidateID, assessmentID, assessmentName string, score float64, updatedBy string, finalize func(records []AssessmentRecord) (AggregateUpdate, bool, error)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cand, ok := r.data[candidateID]
	if !ok {
		return ErrNotFound
	}

	// Work on a copy so a finalize error leaves the stored rows untouched.
	records := append([]AssessmentRecord(nil), r.assessments[candidateID]...)
	found := false
	for i := range records {
		if records[i].AssessmentID == assessmentID {
			records[i].Completed = true
			records[i].Score = score
			found = true
			break
		}
	}
	if !found {
		records = append(records, AssessmentRecord{
			AssessmentID:   assessmentID,
			AssessmentName: assessmentName,
			Completed:      true,
			Score:          score,
		})
	}

	update, done, err := finalize(append([]AssessmentRecord(nil), records...))
	if err != nil {
		return err
	}

	r.assessments[candidateID] = records
	if done {
		cand.Rating = update.Rating
		cand.Status = update.Status
		cand.UpdatedBy = updatedBy
		cand.UpdatedAt = time.Now().UTC()
	}
	return nil
}

// Capabilities reports the optional features this repo supports.
func (r *MemoryRepo) Capabilities() Capabilities {
	return Capabilities{AssessmentRows: true, RowLocking: false}
}

var _ Repo = (*MemoryRepo)(nil)
