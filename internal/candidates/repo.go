package candidates

import "context"

// Repo defines persistence operations for candidates and their
// assessment rows.
type Repo interface {
	Create(ctx context.Context, cand Candidate) error
	GetByID(ctx context.Context, id string) (Candidate, error)
	// GetByEmailAndRequisitionTitle resolves the candidate a webhook event
	// refers to. Matching is case-insensitive on email.
	GetByEmailAndRequisitionTitle(ctx context.Context, email, title string) (Candidate, error)

	// BeginEvaluation atomically flips in_progress from false to true and
	// resets the failure flags. Returns false when another run holds the flag.
	BeginEvaluation(ctx context.Context, id, updatedBy string) (bool, error)
	// FinishEvaluation overwrites the evaluation state wholesale and clears
	// in_progress.
	FinishEvaluation(ctx context.Context, id string, res EvaluationResult, updatedBy string) error
	// ReleaseEvaluation clears in_progress without touching the rest of the
	// state. Used as the guaranteed-release guard when a run aborts before
	// FinishEvaluation.
	ReleaseEvaluation(ctx context.Context, id string) error

	ListAssessments(ctx context.Context, candidateID string) ([]AssessmentRecord, error)
	// AppendAssessment records an invite dispatch. Upserts by assessment id.
	AppendAssessment(ctx context.Context, candidateID string, rec AssessmentRecord) error
	// CompleteAssessment upserts the completion for one assessment while
	// holding the candidate record, then passes the full current record set
	// to finalize; when finalize reports done, the aggregate fields are
	// written under updatedBy in the same transaction. An error from
	// finalize aborts the whole write, including the upsert.
	CompleteAssessment(ctx context.Context, candidateID, assessmentID, assessmentName string, score float64, updatedBy string, finalize func(records []AssessmentRecord) (AggregateUpdate, bool, error)) error

	// Capabilities reports optional features, checked once at startup.
	Capabilities() Capabilities
}
