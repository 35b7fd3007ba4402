package candidates

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
)

func newMockRepo(t *testing.T) (*PGRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return &PGRepo{DB: db}, mock
}

func TestPGRepoCreateSerializesProfileFields(t *testing.T) {
	repo, mock := newMockRepo(t)

	now := time.Now().UTC()
	cand := Candidate{
		ID:              "cand-1",
		RequisitionID:   "req-1",
		FirstName:       "Ada",
		LastName:        "Lovelace",
		Email:           "ada@example.com",
		Phones:          []string{"+33 6 00 00 00 00"},
		ResumeKey:       "resumes/cand-1/resume.pdf",
		ResumeMediaType: "application/pdf",
		Skills:          []string{"Go", "SQL"},
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	mock.ExpectExec("INSERT INTO candidates").
		WithArgs(
			cand.ID,
			cand.RequisitionID,
			cand.FirstName,
			cand.LastName,
			cand.Email,
			cand.Age,
			[]byte(`["+33 6 00 00 00 00"]`),
			cand.Location,
			cand.ResumeKey,
			cand.ResumeMediaType,
			[]byte(`["Go","SQL"]`),
			[]byte(`[]`), // tools
			[]byte(`[]`), // experiences
			[]byte(`[]`), // educations
			cand.YearsOfExperience,
			cand.EducationLevel,
			cand.Status,
			cand.UpdatedBy,
			cand.CreatedAt,
			cand.UpdatedAt,
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := repo.Create(context.Background(), cand); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoCreateMapsUniqueViolation(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec("INSERT INTO candidates").
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "candidates_email_requisition_key"})

	err := repo.Create(context.Background(), Candidate{ID: "cand-1", RequisitionID: "req-1", Email: "ada@example.com"})
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("Create err = %v, want ErrDuplicate", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoBeginEvaluationAcquiresFlag(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec("UPDATE candidates").
		WithArgs("cand-1", "evaluation-worker", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	acquired, err := repo.BeginEvaluation(context.Background(), "cand-1", "evaluation-worker")
	if err != nil {
		t.Fatalf("BeginEvaluation: %v", err)
	}
	if !acquired {
		t.Fatal("expected flag to be acquired")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoBeginEvaluationContended(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec("UPDATE candidates").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("cand-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	acquired, err := repo.BeginEvaluation(context.Background(), "cand-1", "evaluation-worker")
	if err != nil {
		t.Fatalf("BeginEvaluation: %v", err)
	}
	if acquired {
		t.Fatal("expected contended flag to stay unacquired")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoBeginEvaluationMissingCandidate(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec("UPDATE candidates").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	_, err := repo.BeginEvaluation(context.Background(), "ghost", "evaluation-worker")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("BeginEvaluation err = %v, want ErrNotFound", err)
	}
}

func TestPGRepoFinishEvaluationMissingCandidate(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec("UPDATE candidates").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.FinishEvaluation(context.Background(), "ghost", EvaluationResult{Status: StatusQualified}, "evaluation-worker")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("FinishEvaluation err = %v, want ErrNotFound", err)
	}
}

func TestPGRepoCompleteAssessmentFinalizesUnderLock(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").
		WithArgs("cand-1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("cand-1"))
	mock.ExpectExec("INSERT INTO candidate_assessments").
		WithArgs("cand-1", "as-1", "Coding Test", 80.0).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT assessment_id").
		WithArgs("cand-1").
		WillReturnRows(sqlmock.NewRows([]string{"assessment_id", "assessment_name", "sent", "completed", "score"}).
			AddRow("as-1", "Coding Test", true, true, 80.0).
			AddRow("as-2", "Logic Test", true, true, 60.0))
	mock.ExpectExec("UPDATE candidates").
		WithArgs("cand-1", 0.7, StatusAccepted, "assessment-webhook", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	var seen []AssessmentRecord
	err := repo.CompleteAssessment(context.Background(), "cand-1", "as-1", "Coding Test", 80.0, "assessment-webhook",
		func(records []AssessmentRecord) (AggregateUpdate, bool, error) {
			seen = records
			return AggregateUpdate{Rating: 0.7, Status: StatusAccepted}, true, nil
		})
	if err != nil {
		t.Fatalf("CompleteAssessment: %v", err)
	}
	if len(seen) != 2 {
		t.Fatalf("finalize saw %d records, want 2", len(seen))
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoCompleteAssessmentPartialSkipsAggregate(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").
		WithArgs("cand-1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("cand-1"))
	mock.ExpectExec("INSERT INTO candidate_assessments").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT assessment_id").
		WillReturnRows(sqlmock.NewRows([]string{"assessment_id", "assessment_name", "sent", "completed", "score"}).
			AddRow("as-1", "Coding Test", true, true, 80.0).
			AddRow("as-2", "Logic Test", true, false, 0.0))
	mock.ExpectCommit()

	err := repo.CompleteAssessment(context.Background(), "cand-1", "as-1", "Coding Test", 80.0, "assessment-webhook",
		func(records []AssessmentRecord) (AggregateUpdate, bool, error) {
			return AggregateUpdate{}, false, nil
		})
	if err != nil {
		t.Fatalf("CompleteAssessment: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoCompleteAssessmentFinalizeErrorRollsBack(t *testing.T) {
	repo, mock := newMockRepo(t)

	finalizeErr := errors.New("rejection notice undeliverable")

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").
		WithArgs("cand-1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("cand-1"))
	mock.ExpectExec("INSERT INTO candidate_assessments").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT assessment_id").
		WillReturnRows(sqlmock.NewRows([]string{"assessment_id", "assessment_name", "sent", "completed", "score"}).
			AddRow("as-1", "Coding Test", true, true, 10.0))
	mock.ExpectRollback()

	err := repo.CompleteAssessment(context.Background(), "cand-1", "as-1", "Coding Test", 10.0, "assessment-webhook",
		func(records []AssessmentRecord) (AggregateUpdate, bool, error) {
			return AggregateUpdate{}, false, finalizeErr
		})
	if !errors.Is(err, finalizeErr) {
		t.Fatalf("CompleteAssessment err = %v, want finalize error", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoCompleteAssessmentMissingCandidate(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	err := repo.CompleteAssessment(context.Background(), "ghost", "as-1", "Coding Test", 80.0, "assessment-webhook",
		func(records []AssessmentRecord) (AggregateUpdate, bool, error) {
			t.Fatal("finalize should not run for a missing candidate")
			return AggregateUpdate{}, false, nil
		})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("CompleteAssessment err = %v, want ErrNotFound", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}
