package requisitions

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
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

func TestPGRepoCreateInsertsAssessmentsInOneTx(t *testing.T) {
	repo, mock := newMockRepo(t)

	req := Requisition{
		ID:                     "req-1",
		Title:                  "Backend Engineer",
		Description:            "Builds services",
		RequiredSkills:         []string{"Go", "SQL"},
		MinimumExperience:      3,
		RequiredEducationLevel: "Graduate",
		CreatedAt:              time.Now().UTC(),
	}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO job_requisitions").
		WithArgs(
			req.ID,
			req.Title,
			req.Description,
			[]byte(`["Go","SQL"]`),
			[]byte(`[]`), // tools
			req.MinimumExperience,
			req.RequiredEducationLevel,
			req.CreatedAt,
		).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO requisition_assessments").
		WithArgs(req.ID, "as-1", "Coding Test").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO requisition_assessments").
		WithArgs(req.ID, "as-2", "Logic Test").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err := repo.Create(context.Background(), req, []Assessment{
		{AssessmentID: "as-1", AssessmentName: "Coding Test"},
		{AssessmentID: "as-2", AssessmentName: "Logic Test"},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoCreateAssessmentFailureRollsBack(t *testing.T) {
	repo, mock := newMockRepo(t)

	insertErr := errors.New("constraint violation")

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO job_requisitions").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO requisition_assessments").
		WillReturnError(insertErr)
	mock.ExpectRollback()

	err := repo.Create(context.Background(), Requisition{ID: "req-1", Title: "Backend Engineer"}, []Assessment{
		{AssessmentID: "as-1", AssessmentName: "Coding Test"},
	})
	if !errors.Is(err, insertErr) {
		t.Fatalf("Create err = %v, want insert error", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoGetByID(t *testing.T) {
	repo, mock := newMockRepo(t)

	created := time.Now().UTC()
	mock.ExpectQuery("FROM job_requisitions").
		WithArgs("req-1").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "title", "description", "required_skills", "required_tools",
			"minimum_experience", "required_education_level", "created_at",
		}).AddRow("req-1", "Backend Engineer", "Builds services", []byte(`["Go"]`), []byte(`["Docker"]`), 3, "Graduate", created))

	req, err := repo.GetByID(context.Background(), "req-1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if req.Title != "Backend Engineer" {
		t.Errorf("Title = %q", req.Title)
	}
	if len(req.RequiredSkills) != 1 || req.RequiredSkills[0] != "Go" {
		t.Errorf("RequiredSkills = %v", req.RequiredSkills)
	}
	if len(req.RequiredTools) != 1 || req.RequiredTools[0] != "Docker" {
		t.Errorf("RequiredTools = %v", req.RequiredTools)
	}
}

func TestPGRepoGetByIDNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("FROM job_requisitions").
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "title", "description", "required_skills", "required_tools",
			"minimum_experience", "required_education_level", "created_at",
		}))

	if _, err := repo.GetByID(context.Background(), "ghost"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestPGRepoListAssessments(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("FROM requisition_assessments").
		WithArgs("req-1").
		WillReturnRows(sqlmock.NewRows([]string{"assessment_id", "assessment_name"}).
			AddRow("as-1", "Coding Test").
			AddRow("as-2", "Logic Test"))

	out, err := repo.ListAssessments(context.Background(), "req-1")
	if err != nil {
		t.Fatalf("ListAssessments: %v", err)
	}
	if len(out) != 2 || out[0].AssessmentID != "as-1" || out[1].AssessmentName != "Logic Test" {
		t.Fatalf("assessments = %v", out)
	}
}
