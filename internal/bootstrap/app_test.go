package bootstrap

import (
	"context"
	"errors"
	"testing"

	"jobmatch-backend/internal/candidates"
	"jobmatch-backend/internal/requisitions"
	"jobmatch-backend/internal/shared/config"
)

func buildMemoryApp(t *testing.T) *App {
	t.Helper()
	app, err := Build(config.Config{
		Env:           "dev",
		GeminiModels:  []string{"gemini-2.0-flash"},
		LocalStoreDir: t.TempDir(),
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if app.DB != nil {
		t.Fatal("dev build without DATABASE_URL should not hold a database")
	}
	return app
}

func TestBuildMemoryPairSharesTitleIndex(t *testing.T) {
	app := buildMemoryApp(t)
	ctx := context.Background()

	if err := app.RequisitionsRepo.Create(ctx, requisitions.Requisition{
		ID:    "req-1",
		Title: "Backend Engineer",
	}, nil); err != nil {
		t.Fatalf("create requisition: %v", err)
	}
	if err := app.CandidatesRepo.Create(ctx, candidates.Candidate{
		ID:            "cand-1",
		RequisitionID: "req-1",
		Email:         "ada@example.com",
	}); err != nil {
		t.Fatalf("create candidate: %v", err)
	}

	cand, err := app.CandidatesRepo.GetByEmailAndRequisitionTitle(ctx, "ada@example.com", "Backend Engineer")
	if err != nil {
		t.Fatalf("lookup by email and title: %v", err)
	}
	if cand.ID != "cand-1" {
		t.Fatalf("resolved candidate %q", cand.ID)
	}

	if _, err := app.CandidatesRepo.GetByEmailAndRequisitionTitle(ctx, "ada@example.com", "Data Scientist"); !errors.Is(err, candidates.ErrNotFound) {
		t.Fatalf("mismatched title err = %v, want ErrNotFound", err)
	}
}

func TestBuildMemoryDefaults(t *testing.T) {
	app := buildMemoryApp(t)

	if app.Router == nil {
		t.Fatal("router not built")
	}
	if app.Orchestrator == nil || app.Orchestrator.Vendor == nil {
		t.Fatal("orchestrator should fall back to a no-op invite sender")
	}
	if app.CandidatesHandler == nil || app.AssessmentsHandler == nil {
		t.Fatal("handlers not wired")
	}
}
