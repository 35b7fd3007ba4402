package candidates

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"jobmatch-backend/internal/queue"
	"jobmatch-backend/internal/requisitions"
	"jobmatch-backend/internal/shared/storage/object/local"
)

type handlerFixture struct {
	router *gin.Engine
	repo   *MemoryRepo
	queue  *queue.MemoryClient
}

func setupHandler(t *testing.T) *handlerFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repo := NewMemoryRepo()
	reqRepo := requisitions.NewMemoryRepo()
	q := queue.NewMemoryClient()

	if err := reqRepo.Create(context.Background(), requisitions.Requisition{
		ID:    "req-1",
		Title: "Backend Engineer",
	}, nil); err != nil {
		t.Fatalf("create requisition: %v", err)
	}

	svc := &Service{
		Store:         local.New(t.TempDir()),
		Repo:          repo,
		Requisitions:  reqRepo,
		Queue:         q,
		RetryCooldown: time.Hour,
	}

	r := gin.New()
	api := r.Group("/api/v1")
	NewHandler(svc).RegisterRoutes(api)

	return &handlerFixture{router: r, repo: repo, queue: q}
}

func intakeForm(t *testing.T, fields map[string]string, fileName string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatalf("write field %s: %v", k, err)
		}
	}
	if fileName != "" {
		fw, err := w.CreateFormFile("resume", fileName)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := fw.Write([]byte("%PDF-1.4 fake body")); err != nil {
			t.Fatalf("write file: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return &buf, w.FormDataContentType()
}

func postIntake(t *testing.T, fx *handlerFixture, fields map[string]string, fileName string) *httptest.ResponseRecorder {
	t.Helper()
	body, contentType := intakeForm(t, fields, fileName)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/candidates", body)
	req.Header.Set("Content-Type", contentType)
	resp := httptest.NewRecorder()
	fx.router.ServeHTTP(resp, req)
	return resp
}

func decodeJSON(t *testing.T, resp *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var payload map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return payload
}

func errorCode(t *testing.T, resp *httptest.ResponseRecorder) string {
	t.Helper()
	payload := decodeJSON(t, resp)
	errObj, ok := payload["error"].(map[string]any)
	if !ok {
		t.Fatalf("missing error envelope in %v", payload)
	}
	code, _ := errObj["code"].(string)
	return code
}

func applicationFields() map[string]string {
	return map[string]string{
		"requisitionId": "req-1",
		"email":         "ada@example.com",
		"firstName":     "Ada",
		"lastName":      "Lovelace",
	}
}

func TestIntakeEndpointCreatesCandidate(t *testing.T) {
	fx := setupHandler(t)

	resp := postIntake(t, fx, applicationFields(), "resume.pdf")
	if resp.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", resp.Code, resp.Body.String())
	}

	payload := decodeJSON(t, resp)
	id, _ := payload["candidateId"].(string)
	if id == "" {
		t.Fatal("response missing candidateId")
	}
	if payload["email"] != "ada@example.com" {
		t.Errorf("email = %v", payload["email"])
	}
	if _, ok := payload["assessments"].([]any); !ok {
		t.Errorf("assessments should be an array, got %T", payload["assessments"])
	}

	if _, err := fx.repo.GetByID(context.Background(), id); err != nil {
		t.Fatalf("candidate not persisted: %v", err)
	}
	if msgs := fx.queue.Drain(); len(msgs) != 1 {
		t.Fatalf("enqueued %d messages, want 1", len(msgs))
	}
}

func TestIntakeEndpointMissingResume(t *testing.T) {
	fx := setupHandler(t)

	resp := postIntake(t, fx, applicationFields(), "")
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.Code)
	}
	if code := errorCode(t, resp); code != "validation_error" {
		t.Errorf("code = %q", code)
	}
}

func TestIntakeEndpointMissingEmail(t *testing.T) {
	fx := setupHandler(t)

	fields := applicationFields()
	delete(fields, "email")
	resp := postIntake(t, fx, fields, "resume.pdf")
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.Code)
	}
	if code := errorCode(t, resp); code != "validation_error" {
		t.Errorf("code = %q", code)
	}
}

func TestIntakeEndpointUnknownRequisition(t *testing.T) {
	fx := setupHandler(t)

	fields := applicationFields()
	fields["requisitionId"] = "ghost"
	resp := postIntake(t, fx, fields, "resume.pdf")
	if resp.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.Code)
	}
	if code := errorCode(t, resp); code != "not_found" {
		t.Errorf("code = %q", code)
	}
}

func TestIntakeEndpointDuplicateApplication(t *testing.T) {
	fx := setupHandler(t)

	if resp := postIntake(t, fx, applicationFields(), "resume.pdf"); resp.Code != http.StatusCreated {
		t.Fatalf("first status = %d, want 201", resp.Code)
	}
	resp := postIntake(t, fx, applicationFields(), "resume.pdf")
	if resp.Code != http.StatusConflict {
		t.Fatalf("second status = %d, want 409", resp.Code)
	}
	if code := errorCode(t, resp); code != "duplicate_application" {
		t.Errorf("code = %q", code)
	}
}

func postEvaluate(t *testing.T, fx *handlerFixture, id, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/candidates/"+id+"/evaluate", strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp := httptest.NewRecorder()
	fx.router.ServeHTTP(resp, req)
	return resp
}

func seedHandlerCandidate(t *testing.T, fx *handlerFixture, cand Candidate) {
	t.Helper()
	if cand.CreatedAt.IsZero() {
		cand.CreatedAt = time.Now().UTC()
	}
	if err := fx.repo.Create(context.Background(), cand); err != nil {
		t.Fatalf("create candidate: %v", err)
	}
}

func TestEvaluateEndpointAccepted(t *testing.T) {
	fx := setupHandler(t)
	seedHandlerCandidate(t, fx, Candidate{
		ID:            "cand-1",
		RequisitionID: "req-1",
		Email:         "ada@example.com",
		ResumeKey:     "resumes/cand-1/resume.pdf",
	})

	resp := postEvaluate(t, fx, "cand-1", "")
	if resp.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202: %s", resp.Code, resp.Body.String())
	}
	payload := decodeJSON(t, resp)
	if payload["candidateId"] != "cand-1" || payload["enqueued"] != true {
		t.Errorf("payload = %v", payload)
	}
	if msgs := fx.queue.Drain(); len(msgs) != 1 || msgs[0].Forced {
		t.Fatalf("unexpected messages %v", msgs)
	}
}

func TestEvaluateEndpointForceFlag(t *testing.T) {
	fx := setupHandler(t)
	recent := time.Now().UTC().Add(-time.Minute)
	seedHandlerCandidate(t, fx, Candidate{
		ID:              "cand-1",
		RequisitionID:   "req-1",
		Email:           "ada@example.com",
		ResumeKey:       "resumes/cand-1/resume.pdf",
		LastEvaluatedAt: &recent,
	})

	resp := postEvaluate(t, fx, "cand-1", `{"force": true}`)
	if resp.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202: %s", resp.Code, resp.Body.String())
	}
	msgs := fx.queue.Drain()
	if len(msgs) != 1 || !msgs[0].Forced {
		t.Fatalf("unexpected messages %v", msgs)
	}
}

func TestEvaluateEndpointForceQueryFlag(t *testing.T) {
	fx := setupHandler(t)
	recent := time.Now().UTC().Add(-time.Minute)
	seedHandlerCandidate(t, fx, Candidate{
		ID:              "cand-1",
		RequisitionID:   "req-1",
		Email:           "ada@example.com",
		ResumeKey:       "resumes/cand-1/resume.pdf",
		LastEvaluatedAt: &recent,
	})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/candidates/cand-1/evaluate?force=true", nil)
	resp := httptest.NewRecorder()
	fx.router.ServeHTTP(resp, req)

	if resp.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202: %s", resp.Code, resp.Body.String())
	}
	msgs := fx.queue.Drain()
	if len(msgs) != 1 || !msgs[0].Forced {
		t.Fatalf("unexpected messages %v", msgs)
	}
}

func TestEvaluateEndpointCooldown(t *testing.T) {
	fx := setupHandler(t)
	recent := time.Now().UTC().Add(-time.Minute)
	seedHandlerCandidate(t, fx, Candidate{
		ID:              "cand-1",
		RequisitionID:   "req-1",
		Email:           "ada@example.com",
		ResumeKey:       "resumes/cand-1/resume.pdf",
		LastEvaluatedAt: &recent,
	})

	resp := postEvaluate(t, fx, "cand-1", "")
	if resp.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", resp.Code)
	}
	if code := errorCode(t, resp); code != "cooldown_active" {
		t.Errorf("code = %q", code)
	}
}

func TestEvaluateEndpointNoResume(t *testing.T) {
	fx := setupHandler(t)
	seedHandlerCandidate(t, fx, Candidate{
		ID:            "cand-1",
		RequisitionID: "req-1",
		Email:         "ada@example.com",
	})

	resp := postEvaluate(t, fx, "cand-1", "")
	if resp.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", resp.Code)
	}
	if code := errorCode(t, resp); code != "no_resume" {
		t.Errorf("code = %q", code)
	}
}

func TestEvaluateEndpointAlreadyRunning(t *testing.T) {
	fx := setupHandler(t)
	seedHandlerCandidate(t, fx, Candidate{
		ID:            "cand-1",
		RequisitionID: "req-1",
		Email:         "ada@example.com",
		ResumeKey:     "resumes/cand-1/resume.pdf",
	})
	if _, err := fx.repo.BeginEvaluation(context.Background(), "cand-1", "evaluation-worker"); err != nil {
		t.Fatalf("BeginEvaluation: %v", err)
	}

	resp := postEvaluate(t, fx, "cand-1", "")
	if resp.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", resp.Code)
	}
	if code := errorCode(t, resp); code != "evaluation_in_progress" {
		t.Errorf("code = %q", code)
	}
}

func TestEvaluateEndpointUnknownCandidate(t *testing.T) {
	fx := setupHandler(t)

	resp := postEvaluate(t, fx, "ghost", "")
	if resp.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.Code)
	}
}

func TestEvaluateEndpointBadBody(t *testing.T) {
	fx := setupHandler(t)
	seedHandlerCandidate(t, fx, Candidate{
		ID:            "cand-1",
		RequisitionID: "req-1",
		Email:         "ada@example.com",
		ResumeKey:     "resumes/cand-1/resume.pdf",
	})

	resp := postEvaluate(t, fx, "cand-1", `{nope`)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.Code)
	}
}

func TestGetEndpointReturnsCandidateWithAssessments(t *testing.T) {
	fx := setupHandler(t)
	seedHandlerCandidate(t, fx, Candidate{
		ID:            "cand-1",
		RequisitionID: "req-1",
		FirstName:     "Ada",
		LastName:      "Lovelace",
		Email:         "ada@example.com",
		MatchingScore: 85,
		Rating:        0.85,
		Status:        StatusQualified,
	})
	if err := fx.repo.AppendAssessment(context.Background(), "cand-1", AssessmentRecord{
		AssessmentID:   "as-1",
		AssessmentName: "Coding Test",
		Sent:           true,
	}); err != nil {
		t.Fatalf("append assessment: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/candidates/cand-1", nil)
	resp := httptest.NewRecorder()
	fx.router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", resp.Code, resp.Body.String())
	}
	payload := decodeJSON(t, resp)
	if payload["candidateId"] != "cand-1" || payload["status"] != StatusQualified {
		t.Errorf("payload = %v", payload)
	}
	if payload["matchingScore"] != float64(85) {
		t.Errorf("matchingScore = %v", payload["matchingScore"])
	}
	rows, ok := payload["assessments"].([]any)
	if !ok || len(rows) != 1 {
		t.Fatalf("assessments = %v", payload["assessments"])
	}
	row, _ := rows[0].(map[string]any)
	if row["assessmentId"] != "as-1" || row["sent"] != true {
		t.Errorf("assessment row = %v", row)
	}
}

func TestGetEndpointUnknownCandidate(t *testing.T) {
	fx := setupHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/candidates/ghost", nil)
	resp := httptest.NewRecorder()
	fx.router.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.Code)
	}
	if code := errorCode(t, resp); code != "not_found" {
		t.Errorf("code = %q", code)
	}
}
