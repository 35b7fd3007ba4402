package candidates

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"jobmatch-backend/internal/queue"
	"jobmatch-backend/internal/requisitions"
	"jobmatch-backend/internal/shared/storage/object"
	"jobmatch-backend/internal/shared/telemetry"
)

// ErrInvalidInput signals missing or malformed intake fields.
var ErrInvalidInput = errors.New("invalid input")

// Service contains intake and evaluation-trigger logic for candidates.
type Service struct {
	Store         object.ObjectStore
	Repo          Repo
	Requisitions  requisitions.Repo
	Queue         queue.Client
	RetryCooldown time.Duration
}

// IntakeInput is a new application submission.
type IntakeInput struct {
	RequisitionID string
	Email         string
	FirstName     string
	LastName      string
	FileName      string
	Resume        io.Reader
}

// Intake stores the resume, creates the candidate record, and enqueues the
// first evaluation run.
func (s *Service) Intake(ctx context.Context, in IntakeInput, requestID string) (Candidate, error) {
	in.RequisitionID = strings.TrimSpace(in.RequisitionID)
	in.Email = strings.TrimSpace(in.Email)
	if in.RequisitionID == "" || in.Email == "" || in.FileName == "" || in.Resume == nil {
		return Candidate{}, ErrInvalidInput
	}

	if _, err := s.Requisitions.GetByID(ctx, in.RequisitionID); err != nil {
		return Candidate{}, err
	}

	id := uuid.NewString()
	storageKey, _, mimeType, err := s.Store.Save(ctx, id, in.FileName, in.Resume)
	if err != nil {
		return Candidate{}, err
	}

	now := time.Now().UTC()
	cand := Candidate{
		ID:              id,
		RequisitionID:   in.RequisitionID,
		FirstName:       in.FirstName,
		LastName:        in.LastName,
		Email:           in.Email,
		ResumeKey:       storageKey,
		ResumeMediaType: mimeType,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.Repo.Create(ctx, cand); err != nil {
		return Candidate{}, err
	}

	if err := s.enqueue(ctx, id, requestID, false); err != nil {
		// The record exists; evaluation can be retried explicitly.
		telemetry.Error("candidates.enqueue_failed", map[string]any{
			"candidate_id": id,
			"request_id":   requestID,
			"error":        err.Error(),
		})
	}

	return cand, nil
}

// RequestEvaluation enqueues a re-run for an existing candidate. A run
// already in progress is rejected; the cooldown applies unless forced.
func (s *Service) RequestEvaluation(ctx context.Context, id string, force bool, requestID string) error {
	cand, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if cand.ResumeKey == "" {
		return ErrNoResume
	}
	if cand.InProgress {
		return ErrEvaluationInProgress
	}
	if !force && cand.LastEvaluatedAt != nil && s.RetryCooldown > 0 {
		if since := time.Since(*cand.LastEvaluatedAt); since < s.RetryCooldown {
			return ErrCooldown
		}
	}
	return s.enqueue(ctx, id, requestID, force)
}

// Get returns a candidate with their assessment rows.
func (s *Service) Get(ctx context.Context, id string) (Candidate, []AssessmentRecord, error) {
	cand, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return Candidate{}, nil, err
	}
	records, err := s.Repo.ListAssessments(ctx, id)
	if err != nil {
		return Candidate{}, nil, err
	}
	return cand, records, nil
}

func (s *Service) enqueue(ctx context.Context, id, requestID string, forced bool) error {
	return s.Queue.Send(ctx, queue.Message{
		CandidateID: id,
		RequestID:   requestID,
		Forced:      forced,
		EnqueuedAt:  time.Now().UTC().Format(time.RFC3339),
		Version:     1,
	})
}
