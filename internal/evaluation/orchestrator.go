package evaluation

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"jobmatch-backend/internal/assessments"
	"jobmatch-backend/internal/candidates"
	"jobmatch-backend/internal/normalize"
	"jobmatch-backend/internal/notify"
	"jobmatch-backend/internal/requisitions"
	"jobmatch-backend/internal/shared/metrics"
	"jobmatch-backend/internal/shared/storage/object"
	"jobmatch-backend/internal/shared/telemetry"
)

// Invite dispatch fires at this fixed score, independent of the configurable
// qualification threshold.
const inviteScoreThreshold = 70

// InviteSender is the slice of the vendor API the orchestrator needs.
type InviteSender interface {
	SendInvite(ctx context.Context, assessmentID string, invite assessments.Invite) error
}

// ResumePreparer turns a stored attachment into model-consumable parts.
// Satisfied by *normalize.Normalizer.
type ResumePreparer interface {
	Prepare(ctx context.Context, att normalize.Attachment) (normalize.Result, error)
}

// Orchestrator sequences one candidate evaluation run:
// prepare -> classify -> extract -> score -> dispatch.
type Orchestrator struct {
	Repo         candidates.Repo
	Requisitions requisitions.Repo
	Store        object.ObjectStore
	Normalizer   ResumePreparer
	Classifier   *Classifier
	Extractor    *Extractor
	Scorer       *Scorer
	Vendor       InviteSender
	Notifier     *notify.Notifier

	QualificationThreshold int
	RejectedMaxScore       int
	ServiceIdentity        string
}

// Run executes one evaluation for the candidate. Re-running overwrites the
// previous state wholesale, so retries converge. Returns
// candidates.ErrEvaluationInProgress when another run holds the candidate.
func (o *Orchestrator) Run(ctx context.Context, candidateID, requestID string) error {
	started := time.Now()
	cand, err := o.Repo.GetByID(ctx, candidateID)
	if err != nil {
		return err
	}

	acquired, err := o.Repo.BeginEvaluation(ctx, candidateID, o.ServiceIdentity)
	if err != nil {
		return err
	}
	if !acquired {
		return candidates.ErrEvaluationInProgress
	}
	metrics.IncEvaluationStarted()

	// Guaranteed release: whichever exit path runs, in_progress is cleared
	// exactly once. FinishEvaluation clears it as part of the state write;
	// this guard covers aborts before any Finish call.
	finished := false
	defer func() {
		if finished {
			return
		}
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		if err := o.Repo.ReleaseEvaluation(releaseCtx, candidateID); err != nil {
			telemetry.Error("evaluation.release_failed", map[string]any{
				"candidate_id": candidateID,
				"error":        err.Error(),
			})
		}
	}()

	finish := func(res candidates.EvaluationResult) error {
		if err := o.Repo.FinishEvaluation(ctx, candidateID, res, o.ServiceIdentity); err != nil {
			return err
		}
		finished = true
		metrics.ObserveEvaluationDurationMs(float64(time.Since(started).Milliseconds()))
		if res.Failed {
			metrics.IncEvaluationFailed()
		} else {
			metrics.IncEvaluationCompleted()
		}
		telemetry.Info("evaluation.finished", map[string]any{
			"candidate_id": candidateID,
			"request_id":   requestID,
			"status":       res.Status,
			"score":        res.MatchingScore,
			"failed":       res.Failed,
		})
		return nil
	}

	attachment, err := o.loadResume(ctx, cand)
	if err != nil {
		return finish(failedResult(cand, fmt.Errorf("load resume: %w", err)))
	}

	// Preparing.
	prepared, err := o.Normalizer.Prepare(ctx, attachment)
	if err != nil {
		if errors.Is(err, normalize.ErrUnsupportedFormat) {
			return finish(rejectedResult(cand, "unsupported format"))
		}
		return finish(failedResult(cand, err))
	}
	if len(prepared.Converted) > 0 {
		o.saveConverted(ctx, cand, prepared.Converted)
	}

	// Classifying.
	classification := o.Classifier.Classify(ctx, prepared.Parts)
	if !classification.IsResume {
		reason := "not a resume"
		if classification.Reason != "" {
			reason = fmt.Sprintf("not a resume: %s", classification.Reason)
		}
		return finish(rejectedResult(cand, reason))
	}

	// Extracting.
	profile, err := o.Extractor.Extract(ctx, prepared.Parts)
	if err != nil {
		return finish(failedResult(cand, err))
	}

	// Scoring.
	requisition, err := o.Requisitions.GetByID(ctx, cand.RequisitionID)
	if err != nil {
		return finish(failedResult(cand, fmt.Errorf("load requisition: %w", err)))
	}
	match, err := o.Scorer.Score(ctx, profile, JobProfile{
		RequiredSkills:         requisition.RequiredSkills,
		RequiredTools:          requisition.RequiredTools,
		MinimumExperience:      requisition.MinimumExperience,
		RequiredEducationLevel: requisition.RequiredEducationLevel,
		Description:            requisition.Description,
	})
	if err != nil {
		return finish(failedResult(cand, err))
	}

	// Dispatching. Failures here are logged to last_error but never roll
	// back the computed score and status.
	res := scoredResult(cand, profile, match, o.QualificationThreshold, o.RejectedMaxScore)
	if dispatchErr := o.dispatch(ctx, cand, profile, requisition, match.Score); dispatchErr != nil {
		res.LastError = sanitizeError(fmt.Errorf("dispatch: %w", dispatchErr))
	}
	return finish(res)
}

func (o *Orchestrator) loadResume(ctx context.Context, cand candidates.Candidate) (normalize.Attachment, error) {
	if cand.ResumeKey == "" {
		return normalize.Attachment{}, candidates.ErrNoResume
	}
	body, err := o.Store.Open(ctx, cand.ResumeKey)
	if err != nil {
		return normalize.Attachment{}, err
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return normalize.Attachment{}, err
	}
	return normalize.Attachment{
		Data:      data,
		MediaType: cand.ResumeMediaType,
		FileName:  cand.ResumeKey,
	}, nil
}

// saveConverted keeps the word->pdf artifact next to the original resume so
// reruns and audits can read the exact document the model saw. Failure to
// save never fails the run.
func (o *Orchestrator) saveConverted(ctx context.Context, cand candidates.Candidate, data []byte) {
	key := cand.ResumeKey + ".converted.pdf"
	if _, err := o.Store.SaveWithKey(ctx, key, "application/pdf", bytes.NewReader(data)); err != nil {
		telemetry.Error("evaluation.converted_save_failed", map[string]any{
			"candidate_id": cand.ID,
			"storage_key":  key,
			"error":        err.Error(),
		})
	}
}

func (o *Orchestrator) dispatch(ctx context.Context, cand candidates.Candidate, profile CandidateProfile, requisition requisitions.Requisition, score int) error {
	data := notify.TemplateContext{
		FirstName: firstNonEmpty(profile.FirstName, cand.FirstName),
		LastName:  firstNonEmpty(profile.LastName, cand.LastName),
		JobTitle:  requisition.Title,
	}

	if score < inviteScoreThreshold {
		return o.Notifier.SendNotMatching(ctx, cand.Email, data)
	}

	assigned, err := o.Requisitions.ListAssessments(ctx, requisition.ID)
	if err != nil {
		return fmt.Errorf("list assessments: %w", err)
	}

	invite := assessments.Invite{
		FirstName: data.FirstName,
		LastName:  data.LastName,
		Email:     cand.Email,
	}

	var firstErr error
	for _, a := range assigned {
		err := o.Vendor.SendInvite(ctx, a.AssessmentID, invite)
		switch {
		case err == nil:
			if err := o.Repo.AppendAssessment(ctx, cand.ID, candidates.AssessmentRecord{
				AssessmentID:   a.AssessmentID,
				AssessmentName: a.AssessmentName,
				Sent:           true,
			}); err != nil && firstErr == nil {
				firstErr = fmt.Errorf("record invite %s: %w", a.AssessmentID, err)
			}
		case errors.Is(err, assessments.ErrInviteNotFound), errors.Is(err, assessments.ErrInviteForbidden):
			telemetry.Info("evaluation.invite_skipped", map[string]any{
				"candidate_id":  cand.ID,
				"assessment_id": a.AssessmentID,
				"reason":        err.Error(),
			})
		default:
			telemetry.Error("evaluation.invite_failed", map[string]any{
				"candidate_id":  cand.ID,
				"assessment_id": a.AssessmentID,
				"error":         err.Error(),
			})
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// scoredResult applies the status bands and rating normalization to a
// completed scoring stage.
func scoredResult(cand candidates.Candidate, profile CandidateProfile, match MatchResult, qualificationThreshold, rejectedMaxScore int) candidates.EvaluationResult {
	res := profileResult(cand, profile)
	res.MatchingScore = match.Score
	res.Justification = match.Justification
	res.Rating = normalizedRating(match.Score)

	switch {
	case match.Score <= rejectedMaxScore:
		res.Status = candidates.StatusRejected
	case match.Score >= qualificationThreshold:
		res.Status = candidates.StatusQualified
	default:
		res.Status = candidates.StatusNotQualified
	}
	return res
}

// rejectedResult is a terminal business rejection before scoring: score 0,
// no failure flags.
func rejectedResult(cand candidates.Candidate, justification string) candidates.EvaluationResult {
	res := carriedResult(cand)
	res.Status = candidates.StatusRejected
	res.Justification = justification
	return res
}

// failedResult is the operational-failure bucket for manual reprocessing.
func failedResult(cand candidates.Candidate, err error) candidates.EvaluationResult {
	res := carriedResult(cand)
	res.Status = candidates.StatusErrorHold
	res.Failed = true
	res.LastError = sanitizeError(err)
	return res
}

// profileResult seeds a result with freshly extracted profile data, falling
// back to stored identity fields the extraction left empty.
func profileResult(cand candidates.Candidate, profile CandidateProfile) candidates.EvaluationResult {
	return candidates.EvaluationResult{
		FirstName:         firstNonEmpty(profile.FirstName, cand.FirstName),
		LastName:          firstNonEmpty(profile.LastName, cand.LastName),
		Age:               firstNonZero(profile.Age, cand.Age),
		Phones:            profile.Phones,
		Location:          firstNonEmpty(profile.Location, cand.Location),
		Skills:            profile.Skills,
		Tools:             profile.Tools,
		Experiences:       profile.Experiences,
		Educations:        profile.Educations,
		YearsOfExperience: profile.YearsOfExperience,
		EducationLevel:    profile.EducationLevel,
	}
}

// carriedResult keeps the stored profile fields for exits taken before
// extraction produced anything.
func carriedResult(cand candidates.Candidate) candidates.EvaluationResult {
	return candidates.EvaluationResult{
		FirstName:         cand.FirstName,
		LastName:          cand.LastName,
		Age:               cand.Age,
		Phones:            cand.Phones,
		Location:          cand.Location,
		Skills:            cand.Skills,
		Tools:             cand.Tools,
		Experiences:       cand.Experiences,
		Educations:        cand.Educations,
		YearsOfExperience: cand.YearsOfExperience,
		EducationLevel:    cand.EducationLevel,
	}
}

// normalizedRating clamps score/100 into [0,1] and rounds to 2 decimals.
func normalizedRating(score int) float64 {
	r := float64(score) / 100
	if r < 0 {
		r = 0
	}
	if r > 1 {
		r = 1
	}
	return math.Round(r*100) / 100
}

func sanitizeError(err error) string {
	if err == nil {
		return ""
	}
	msg := strings.ReplaceAll(err.Error(), "\n", " ")
	msg = strings.ReplaceAll(msg, "\r", " ")
	msg = strings.TrimSpace(msg)
	const maxLen = 1000
	if len(msg) > maxLen {
		msg = msg[:maxLen]
	}
	return msg
}

func firstNonEmpty(a, b string) string {
	if strings.TrimSpace(a) != "" {
		return a
	}
	return b
}

func firstNonZero(a, b int) int {
	if a != 0 {
		return a
	}
	return b
}
