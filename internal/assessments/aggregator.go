package assessments

import (
	"context"
	"math"

	"jobmatch-backend/internal/candidates"
	"jobmatch-backend/internal/notify"
	"jobmatch-backend/internal/shared/telemetry"
)

// Minimum average score, out of 100, for a candidate to pass the full
// assessment set.
const acceptanceMinAverage = 40.0

// Outcome is the aggregate derived from a candidate's full assessment set.
type Outcome struct {
	CompletedCount int
	TotalCount     int
	AverageScore   float64
	Rating         float64
	FinalStatus    string
	Done           bool
}

// ComputeOutcome recomputes the aggregate from the full current record set.
// Recomputation over accumulation keeps duplicate and out-of-order events
// from double counting.
func ComputeOutcome(records []candidates.AssessmentRecord) Outcome {
	out := Outcome{TotalCount: len(records)}
	var sum float64
	for _, rec := range records {
		if rec.Completed {
			out.CompletedCount++
			sum += rec.Score
		}
	}
	if out.TotalCount == 0 || out.CompletedCount != out.TotalCount {
		return out
	}

	out.Done = true
	out.AverageScore = round2(sum / float64(out.TotalCount))
	out.Rating = round2(clamp01(out.AverageScore / 100))
	if out.AverageScore >= acceptanceMinAverage {
		out.FinalStatus = candidates.StatusAccepted
	} else {
		out.FinalStatus = candidates.StatusRejected
	}
	return out
}

// Aggregator merges assessment completions into candidate records and
// dispatches the final rejection notice when due.
type Aggregator struct {
	Repo            candidates.Repo
	Notifier        *notify.Notifier
	ServiceIdentity string
}

// ProcessCompletion upserts one completion and, when the set is complete,
// writes the aggregate outcome. A rejection whose notice cannot be delivered
// aborts the whole write so the event can be redelivered.
func (a *Aggregator) ProcessCompletion(ctx context.Context, cand candidates.Candidate, jobTitle, assessmentID, assessmentName string, score float64) error {
	return a.Repo.CompleteAssessment(ctx, cand.ID, assessmentID, assessmentName, score, a.ServiceIdentity,
		func(records []candidates.AssessmentRecord) (candidates.AggregateUpdate, bool, error) {
			out := ComputeOutcome(records)
			if !out.Done {
				return candidates.AggregateUpdate{}, false, nil
			}

			if out.FinalStatus == candidates.StatusRejected {
				err := a.Notifier.SendRejectedAfterAssessments(ctx, cand.Email, notify.TemplateContext{
					FirstName: cand.FirstName,
					LastName:  cand.LastName,
					JobTitle:  jobTitle,
				})
				if err != nil {
					return candidates.AggregateUpdate{}, false, err
				}
			}

			telemetry.Info("assessments.aggregate_complete", map[string]any{
				"candidate_id":  cand.ID,
				"total":         out.TotalCount,
				"average_score": out.AverageScore,
				"final_status":  out.FinalStatus,
			})
			return candidates.AggregateUpdate{Rating: out.Rating, Status: out.FinalStatus}, true, nil
		})
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
