package evaluation

import (
	"context"
	"encoding/json"
	"fmt"

	"jobmatch-backend/internal/llm"
)

// Scorer computes a 0-100 fit score between a candidate profile and a job
// profile.
type Scorer struct {
	Invoker *llm.Invoker
}

// Score runs the comparison instruction and parses the result. Same
// parse-retry-then-fail policy as extraction.
func (s *Scorer) Score(ctx context.Context, profile CandidateProfile, job JobProfile) (MatchResult, error) {
	profileJSON, err := json.Marshal(profile)
	if err != nil {
		return MatchResult{}, fmt.Errorf("marshal candidate profile: %w", err)
	}
	jobJSON, err := json.Marshal(job)
	if err != nil {
		return MatchResult{}, fmt.Errorf("marshal job profile: %w", err)
	}

	prompt := fmt.Sprintf(scoreInstruction, profileJSON, jobJSON)
	raw, err := s.Invoker.Invoke(ctx, []llm.Part{llm.TextPart(prompt)})
	if err != nil {
		return MatchResult{}, err
	}

	var result MatchResult
	if err := parseModelJSON(raw, &result); err != nil {
		return MatchResult{}, fmt.Errorf("%w: %v", ErrScoringFailed, err)
	}

	if result.Score < 0 {
		result.Score = 0
	}
	if result.Score > 100 {
		result.Score = 100
	}
	return result, nil
}
