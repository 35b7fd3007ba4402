package evaluation

import (
	"context"
	"fmt"

	"jobmatch-backend/internal/llm"
)

// Extractor produces a structured candidate profile from prepared parts.
type Extractor struct {
	Invoker *llm.Invoker
}

// Extract runs the extraction instruction and parses the profile. A model
// outage or unparseable output is fatal to the run; every downstream
// decision depends on this data.
func (e *Extractor) Extract(ctx context.Context, parts []llm.Part) (CandidateProfile, error) {
	prompt := append(append([]llm.Part(nil), parts...), llm.TextPart(extractInstruction))

	raw, err := e.Invoker.Invoke(ctx, prompt)
	if err != nil {
		return CandidateProfile{}, err
	}

	var profile CandidateProfile
	if err := parseModelJSON(raw, &profile); err != nil {
		return CandidateProfile{}, fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}
	profile.normalize()
	return profile, nil
}
