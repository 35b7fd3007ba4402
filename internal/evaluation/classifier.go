package evaluation

import (
	"context"

	"jobmatch-backend/internal/llm"
	"jobmatch-backend/internal/shared/telemetry"
)

// Classifier decides whether prepared parts look like a resume at all.
// It fails open: when the model layer is down or its output is garbage, the
// pipeline proceeds rather than blocking on an unrelated outage.
type Classifier struct {
	Invoker *llm.Invoker
}

// Classify runs the classification instruction over the prepared parts.
func (c *Classifier) Classify(ctx context.Context, parts []llm.Part) Classification {
	prompt := append(append([]llm.Part(nil), parts...), llm.TextPart(classifyInstruction))

	raw, err := c.Invoker.Invoke(ctx, prompt)
	if err != nil {
		telemetry.Error("evaluation.classify_unavailable", map[string]any{"error": err.Error()})
		return Classification{IsResume: true, Reason: "classifier unavailable"}
	}

	var result Classification
	if err := parseModelJSON(raw, &result); err != nil {
		telemetry.Error("evaluation.classify_unparseable", map[string]any{"error": err.Error()})
		return Classification{IsResume: true, Reason: "classifier output unparseable"}
	}
	return result
}
