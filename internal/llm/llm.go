package llm

import (
	"context"
	"errors"
)

// Part is one piece of a multimodal prompt.
type Part struct {
	Text     string
	MIMEType string
	Data     []byte
}

// TextPart builds a text prompt part.
func TextPart(text string) Part {
	return Part{Text: text}
}

// BlobPart builds a binary prompt part with its media type.
func BlobPart(mimeType string, data []byte) Part {
	return Part{MIMEType: mimeType, Data: data}
}

// Generator abstracts a model provider for single-turn generation.
type Generator interface {
	Generate(ctx context.Context, model string, parts []Part) (string, error)
}

// ErrModelNotSupported signals the provider rejected the requested model.
// The invoker moves on to the next model without retrying.
var ErrModelNotSupported = errors.New("model not supported")

// ErrAllModelsExhausted signals that every configured model failed.
var ErrAllModelsExhausted = errors.New("all models exhausted")

// ErrEmptyResponse signals the provider returned no usable text.
var ErrEmptyResponse = errors.New("model returned empty response")
