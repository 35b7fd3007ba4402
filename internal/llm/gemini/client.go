package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"

	"jobmatch-backend/internal/llm"
)

// Client implements llm.Generator against the Gemini API backend.
type Client struct {
	client *genai.Client
}

// New creates a client configured for the Gemini API backend.
func New(ctx context.Context, apiKey string) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return &Client{client: client}, nil
}

// Generate sends the prompt parts to the given model and returns the textual response.
func (c *Client) Generate(ctx context.Context, model string, parts []llm.Part) (string, error) {
	if c == nil || c.client == nil {
		return "", errors.New("gemini client is not initialized")
	}
	model = strings.TrimSpace(model)
	if model == "" {
		return "", errors.New("model name is required")
	}
	if len(parts) == 0 {
		return "", errors.New("at least one prompt part is required")
	}

	contents := []*genai.Content{{
		Role:  genai.RoleUser,
		Parts: convertParts(parts),
	}}

	resp, err := c.client.Models.GenerateContent(ctx, model, contents, nil)
	if err != nil {
		return "", classifyAPIError(err)
	}

	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil {
				continue
			}
			text := strings.TrimSpace(part.Text)
			if text == "" {
				continue
			}
			if builder.Len() > 0 {
				builder.WriteString("\n")
			}
			builder.WriteString(text)
		}
	}

	output := strings.TrimSpace(builder.String())
	if output == "" {
		return "", llm.ErrEmptyResponse
	}

	return output, nil
}

func convertParts(parts []llm.Part) []*genai.Part {
	out := make([]*genai.Part, 0, len(parts))
	for _, p := range parts {
		if len(p.Data) > 0 {
			out = append(out, &genai.Part{InlineData: &genai.Blob{
				MIMEType: p.MIMEType,
				Data:     p.Data,
			}})
			continue
		}
		out = append(out, &genai.Part{Text: p.Text})
	}
	return out
}

func classifyAPIError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Code == http.StatusNotFound {
			return fmt.Errorf("%w: %v", llm.ErrModelNotSupported, err)
		}
		return fmt.Errorf("generate content (http status %d): %w", apiErr.Code, err)
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "not found") || strings.Contains(msg, "is not supported") {
		return fmt.Errorf("%w: %v", llm.ErrModelNotSupported, err)
	}
	return fmt.Errorf("generate content: %w", err)
}

var _ llm.Generator = (*Client)(nil)
