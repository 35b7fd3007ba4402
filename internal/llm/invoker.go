package llm

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net"
	"strings"
	"time"

	"jobmatch-backend/internal/shared/telemetry"
)

const (
	maxAttemptsPerModel = 5
	retryBaseDelay      = time.Second
	retryMaxDelay       = 10 * time.Second
	retryJitterMax      = 500 * time.Millisecond
)

// Invoker runs prompts against an ordered list of models, retrying
// transient failures per model and falling back to the next model when
// one is exhausted or unsupported.
type Invoker struct {
	generator Generator
	models    []string

	// sleep is swapped in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewInvoker builds an invoker over the given generator and model priority list.
func NewInvoker(generator Generator, models []string) (*Invoker, error) {
	if generator == nil {
		return nil, errors.New("generator is required")
	}
	if len(models) == 0 {
		return nil, errors.New("at least one model is required")
	}
	return &Invoker{
		generator: generator,
		models:    models,
		sleep:     sleepCtx,
	}, nil
}

// Invoke tries each model in priority order until one returns text.
func (inv *Invoker) Invoke(ctx context.Context, parts []Part) (string, error) {
	var lastErr error

	for _, model := range inv.models {
		out, err := inv.invokeModel(ctx, model, parts)
		if err == nil {
			return out, nil
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		lastErr = err
		telemetry.Error("llm.model_exhausted", map[string]any{
			"model": model,
			"error": err.Error(),
		})
	}

	return "", fmt.Errorf("%w: %v", ErrAllModelsExhausted, lastErr)
}

func (inv *Invoker) invokeModel(ctx context.Context, model string, parts []Part) (string, error) {
	var lastErr error

	for attempt := 1; attempt <= maxAttemptsPerModel; attempt++ {
		out, err := inv.generator.Generate(ctx, model, parts)
		if err == nil {
			return out, nil
		}
		if errors.Is(err, ErrModelNotSupported) {
			return "", err
		}
		if !IsTransient(err) {
			return "", err
		}
		lastErr = err
		if attempt == maxAttemptsPerModel {
			break
		}

		delay := backoffDelay(attempt)
		telemetry.Info("llm.retry", map[string]any{
			"model":    model,
			"attempt":  attempt,
			"delay_ms": delay.Milliseconds(),
			"error":    err.Error(),
		})
		if err := inv.sleep(ctx, delay); err != nil {
			return "", err
		}
	}

	return "", fmt.Errorf("model %s: %w", model, lastErr)
}

// IsTransient reports whether an error is worth retrying against the same model.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "http status 5") ||
		strings.Contains(msg, "status: 5") ||
		strings.Contains(msg, "server_error") ||
		strings.Contains(msg, "unavailable") ||
		strings.Contains(msg, "resource exhausted") ||
		strings.Contains(msg, "rate limit") ||
		strings.Contains(msg, "429") {
		return true
	}
	if strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "connection closed") ||
		strings.Contains(msg, "broken pipe") ||
		strings.Contains(msg, "tls handshake timeout") ||
		strings.Contains(msg, "timeout") ||
		strings.Contains(msg, "eof") {
		return true
	}

	return false
}

func backoffDelay(attempt int) time.Duration {
	delay := retryBaseDelay << (attempt - 1)
	if delay > retryMaxDelay {
		delay = retryMaxDelay
	}
	return delay + time.Duration(rand.Int63n(int64(retryJitterMax)))
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
