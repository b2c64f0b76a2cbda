package narrative

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"matchreport/internal/config"
)

// ErrTimeout is reported when a generator does not answer within its bound.
var ErrTimeout = errors.New("narrative generation timed out")

// Generator produces free text from a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GeneratorFunc adapts a function to the Generator interface.
type GeneratorFunc func(ctx context.Context, prompt string) (string, error)

// Generate calls f.
func (f GeneratorFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// Static always returns the same text.
type Static string

// Generate returns s.
func (s Static) Generate(context.Context, string) (string, error) {
	return string(s), nil
}

type result struct {
	text string
	err  error
}

// Resolve asks gen for a narrative, waiting at most timeout. A nil generator,
// a failure or a timeout all yield an empty narrative; failures are logged
// at warn level and never returned.
func Resolve(ctx context.Context, gen Generator, prompt string, timeout time.Duration, logger *slog.Logger) string {
	if logger == nil {
		logger = slog.Default()
	}
	text, err := Attempt(ctx, gen, prompt, timeout)
	if err != nil {
		logger.WarnContext(ctx, "narrative generation failed, continuing without narrative",
			slog.String("error", err.Error()),
			slog.Duration("timeout", timeout))
		return ""
	}
	return text
}

// Attempt runs gen once with a timeout and reports why it produced nothing.
// A nil generator returns "" and no error. Panics in gen are recovered and
// returned as errors; a generator that ignores cancellation is abandoned.
func Attempt(ctx context.Context, gen Generator, prompt string, timeout time.Duration) (string, error) {
	if gen == nil {
		return "", nil
	}

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	done := make(chan result, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- result{err: fmt.Errorf("narrative generator panicked: %v", r)}
			}
		}()
		text, err := gen.Generate(ctx, prompt)
		done <- result{text: text, err: err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			return "", r.err
		}
		return strings.TrimSpace(r.text), nil
	case <-ctx.Done():
		err := ctx.Err()
		if errors.Is(err, context.DeadlineExceeded) {
			return "", ErrTimeout
		}
		return "", err
	}
}

// New builds the generator selected by cfg. It returns nil for the "none"
// provider.
func New(ctx context.Context, cfg config.NarrativeConfig) (Generator, error) {
	switch cfg.Provider {
	case "", config.NarrativeNone:
		return nil, nil
	case config.NarrativeStatic:
		return Static(cfg.StaticText), nil
	case config.NarrativeGemini:
		g, err := NewGemini(ctx, GeminiConfig{
			APIKey:   cfg.APIKey,
			Model:    cfg.Model,
			Endpoint: cfg.Endpoint,
		})
		if err != nil {
			return nil, err
		}
		return g, nil
	default:
		return nil, fmt.Errorf("unknown narrative provider %q", cfg.Provider)
	}
}
