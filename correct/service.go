package correct

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"

	"rfsouza/textfix/config"
)

// Request is a single correction job, created per hotkey trigger.
type Request struct {
	Text     string
	Language config.Language
}

// Result is the outcome of a successful correction.
type Result struct {
	Original  string
	Corrected string
	Provider  string
	Model     string
	Attempts  int
	Elapsed   time.Duration
}

// Changed reports whether the correction differs from the input.
func (r Result) Changed() bool {
	return strings.TrimSpace(r.Original) != strings.TrimSpace(r.Corrected)
}

// Service turns a Request into a Result. It owns prompt assembly, the
// retry policy for transient failures, and response hygiene. Every
// failure it returns is a *Error carrying a Kind; nothing else escapes.
type Service struct {
	provider   Provider
	model      string
	maxRetries int
	maxTextLen int
	retryDelay time.Duration
}

// NewService creates a correction service over the given backend.
func NewService(provider Provider, cfg config.CorrectionConfig) *Service {
	return &Service{
		provider:   provider,
		model:      cfg.Model,
		maxRetries: cfg.MaxRetries,
		maxTextLen: cfg.MaxTextLength,
		retryDelay: 500 * time.Millisecond,
	}
}

// Correct runs one correction cycle against the provider.
func (s *Service) Correct(ctx context.Context, req Request) (Result, error) {
	start := time.Now()

	if strings.TrimSpace(req.Text) == "" {
		return Result{}, newError(KindMalformed, "text is empty")
	}
	if s.maxTextLen > 0 && len(req.Text) > s.maxTextLen {
		return Result{}, newError(KindMalformed, "text is too long (%d chars, max %d)", len(req.Text), s.maxTextLen)
	}

	prompt := BuildPrompt(req.Text, req.Language)

	attempts := 0
	raw, err := retry.DoWithData(
		func() (string, error) {
			attempts++
			return s.provider.Generate(ctx, prompt)
		},
		retry.Context(ctx),
		retry.Attempts(uint(s.maxRetries+1)),
		retry.Delay(s.retryDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(IsTransient),
		retry.OnRetry(func(n uint, err error) {
			slog.Warn("Correction attempt failed, retrying", "attempt", n+1, "error", err)
		}),
	)
	if err != nil {
		// The deadline can fire between attempts, in which case retry-go
		// hands back the bare context error.
		if errors.Is(err, context.DeadlineExceeded) {
			return Result{}, wrapError(KindTimeout, err, "correction timed out")
		}
		var ce *Error
		if errors.As(err, &ce) {
			return Result{}, ce
		}
		return Result{}, wrapError(KindMalformed, err, "correction failed")
	}

	corrected := cleanResponse(raw)
	if corrected == "" {
		return Result{}, newError(KindEmptyResponse, "provider returned an empty correction")
	}

	return Result{
		Original:  req.Text,
		Corrected: corrected,
		Provider:  s.provider.Name(),
		Model:     s.model,
		Attempts:  attempts,
		Elapsed:   time.Since(start),
	}, nil
}

// cleanResponse strips the wrapping some models add around the corrected
// text: whitespace, markdown code fences and symmetric quotes.
func cleanResponse(raw string) string {
	text := strings.TrimSpace(raw)

	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		// Drop an optional language tag on the fence line.
		if i := strings.Index(text, "\n"); i >= 0 && !strings.ContainsAny(text[:i], " \t") {
			text = text[i+1:]
		}
		text = strings.TrimSuffix(strings.TrimSpace(text), "```")
		text = strings.TrimSpace(text)
	}

	for _, q := range []string{`"`, "'"} {
		if len(text) >= 2 && strings.HasPrefix(text, q) && strings.HasSuffix(text, q) {
			text = strings.TrimSpace(text[1 : len(text)-1])
		}
	}

	return text
}
