package extract

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/antoniostano/helpdesk/internal/observability"
	"github.com/antoniostano/helpdesk/internal/policy"
)

// Safe wraps a provider so that no failure escapes: errors and panics degrade
// to the trimmed input.
type Safe struct {
	inner    Extractor
	provider string
	logger   *slog.Logger
	metrics  *observability.Metrics
}

func NewSafe(inner Extractor, provider string, logger *slog.Logger, metrics *observability.Metrics) *Safe {
	if logger == nil {
		logger = slog.Default()
	}
	return &Safe{inner: inner, provider: provider, logger: logger, metrics: metrics}
}

// Provider names the wrapped implementation.
func (s *Safe) Provider() string { return s.provider }

func (s *Safe) Extract(ctx context.Context, text string) (string, error) {
	fallback := strings.TrimSpace(text)
	if s.inner == nil {
		return fallback, nil
	}

	name, err := s.call(ctx, text)
	if err != nil {
		s.logger.Warn("name extraction failed, using message verbatim",
			"provider", s.provider,
			"input", policy.Redact(fallback),
			"error", err,
		)
		s.metrics.ObserveExtractor(s.provider, "fallback")
		return fallback, nil
	}
	s.metrics.ObserveExtractor(s.provider, "ok")
	return Clean(name), nil
}

func (s *Safe) call(ctx context.Context, text string) (name string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("extractor panic: %v", r)
		}
	}()
	return s.inner.Extract(ctx, text)
}
