// Package completion hands confirmed records to the persistence and notification sinks.
package completion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/antoniostano/helpdesk/internal/complaint"
	"github.com/antoniostano/helpdesk/internal/notify"
	"github.com/antoniostano/helpdesk/internal/observability"
)

// Outcome reports each sink independently. An unconfigured sink counts as success.
type Outcome struct {
	Persisted bool `json:"persisted"`
	Notified  bool `json:"notified"`
}

// Sink runs persistence and notification side by side; neither failure affects the other.
type Sink struct {
	store    complaint.Store
	notifier notify.Notifier
	logger   *slog.Logger
	metrics  *observability.Metrics
}

func NewSink(store complaint.Store, notifier notify.Notifier, logger *slog.Logger, metrics *observability.Metrics) *Sink {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sink{
		store:    store,
		notifier: notifier,
		logger:   logger,
		metrics:  metrics,
	}
}

func (s *Sink) Submit(ctx context.Context, record complaint.Record) Outcome {
	var (
		out Outcome
		g   errgroup.Group
	)
	g.Go(func() error {
		out.Persisted = s.persist(ctx, record)
		return nil
	})
	g.Go(func() error {
		out.Notified = s.notify(ctx, record)
		return nil
	})
	_ = g.Wait()
	return out
}

func (s *Sink) persist(ctx context.Context, record complaint.Record) bool {
	if s.store == nil {
		s.logger.Info("complaint store not configured, skipping save")
		s.metrics.ObserveSink("store", "skipped")
		return true
	}
	err := guard(func() error { return s.store.Insert(ctx, record) })
	if err != nil {
		s.logger.Error("saving complaint failed", "store", s.store.Name(), "error", err)
		s.metrics.ObserveSink("store", "error")
		return false
	}
	s.logger.Info("complaint saved", "store", s.store.Name())
	s.metrics.ObserveSink("store", "ok")
	return true
}

func (s *Sink) notify(ctx context.Context, record complaint.Record) bool {
	if s.notifier == nil {
		s.logger.Info("webhook not configured, skipping")
		s.metrics.ObserveSink("webhook", "skipped")
		return true
	}
	err := guard(func() error { return s.notifier.Notify(ctx, record) })
	if err != nil {
		var statusErr *notify.StatusError
		retryable := errors.As(err, &statusErr) && statusErr.Retryable()
		s.logger.Error("triggering webhook failed", "error", err, "retryable", retryable)
		s.metrics.ObserveSink("webhook", "error")
		return false
	}
	s.logger.Info("webhook triggered")
	s.metrics.ObserveSink("webhook", "ok")
	return true
}

// guard converts a panic in fn into an error.
func guard(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn()
}
