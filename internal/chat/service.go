// Package chat maps one inbound turn onto the session store and the intake machine.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"
	"time"

	"github.com/antoniostano/helpdesk/internal/complaint"
	"github.com/antoniostano/helpdesk/internal/intake"
	"github.com/antoniostano/helpdesk/internal/observability"
	"github.com/antoniostano/helpdesk/internal/policy"
	"github.com/antoniostano/helpdesk/internal/session"
)

// ErrEmptyMessage rejects a blank message on an existing session.
var ErrEmptyMessage = errors.New("message cannot be empty")

type Request struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id,omitempty"`
}

type Response struct {
	Reply     string `json:"reply"`
	SessionID string `json:"session_id"`
	Timestamp string `json:"timestamp"`
}

// Stepper computes the next state for one message.
type Stepper interface {
	Advance(ctx context.Context, current intake.State, input string) (intake.State, string)
}

type Service struct {
	store   session.Store
	machine Stepper
	logger  *slog.Logger
	metrics *observability.Metrics
	now     func() time.Time
}

func NewService(store session.Store, machine Stepper, logger *slog.Logger, metrics *observability.Metrics) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:   store,
		machine: machine,
		logger:  logger,
		metrics: metrics,
		now:     time.Now,
	}
}

// Handle runs one turn. A new session always receives the greeting.
func (s *Service) Handle(ctx context.Context, req Request) (Response, error) {
	start := s.now()
	message := strings.TrimSpace(req.Message)

	st, created, err := s.store.GetOrCreate(ctx, strings.TrimSpace(req.SessionID))
	if err != nil {
		return Response{}, fmt.Errorf("resolve session: %w", err)
	}

	if created {
		st.Append(intake.RoleAssistant, intake.Greeting)
		if err := s.store.Save(ctx, st); err != nil {
			return Response{}, fmt.Errorf("save session: %w", err)
		}
		s.metrics.ObserveSessionEvent("created")
		if counter, ok := s.store.(interface{ ActiveCount() int }); ok {
			s.metrics.SetActiveSessions(counter.ActiveCount())
		}
		s.logger.Info("session created", "session_id", st.SessionID)
		return s.respond(st.SessionID, intake.Greeting), nil
	}

	if message == "" {
		s.metrics.ObserveTurn(string(st.Step), "rejected", s.now().Sub(start))
		return Response{}, ErrEmptyMessage
	}

	s.logger.Debug("turn received",
		"session_id", st.SessionID,
		"step", st.Step,
		"message", policy.Redact(message),
	)

	next, reply, err := s.advance(ctx, st, message)
	outcome := "ok"
	if err != nil {
		s.logger.Error("processing conversation failed",
			"session_id", st.SessionID,
			"step", st.Step,
			"error", err,
		)
		outcome = "error"
		// Keep the committed slots and step; only the transcript moves forward.
		next = st.Clone()
		reply = intake.ErrorReply
	}

	next.Append(intake.RoleUser, message)
	next.Append(intake.RoleAssistant, reply)
	if err := s.store.Save(ctx, next); err != nil {
		return Response{}, fmt.Errorf("save session: %w", err)
	}

	s.metrics.ObserveTransition(string(st.Step), string(next.Step))
	s.metrics.ObserveTurn(string(st.Step), outcome, s.now().Sub(start))
	s.logger.Info("turn handled",
		"session_id", st.SessionID,
		"from_step", st.Step,
		"to_step", next.Step,
	)
	if next.Step == intake.StepCompleted && st.Step != intake.StepCompleted {
		s.metrics.ObserveSessionEvent("completed")
	}
	return s.respond(next.SessionID, reply), nil
}

// advance isolates the machine step so a panic leaves st untouched.
func (s *Service) advance(ctx context.Context, st intake.State, message string) (next intake.State, reply string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in step %s: %v\n%s", st.Step, r, debug.Stack())
		}
	}()
	next, reply = s.machine.Advance(ctx, st.Clone(), message)
	return next, reply, nil
}

func (s *Service) respond(sessionID, reply string) Response {
	return Response{
		Reply:     reply,
		SessionID: sessionID,
		Timestamp: s.now().UTC().Format(complaint.TimestampLayout),
	}
}
