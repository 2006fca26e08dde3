// Package intake implements the slot-filling conversation that collects an issue report.
package intake

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/antoniostano/helpdesk/internal/complaint"
	"github.com/antoniostano/helpdesk/internal/completion"
)

const minPhoneDigits = 10

var nonDigit = regexp.MustCompile(`\D`)

// NameExtractor pulls a person's name out of free text.
type NameExtractor interface {
	Extract(ctx context.Context, text string) (string, error)
}

// Sink receives a record once the user confirms it.
type Sink interface {
	Submit(ctx context.Context, record complaint.Record) completion.Outcome
}

// Machine computes turn transitions. It never mutates the state it is given.
type Machine struct {
	extractor NameExtractor
	sink      Sink
	logger    *slog.Logger
	now       func() time.Time
}

func NewMachine(extractor NameExtractor, sink Sink, logger *slog.Logger) *Machine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Machine{
		extractor: extractor,
		sink:      sink,
		logger:    logger,
		now:       time.Now,
	}
}

// Advance consumes one user message and returns the next state and the reply.
// The caller decides whether to commit the returned state.
func (m *Machine) Advance(ctx context.Context, current State, input string) (State, string) {
	next := current.Clone()
	lower := strings.ToLower(strings.TrimSpace(input))

	switch current.Step {
	case StepGreet:
		next.Step = StepAskIssueType
		return next, askIssueTypePrompt

	case StepAskIssueType:
		issueType, ok := MatchIssueType(lower)
		if !ok {
			return next, issueTypeRetry()
		}
		next.IssueType = issueType
		next.Step = StepAskLocation
		return next, askLocation(issueType)

	case StepAskLocation:
		location := strings.TrimSpace(input)
		if location == "" {
			return next, askLocationRetry
		}
		next.Location = location
		next.Step = StepAskDescription
		return next, askDescription

	case StepAskDescription:
		description := strings.TrimSpace(input)
		if description == "" {
			return next, askDescriptionRetry
		}
		next.Description = description
		next.Step = StepAskName
		return next, askName

	case StepAskName:
		name := m.extractName(ctx, input)
		if name == "" {
			return next, askNameRetry
		}
		next.Name = name
		next.Step = StepAskContact
		return next, askContact(name)

	case StepAskContact:
		digits := nonDigit.ReplaceAllString(input, "")
		if len(digits) < minPhoneDigits {
			return next, askContactRetry
		}
		next.Phone = digits
		next.Step = StepConfirm
		return next, summary(next)

	case StepConfirm:
		switch {
		case isAffirmative(lower):
			m.submit(ctx, next)
			next.Step = StepCompleted
			return next, successReply
		case isNegative(lower):
			next.ClearSlots()
			next.Step = StepAskIssueType
			return next, restartPrompt
		default:
			return next, confirmRetry
		}

	case StepCompleted:
		return next, alreadyRegistered
	}

	return next, helpReply
}

func (m *Machine) extractName(ctx context.Context, input string) string {
	fallback := strings.TrimSpace(input)
	if m.extractor == nil {
		return fallback
	}
	name, err := m.extractor.Extract(ctx, input)
	if err != nil {
		m.logger.Warn("name extraction failed, using raw message", "error", err)
		return fallback
	}
	return name
}

func (m *Machine) submit(ctx context.Context, s State) {
	record := complaint.Record{
		Name:        s.Name,
		IssueType:   s.IssueType,
		Location:    s.Location,
		Description: s.Description,
		Phone:       s.Phone,
		Timestamp:   m.now().UTC().Format(complaint.TimestampLayout),
	}
	if m.sink == nil {
		m.logger.Warn("no completion sink configured, record dropped", "session_id", s.SessionID)
		return
	}
	// A confirmed report outlives the request that confirmed it.
	outcome := m.sink.Submit(context.WithoutCancel(ctx), record)
	m.logger.Info("complaint submitted",
		"session_id", s.SessionID,
		"issue_type", record.IssueType,
		"persisted", outcome.Persisted,
		"notified", outcome.Notified,
	)
}

// Affirmative wins when an answer contains both.
func isAffirmative(lower string) bool {
	return strings.Contains(lower, "yes") || strings.Contains(lower, "correct") || lower == "y"
}

func isNegative(lower string) bool {
	return strings.Contains(lower, "no") || lower == "n"
}
