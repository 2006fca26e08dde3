package intake

import (
	"strings"
	"time"
)

// Step identifies where a session is in the intake flow.
type Step string

const (
	// StepGreet is defined for completeness; new sessions start at StepAskIssueType.
	StepGreet          Step = "greet"
	StepAskIssueType   Step = "ask_issue_type"
	StepAskLocation    Step = "ask_location"
	StepAskDescription Step = "ask_description"
	StepAskName        Step = "ask_name"
	StepAskContact     Step = "ask_contact"
	StepConfirm        Step = "confirm"
	StepCompleted      Step = "completed"
)

// Steps lists every defined step in flow order.
var Steps = []Step{
	StepGreet,
	StepAskIssueType,
	StepAskLocation,
	StepAskDescription,
	StepAskName,
	StepAskContact,
	StepConfirm,
	StepCompleted,
}

// IssueTypes is the fixed catalog, matched in declaration order.
var IssueTypes = []string{"Garbage", "Water", "Road", "Streetlight", "Drainage", "Others"}

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one transcript entry.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// State is the per-session conversation state. An empty slot means unset.
type State struct {
	SessionID   string    `json:"session_id"`
	Step        Step      `json:"current_step"`
	Name        string    `json:"name,omitempty"`
	IssueType   string    `json:"issue_type,omitempty"`
	Location    string    `json:"location,omitempty"`
	Description string    `json:"description,omitempty"`
	Phone       string    `json:"phone,omitempty"`
	Messages    []Message `json:"messages"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewState returns a fresh state already positioned at StepAskIssueType.
func NewState(sessionID string, now time.Time) State {
	now = now.UTC()
	return State{
		SessionID: sessionID,
		Step:      StepAskIssueType,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Clone returns a copy that shares no transcript storage with s.
func (s State) Clone() State {
	c := s
	if s.Messages != nil {
		c.Messages = make([]Message, len(s.Messages))
		copy(c.Messages, s.Messages)
	}
	return c
}

func (s *State) Append(role Role, content string) {
	s.Messages = append(s.Messages, Message{Role: role, Content: content})
}

// ClearSlots unsets the five collected fields.
func (s *State) ClearSlots() {
	s.Name = ""
	s.IssueType = ""
	s.Location = ""
	s.Description = ""
	s.Phone = ""
}

// MatchIssueType returns the first catalog entry contained in input, ignoring case.
func MatchIssueType(input string) (string, bool) {
	lower := strings.ToLower(input)
	for _, issueType := range IssueTypes {
		if strings.Contains(lower, strings.ToLower(issueType)) {
			return issueType, true
		}
	}
	return "", false
}
