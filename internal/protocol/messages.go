package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

// MessageType identifies websocket payload variants.
type MessageType string

const (
	TypeUserMessage MessageType = "user_message"
	TypeReply       MessageType = "reply"
	TypeErrorEvent  MessageType = "error_event"
)

var ErrUnsupportedType = errors.New("unsupported message type")

type Envelope struct {
	Type MessageType `json:"type"`
}

// UserMessage is one chat turn sent by the client. Type may be omitted.
type UserMessage struct {
	Type    MessageType `json:"type"`
	Message string      `json:"message"`
}

type Reply struct {
	Type      MessageType `json:"type"`
	Reply     string      `json:"reply"`
	SessionID string      `json:"session_id"`
	Timestamp string      `json:"timestamp"`
}

type ErrorEvent struct {
	Type      MessageType `json:"type"`
	SessionID string      `json:"session_id,omitempty"`
	Code      string      `json:"code"`
	Detail    string      `json:"detail"`
}

func ParseClientMessage(raw []byte) (UserMessage, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return UserMessage{}, fmt.Errorf("invalid envelope: %w", err)
	}

	switch env.Type {
	case TypeUserMessage, "":
		var msg UserMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			return UserMessage{}, err
		}
		msg.Type = TypeUserMessage
		return msg, nil
	default:
		return UserMessage{}, ErrUnsupportedType
	}
}
