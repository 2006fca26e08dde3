package httpapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/antoniostano/helpdesk/internal/chat"
	"github.com/antoniostano/helpdesk/internal/protocol"
)

// handleChatWS runs the same turn loop as POST /chat over one websocket.
// The first reply is always the greeting (or the current session's next reply).
func (s *Server) handleChatWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	s.metrics.ObserveSessionEvent("ws_connected")
	defer s.metrics.ObserveSessionEvent("ws_disconnected")

	sessionID := strings.TrimSpace(r.URL.Query().Get("session_id"))
	ctx := r.Context()

	if sessionID == "" {
		res, err := s.chat.Handle(ctx, chat.Request{})
		if err != nil {
			s.writeWSError(conn, "", "chat_failed", err.Error())
			return
		}
		sessionID = res.SessionID
		if !s.writeWSReply(conn, res) {
			return
		}
	}

	conn.SetReadLimit(int64(s.maxRequestBytes()))
	_ = conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	})

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
		if msgType != websocket.TextMessage {
			continue
		}

		msg, err := protocol.ParseClientMessage(data)
		if err != nil {
			if !s.writeWSError(conn, sessionID, "invalid_client_message", err.Error()) {
				return
			}
			continue
		}
		s.metrics.ObserveWSMessage("inbound", string(msg.Type))

		res, err := s.chat.Handle(ctx, chat.Request{SessionID: sessionID, Message: msg.Message})
		if err != nil {
			code := "chat_failed"
			detail := err.Error()
			if errors.Is(err, chat.ErrEmptyMessage) {
				code = "empty_message"
				detail = "Message cannot be empty"
			} else {
				s.logger.Error("chat turn failed", "session_id", sessionID, "error", err)
			}
			if !s.writeWSError(conn, sessionID, code, detail) {
				return
			}
			continue
		}
		sessionID = res.SessionID
		if !s.writeWSReply(conn, res) {
			return
		}
	}
}

func (s *Server) writeWSReply(conn *websocket.Conn, res chat.Response) bool {
	return s.writeWS(conn, protocol.Reply{
		Type:      protocol.TypeReply,
		Reply:     res.Reply,
		SessionID: res.SessionID,
		Timestamp: res.Timestamp,
	}, protocol.TypeReply)
}

func (s *Server) writeWSError(conn *websocket.Conn, sessionID, code, detail string) bool {
	return s.writeWS(conn, protocol.ErrorEvent{
		Type:      protocol.TypeErrorEvent,
		SessionID: sessionID,
		Code:      code,
		Detail:    detail,
	}, protocol.TypeErrorEvent)
}

func (s *Server) writeWS(conn *websocket.Conn, v any, t protocol.MessageType) bool {
	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	if err := conn.WriteJSON(v); err != nil {
		s.metrics.ObserveWSMessage("outbound", "write_error")
		return false
	}
	s.metrics.ObserveWSMessage("outbound", string(t))
	return true
}
