package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/antoniostano/helpdesk/internal/chat"
	"github.com/antoniostano/helpdesk/internal/complaint"
	"github.com/antoniostano/helpdesk/internal/completion"
	"github.com/antoniostano/helpdesk/internal/config"
	"github.com/antoniostano/helpdesk/internal/extract"
	"github.com/antoniostano/helpdesk/internal/intake"
	"github.com/antoniostano/helpdesk/internal/observability"
	"github.com/antoniostano/helpdesk/internal/protocol"
	"github.com/antoniostano/helpdesk/internal/session"
)

func newTestServer(t *testing.T, health Health) (*httptest.Server, *complaint.InMemoryStore) {
	t.Helper()
	cfg := config.Config{
		AllowedOrigins:  []string{"http://localhost:5173"},
		MaxRequestBytes: 64 << 10,
	}
	store := complaint.NewInMemoryStore()
	sink := completion.NewSink(store, nil, nil, nil)
	machine := intake.NewMachine(extract.NewPassthrough(), sink, nil)
	sessions := session.NewManager(30*time.Minute, nil)
	metrics := observability.NewMetrics("test_httpapi_" + strings.ReplaceAll(t.Name(), "/", "_"))
	svc := chat.NewService(sessions, machine, nil, metrics)

	srv := New(cfg, svc, health, metrics, nil)
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return ts, store
}

func postChat(t *testing.T, url string, req chat.Request) (*http.Response, map[string]any) {
	t.Helper()
	body, _ := json.Marshal(req)
	res, err := http.Post(url+"/chat", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("POST /chat error = %v", err)
	}
	defer res.Body.Close()
	var out map[string]any
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		t.Fatalf("decode /chat response: %v", err)
	}
	return res, out
}

func TestChatFullConversation(t *testing.T) {
	ts, store := newTestServer(t, Health{})

	res, out := postChat(t, ts.URL, chat.Request{Message: "hi"})
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusOK)
	}
	sessionID, _ := out["session_id"].(string)
	if sessionID == "" {
		t.Fatalf("missing session_id in response: %+v", out)
	}
	if out["reply"] != intake.Greeting {
		t.Fatalf("reply = %v, want greeting", out["reply"])
	}
	if stamp, _ := out["timestamp"].(string); stamp == "" {
		t.Fatalf("missing timestamp in response: %+v", out)
	}

	turns := []string{"water leak", "Main Street 5", "pipe burst near the school", "Asha", "98765 43210", "yes"}
	for _, msg := range turns {
		res, out = postChat(t, ts.URL, chat.Request{Message: msg, SessionID: sessionID})
		if res.StatusCode != http.StatusOK {
			t.Fatalf("turn %q status = %d, want %d", msg, res.StatusCode, http.StatusOK)
		}
		if out["session_id"] != sessionID {
			t.Fatalf("turn %q session_id = %v, want %s", msg, out["session_id"], sessionID)
		}
	}
	if reply, _ := out["reply"].(string); !strings.Contains(reply, "successfully registered") {
		t.Fatalf("final reply = %q, want success message", reply)
	}

	records := store.Records()
	if len(records) != 1 {
		t.Fatalf("records = %d, want 1", len(records))
	}
	got := records[0]
	if got.IssueType != "Water" || got.Location != "Main Street 5" || got.Name != "Asha" || got.Phone != "9876543210" {
		t.Fatalf("record = %+v", got)
	}
}

func TestChatEmptyMessageOnExistingSession(t *testing.T) {
	ts, _ := newTestServer(t, Health{})

	_, out := postChat(t, ts.URL, chat.Request{})
	sessionID, _ := out["session_id"].(string)
	if out["reply"] != intake.Greeting {
		t.Fatalf("new session reply = %v, want greeting", out["reply"])
	}

	res, out := postChat(t, ts.URL, chat.Request{Message: "   ", SessionID: sessionID})
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusBadRequest)
	}
	if out["detail"] != "Message cannot be empty" {
		t.Fatalf("detail = %v, want %q", out["detail"], "Message cannot be empty")
	}
}

func TestChatUnknownSessionIDIsAdopted(t *testing.T) {
	ts, _ := newTestServer(t, Health{})

	_, out := postChat(t, ts.URL, chat.Request{Message: "garbage", SessionID: "client-chosen"})
	if out["session_id"] != "client-chosen" {
		t.Fatalf("session_id = %v, want client-chosen", out["session_id"])
	}
	if out["reply"] != intake.Greeting {
		t.Fatalf("reply = %v, want greeting", out["reply"])
	}
}

func TestChatMalformedJSON(t *testing.T) {
	ts, _ := newTestServer(t, Health{})

	res, err := http.Post(ts.URL+"/chat", "application/json", strings.NewReader("{not json"))
	if err != nil {
		t.Fatalf("POST /chat error = %v", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusBadRequest)
	}
	var out errorResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	if out.Code != "invalid_request" {
		t.Fatalf("code = %q, want invalid_request", out.Code)
	}
}

func TestRootAndHealth(t *testing.T) {
	ts, _ := newTestServer(t, Health{DatabaseConnected: true, WebhookConfigured: true})

	res, err := http.Get(ts.URL + "/")
	if err != nil {
		t.Fatalf("GET / error = %v", err)
	}
	var root map[string]any
	_ = json.NewDecoder(res.Body).Decode(&root)
	res.Body.Close()
	if root["message"] != "AI Community Issue Reporting Assistant backend running" {
		t.Fatalf("root message = %v", root["message"])
	}

	res, err = http.Get(ts.URL + "/health")
	if err != nil {
		t.Fatalf("GET /health error = %v", err)
	}
	var health map[string]any
	_ = json.NewDecoder(res.Body).Decode(&health)
	res.Body.Close()
	if health["status"] != "healthy" {
		t.Fatalf("status = %v, want healthy", health["status"])
	}
	if health["database_connected"] != true || health["webhook_configured"] != true {
		t.Fatalf("health = %+v", health)
	}
	if health["openai_configured"] != false {
		t.Fatalf("openai_configured = %v, want false", health["openai_configured"])
	}

	for _, path := range []string{"/healthz", "/readyz", "/metrics"} {
		res, err := http.Get(ts.URL + path)
		if err != nil {
			t.Fatalf("GET %s error = %v", path, err)
		}
		res.Body.Close()
		if res.StatusCode != http.StatusOK {
			t.Fatalf("GET %s status = %d, want %d", path, res.StatusCode, http.StatusOK)
		}
	}
}

func TestCORSPreflight(t *testing.T) {
	ts, _ := newTestServer(t, Health{})

	req, _ := http.NewRequest(http.MethodOptions, ts.URL+"/chat", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", "POST")
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("OPTIONS /chat error = %v", err)
	}
	res.Body.Close()
	if got := res.Header.Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Fatalf("Access-Control-Allow-Origin = %q", got)
	}
	if got := res.Header.Get("Access-Control-Allow-Credentials"); got != "true" {
		t.Fatalf("Access-Control-Allow-Credentials = %q, want true", got)
	}
}

func TestChatWebSocket(t *testing.T) {
	ts, store := newTestServer(t, Health{})

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/chat/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial websocket: %v", err)
	}
	defer conn.Close()

	readReply := func() protocol.Reply {
		t.Helper()
		_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
		var r protocol.Reply
		if err := conn.ReadJSON(&r); err != nil {
			t.Fatalf("read frame: %v", err)
		}
		return r
	}

	greeting := readReply()
	if greeting.Type != protocol.TypeReply || greeting.Reply != intake.Greeting || greeting.SessionID == "" {
		t.Fatalf("greeting frame = %+v", greeting)
	}

	if err := conn.WriteJSON(protocol.UserMessage{Message: ""}); err != nil {
		t.Fatalf("write frame: %v", err)
	}
	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	var errEvent protocol.ErrorEvent
	if err := conn.ReadJSON(&errEvent); err != nil {
		t.Fatalf("read error frame: %v", err)
	}
	if errEvent.Type != protocol.TypeErrorEvent || errEvent.Code != "empty_message" {
		t.Fatalf("error frame = %+v", errEvent)
	}

	for _, msg := range []string{"road", "Ring Road", "pothole", "Ravi", "+91 98765-43210", "correct"} {
		if err := conn.WriteJSON(protocol.UserMessage{Type: protocol.TypeUserMessage, Message: msg}); err != nil {
			t.Fatalf("write frame: %v", err)
		}
		r := readReply()
		if r.SessionID != greeting.SessionID {
			t.Fatalf("session_id = %q, want %q", r.SessionID, greeting.SessionID)
		}
	}
	if len(store.Records()) != 1 {
		t.Fatalf("records = %d, want 1", len(store.Records()))
	}
}

func TestWebSocketRejectsForeignOrigin(t *testing.T) {
	ts, _ := newTestServer(t, Health{})

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/chat/ws"
	header := http.Header{}
	header.Set("Origin", "http://evil.example")
	_, res, err := websocket.DefaultDialer.Dial(wsURL, header)
	if err == nil {
		t.Fatalf("Dial() error = nil, want origin rejection")
	}
	if res == nil || res.StatusCode != http.StatusForbidden {
		t.Fatalf("response = %+v, want 403", res)
	}
}
