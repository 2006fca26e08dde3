package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/gorilla/websocket"

	"github.com/antoniostano/helpdesk/internal/chat"
	"github.com/antoniostano/helpdesk/internal/config"
	"github.com/antoniostano/helpdesk/internal/observability"
)

// Health describes which external collaborators are configured.
type Health struct {
	DatabaseConnected        bool
	TextGenerationConfigured bool
	WebhookConfigured        bool
}

type Server struct {
	cfg      config.Config
	chat     *chat.Service
	health   Health
	metrics  *observability.Metrics
	logger   *slog.Logger
	upgrader websocket.Upgrader
}

func New(cfg config.Config, chatService *chat.Service, health Health, metrics *observability.Metrics, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		cfg:     cfg,
		chat:    chatService,
		health:  health,
		metrics: metrics,
		logger:  logger,
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     s.originAllowed,
	}
	return s
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}))

	r.Get("/", s.handleRoot)
	r.Get("/health", s.handleHealth)
	r.Get("/healthz", s.handleLiveness)
	r.Get("/readyz", s.handleLiveness)
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		observability.MetricsHandler().ServeHTTP(w, r)
	})

	r.Post("/chat", s.handleChat)
	r.Get("/chat/ws", s.handleChatWS)

	return r
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"message": "AI Community Issue Reporting Assistant backend running",
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":             "healthy",
		"database_connected": s.health.DatabaseConnected,
		"openai_configured":  s.health.TextGenerationConfigured,
		"webhook_configured": s.health.WebhookConfigured,
	})
}

func (s *Server) handleLiveness(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chat.Request
	r.Body = http.MaxBytesReader(w, r.Body, int64(s.maxRequestBytes()))
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	res, err := s.chat.Handle(r.Context(), req)
	if err != nil {
		if errors.Is(err, chat.ErrEmptyMessage) {
			respondError(w, http.StatusBadRequest, "empty_message", "Message cannot be empty")
			return
		}
		s.logger.Error("chat turn failed", "session_id", req.SessionID, "error", err)
		respondError(w, http.StatusInternalServerError, "chat_failed", "Error processing chat: "+err.Error())
		return
	}
	respondJSON(w, http.StatusOK, res)
}

func (s *Server) maxRequestBytes() int {
	if s.cfg.MaxRequestBytes > 0 {
		return s.cfg.MaxRequestBytes
	}
	return 64 << 10
}

// originAllowed applies ALLOWED_ORIGINS to websocket upgrades.
func (s *Server) originAllowed(r *http.Request) bool {
	origin := strings.TrimSpace(r.Header.Get("Origin"))
	if origin == "" {
		// Non-browser clients often omit Origin.
		return true
	}
	for _, allowed := range s.cfg.AllowedOrigins {
		if allowed == "*" || strings.EqualFold(allowed, origin) {
			return true
		}
	}
	return false
}

// errorResponse keeps the {detail} shape existing web clients read.
type errorResponse struct {
	Detail string `json:"detail"`
	Code   string `json:"code"`
}

var errEmptyBody = errors.New("empty body")

func decodeJSON(r *http.Request, out any) error {
	if r.Body == nil {
		return errEmptyBody
	}
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(out); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "eof") {
			return errEmptyBody
		}
		return err
	}
	return nil
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorResponse{Detail: message, Code: code})
}

const (
	wsReadTimeout  = 120 * time.Second
	wsWriteTimeout = 10 * time.Second
)
