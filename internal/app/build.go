package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/antoniostano/helpdesk/internal/chat"
	"github.com/antoniostano/helpdesk/internal/complaint"
	"github.com/antoniostano/helpdesk/internal/completion"
	"github.com/antoniostano/helpdesk/internal/config"
	"github.com/antoniostano/helpdesk/internal/extract"
	"github.com/antoniostano/helpdesk/internal/httpapi"
	"github.com/antoniostano/helpdesk/internal/intake"
	"github.com/antoniostano/helpdesk/internal/notify"
	"github.com/antoniostano/helpdesk/internal/observability"
	"github.com/antoniostano/helpdesk/internal/session"
)

type BuildResult struct {
	Config    config.Config
	API       *httpapi.Server
	Sessions  session.Store
	Chat      *chat.Service
	Metrics   *observability.Metrics
	Complaint complaint.Store
	Extractor *extract.Safe
	Health    httpapi.Health

	// Cleanup should be called on shutdown to release external resources (DB, etcd client).
	Cleanup func() error
}

// Build wires the service. Background work started here stops when ctx is cancelled.
func Build(ctx context.Context, cfg config.Config, logger *slog.Logger) (*BuildResult, error) {
	if logger == nil {
		logger = slog.Default()
	}
	metrics := observability.NewMetrics(cfg.MetricsNamespace)

	store, err := complaint.NewStore(ctx, complaint.Config{
		Mode:          cfg.ComplaintStore,
		DatabaseURL:   cfg.DatabaseURL,
		SupabaseURL:   cfg.SupabaseURL,
		SupabaseKey:   cfg.SupabaseKey,
		SupabaseTable: cfg.SupabaseTable,
		SQLitePath:    cfg.SQLitePath,
	})
	if err != nil {
		return nil, fmt.Errorf("complaint store init failed: %w", err)
	}
	if store != nil {
		logger.Info("complaint store ready", "backend", store.Name())
	} else {
		logger.Warn("complaint store disabled; confirmed reports will not be persisted")
	}

	extractor, err := extract.New(extract.Config{
		Mode:            cfg.NameExtractor,
		OpenAIAPIKey:    cfg.OpenAIAPIKey,
		OpenAIModel:     cfg.OpenAIModel,
		AnthropicAPIKey: cfg.AnthropicAPIKey,
		AnthropicModel:  cfg.AnthropicModel,
	}, logger, metrics)
	if err != nil {
		closeStore(store)
		return nil, fmt.Errorf("name extractor init failed: %w", err)
	}
	logger.Info("name extractor ready", "provider", extractor.Provider())

	sessions, err := session.NewStore(session.Config{
		Backend:       cfg.SessionBackend,
		TTL:           cfg.SessionTTL,
		EtcdEndpoints: cfg.EtcdEndpoints,
		EtcdPrefix:    cfg.EtcdPrefix,
	}, logger)
	if err != nil {
		closeStore(store)
		return nil, fmt.Errorf("session store init failed: %w", err)
	}
	if m, ok := sessions.(*session.Manager); ok {
		m.SetExpireHook(func(_ intake.State) {
			metrics.ObserveSessionEvent("expired")
			metrics.SetActiveSessions(m.ActiveCount())
		})
		m.StartJanitor(ctx, cfg.SessionJanitorInterval)
	}

	// notifier stays an untyped nil when no webhook is configured.
	var notifier notify.Notifier
	if strings.TrimSpace(cfg.WebhookURL) != "" {
		notifier = notify.NewWebhookNotifier(cfg.WebhookURL, cfg.WebhookTimeout, metrics)
	}

	sink := completion.NewSink(store, notifier, logger, metrics)
	machine := intake.NewMachine(extractor, sink, logger)
	chatService := chat.NewService(sessions, machine, logger, metrics)

	health := httpapi.Health{
		DatabaseConnected:        store != nil,
		TextGenerationConfigured: extractor.UsesTextGeneration(),
		WebhookConfigured:        notifier != nil,
	}
	api := httpapi.New(cfg, chatService, health, metrics, logger)

	cleanup := func() error {
		var errs []string
		if err := sessions.Close(); err != nil {
			errs = append(errs, err.Error())
		}
		if store != nil {
			if err := store.Close(); err != nil {
				errs = append(errs, err.Error())
			}
		}
		if len(errs) > 0 {
			return fmt.Errorf("%s", strings.Join(errs, "; "))
		}
		return nil
	}

	return &BuildResult{
		Config:    cfg,
		API:       api,
		Sessions:  sessions,
		Chat:      chatService,
		Metrics:   metrics,
		Complaint: store,
		Extractor: extractor,
		Health:    health,
		Cleanup:   cleanup,
	}, nil
}

func closeStore(store complaint.Store) {
	if store != nil {
		_ = store.Close()
	}
}
