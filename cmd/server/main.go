package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/omaromran/allai-sms-webhook/internal/ai"
	"github.com/omaromran/allai-sms-webhook/internal/config"
	"github.com/omaromran/allai-sms-webhook/internal/db"
	httpapi "github.com/omaromran/allai-sms-webhook/internal/http"
	"github.com/omaromran/allai-sms-webhook/internal/issue"
	"github.com/omaromran/allai-sms-webhook/internal/kb"
	"github.com/omaromran/allai-sms-webhook/internal/messaging"
	"github.com/omaromran/allai-sms-webhook/internal/notify"
	"github.com/omaromran/allai-sms-webhook/internal/triage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	zerolog.TimeFieldFormat = time.RFC3339
	level, _ := zerolog.ParseLevel(cfg.LogLevel)
	logger := log.Level(level).With().Str("service", "allai-webhook").Logger()

	ctx := context.Background()
	store, err := db.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect db")
	}
	defer store.Close()
	if err := store.EnsureSchema(ctx); err != nil {
		logger.Fatal().Err(err).Msg("failed to ensure schema")
	}

	knowledge, err := kb.Load(cfg.TriageDataDir)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load knowledge base")
	}
	escalationRules, err := kb.LoadRules(cfg.TriageDataDir)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load escalation rules")
	}
	rules := kb.NewRuleSet(escalationRules)
	engine := triage.New(knowledge, rules)
	reconciler := issue.NewReconciler(store, logger)

	var assistant ai.Assistant
	if cfg.AssistantBaseURL == "" {
		assistant = ai.MockAssistant{}
		logger.Info().Msg("using mock assistant")
	} else {
		assistant = ai.OpenAICompatAssistant{
			BaseURL: cfg.AssistantBaseURL,
			Model:   cfg.AssistantModel,
			APIKey:  cfg.AssistantAPIKey,
		}
	}

	var sender messaging.Sender
	if cfg.VonageAPIKey == "" {
		sender = &messaging.MockSender{}
		logger.Info().Msg("using mock message sender")
	} else {
		sender = messaging.VonageSender{
			APIKey:    cfg.VonageAPIKey,
			APISecret: cfg.VonageAPISecret,
			PageID:    cfg.MessengerPageID,
			From:      cfg.WhatsAppFrom,
		}
	}

	var notifier notify.Notifier
	if cfg.SMTPHost == "" || cfg.ReviewerEmail == "" {
		notifier = &notify.MockNotifier{}
		logger.Info().Msg("using mock notifier")
	} else {
		notifier = notify.SMTPNotifier{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUser,
			Password: cfg.SMTPPass,
			To:       cfg.ReviewerEmail,
		}
	}

	router := httpapi.Router(cfg, store, engine, rules, reconciler, assistant, sender, notifier, logger)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Info().Str("port", cfg.Port).Int("categories", len(knowledge.Categories)).Msg("server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctxShutdown)
	logger.Info().Msg("server stopped")
}
