package httpapi

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/omaromran/allai-sms-webhook/internal/ai"
	"github.com/omaromran/allai-sms-webhook/internal/config"
	"github.com/omaromran/allai-sms-webhook/internal/http/handlers"
	"github.com/omaromran/allai-sms-webhook/internal/http/middleware"
	"github.com/omaromran/allai-sms-webhook/internal/issue"
	"github.com/omaromran/allai-sms-webhook/internal/kb"
	"github.com/omaromran/allai-sms-webhook/internal/messaging"
	"github.com/omaromran/allai-sms-webhook/internal/notify"
	"github.com/omaromran/allai-sms-webhook/internal/triage"

	_ "github.com/omaromran/allai-sms-webhook/docs"
)

func Router(
	cfg config.Config,
	store handlers.Store,
	engine *triage.Engine,
	rules *kb.RuleSet,
	reconciler *issue.Reconciler,
	assistant ai.Assistant,
	sender messaging.Sender,
	notifier notify.Notifier,
	logger zerolog.Logger,
) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Admin-Key", "X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if cfg.CORSAllowed == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = []string{cfg.CORSAllowed}
	}
	r.Use(cors.New(corsCfg))

	h := &handlers.Handler{
		Store:           store,
		Engine:          engine,
		Rules:           rules,
		Reconciler:      reconciler,
		Assistant:       assistant,
		Sender:          sender,
		Notifier:        notifier,
		Validator:       validator.New(),
		Logger:          logger,
		AdminKey:        cfg.AdminKey,
		TriageDataDir:   cfg.TriageDataDir,
		UploadPortalURL: cfg.UploadPortalURL,
		Now:             time.Now,
	}

	r.GET("/healthz", h.Healthz)

	webhooks := r.Group("/webhooks")
	{
		webhooks.POST("/messages", h.InboundMessage)
		webhooks.POST("/media", h.MediaUpload)
	}

	api := r.Group("/api")
	{
		api.GET("/issues", h.IssuesList)
		api.GET("/issues/:id", h.IssueDetails)
	}

	admin := api.Group("")
	admin.Use(middleware.AdminKey(cfg.AdminKey))
	{
		admin.POST("/issues/:id/resolve", h.ResolveIssue)
		admin.POST("/rules/reload", h.ReloadRules)
		admin.GET("/debug/triage", h.DebugTriage)
	}

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}
