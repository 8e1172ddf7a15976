package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/omaromran/allai-sms-webhook/internal/ai"
	"github.com/omaromran/allai-sms-webhook/internal/issue"
	"github.com/omaromran/allai-sms-webhook/internal/kb"
	"github.com/omaromran/allai-sms-webhook/internal/messaging"
	"github.com/omaromran/allai-sms-webhook/internal/models"
	"github.com/omaromran/allai-sms-webhook/internal/notify"
	"github.com/omaromran/allai-sms-webhook/internal/triage"
)

// Store is the record-store surface the handlers need: the reconciler's
// contract plus tenant lookup, listing, and liveness.
type Store interface {
	issue.Store
	TenantUnit(ctx context.Context, phone string) (string, error)
	ListIssues(ctx context.Context, status, phone, category, q string, limit, offset int) ([]models.Issue, error)
	Ping(ctx context.Context) error
}

type Handler struct {
	Store      Store
	Engine     *triage.Engine
	Rules      *kb.RuleSet
	Reconciler *issue.Reconciler
	Assistant  ai.Assistant
	Sender     messaging.Sender
	Notifier   notify.Notifier
	Validator  *validator.Validate
	Logger     zerolog.Logger

	AdminKey        string
	TriageDataDir   string
	UploadPortalURL string

	// Now is the clock injected into escalation decisions; defaults to
	// time.Now in the router so tests can pin it.
	Now func() time.Time
}

// Categories where a photo usually moves the diagnosis forward; replies for
// these include the upload link until media arrives.
var visualCategories = map[string]bool{
	"hvac":      true,
	"plumbing":  true,
	"pest":      true,
	"appliance": true,
	"other":     true,
}

func (h *Handler) Healthz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()
	if err := h.Store.Ping(ctx); err != nil {
		writeError(c, http.StatusServiceUnavailable, "DB_UNAVAILABLE", "Database unavailable", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type InboundMessage struct {
	From    string `json:"from" validate:"required"`
	Text    string `json:"text" validate:"required"`
	Channel string `json:"channel"`
}

// @Summary Inbound tenant message webhook
// @Tags webhooks
// @Accept json
// @Produce json
// @Param message body InboundMessage true "inbound message"
// @Success 200 {object} map[string]any
// @Failure 503 {object} map[string]any
// @Router /webhooks/messages [post]
func (h *Handler) InboundMessage(c *gin.Context) {
	var req InboundMessage
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid payload", err.Error())
		return
	}
	if err := h.Validator.Struct(req); err != nil {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed", err.Error())
		return
	}
	if req.Channel == "" {
		req.Channel = messaging.ChannelMessenger
	}

	ctx := c.Request.Context()
	res := h.Engine.Classify(req.Text)

	outcome, err := h.Reconciler.Reconcile(ctx, req.From, req.Text, res)
	if err != nil {
		// A store outage must not produce a fabricated issue id; the tenant
		// gets a retry message instead.
		h.Logger.Error().Err(err).Str("phone", req.From).Msg("reconciliation failed")
		h.sendReply(ctx, req.From, req.Channel, "Sorry, something went wrong on our side. Please try again in a few minutes.")
		if errors.Is(err, issue.ErrStoreUnavailable) {
			writeError(c, http.StatusServiceUnavailable, "STORE_UNAVAILABLE", "Issue store unavailable", nil)
			return
		}
		writeError(c, http.StatusInternalServerError, "RECONCILE_ERROR", "Reconciliation failed", nil)
		return
	}
	iss := outcome.Issue

	escalate := h.Engine.ShouldEscalate(res, iss.MediaSubmitted, h.Now())
	if escalate {
		// Notify on the first escalation of an issue only. A freshly created
		// issue keeps status Open with the escalated flag set; an existing
		// open issue transitions to Escalated.
		firstEscalation := outcome.IsNew || !iss.Escalated
		switch {
		case !outcome.IsNew && !iss.Escalated:
			if err := h.Store.UpdateStatus(ctx, iss.ID, models.StatusEscalated, true); err != nil {
				h.Logger.Error().Err(err).Str("issue_id", iss.PublicID).Msg("failed to mark issue escalated")
			} else {
				iss.Status = models.StatusEscalated
				iss.Escalated = true
			}
		case outcome.IsNew && !iss.Escalated:
			if err := h.Store.UpdateStatus(ctx, iss.ID, iss.Status, true); err != nil {
				h.Logger.Error().Err(err).Str("issue_id", iss.PublicID).Msg("failed to set escalated flag")
			} else {
				iss.Escalated = true
			}
		}
		if firstEscalation {
			h.notifyReviewer(ctx, iss, req.Text)
		}
	}

	var reply string
	resolved := triage.IsResolved(req.Text)
	switch {
	case resolved:
		if err := h.Store.UpdateStatus(ctx, iss.ID, models.StatusResolved, iss.Escalated); err != nil {
			h.Logger.Error().Err(err).Str("issue_id", iss.PublicID).Msg("failed to resolve issue")
		}
		reply = "Marked " + iss.PublicID + " resolved. Thanks for confirming."
	default:
		reply = h.composeReply(ctx, req.Text, res, iss, escalate)
	}

	if !outcome.IsNew {
		if err := h.Store.AppendMessage(ctx, iss.ID, req.Text); err != nil {
			h.Logger.Error().Err(err).Str("issue_id", iss.PublicID).Msg("failed to append message")
		}
	}

	h.sendReply(ctx, req.From, req.Channel, reply)

	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"issue_id":  iss.PublicID,
		"is_new":    outcome.IsNew,
		"category":  res.Category,
		"urgency":   res.Urgency,
		"escalated": escalate,
		"resolved":  resolved,
	})
}

func (h *Handler) composeReply(ctx context.Context, text string, res models.TriageResult, iss models.Issue, escalated bool) string {
	reply, err := h.Assistant.ComposeReply(ctx, ai.ReplyRequest{
		Category:      res.Category,
		Urgency:       res.Urgency,
		Escalated:     escalated,
		FollowUps:     res.FollowUpQuestions,
		TenantMessage: text,
	})
	if err != nil {
		h.Logger.Warn().Err(err).Msg("assistant reply failed, using fallback")
		reply = "Thanks, we logged your " + res.Category + " issue as " + iss.PublicID + "."
		for _, q := range res.FollowUpQuestions {
			reply += "\n- " + q
		}
	}

	if visualCategories[res.Category] && !iss.MediaSubmitted && h.UploadPortalURL != "" {
		reply += "\n\nPlease upload a photo here:\n" + h.UploadPortalURL + "?issue_id=" + iss.PublicID + "\nThen return to chat."
	}
	return reply
}

func (h *Handler) notifyReviewer(ctx context.Context, iss models.Issue, text string) {
	unit, err := h.Store.TenantUnit(ctx, iss.Phone)
	if err != nil {
		h.Logger.Warn().Err(err).Str("phone", iss.Phone).Msg("tenant unit lookup failed")
		unit = "Unknown"
	}
	summary := text
	if len(summary) > 50 {
		summary = summary[:50]
	}
	if err := h.Notifier.EscalatedIssue(ctx, notify.Escalation{
		IssueID:  iss.PublicID,
		Unit:     unit,
		Category: iss.Category,
		Urgency:  iss.Urgency,
		Summary:  summary,
		RecordID: iss.ID,
	}); err != nil {
		h.Logger.Error().Err(err).Str("issue_id", iss.PublicID).Msg("reviewer notification failed")
	}
}

func (h *Handler) sendReply(ctx context.Context, recipient, channel, text string) {
	if err := h.Sender.SendText(ctx, recipient, channel, text); err != nil {
		h.Logger.Error().Err(err).Str("recipient", recipient).Msg("outbound send failed")
	}
}

type MediaUpload struct {
	IssueID   string   `json:"issue_id" validate:"required"`
	MediaURLs []string `json:"media_urls" validate:"required,min=1"`
}

// @Summary Media upload callback
// @Tags webhooks
// @Accept json
// @Produce json
// @Param upload body MediaUpload true "uploaded media"
// @Success 200 {object} map[string]any
// @Failure 404 {object} map[string]any
// @Router /webhooks/media [post]
func (h *Handler) MediaUpload(c *gin.Context) {
	var req MediaUpload
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid payload", err.Error())
		return
	}
	if err := h.Validator.Struct(req); err != nil {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "issue_id and media_urls are required", err.Error())
		return
	}

	ctx := c.Request.Context()
	iss, err := h.Store.FindIssueByPublicID(ctx, req.IssueID)
	if err != nil {
		writeError(c, http.StatusServiceUnavailable, "STORE_UNAVAILABLE", "Issue store unavailable", err.Error())
		return
	}
	if iss == nil {
		writeError(c, http.StatusNotFound, "NOT_FOUND", "Issue ID not found", nil)
		return
	}

	if err := h.Store.SetMediaSubmitted(ctx, iss.ID, req.MediaURLs); err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to attach media", err.Error())
		return
	}

	diagnosis, err := h.Assistant.DiagnoseMedia(ctx, req.MediaURLs[0])
	if err != nil {
		h.Logger.Warn().Err(err).Str("issue_id", iss.PublicID).Msg("media diagnosis failed")
	} else {
		if err := h.Store.SetAIDiagnosis(ctx, iss.ID, diagnosis); err != nil {
			h.Logger.Error().Err(err).Str("issue_id", iss.PublicID).Msg("failed to save diagnosis")
		}
		h.sendReply(ctx, iss.Phone, messaging.ChannelMessenger,
			"Got the photo! Here is what I see:\n\n"+diagnosis+"\n\nFeel free to return to this chat if you have more questions.")
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "issue_id": iss.PublicID})
}

func (h *Handler) IssuesList(c *gin.Context) {
	status := strings.TrimSpace(c.Query("status"))
	phone := strings.TrimSpace(c.Query("phone"))
	category := strings.ToLower(strings.TrimSpace(c.Query("category")))
	q := c.Query("q")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	items, err := h.Store.ListIssues(c.Request.Context(), status, phone, category, q, limit, offset)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to list issues", err.Error())
		return
	}
	if items == nil {
		items = []models.Issue{}
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "limit": limit, "offset": offset})
}

func (h *Handler) IssueDetails(c *gin.Context) {
	id := c.Param("id")
	iss, err := h.Store.FindIssueByPublicID(c.Request.Context(), id)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to get issue", err.Error())
		return
	}
	if iss == nil {
		writeError(c, http.StatusNotFound, "NOT_FOUND", "Issue not found", nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"issue": iss})
}

func (h *Handler) ResolveIssue(c *gin.Context) {
	id := c.Param("id")
	iss, err := h.Store.FindIssueByPublicID(c.Request.Context(), id)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to get issue", err.Error())
		return
	}
	if iss == nil {
		writeError(c, http.StatusNotFound, "NOT_FOUND", "Issue not found", nil)
		return
	}
	if err := h.Store.UpdateStatus(c.Request.Context(), iss.ID, models.StatusResolved, iss.Escalated); err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to resolve issue", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "issue_id": iss.PublicID})
}

// ReloadRules re-reads escalation_rules.json and swaps it in atomically.
// In-flight requests keep the snapshot they started with.
func (h *Handler) ReloadRules(c *gin.Context) {
	rules, err := kb.LoadRules(h.TriageDataDir)
	if err != nil {
		writeError(c, http.StatusBadRequest, "CONFIG_ERROR", "Failed to reload escalation rules", err.Error())
		return
	}
	h.Rules.Replace(rules)
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// DebugTriage dry-runs classification and escalation for an operator-supplied
// message without touching the store.
func (h *Handler) DebugTriage(c *gin.Context) {
	message := c.Query("message")
	if strings.TrimSpace(message) == "" {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "message is required", nil)
		return
	}
	media := c.Query("media") == "1" || strings.EqualFold(c.Query("media"), "true")

	res := h.Engine.Classify(message)
	c.JSON(http.StatusOK, gin.H{
		"triage":          res,
		"should_escalate": h.Engine.ShouldEscalate(res, media, h.Now()),
	})
}

func writeError(c *gin.Context, status int, code string, message string, details any) {
	c.JSON(status, gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
			"details": details,
		},
	})
}
