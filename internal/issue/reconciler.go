package issue

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"

	"github.com/rs/zerolog"

	"github.com/omaromran/allai-sms-webhook/internal/models"
	"github.com/omaromran/allai-sms-webhook/internal/triage"
	"github.com/omaromran/allai-sms-webhook/internal/utils"
)

var (
	// ErrStoreUnavailable wraps record-store failures. Reconciliation surfaces
	// it instead of creating a new issue, so a store outage cannot produce
	// duplicate tickets.
	ErrStoreUnavailable = errors.New("issue store unavailable")

	// ErrDuplicateIssueID is returned by the store when a generated public id
	// collides with an existing issue.
	ErrDuplicateIssueID = errors.New("duplicate issue id")
)

const (
	publicIDPrefix  = "ISSUE-"
	createAttempts  = 3
	lockStripeCount = 64
)

// Store is the narrow record-store contract the reconciler depends on.
type Store interface {
	FindOpenIssue(ctx context.Context, phone string) (*models.Issue, error)
	CreateIssue(ctx context.Context, issue models.Issue) (models.Issue, error)
	FindIssueByPublicID(ctx context.Context, publicID string) (*models.Issue, error)
	AppendMessage(ctx context.Context, id string, message string) error
	UpdateStatus(ctx context.Context, id string, status string, escalated bool) error
	SetMediaSubmitted(ctx context.Context, id string, urls []string) error
	SetAIDiagnosis(ctx context.Context, id string, diagnosis string) error
}

// Outcome is the reconciliation result: which issue the message belongs to
// and whether it was freshly created.
type Outcome struct {
	Issue models.Issue
	IsNew bool
}

// Reconciler maps inbound messages onto issue records. Reconciliation for a
// given caller is serialized through striped mutexes so two concurrent
// messages from the same phone cannot both pass the find-open-issue check and
// create duplicate issues.
type Reconciler struct {
	store   Store
	logger  zerolog.Logger
	randInt func(n int) int

	stripes [lockStripeCount]sync.Mutex
}

func NewReconciler(store Store, logger zerolog.Logger) *Reconciler {
	return &Reconciler{
		store:   store,
		logger:  logger,
		randInt: rand.Intn,
	}
}

// Reconcile resolves the issue a message belongs to. An existing Open or
// Escalated issue for the caller is reused unless the message explicitly asks
// for a new issue; otherwise a fresh record is created with the triage
// outcome. Store failures propagate — the reconciler never fabricates an
// issue when one might already exist.
func (r *Reconciler) Reconcile(ctx context.Context, callerID, message string, res models.TriageResult) (Outcome, error) {
	lock := &r.stripes[utils.HashStringToUint64(callerID)%lockStripeCount]
	lock.Lock()
	defer lock.Unlock()

	existing, err := r.store.FindOpenIssue(ctx, callerID)
	if err != nil {
		return Outcome{}, fmt.Errorf("%w: find open issue: %w", ErrStoreUnavailable, err)
	}

	if existing != nil && !triage.IsNewIssueRequest(message) {
		return Outcome{Issue: *existing, IsNew: false}, nil
	}

	return r.create(ctx, callerID, res)
}

func (r *Reconciler) create(ctx context.Context, callerID string, res models.TriageResult) (Outcome, error) {
	for attempt := 0; attempt < createAttempts; attempt++ {
		candidate := models.Issue{
			PublicID:   r.newPublicID(),
			Phone:      callerID,
			Category:   res.Category,
			Cluster:    res.Cluster,
			Urgency:    res.Urgency,
			Escalated:  res.ShouldEscalate,
			Status:     models.StatusOpen,
			FollowUps:  res.FollowUpQuestions,
			MessageLog: []string{res.Message},
		}
		created, err := r.store.CreateIssue(ctx, candidate)
		if err == nil {
			r.logger.Info().Str("issue_id", created.PublicID).Str("phone", callerID).Msg("issue created")
			return Outcome{Issue: created, IsNew: true}, nil
		}
		if errors.Is(err, ErrDuplicateIssueID) {
			r.logger.Warn().Str("issue_id", candidate.PublicID).Int("attempt", attempt+1).Msg("issue id collision, retrying")
			continue
		}
		return Outcome{}, fmt.Errorf("%w: create issue: %w", ErrStoreUnavailable, err)
	}
	return Outcome{}, fmt.Errorf("issue id generation exhausted after %d attempts: %w", createAttempts, ErrDuplicateIssueID)
}

func (r *Reconciler) newPublicID() string {
	return fmt.Sprintf("%s%06d", publicIDPrefix, 100000+r.randInt(900000))
}
