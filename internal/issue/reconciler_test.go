package issue

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/omaromran/allai-sms-webhook/internal/models"
)

type fakeStore struct {
	mu     sync.Mutex
	issues []models.Issue
	nextID int

	findErr      error
	createErr    error
	dupRemaining int
}

func (s *fakeStore) FindOpenIssue(ctx context.Context, phone string) (*models.Issue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.findErr != nil {
		return nil, s.findErr
	}
	for i := len(s.issues) - 1; i >= 0; i-- {
		iss := s.issues[i]
		if iss.Phone == phone && (iss.Status == models.StatusOpen || iss.Status == models.StatusEscalated) {
			return &iss, nil
		}
	}
	return nil, nil
}

func (s *fakeStore) CreateIssue(ctx context.Context, issue models.Issue) (models.Issue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return models.Issue{}, s.createErr
	}
	if s.dupRemaining > 0 {
		s.dupRemaining--
		return models.Issue{}, ErrDuplicateIssueID
	}
	s.nextID++
	issue.ID = fmt.Sprintf("rec-%d", s.nextID)
	s.issues = append(s.issues, issue)
	return issue, nil
}

func (s *fakeStore) FindIssueByPublicID(ctx context.Context, publicID string) (*models.Issue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.issues {
		if s.issues[i].PublicID == publicID {
			iss := s.issues[i]
			return &iss, nil
		}
	}
	return nil, nil
}

func (s *fakeStore) AppendMessage(ctx context.Context, id, message string) error { return nil }

func (s *fakeStore) UpdateStatus(ctx context.Context, id, status string, escalated bool) error {
	return nil
}

func (s *fakeStore) SetMediaSubmitted(ctx context.Context, id string, urls []string) error {
	return nil
}

func (s *fakeStore) SetAIDiagnosis(ctx context.Context, id, diagnosis string) error { return nil }

func (s *fakeStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.issues)
}

func newTestReconciler(store Store) *Reconciler {
	return NewReconciler(store, zerolog.Nop())
}

func leakResult() models.TriageResult {
	return models.TriageResult{
		Category:          "plumbing",
		Cluster:           "Leaks",
		Urgency:           models.UrgencyNormal,
		FollowUpQuestions: []string{"Where is the leak?"},
		Message:           "the sink is leaking",
	}
}

func TestReconcileCreatesIssue(t *testing.T) {
	store := &fakeStore{}
	r := newTestReconciler(store)

	out, err := r.Reconcile(context.Background(), "+15550001", "the sink is leaking", leakResult())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !out.IsNew {
		t.Fatalf("expected a new issue")
	}
	if out.Issue.Status != models.StatusOpen {
		t.Fatalf("new issue should be open, got %s", out.Issue.Status)
	}
	if out.Issue.Category != "plumbing" || out.Issue.Cluster != "Leaks" {
		t.Fatalf("triage outcome not carried onto the issue: %+v", out.Issue)
	}
	if len(out.Issue.MessageLog) != 1 || out.Issue.MessageLog[0] != "the sink is leaking" {
		t.Fatalf("unexpected message log: %v", out.Issue.MessageLog)
	}
}

func TestReconcilePublicIDFormat(t *testing.T) {
	store := &fakeStore{}
	r := newTestReconciler(store)
	r.randInt = func(n int) int { return 0 }

	out, err := r.Reconcile(context.Background(), "+15550001", "leak", leakResult())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Issue.PublicID != "ISSUE-100000" {
		t.Fatalf("got %s, want ISSUE-100000", out.Issue.PublicID)
	}

	r.randInt = func(n int) int { return n - 1 }
	out, err = r.Reconcile(context.Background(), "+15550002", "leak", leakResult())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !regexp.MustCompile(`^ISSUE-\d{6}$`).MatchString(out.Issue.PublicID) || out.Issue.PublicID != "ISSUE-999999" {
		t.Fatalf("got %s, want ISSUE-999999", out.Issue.PublicID)
	}
}

func TestReconcileReusesOpenIssue(t *testing.T) {
	store := &fakeStore{}
	r := newTestReconciler(store)
	ctx := context.Background()

	first, err := r.Reconcile(ctx, "+15550001", "the sink is leaking", leakResult())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := r.Reconcile(ctx, "+15550001", "it is getting worse", leakResult())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second.IsNew {
		t.Fatalf("follow-up should reuse the open issue")
	}
	if second.Issue.ID != first.Issue.ID {
		t.Fatalf("got issue %s, want %s", second.Issue.ID, first.Issue.ID)
	}
	if store.count() != 1 {
		t.Fatalf("expected 1 issue in store, got %d", store.count())
	}
}

func TestReconcileNewIssueRequestCreatesSecond(t *testing.T) {
	store := &fakeStore{}
	r := newTestReconciler(store)
	ctx := context.Background()

	first, err := r.Reconcile(ctx, "+15550001", "the sink is leaking", leakResult())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := r.Reconcile(ctx, "+15550001", "new issue: the oven is broken", leakResult())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !second.IsNew {
		t.Fatalf("explicit new-issue request should create a fresh issue")
	}
	if second.Issue.ID == first.Issue.ID {
		t.Fatalf("second issue should be distinct")
	}
	if store.count() != 2 {
		t.Fatalf("expected 2 issues in store, got %d", store.count())
	}
}

func TestReconcileDifferentCallersDoNotShareIssues(t *testing.T) {
	store := &fakeStore{}
	r := newTestReconciler(store)
	ctx := context.Background()

	a, err := r.Reconcile(ctx, "+15550001", "the sink is leaking", leakResult())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := r.Reconcile(ctx, "+15550002", "the sink is leaking", leakResult())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !b.IsNew || a.Issue.ID == b.Issue.ID {
		t.Fatalf("callers must get separate issues")
	}
}

func TestReconcileRetriesDuplicateIDs(t *testing.T) {
	store := &fakeStore{dupRemaining: 2}
	r := newTestReconciler(store)

	out, err := r.Reconcile(context.Background(), "+15550001", "leak", leakResult())
	if err != nil {
		t.Fatalf("expected retries to succeed, got %v", err)
	}
	if !out.IsNew {
		t.Fatalf("expected a new issue after retries")
	}
}

func TestReconcileGivesUpAfterRepeatedCollisions(t *testing.T) {
	store := &fakeStore{dupRemaining: 3}
	r := newTestReconciler(store)

	_, err := r.Reconcile(context.Background(), "+15550001", "leak", leakResult())
	if !errors.Is(err, ErrDuplicateIssueID) {
		t.Fatalf("expected ErrDuplicateIssueID, got %v", err)
	}
	if store.count() != 0 {
		t.Fatalf("no issue should be stored after exhausted retries")
	}
}

func TestReconcileSurfacesFindFailure(t *testing.T) {
	store := &fakeStore{findErr: errors.New("connection refused")}
	r := newTestReconciler(store)

	_, err := r.Reconcile(context.Background(), "+15550001", "leak", leakResult())
	if !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
	if store.count() != 0 {
		t.Fatalf("a failed lookup must not create an issue")
	}
}

func TestReconcileSurfacesCreateFailure(t *testing.T) {
	store := &fakeStore{createErr: errors.New("connection refused")}
	r := newTestReconciler(store)

	_, err := r.Reconcile(context.Background(), "+15550001", "leak", leakResult())
	if !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
}

func TestReconcileSerializesSameCaller(t *testing.T) {
	store := &fakeStore{}
	r := newTestReconciler(store)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := r.Reconcile(ctx, "+15550001", "the sink is leaking", leakResult()); err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if store.count() != 1 {
		t.Fatalf("concurrent messages from one caller created %d issues, want 1", store.count())
	}
}
