package ai

import "context"

// ReplyRequest carries the triage outcome the assistant turns into a
// natural-language reply to the tenant.
type ReplyRequest struct {
	Category      string
	Urgency       string
	Escalated     bool
	FollowUps     []string
	TenantMessage string
}

// Assistant composes tenant-facing text. It is an external collaborator; the
// triage engine never calls it.
type Assistant interface {
	ComposeReply(ctx context.Context, req ReplyRequest) (string, error)
	DiagnoseMedia(ctx context.Context, imageURL string) (string, error)
}
