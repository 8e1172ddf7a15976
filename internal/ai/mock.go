package ai

import (
	"context"
	"fmt"
	"strings"
)

// MockAssistant is used when no assistant endpoint is configured. Replies are
// deterministic so handler tests can assert on them.
type MockAssistant struct{}

func (MockAssistant) ComposeReply(ctx context.Context, req ReplyRequest) (string, error) {
	var b strings.Builder
	if req.Escalated {
		b.WriteString("This has been escalated to a human reviewer. ")
	}
	fmt.Fprintf(&b, "Thanks for reporting the %s issue.", req.Category)
	for _, q := range req.FollowUps {
		b.WriteString("\n- ")
		b.WriteString(q)
	}
	return b.String(), nil
}

func (MockAssistant) DiagnoseMedia(ctx context.Context, imageURL string) (string, error) {
	return "Unable to produce an automated diagnosis right now; a technician will review the photo.", nil
}
