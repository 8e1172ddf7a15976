package triage

import "testing"

func TestIsNewIssueRequest(t *testing.T) {
	yes := []string{
		"new issue: the sink is leaking",
		"I have another issue with the oven",
		"this is a DIFFERENT problem",
		"new problem with the ac",
	}
	for _, msg := range yes {
		if !IsNewIssueRequest(msg) {
			t.Errorf("IsNewIssueRequest(%q) = false, want true", msg)
		}
	}

	no := []string{
		"the sink is still leaking",
		"any update on my issue?",
		"",
	}
	for _, msg := range no {
		if IsNewIssueRequest(msg) {
			t.Errorf("IsNewIssueRequest(%q) = true, want false", msg)
		}
	}
}

func TestIsResolved(t *testing.T) {
	yes := []string{
		"it's fixed now, thanks",
		"the problem is resolved",
		"the sink is no longer leaking",
		"solved it myself",
		"it's all good",
	}
	for _, msg := range yes {
		if !IsResolved(msg) {
			t.Errorf("IsResolved(%q) = false, want true", msg)
		}
	}

	no := []string{
		"the sink is leaking again",
		"can someone come fix this",
		"",
	}
	for _, msg := range no {
		if IsResolved(msg) {
			t.Errorf("IsResolved(%q) = true, want false", msg)
		}
	}
}
