package triage

import "strings"

var newIssuePhrases = []string{
	"new issue",
	"another issue",
	"different problem",
	"new problem",
}

var resolutionPhrases = []string{
	"fixed",
	"resolved",
	"no longer",
	"solved",
	"its all good",
}

// IsNewIssueRequest reports whether the tenant is explicitly opening a fresh
// issue instead of continuing the current one.
func IsNewIssueRequest(message string) bool {
	return matchesPhraseList(message, newIssuePhrases)
}

// IsResolved reports whether the message signals that the reported problem is
// gone and the issue can be closed.
func IsResolved(message string) bool {
	return matchesPhraseList(message, resolutionPhrases)
}

func matchesPhraseList(message string, phrases []string) bool {
	normalized := scrub(strings.ToLower(strings.TrimSpace(message)))
	for _, p := range phrases {
		if strings.Contains(normalized, p) {
			return true
		}
	}
	return false
}
