package triage

import (
	"strings"
	"unicode"

	"github.com/omaromran/allai-sms-webhook/internal/kb"
)

// Engine evaluates tenant messages against an injected knowledge base and
// escalation rule set. All methods are pure over their inputs; the engine
// never reads the clock or performs I/O.
type Engine struct {
	kb    *kb.KnowledgeBase
	rules *kb.RuleSet
}

func New(knowledge *kb.KnowledgeBase, rules *kb.RuleSet) *Engine {
	return &Engine{kb: knowledge, rules: rules}
}

const newIssueMarker = "new issue:"

// Normalize lowercases the message, strips a leading "new issue:" marker,
// drops apostrophes and maps remaining punctuation to spaces, then collapses
// whitespace. Matching and urgency checks all run on this form.
func Normalize(message string) string {
	m := strings.ToLower(strings.TrimSpace(message))
	if strings.HasPrefix(m, newIssueMarker) {
		m = strings.TrimSpace(strings.TrimPrefix(m, newIssueMarker))
	}
	return scrub(m)
}

// scrub is Normalize without the marker stripping. Phrase detection uses it
// directly so that "new issue: ..." still contains "new issue".
func scrub(m string) string {
	var b strings.Builder
	b.Grow(len(m))
	for _, r := range m {
		switch {
		case r == '\'' || r == '’':
			// drop, so "it's" matches "its"
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		default:
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

func containsAnyPhrase(normalized string, phrases []string) (string, bool) {
	for _, p := range phrases {
		p = Normalize(p)
		if p != "" && strings.Contains(normalized, p) {
			return p, true
		}
	}
	return "", false
}
