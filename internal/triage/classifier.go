package triage

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/omaromran/allai-sms-webhook/internal/models"
)

// SimilarityThreshold is the minimum Ratcliff/Obershelp ratio for an example
// phrase to count as a cluster match. It is a behavioral contract with the
// existing category data; do not tune it per deployment.
const SimilarityThreshold = 0.6

const (
	FallbackCategory = "other"
	unknownCluster   = "Unknown"
	genericQuestion  = "Can you tell me more about the issue?"
)

// Classify maps a tenant message onto a category, cluster, urgency and
// follow-up questions. First matching category/cluster wins; categories are
// scanned in the knowledge base's lexicographic order, so classification is
// reproducible across runs. Unmatched messages fall back to the "other"
// category with a synthetic Unknown cluster.
//
// ShouldEscalate in the result is preliminary: it is computed from the
// time-free escalation signals with media assumed absent, for callers that do
// not have media-presence information yet.
func (e *Engine) Classify(message string) models.TriageResult {
	normalized := Normalize(message)
	rules := e.rules.Current()

	category, cluster := e.match(normalized)

	urgency := models.UrgencyNormal
	if e.isHighUrgency(normalized, category, cluster, rules) {
		urgency = models.UrgencyHigh
	}

	questions := cluster.TriageQuestions
	if len(questions) == 0 {
		questions = []string{genericQuestion}
	}

	res := models.TriageResult{
		Category:          category,
		Cluster:           cluster.Name,
		Urgency:           urgency,
		FollowUpQuestions: questions,
		Message:           normalized,
	}
	res.ShouldEscalate = e.evaluate(res, false, nil, rules)
	return res
}

func (e *Engine) match(normalized string) (string, models.Cluster) {
	if normalized != "" {
		for _, cat := range e.kb.Categories {
			for _, cluster := range cat.Clusters {
				if matchesExamples(normalized, cluster.Examples) {
					return cat.Name, cluster
				}
			}
			if matchesKeyword(normalized, cat.Keywords) {
				if len(cat.Clusters) > 0 {
					return cat.Name, cat.Clusters[0]
				}
				return cat.Name, syntheticCluster()
			}
		}
	}
	return FallbackCategory, syntheticCluster()
}

func matchesExamples(normalized string, examples []string) bool {
	for _, example := range examples {
		if Similarity(Normalize(example), normalized) >= SimilarityThreshold {
			return true
		}
	}
	return false
}

func matchesKeyword(normalized string, keywords []string) bool {
	for _, kw := range keywords {
		kw = Normalize(kw)
		if kw != "" && strings.Contains(normalized, kw) {
			return true
		}
	}
	return false
}

func (e *Engine) isHighUrgency(normalized, category string, cluster models.Cluster, rules models.EscalationRules) bool {
	if cat := e.kb.Category(category); cat != nil {
		if _, ok := containsAnyPhrase(normalized, cat.EmergencyTriggers); ok {
			return true
		}
	}
	if _, ok := containsAnyPhrase(normalized, cluster.EscalationRules["emergency"]); ok {
		return true
	}
	_, ok := containsAnyPhrase(normalized, rules.UrgencyPhrases)
	return ok
}

func syntheticCluster() models.Cluster {
	return models.Cluster{
		Name:            unknownCluster,
		TriageQuestions: []string{genericQuestion},
	}
}

// Similarity is the longest-contiguous-matching-block ratio between two
// normalized strings, computed rune-wise.
func Similarity(a, b string) float64 {
	if a == "" && b == "" {
		return 1
	}
	m := difflib.NewMatcher(strings.Split(a, ""), strings.Split(b, ""))
	return m.Ratio()
}
