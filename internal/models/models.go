package models

import "time"

const (
	StatusOpen      = "Open"
	StatusEscalated = "Escalated"
	StatusResolved  = "Resolved"
)

const (
	UrgencyHigh   = "high"
	UrgencyNormal = "normal"
)

// Issue is the durable ticket for one tenant-reported problem. PublicID is the
// human-shareable token (ISSUE-123456); ID is the internal record reference.
type Issue struct {
	ID             string    `json:"id"`
	PublicID       string    `json:"public_id"`
	Phone          string    `json:"phone"`
	Category       string    `json:"category"`
	Cluster        string    `json:"cluster"`
	Urgency        string    `json:"urgency"`
	Escalated      bool      `json:"escalated"`
	Status         string    `json:"status"`
	FollowUps      []string  `json:"follow_ups"`
	MessageLog     []string  `json:"message_log"`
	MediaSubmitted bool      `json:"media_submitted"`
	MediaURLs      []string  `json:"media_urls,omitempty"`
	AIDiagnosis    string    `json:"ai_diagnosis,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type Tenant struct {
	ID        string    `json:"id"`
	Phone     string    `json:"phone"`
	Unit      string    `json:"unit"`
	Name      string    `json:"name"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Category is one maintenance domain from the knowledge base. Clusters keep
// their file order; categories are enumerated lexicographically by name.
type Category struct {
	Name              string    `json:"name"`
	Keywords          []string  `json:"keywords"`
	EmergencyTriggers []string  `json:"emergency_triggers"`
	Clusters          []Cluster `json:"clusters"`
}

// Cluster is a named sub-pattern within a category.
type Cluster struct {
	Name            string              `json:"name"`
	Examples        []string            `json:"examples"`
	TriageQuestions []string            `json:"triage_questions"`
	EscalationRules map[string][]string `json:"escalation_rules,omitempty"`
}

// EscalationRules is the process-wide rule set. Weekend holds time.Weekday
// indices (0 = Sunday).
type EscalationRules struct {
	EmergencyKeywords     []string `json:"emergency_keywords"`
	UrgencyPhrases        []string `json:"urgency_phrases"`
	AfterHoursStart       int      `json:"after_hours_start"`
	AfterHoursEnd         int      `json:"after_hours_end"`
	Weekend               []int    `json:"weekend"`
	TimeRulesEnabled      bool     `json:"time_rules_enabled"`
	RequireMediaToConfirm bool     `json:"require_media_to_confirm"`
}

// TriageResult is the ephemeral per-message classification outcome. Message
// holds the normalized text the match ran against.
type TriageResult struct {
	Category          string   `json:"category"`
	Cluster           string   `json:"cluster"`
	Urgency           string   `json:"urgency"`
	FollowUpQuestions []string `json:"followup_questions"`
	ShouldEscalate    bool     `json:"should_escalate"`
	Message           string   `json:"message"`
}
