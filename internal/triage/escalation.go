package triage

import (
	"time"

	"github.com/omaromran/allai-sms-webhook/internal/models"
)

// ShouldEscalate decides whether an issue bypasses normal routing. Rules run
// in strict priority order, short-circuiting on the first hit:
//
//  1. emergency keyword in the message
//  2. urgency phrase in the message
//  3. after-hours / weekend time window (only when enabled in the rule set)
//  4. media confirmation gate: with require_media_to_confirm on and no media
//     submitted, decline instead of escalating an unverified claim
//  5. high urgency without corroborating media
//
// The clock is an explicit argument; the engine never reads time itself.
func (e *Engine) ShouldEscalate(res models.TriageResult, mediaPresent bool, now time.Time) bool {
	return e.evaluate(res, mediaPresent, &now, e.rules.Current())
}

func (e *Engine) evaluate(res models.TriageResult, mediaPresent bool, now *time.Time, rules models.EscalationRules) bool {
	msg := res.Message

	if _, ok := containsAnyPhrase(msg, rules.EmergencyKeywords); ok {
		return true
	}
	if _, ok := containsAnyPhrase(msg, rules.UrgencyPhrases); ok {
		return true
	}
	if now != nil && rules.TimeRulesEnabled && outsideBusinessHours(rules, *now) {
		return true
	}
	if rules.RequireMediaToConfirm && !mediaPresent {
		return false
	}
	if res.Urgency == models.UrgencyHigh && !mediaPresent {
		return true
	}
	return false
}

func outsideBusinessHours(rules models.EscalationRules, now time.Time) bool {
	hour := now.Hour()
	if hour >= rules.AfterHoursStart || hour < rules.AfterHoursEnd {
		return true
	}
	weekday := int(now.Weekday())
	for _, d := range rules.Weekend {
		if d == weekday {
			return true
		}
	}
	return false
}
