package triage

import (
	"testing"
	"time"

	"github.com/omaromran/allai-sms-webhook/internal/models"
)

// 2025-03-04 is a Tuesday.
var (
	tuesdayAfternoon = time.Date(2025, time.March, 4, 14, 0, 0, 0, time.UTC)
	tuesdayNight     = time.Date(2025, time.March, 4, 21, 0, 0, 0, time.UTC)
	tuesdayEarly     = time.Date(2025, time.March, 4, 6, 30, 0, 0, time.UTC)
	saturdayNoon     = time.Date(2025, time.March, 8, 12, 0, 0, 0, time.UTC)
)

func result(message, urgency string) models.TriageResult {
	return models.TriageResult{
		Category: "plumbing",
		Cluster:  "Leaks",
		Urgency:  urgency,
		Message:  Normalize(message),
	}
}

func TestShouldEscalateEmergencyKeyword(t *testing.T) {
	e := newTestEngine(t, testRules())

	res := result("i can smell gas, there is a gas smell in the hallway", models.UrgencyNormal)
	if !e.ShouldEscalate(res, true, tuesdayAfternoon) {
		t.Fatalf("emergency keyword must escalate even with media during business hours")
	}
}

func TestShouldEscalateUrgencyPhrase(t *testing.T) {
	e := newTestEngine(t, testRules())

	res := result("please fix this asap", models.UrgencyNormal)
	if !e.ShouldEscalate(res, true, tuesdayAfternoon) {
		t.Fatalf("urgency phrase must escalate")
	}
}

func TestShouldEscalateAfterHours(t *testing.T) {
	e := newTestEngine(t, testRules())
	res := result("the sink is leaking", models.UrgencyNormal)

	if e.ShouldEscalate(res, false, tuesdayAfternoon) {
		t.Fatalf("tuesday afternoon should not escalate")
	}
	if !e.ShouldEscalate(res, false, tuesdayNight) {
		t.Fatalf("9pm is after hours")
	}
	if !e.ShouldEscalate(res, false, tuesdayEarly) {
		t.Fatalf("6:30am is before business hours")
	}
	if !e.ShouldEscalate(res, false, saturdayNoon) {
		t.Fatalf("saturday is a weekend day")
	}
}

func TestShouldEscalateTimeRulesDisabled(t *testing.T) {
	rules := testRules()
	rules.TimeRulesEnabled = false
	e := newTestEngine(t, rules)

	res := result("the sink is leaking", models.UrgencyNormal)
	if e.ShouldEscalate(res, false, saturdayNoon) {
		t.Fatalf("disabled time rules must not escalate on weekends")
	}
}

func TestShouldEscalateHighUrgencyWithoutMedia(t *testing.T) {
	e := newTestEngine(t, testRules())

	res := result("the sink is leaking", models.UrgencyHigh)
	if !e.ShouldEscalate(res, false, tuesdayAfternoon) {
		t.Fatalf("high urgency without media should escalate")
	}
	if e.ShouldEscalate(res, true, tuesdayAfternoon) {
		t.Fatalf("high urgency with media should not escalate by itself")
	}
}

func TestShouldEscalateMediaGate(t *testing.T) {
	rules := testRules()
	rules.RequireMediaToConfirm = true
	e := newTestEngine(t, rules)

	res := result("the sink is leaking", models.UrgencyHigh)
	if e.ShouldEscalate(res, false, tuesdayAfternoon) {
		t.Fatalf("media gate should decline unverified high urgency")
	}

	// Emergency keywords and the time window outrank the gate.
	emergency := result("gas smell in the kitchen", models.UrgencyNormal)
	if !e.ShouldEscalate(emergency, false, tuesdayAfternoon) {
		t.Fatalf("emergency keyword must bypass the media gate")
	}
	normal := result("the sink is leaking", models.UrgencyNormal)
	if !e.ShouldEscalate(normal, false, saturdayNoon) {
		t.Fatalf("time window must bypass the media gate")
	}
}

func TestShouldEscalateDefault(t *testing.T) {
	e := newTestEngine(t, testRules())

	res := result("the sink is leaking", models.UrgencyNormal)
	if e.ShouldEscalate(res, true, tuesdayAfternoon) {
		t.Fatalf("normal urgency during business hours should not escalate")
	}
}
