package timer

import (
	"encoding/json"
	"testing"
	"time"
)

func at(weekday time.Weekday, hour, minute int) time.Time {
	// 2026-03-02 is a Monday.
	base := time.Date(2026, 3, 2, hour, minute, 0, 0, time.UTC)
	return base.AddDate(0, 0, int(weekday-time.Monday))
}

func TestDailyMatchesOnHour(t *testing.T) {
	cfg := json.RawMessage(`{"hour": 9}`)

	match, err := Matches("every_day_at_x_hour", cfg, at(time.Monday, 9, 0))
	if err != nil || !match {
		t.Errorf("expected match at 09:00, got match=%t err=%v", match, err)
	}

	if match, _ := Matches("every_day_at_x_hour", cfg, at(time.Monday, 9, 30)); match {
		t.Error("expected no match off the full hour")
	}
	if match, _ := Matches("every_day_at_x_hour", cfg, at(time.Monday, 10, 0)); match {
		t.Error("expected no match at a different hour")
	}
}

func TestDailyRespectsWeekday(t *testing.T) {
	cfg := json.RawMessage(`{"hour": 9, "day": "friday"}`)

	if match, _ := Matches("every_day_at_x_hour", cfg, at(time.Friday, 9, 0)); !match {
		t.Error("expected match on Friday")
	}
	if match, _ := Matches("every_day_at_x_hour", cfg, at(time.Monday, 9, 0)); match {
		t.Error("expected no match on Monday")
	}
}

func TestIntervalMatchesMultiples(t *testing.T) {
	cfg := json.RawMessage(`{"minutes": 15}`)

	for _, minute := range []int{0, 15, 30, 45} {
		if match, err := Matches("every_hour_at_intervals", cfg, at(time.Monday, 12, minute)); err != nil || !match {
			t.Errorf("expected match at minute %d", minute)
		}
	}
	for _, minute := range []int{1, 14, 59} {
		if match, _ := Matches("every_hour_at_intervals", cfg, at(time.Monday, 12, minute)); match {
			t.Errorf("expected no match at minute %d", minute)
		}
	}
}

func TestIntervalRejectsNonPositive(t *testing.T) {
	if _, err := Matches("every_hour_at_intervals", json.RawMessage(`{"minutes": 0}`), at(time.Monday, 12, 0)); err == nil {
		t.Error("expected error for zero interval")
	}
}

func TestUnknownActionRejected(t *testing.T) {
	if _, err := Matches("nope", json.RawMessage(`{}`), at(time.Monday, 12, 0)); err == nil {
		t.Error("expected error for unknown action")
	}
}

func TestModuleShape(t *testing.T) {
	svc := New()
	if !svc.AlwaysSubscribed {
		t.Error("expected timer to be always subscribed")
	}
	if svc.OAuth != nil {
		t.Error("expected timer to have no OAuth")
	}
	if len(svc.Actions) != 2 {
		t.Errorf("expected 2 actions, got %d", len(svc.Actions))
	}
}
