package reconcile

import (
	"testing"
	"time"

	"finflow/internal/models"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func kinds(occurrences []Occurrence) map[OccurrenceKind]time.Time {
	out := make(map[OccurrenceKind]time.Time, len(occurrences))
	for _, occ := range occurrences {
		out[occ.Kind] = occ.Date
	}
	return out
}

func TestEvaluateRecurrence(t *testing.T) {
	t.Run("due_today", func(t *testing.T) {
		anchor := date(2026, time.January, 5)
		today := date(2026, time.January, 19) // anchor + 2 weeks

		occs := EvaluateRecurrence(anchor, models.RecurrenceWeekly, nil, today)
		got := kinds(occs)

		due, ok := got[OccurrenceDueToday]
		if !ok {
			t.Fatalf("expected due_today occurrence, got %v", occs)
		}
		if !due.Equal(today) {
			t.Errorf("expected due date %v, got %v", today, due)
		}
	})

	t.Run("reminder_day_before", func(t *testing.T) {
		anchor := date(2026, time.January, 5)
		today := date(2026, time.January, 18) // day before anchor + 2 weeks

		occs := EvaluateRecurrence(anchor, models.RecurrenceWeekly, nil, today)
		got := kinds(occs)

		reminder, ok := got[OccurrenceReminder]
		if !ok {
			t.Fatalf("expected reminder occurrence, got %v", occs)
		}
		if !reminder.Equal(date(2026, time.January, 19)) {
			t.Errorf("expected reminder for Jan 19, got %v", reminder)
		}
		if _, ok := got[OccurrenceDueToday]; ok {
			t.Error("did not expect due_today the day before")
		}
	})

	t.Run("missed_most_recent_past_occurrence", func(t *testing.T) {
		anchor := date(2026, time.January, 5)
		today := date(2026, time.January, 21) // two days past the Jan 19 occurrence

		occs := EvaluateRecurrence(anchor, models.RecurrenceWeekly, nil, today)
		got := kinds(occs)

		missed, ok := got[OccurrenceMissed]
		if !ok {
			t.Fatalf("expected missed occurrence, got %v", occs)
		}
		if !missed.Equal(date(2026, time.January, 19)) {
			t.Errorf("expected missed date Jan 19, got %v", missed)
		}
	})

	t.Run("due_today_also_reports_missed_previous", func(t *testing.T) {
		anchor := date(2026, time.January, 5)
		today := date(2026, time.January, 19)

		occs := EvaluateRecurrence(anchor, models.RecurrenceWeekly, nil, today)
		got := kinds(occs)

		if _, ok := got[OccurrenceDueToday]; !ok {
			t.Error("expected due_today")
		}
		missed, ok := got[OccurrenceMissed]
		if !ok {
			t.Fatal("expected missed for the previous occurrence")
		}
		if !missed.Equal(date(2026, time.January, 12)) {
			t.Errorf("expected missed date Jan 12, got %v", missed)
		}
	})

	t.Run("anchor_in_the_future", func(t *testing.T) {
		anchor := date(2026, time.March, 1)
		today := date(2026, time.January, 19)

		occs := EvaluateRecurrence(anchor, models.RecurrenceMonthly, nil, today)
		if len(occs) != 0 {
			t.Errorf("expected no occurrences for a future anchor, got %v", occs)
		}
	})

	t.Run("daily_pattern", func(t *testing.T) {
		anchor := date(2026, time.January, 1)
		today := date(2026, time.January, 10)

		occs := EvaluateRecurrence(anchor, models.RecurrenceDaily, nil, today)
		got := kinds(occs)

		if due := got[OccurrenceDueToday]; !due.Equal(today) {
			t.Errorf("expected daily series due today, got %v", due)
		}
		if missed := got[OccurrenceMissed]; !missed.Equal(date(2026, time.January, 9)) {
			t.Errorf("expected missed for yesterday, got %v", missed)
		}
	})

	t.Run("monthly_pattern", func(t *testing.T) {
		anchor := date(2026, time.January, 15)
		today := date(2026, time.April, 15)

		occs := EvaluateRecurrence(anchor, models.RecurrenceMonthly, nil, today)
		got := kinds(occs)

		if due := got[OccurrenceDueToday]; !due.Equal(today) {
			t.Errorf("expected monthly occurrence due on Apr 15, got %v", due)
		}
	})

	t.Run("ended_series_yields_nothing", func(t *testing.T) {
		anchor := date(2026, time.January, 5)
		end := date(2026, time.February, 1)
		today := date(2026, time.March, 1)

		occs := EvaluateRecurrence(anchor, models.RecurrenceWeekly, &end, today)
		if len(occs) != 0 {
			t.Errorf("expected no occurrences after the end date, got %v", occs)
		}
	})

	t.Run("no_reminder_past_end_date", func(t *testing.T) {
		anchor := date(2026, time.January, 5)
		end := date(2026, time.January, 15) // next occurrence Jan 19 is past the end
		today := date(2026, time.January, 13)

		occs := EvaluateRecurrence(anchor, models.RecurrenceWeekly, &end, today)
		got := kinds(occs)

		if _, ok := got[OccurrenceReminder]; ok {
			t.Error("did not expect a reminder for an occurrence past the end date")
		}
		if _, ok := got[OccurrenceDueToday]; ok {
			t.Error("did not expect due_today")
		}
	})

	t.Run("unknown_pattern_yields_nothing", func(t *testing.T) {
		anchor := date(2026, time.January, 5)
		today := date(2026, time.January, 19)

		occs := EvaluateRecurrence(anchor, models.RecurrencePattern("fortnightly"), nil, today)
		if len(occs) != 0 {
			t.Errorf("expected no occurrences for unknown pattern, got %v", occs)
		}
	})

	t.Run("time_of_day_is_ignored", func(t *testing.T) {
		anchor := time.Date(2026, time.January, 5, 23, 45, 0, 0, time.UTC)
		today := time.Date(2026, time.January, 12, 0, 5, 0, 0, time.UTC)

		occs := EvaluateRecurrence(anchor, models.RecurrenceWeekly, nil, today)
		got := kinds(occs)

		if _, ok := got[OccurrenceDueToday]; !ok {
			t.Errorf("expected due_today regardless of the anchor's time of day, got %v", occs)
		}
	})
}
