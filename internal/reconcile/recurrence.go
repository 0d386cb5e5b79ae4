package reconcile

import (
	"time"

	"finflow/internal/models"
)

// OccurrenceKind classifies a recurring-series occurrence relative to today.
type OccurrenceKind string

const (
	// OccurrenceReminder fires the day before an occurrence is due.
	OccurrenceReminder OccurrenceKind = "reminder"
	// OccurrenceDueToday fires on the occurrence date itself.
	OccurrenceDueToday OccurrenceKind = "due_today"
	// OccurrenceMissed fires for the most recent occurrence that has
	// already passed.
	OccurrenceMissed OccurrenceKind = "missed"
)

// Occurrence is a classified occurrence of a recurring series.
type Occurrence struct {
	Kind OccurrenceKind
	Date time.Time
}

// dateOnly truncates t to midnight UTC.
func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// stepOccurrence advances an occurrence date by one period. The second
// return value is false for unrecognized patterns, which callers must treat
// as non-recurring rather than looping forever.
func stepOccurrence(t time.Time, pattern models.RecurrencePattern) (time.Time, bool) {
	switch pattern {
	case models.RecurrenceDaily:
		return t.AddDate(0, 0, 1), true
	case models.RecurrenceWeekly:
		return t.AddDate(0, 0, 7), true
	case models.RecurrenceMonthly:
		return t.AddDate(0, 1, 0), true
	}
	return t, false
}

// EvaluateRecurrence classifies a recurring series against "today" using
// pure date arithmetic. The series occurrences are anchor, anchor+period,
// anchor+2*period, ... walked forward until the first occurrence on or
// after today:
//
//   - due_today when that occurrence is today,
//   - reminder when it is tomorrow,
//   - missed for the single most recent occurrence strictly before today.
//
// "missed" does not consult the transaction log; it is derived from dates
// alone, and the caller's dedup key (which includes the occurrence date)
// is what makes it fire at most once per skipped occurrence.
//
// An ended series (endDate before today) yields nothing. So does an
// unrecognized pattern.
func EvaluateRecurrence(anchor time.Time, pattern models.RecurrencePattern, endDate *time.Time, today time.Time) []Occurrence {
	today = dateOnly(today)
	cursor := dateOnly(anchor)

	if endDate != nil && dateOnly(*endDate).Before(today) {
		return nil
	}
	if _, ok := stepOccurrence(cursor, pattern); !ok {
		return nil
	}

	var last time.Time
	hasLast := false
	for cursor.Before(today) {
		last = cursor
		hasLast = true
		cursor, _ = stepOccurrence(cursor, pattern)
	}
	next := cursor

	nextEnded := endDate != nil && next.After(dateOnly(*endDate))

	var occurrences []Occurrence
	if !nextEnded {
		switch {
		case next.Equal(today):
			occurrences = append(occurrences, Occurrence{Kind: OccurrenceDueToday, Date: next})
		case next.Equal(today.AddDate(0, 0, 1)):
			occurrences = append(occurrences, Occurrence{Kind: OccurrenceReminder, Date: next})
		}
	}
	if hasLast {
		occurrences = append(occurrences, Occurrence{Kind: OccurrenceMissed, Date: last})
	}
	return occurrences
}
