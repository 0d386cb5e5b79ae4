package reconcile

import (
	"math"
	"time"

	"finflow/internal/models"
)

// thresholdBand is a percentage-of-budget band gated for one-time notification.
type thresholdBand struct {
	Percent int
	Type    models.NotificationType
}

// thresholdBands are evaluated on every run; the deduplicator makes each
// band act at most once per budget window. The 100% band never re-fires
// while spend stays at or above the budget.
var thresholdBands = []thresholdBand{
	{Percent: 80, Type: models.NotificationBudgetWarning},
	{Percent: 90, Type: models.NotificationBudgetWarning},
	{Percent: 100, Type: models.NotificationBudgetExceeded},
}

// crossedBands returns every band whose lower bound the spend percentage
// has reached. Re-proposing an already-fired band is harmless; the
// deduplicator drops it.
func crossedBands(percentSpent float64) []thresholdBand {
	var crossed []thresholdBand
	for _, band := range thresholdBands {
		if percentSpent >= float64(band.Percent) {
			crossed = append(crossed, band)
		}
	}
	return crossed
}

// adjustmentKind is a budget adjustment recommendation direction.
type adjustmentKind string

const (
	adjustIncrease adjustmentKind = "increase"
	adjustDecrease adjustmentKind = "decrease"
)

const (
	overspendThreshold  = 120.0
	underspendThreshold = 50.0
	underspendFinalDays = 5
)

// recommendAdjustment decides whether a budget deserves an adjustment
// recommendation. Overspend wins over underspend; at most one
// recommendation per evaluation.
func recommendAdjustment(percentSpent float64, daysRemaining int) (adjustmentKind, bool) {
	if percentSpent >= overspendThreshold {
		return adjustIncrease, true
	}
	if percentSpent < underspendThreshold && daysRemaining <= underspendFinalDays {
		return adjustDecrease, true
	}
	return "", false
}

// daysUntil returns the number of days from now until end, rounded up.
func daysUntil(now, end time.Time) int {
	return int(math.Ceil(end.Sub(now).Hours() / 24))
}
