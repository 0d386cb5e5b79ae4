package reconcile

import (
	"testing"
	"time"

	"finflow/internal/models"
)

func TestCrossedBands(t *testing.T) {
	tests := []struct {
		name    string
		percent float64
		want    []int
	}{
		{"below_all_bands", 79.9, nil},
		{"at_80", 80, []int{80}},
		{"between_80_and_90", 85, []int{80}},
		{"at_90", 90, []int{80, 90}},
		{"between_90_and_100", 95, []int{80, 90}},
		{"at_100", 100, []int{80, 90, 100}},
		{"over_100", 150, []int{80, 90, 100}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := crossedBands(tt.percent)
			if len(got) != len(tt.want) {
				t.Fatalf("expected %d bands, got %d: %v", len(tt.want), len(got), got)
			}
			for i, band := range got {
				if band.Percent != tt.want[i] {
					t.Errorf("band %d: expected %d%%, got %d%%", i, tt.want[i], band.Percent)
				}
			}
		})
	}

	t.Run("exceeded_band_type", func(t *testing.T) {
		bands := crossedBands(100)
		last := bands[len(bands)-1]
		if last.Type != models.NotificationBudgetExceeded {
			t.Errorf("expected 100%% band to be budget_exceeded, got %s", last.Type)
		}
		if bands[0].Type != models.NotificationBudgetWarning {
			t.Errorf("expected 80%% band to be budget_warning, got %s", bands[0].Type)
		}
	})
}

func TestRecommendAdjustment(t *testing.T) {
	tests := []struct {
		name          string
		percent       float64
		daysRemaining int
		wantKind      adjustmentKind
		wantOK        bool
	}{
		{"overspend", 125, 20, adjustIncrease, true},
		{"overspend_boundary", 120, 20, adjustIncrease, true},
		{"underspend_near_end", 30, 3, adjustDecrease, true},
		{"underspend_boundary_days", 49.9, 5, adjustDecrease, true},
		{"underspend_too_early", 30, 10, "", false},
		{"on_track", 70, 3, "", false},
		{"at_underspend_threshold", 50, 3, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, ok := recommendAdjustment(tt.percent, tt.daysRemaining)
			if ok != tt.wantOK {
				t.Fatalf("expected ok=%v, got %v", tt.wantOK, ok)
			}
			if kind != tt.wantKind {
				t.Errorf("expected kind %q, got %q", tt.wantKind, kind)
			}
		})
	}
}

func TestDaysUntil(t *testing.T) {
	now := time.Date(2026, time.January, 10, 12, 0, 0, 0, time.UTC)

	if got := daysUntil(now, now.AddDate(0, 0, 5)); got != 5 {
		t.Errorf("expected 5 days, got %d", got)
	}
	if got := daysUntil(now, now.Add(36*time.Hour)); got != 2 {
		t.Errorf("expected partial day to round up to 2, got %d", got)
	}
	if got := daysUntil(now, now); got != 0 {
		t.Errorf("expected 0 days, got %d", got)
	}
}
