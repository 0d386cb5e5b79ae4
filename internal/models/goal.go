package models

import "time"

// Goal represents a savings goal. CurrentAmount is mutated only by the
// allocation engine and explicit user edits.
//
// When AutoAllocation is set, incoming income is split across goals in
// creation order. AllocationPercentage takes precedence when both it and
// AllocationAmount are set.
type Goal struct {
	Base
	UserID               uint      `gorm:"not null;index" json:"user_id"`
	Name                 string    `gorm:"not null" json:"name"`
	TargetAmount         int64     `gorm:"type:bigint;not null" json:"target_amount"`
	CurrentAmount        int64     `gorm:"type:bigint;not null;default:0" json:"current_amount"`
	Deadline             time.Time `gorm:"not null" json:"deadline"`
	Notes                string    `json:"notes,omitempty"`
	AutoAllocation       bool      `gorm:"default:false;index" json:"auto_allocation"`
	AllocationPercentage float64   `gorm:"default:0" json:"allocation_percentage"`
	AllocationAmount     int64     `gorm:"type:bigint;default:0" json:"allocation_amount"`
}

// ProgressPercentage returns goal progress as a percentage of the target.
func (g *Goal) ProgressPercentage() float64 {
	if g.TargetAmount <= 0 {
		return 0
	}
	return float64(g.CurrentAmount) / float64(g.TargetAmount) * 100
}
