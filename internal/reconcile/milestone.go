package reconcile

// goalMilestones are the progress checkpoints crossed exactly once each.
var goalMilestones = []float64{50, 75, 100}

// milestoneCrossing is a goal-progress checkpoint newly crossed by an
// allocation. Exceeded marks progress moving strictly past 100%, which is
// reported in addition to the 100% milestone itself.
type milestoneCrossing struct {
	Milestone int
	Exceeded  bool
}

// crossedMilestones returns the milestones crossed when progress moves from
// prevPercent to newPercent: every m with prev < m <= new, plus the
// distinct "exceeded" marker when prev < 100 < new.
func crossedMilestones(prevPercent, newPercent float64) []milestoneCrossing {
	var crossings []milestoneCrossing
	for _, m := range goalMilestones {
		if prevPercent < m && newPercent >= m {
			crossings = append(crossings, milestoneCrossing{Milestone: int(m)})
		}
	}
	if prevPercent < 100 && newPercent > 100 {
		crossings = append(crossings, milestoneCrossing{Milestone: 100, Exceeded: true})
	}
	return crossings
}
