package reward

import "github.com/dukerupert/neuri/internal/model"

// ApplyCompletion returns p with the points for one completion added and
// its tier recomputed. p itself is not modified.
func ApplyCompletion(p model.RewardProfile, kind model.MissionType, isSubtask bool) model.RewardProfile {
	p.Points += PointsForCompletion(kind, isSubtask)
	p.Tier = string(TierForPoints(p.Points))
	return p
}

// AdjustPoints applies a manual point change. Totals never drop below zero.
func AdjustPoints(p model.RewardProfile, delta int) model.RewardProfile {
	p.Points += delta
	if p.Points < 0 {
		p.Points = 0
	}
	p.Tier = string(TierForPoints(p.Points))
	return p
}

// AdjustStreak applies a streak change. The streak may go negative.
func AdjustStreak(p model.RewardProfile, delta int) model.RewardProfile {
	p.Streak += delta
	return p
}

// Progress summarizes where a profile sits on the tier ladder.
type Progress struct {
	Tier            Tier `json:"stage"`
	Points          int  `json:"points"`
	NextStagePoints *int `json:"next_stage_points"`
	TotalTasksDone  int  `json:"total_tasks_done"`
	Streak          int  `json:"streak"`
}

// ProgressFor derives progress from the profile's points, not its stored tier.
func ProgressFor(p model.RewardProfile) Progress {
	tier := TierForPoints(p.Points)
	pr := Progress{
		Tier:           tier,
		Points:         p.Points,
		TotalTasksDone: p.TotalTasksDone,
		Streak:         p.Streak,
	}
	if next, ok := NextThreshold(tier); ok {
		pr.NextStagePoints = &next
	}
	return pr
}
