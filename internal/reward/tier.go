package reward

// Tier is a stage of the tree a user grows by earning points.
type Tier string

const (
	TierSeed      Tier = "seed"
	TierSprout    Tier = "sprout"
	TierSapling   Tier = "sapling"
	TierSmallTree Tier = "small-tree"
	TierFullTree  Tier = "full-tree"
)

// ladder lists each tier with the highest point total it covers, lowest
// first. The last tier has no upper bound.
var ladder = []struct {
	tier Tier
	max  int
}{
	{TierSeed, 5},
	{TierSprout, 15},
	{TierSapling, 30},
	{TierSmallTree, 50},
	{TierFullTree, -1},
}

// TierForPoints maps a point total to its tier. Bounds are inclusive.
func TierForPoints(points int) Tier {
	for _, step := range ladder {
		if step.max < 0 || points <= step.max {
			return step.tier
		}
	}
	return TierFullTree
}

// NextThreshold returns the point total needed to leave tier t, or false
// when t is the top tier.
func NextThreshold(t Tier) (int, bool) {
	for _, step := range ladder {
		if step.tier == t {
			if step.max < 0 {
				return 0, false
			}
			return step.max + 1, true
		}
	}
	// Unknown tier labels start from the bottom of the ladder.
	return ladder[0].max + 1, true
}

// Milestones returns every tier reached at the given point total, in order.
func Milestones(points int) []Tier {
	reached := []Tier{}
	current := TierForPoints(points)
	for _, step := range ladder {
		reached = append(reached, step.tier)
		if step.tier == current {
			break
		}
	}
	return reached
}
