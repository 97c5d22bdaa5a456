package reward

import "github.com/dukerupert/neuri/internal/model"

// Points awarded per completion.
const (
	PointsSubtask  = 1
	PointsProject  = 5
	PointsTask     = 3
	PointsReminder = 2
	PointsNote     = 1
	PointsDefault  = 1
)

// PointsForCompletion returns the points earned for completing a mission.
// A subtask always earns PointsSubtask regardless of its kind.
func PointsForCompletion(kind model.MissionType, isSubtask bool) int {
	if isSubtask {
		return PointsSubtask
	}
	switch kind {
	case model.MissionProject:
		return PointsProject
	case model.MissionTask:
		return PointsTask
	case model.MissionReminder:
		return PointsReminder
	case model.MissionNote:
		return PointsNote
	default:
		return PointsDefault
	}
}
