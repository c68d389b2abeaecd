package report

import "github.com/vitazok/exercise-analyzer-backend/internal/domain/exercise"

var recommendations = map[exercise.Category][]string{
	exercise.Pushup: {
		"Maintain straight line from head to heels",
		"Lower chest to within 2-4 inches of ground",
		"Keep elbows at 45° angle to body",
		"Engage core throughout movement",
		"Control both lowering and pressing phases",
	},
	exercise.Squat: {
		"Descend until hip crease below knee cap",
		"Keep knees tracking over toes",
		"Maintain neutral spine throughout",
		"Drive through heels on ascent",
		"Keep chest up and core engaged",
	},
	exercise.Pullup: {
		"Achieve full arm extension at bottom",
		"Pull chin over bar at top",
		"Minimize body swing and momentum",
		"Engage lats and rhomboids",
		"Control the descent (eccentric phase)",
	},
}

// Recommendations returns a copy of the fixed advice for cat. Categories
// without advice return an empty list.
func Recommendations(cat exercise.Category) []string {
	return append([]string{}, recommendations[cat]...)
}
