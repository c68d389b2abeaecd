// Package exercise defines the exercise categories and the classifier that
// fixes a session's category from its first usable frame.
package exercise

import "strings"

// Category is the closed set of exercises the analyzer understands.
type Category string

// Known categories. Unknown is the report sentinel for a session in which no
// person was ever detected; it is never produced by the classifier.
const (
	Pushup  Category = "pushup"
	Squat   Category = "squat"
	Pullup  Category = "pullup"
	General Category = "general"
	Unknown Category = "unknown"
)

// Categories returns the classifiable categories in decision order.
func Categories() []Category {
	return []Category{Pushup, Squat, Pullup, General}
}

// Parse resolves a category name case-insensitively.
func Parse(s string) (Category, bool) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	switch c {
	case Pushup, Squat, Pullup, General, Unknown:
		return c, true
	}
	return "", false
}

// String implements fmt.Stringer.
func (c Category) String() string { return string(c) }

// Phase marks the part of a repetition a frame most resembles.
type Phase string

// Phases.
const (
	Bottom Phase = "bottom"
	Top    Phase = "top"
)
