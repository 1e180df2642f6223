package sim

import "fmt"

// Objective names the rank function an optimization run maximizes.
type Objective string

const (
	ObjectiveMaxScore    Objective = "max_score"
	ObjectiveSingleOne   Objective = "single_1"
	ObjectiveSingleFive  Objective = "single_5"
	ObjectiveStraight15  Objective = "straight_1_5"
	ObjectiveStraight26  Objective = "straight_2_6"
	ObjectiveStraight16  Objective = "straight_1_6"
	ObjectiveStraight    Objective = "straight"
)

// ObjectiveKind3Plus names the "N-or-more of face f" objective, f in 1..6.
func ObjectiveKind3Plus(face int) Objective {
	return Objective(fmt.Sprintf("kind3plus_%d", face))
}

// Valid reports whether o is one of the fixed named objectives or a
// Kind3Plus<f> objective with f in 1..6.
func (o Objective) Valid() bool {
	switch o {
	case ObjectiveMaxScore, ObjectiveSingleOne, ObjectiveSingleFive,
		ObjectiveStraight15, ObjectiveStraight26, ObjectiveStraight16, ObjectiveStraight:
		return true
	}
	face, ok := o.KindFace()
	return ok && face >= 1 && face <= 6
}

// KindFace returns the face a Kind3Plus<f> objective targets and true if o
// is such an objective.
func (o Objective) KindFace() (int, bool) {
	var face int
	if n, err := fmt.Sscanf(string(o), "kind3plus_%d", &face); err == nil && n == 1 {
		return face, true
	}
	return 0, false
}
