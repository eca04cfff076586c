package composition

import "fmt"

// ShapeMismatchError reports resolved-input arrays whose lengths disagree
// with the scene template list. Raised before any timeline work begins.
type ShapeMismatchError struct {
	Field string
	Want  int
	Got   int
}

func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("composition: %s has %d entries, want %d to match scene templates", e.Field, e.Got, e.Want)
}

// InvalidDurationError reports a non-positive explicit scene duration.
type InvalidDurationError struct {
	SceneID  string
	Duration float64
}

func (e *InvalidDurationError) Error() string {
	return fmt.Sprintf("composition: scene %q has invalid explicit duration %.2f", e.SceneID, e.Duration)
}

// MissingMediaError reports a scene that reached the compiler without a
// background reference. The compiler emits no stages when this is returned.
type MissingMediaError struct {
	SceneID string
}

func (e *MissingMediaError) Error() string {
	return fmt.Sprintf("composition: scene %q has no background reference", e.SceneID)
}
