package domain

// AppState is the lifecycle tag held by the controller for a presentation session.
type AppState string

const (
	StateInitial    AppState = "initial"    // Waiting for the user's raw intent
	StateClarifying AppState = "clarifying" // Guided exchange refining the goals
	StateApproving  AppState = "approving"  // Outline proposed, user may edit it
	StateGenerating AppState = "generating" // Slides produced one outline entry at a time
	StateEditing    AppState = "editing"    // Slides are user-owned
	StateError      AppState = "error"      // Last transition failed; prior work preserved
)

// Valid reports whether s is one of the known states.
func (s AppState) Valid() bool {
	switch s {
	case StateInitial, StateClarifying, StateApproving, StateGenerating, StateEditing, StateError:
		return true
	}
	return false
}

// ParseAppState converts a raw value into an AppState.
// Unknown values yield ok == false.
func ParseAppState(raw string) (AppState, bool) {
	s := AppState(raw)
	return s, s.Valid()
}
