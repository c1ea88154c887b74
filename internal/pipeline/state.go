package pipeline

// State is a step of one inspection. Runs only move forward.
type State string

const (
	StateIdle          State = "idle"
	StateFaceCheck     State = "face_check"
	StateNoFace        State = "no_face"
	StateClassifying   State = "classifying"
	StateIndeterminate State = "indeterminate"
	StateMaskOK        State = "mask_ok"
	StateViolation     State = "violation"
	StateAlertsSkipped State = "alerts_skipped"
	StateAlertsSent    State = "alerts_sent"
)

// Terminal reports whether no further transition leaves s.
func (s State) Terminal() bool {
	switch s {
	case StateNoFace, StateIndeterminate, StateMaskOK, StateAlertsSkipped, StateAlertsSent:
		return true
	}
	return false
}

// transitions lists the legal successors of every state.
var transitions = map[State][]State{
	StateIdle:        {StateFaceCheck},
	StateFaceCheck:   {StateNoFace, StateClassifying},
	StateClassifying: {StateIndeterminate, StateMaskOK, StateViolation},
	StateViolation:   {StateAlertsSkipped, StateAlertsSent},
}

// CanTransition reports whether to directly follows from.
func CanTransition(from, to State) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
