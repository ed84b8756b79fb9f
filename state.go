package vr

import "fmt"

// State is the frame lifecycle state of a Context.
type State int

const (
	// StateIdle means no frame is open. Begin is the only valid call.
	StateIdle State = iota

	// StateFrameOpen means Begin succeeded and no eye is bound.
	StateFrameOpen

	// StateEyeOpen means an eye surface is bound for drawing.
	StateEyeOpen
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateFrameOpen:
		return "frame-open"
	case StateEyeOpen:
		return "eye-open"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}
