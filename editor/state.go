package editor

// State is a step of the drag and drop insertion flow:
//
//	Idle -> Dragging -> (OverContainer | OverInsertionPoint | OverNothing) -> Dropped -> Idle
type State int

const (
	Idle State = iota
	Dragging
	OverContainer
	OverInsertionPoint
	OverNothing
	Dropped
)

var stateNames = [...]string{
	Idle:               "idle",
	Dragging:           "dragging",
	OverContainer:      "over-container",
	OverInsertionPoint: "over-insertion-point",
	OverNothing:        "over-nothing",
	Dropped:            "dropped",
}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// dragging reports whether a drag is in progress.
func (s State) dragging() bool {
	switch s {
	case Dragging, OverContainer, OverInsertionPoint, OverNothing:
		return true
	}
	return false
}
