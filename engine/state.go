package engine

// State is the engine lifecycle state.
//
//	Uninitialized -> Ready <-> Rendering
//	      any state -> Disposed (terminal)
type State int

const (
	StateUninitialized State = iota
	StateReady
	StateRendering
	StateDisposed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateReady:
		return "ready"
	case StateRendering:
		return "rendering"
	case StateDisposed:
		return "disposed"
	default:
		return "unknown"
	}
}
