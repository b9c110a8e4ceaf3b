package trade

// State tracks where a trade request is in its lifecycle. Transitions
// run strictly forward; Aborted is reachable from any step.
type State uint8

const (
	StateValidating State = iota + 1
	StateConnecting
	StateExecuting
	StateReconciling
	StateCommitting
	StateDone
	StateAborted
)

func (s State) String() string {
	switch s {
	case StateValidating:
		return "VALIDATING"
	case StateConnecting:
		return "CONNECTING"
	case StateExecuting:
		return "EXECUTING"
	case StateReconciling:
		return "RECONCILING"
	case StateCommitting:
		return "COMMITTING"
	case StateDone:
		return "DONE"
	case StateAborted:
		return "ABORTED"
	}
	return "UNKNOWN"
}
