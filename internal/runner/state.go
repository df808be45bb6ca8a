// ABOUTME: Lifecycle states of an embedding run.
// ABOUTME: The current state is observable while Run is in progress.
package runner

// State is a step in the embedding run lifecycle.
type State int32

// Run states in the order they are normally visited.
const (
	StateUnstarted State = iota
	StateValidating
	StatePreparing
	StateGenerating
	StateWriting
	StateRegistering
	StateSucceeded
	StateFailed
	StateFinalizing
)

var stateNames = [...]string{
	StateUnstarted:   "unstarted",
	StateValidating:  "validating",
	StatePreparing:   "preparing",
	StateGenerating:  "generating",
	StateWriting:     "writing",
	StateRegistering: "registering",
	StateSucceeded:   "succeeded",
	StateFailed:      "failed",
	StateFinalizing:  "finalizing",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}
