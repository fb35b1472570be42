// Package bulk drives a listing page: it loads lazy content, discovers profile entries,
// and extracts them one at a time with human-paced delays.
package bulk

// State is the controller's lifecycle state.
type State string

const (
	StateIdle          State = "idle"
	StateScanning      State = "scanning"
	StateAutoScrolling State = "auto_scrolling"
	StateIterating     State = "iterating"
	StateCompleted     State = "completed"
	StateStopped       State = "stopped"
	StateErrored       State = "errored"
)

// Terminal reports whether the run has ended in this state.
func (s State) Terminal() bool {
	switch s {
	case StateCompleted, StateStopped, StateErrored:
		return true
	}
	return false
}
