// File: cycle/state.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package cycle

// State is the pipeline phase.
type State int32

const (
	StateIdle State = iota
	StateWaiting
	StateSafe
	StateScheduling
	// StateDisabled is terminal: every later Tick is a no-op.
	StateDisabled
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateWaiting:
		return "waiting"
	case StateSafe:
		return "safe"
	case StateScheduling:
		return "scheduling"
	case StateDisabled:
		return "disabled"
	default:
		return "unknown"
	}
}

// MarshalText renders the state name in JSON and TOML.
func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }
