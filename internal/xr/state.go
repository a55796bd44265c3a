package xr

import "encoding/json"

// SessionState mirrors the runtime's session lifecycle. Transitions are
// driven exclusively by runtime-delivered events; application code reacts to
// them but never sets the state directly.
type SessionState int

const (
	StateIdle SessionState = iota
	StateReady
	StateSynchronized
	StateVisible
	StateFocused
	StateStopping
	StateLossPending
	StateExiting
)

var stateNames = map[SessionState]string{
	StateIdle:         "idle",
	StateReady:        "ready",
	StateSynchronized: "synchronized",
	StateVisible:      "visible",
	StateFocused:      "focused",
	StateStopping:     "stopping",
	StateLossPending:  "loss_pending",
	StateExiting:      "exiting",
}

var stateFromName = map[string]SessionState{
	"idle":         StateIdle,
	"ready":        StateReady,
	"synchronized": StateSynchronized,
	"visible":      StateVisible,
	"focused":      StateFocused,
	"stopping":     StateStopping,
	"loss_pending": StateLossPending,
	"exiting":      StateExiting,
}

func (s SessionState) String() string {
	if n, ok := stateNames[s]; ok {
		return n
	}
	return "unknown"
}

func (s SessionState) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *SessionState) UnmarshalJSON(data []byte) error {
	var n string
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	if v, ok := stateFromName[n]; ok {
		*s = v
	}
	return nil
}
