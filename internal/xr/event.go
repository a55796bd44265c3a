package xr

// EventKind classifies runtime events surfaced through the event queue.
type EventKind int

const (
	EventSessionStateChanged EventKind = iota
	EventInstanceLossPending
	EventEventsLost
	EventReferenceSpaceChangePending
	EventInteractionProfileChanged
	EventPerfSettingsChanged
)

// Event is a single runtime event drained from the queue, one per poll call.
type Event struct {
	Kind EventKind

	// State is set for EventSessionStateChanged.
	State SessionState

	// LostCount is set for EventEventsLost.
	LostCount int
}
