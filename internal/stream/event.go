package stream

import (
	"time"

	"github.com/mirage-vr/client/internal/xr"
)

// EventType classifies inbound stream lifecycle events.
type EventType int

const (
	EventStreamStarted EventType = iota // host began streaming
	EventStreamStopped                  // host ended streaming
	EventHaptics                        // vibration request for one hand
	EventHudMessage                     // lobby HUD text update
)

// Event carries one inbound lifecycle event to the frame pacer.
type Event struct {
	Type    EventType
	Started *StartInfo      // set for EventStreamStarted
	Haptics *HapticsRequest // set for EventHaptics
	Hud     string          // set for EventHudMessage
}

// StartInfo is the negotiated stream configuration.
type StartInfo struct {
	Resolution      xr.Resolution `msgpack:"resolution"`
	RefreshRateHint float32       `msgpack:"refresh_rate_hint"`
	Settings        Settings      `msgpack:"settings"`
}

// Settings is the subset of host settings the client core consumes.
type Settings struct {
	// FaceTracking is nil when the feature is disabled.
	FaceTracking *xr.FaceSources `msgpack:"face_tracking"`
}

// HapticsRequest addresses one hand's vibration action.
type HapticsRequest struct {
	Device    xr.DeviceID   `msgpack:"device"`
	Duration  time.Duration `msgpack:"duration"`
	Frequency float32       `msgpack:"frequency"`
	Amplitude float32       `msgpack:"amplitude"`
}
