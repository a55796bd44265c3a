// Package stream is the boundary to the remote compute host: outbound
// tracking/input batches, inbound stream lifecycle events, and the decoded
// video frames produced by the external decoder. Transport and codec live
// behind these interfaces, outside the client core.
package stream

import (
	"time"

	"github.com/mirage-vr/client/internal/geom"
	"github.com/mirage-vr/client/internal/xr"
)

// Buffer is an opaque decoded-buffer handle owned by the decoder. A nil
// Buffer renders previous or blank content.
type Buffer interface{}

// Frame is one decoded remote frame, stamped with the tracking timestamp it
// was rendered against on the host.
type Frame struct {
	Timestamp time.Duration
	Buffer    Buffer
}

// FrameSource hands out decoded frames without blocking.
type FrameSource interface {
	// PollFrame returns the next decoded frame if one is ready.
	PollFrame() (Frame, bool)
}

// Tracking is the combined device-motion batch emitted once per sampler tick.
type Tracking struct {
	TargetTimestamp time.Duration     `msgpack:"target_timestamp"`
	DeviceMotions   []xr.DeviceMotion `msgpack:"device_motions"`
	HandSkeletons   [2][]geom.Pose    `msgpack:"hand_skeletons"`
	Face            xr.FaceData       `msgpack:"face"`
}

// Engine is the full streaming-engine surface the client core drives.
type Engine interface {
	FrameSource

	SendTracking(t Tracking) error
	SendButtons(entries []xr.ButtonEntry) error
	SendViewsConfig(fov [2]geom.Fov, ipd float32) error

	// SendPlayspace propagates the play-space bounds; nil means unbounded.
	SendPlayspace(bounds *geom.Vec2) error

	// ReportSubmit reports the display latency of a real (non-fallback)
	// frame.
	ReportSubmit(timestamp, latency time.Duration) error

	// Events delivers inbound stream lifecycle events. The channel closes
	// when the engine shuts down.
	Events() <-chan Event
}
