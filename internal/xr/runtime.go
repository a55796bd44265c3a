// Package xr abstracts the device runtime that owns the display, session
// lifecycle and tracking hardware. The concrete implementation (and the
// platform extension negotiation behind it) lives outside the client core;
// internal/sim provides a software stand-in.
package xr

import (
	"errors"
	"time"

	"github.com/mirage-vr/client/internal/geom"
)

// ErrUnsupported is returned by optional runtime capabilities the platform
// did not negotiate.
var ErrUnsupported = errors.New("xr: capability not supported by runtime")

// Space is an opaque reference-space handle. Poses are located against a
// Space; the handle is replaced wholesale when the runtime reports a
// reference-space change.
type Space interface{}

// Runtime is the instance-level surface: the event queue, the runtime clock
// and session creation. PollEvent and Now must be callable from any thread.
type Runtime interface {
	// PollEvent drains at most one pending event. ok is false when the
	// queue is empty.
	PollEvent() (ev Event, ok bool)

	// Now reads the runtime clock as an offset from the runtime epoch.
	// It can fail transiently, e.g. while the runtime tears down.
	Now() (time.Duration, error)

	// RecommendedResolution is the per-eye render size the runtime suggests.
	RecommendedResolution() Resolution

	// SupportedRefreshRates lists the display rates the hardware offers.
	// Never empty.
	SupportedRefreshRates() []float32

	// CreateSession establishes a display/tracking session. One-time setup;
	// failure is unrecoverable for this process.
	CreateSession() (Session, error)
}

// Session is an established display/tracking session. All frame calls must
// happen on the thread owning the graphics context; pose and input calls may
// run on the sampler's thread.
type Session interface {
	Begin() error
	End() error

	CreateReferenceSpace() (Space, error)

	// PlayspaceBounds returns the play-space extent, or nil when the
	// runtime has no configured bounds.
	PlayspaceBounds() (*geom.Vec2, error)

	// LocateViews returns the stereo view set predicted for time t. The
	// flags must be checked before the views are trusted.
	LocateViews(t time.Duration, space Space) (ViewFlags, [2]View, error)

	// SyncActions synchronizes the input action sets for this tick.
	SyncActions() error

	// HandMotion samples one hand at time t. A nil motion means the hand
	// is not currently tracked; the skeleton is optional independently.
	HandMotion(hand Hand, t time.Duration, space Space) (*DeviceMotion, []geom.Pose, error)

	// SampleFace reads the negotiated gaze/expression sources at time t.
	SampleFace(sources FaceSources, t time.Duration, space Space) (FaceData, error)

	// PollButtons returns input-button state that changed since the last
	// call.
	PollButtons() ([]ButtonEntry, error)

	ApplyHaptics(hand Hand, vibration HapticVibration) error

	// RequestRefreshRate asks the display to switch rates. Returns
	// ErrUnsupported when the platform lacks the capability.
	RequestRefreshRate(rate float32) error

	// WaitFrame blocks until the runtime releases the next frame slot.
	// Internally time-bounded by the runtime.
	WaitFrame() (FrameState, error)

	BeginFrame() error

	// EndFrame submits the composition layers for displayTime.
	EndFrame(displayTime time.Duration, layers []ProjectionLayerView) error

	CreateSwapchain(info SwapchainCreateInfo) (Swapchain, error)
}

// ProjectionLayerView is one eye of a submitted stereo projection layer.
type ProjectionLayerView struct {
	Pose       geom.Pose
	Fov        geom.Fov
	Swapchain  Swapchain
	Resolution Resolution
}

// Swapchain is a runtime-managed rotating image set. The acquire → wait →
// release sequence runs once per frame per eye; Wait is internally
// time-bounded by the runtime.
type Swapchain interface {
	Acquire() (index uint32, err error)
	Wait() error
	Release() error

	// Images enumerates the opaque image handles for the rendering backend.
	Images() []Image

	Resolution() Resolution
	Destroy() error
}
