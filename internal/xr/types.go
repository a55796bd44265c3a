package xr

import (
	"time"

	"github.com/mirage-vr/client/internal/geom"
)

// DeviceID names a tracked device on the wire.
type DeviceID string

const (
	DeviceHead      DeviceID = "head"
	DeviceLeftHand  DeviceID = "hand_left"
	DeviceRightHand DeviceID = "hand_right"
)

// Hand selects one of the two hand controllers.
type Hand int

const (
	HandLeft Hand = iota
	HandRight
)

func (h Hand) DeviceID() DeviceID {
	if h == HandLeft {
		return DeviceLeftHand
	}
	return DeviceRightHand
}

// View is one eye's viewpoint for a given predicted display time.
type View struct {
	Pose geom.Pose `msgpack:"pose"`
	Fov  geom.Fov  `msgpack:"fov"`
}

// ViewFlags carries the validity bits returned by a view-location call.
// A view set must not be trusted unless both flags are set.
type ViewFlags struct {
	PositionValid    bool
	OrientationValid bool
}

func (f ViewFlags) Valid() bool {
	return f.PositionValid && f.OrientationValid
}

// FrameState is the result of the runtime's frame-wait primitive.
type FrameState struct {
	PredictedDisplayTime   time.Duration
	PredictedDisplayPeriod time.Duration
	ShouldRender           bool
}

// Resolution is a per-eye image size in pixels.
type Resolution struct {
	Width  uint32 `msgpack:"width" yaml:"width" json:"width"`
	Height uint32 `msgpack:"height" yaml:"height" json:"height"`
}

// Image is an opaque GPU image handle owned by a swapchain, consumed by the
// rendering backend.
type Image uint64

// SwapchainCreateInfo fixes the properties of a swapchain at creation time.
type SwapchainCreateInfo struct {
	Format      uint32
	UsageFlags  uint32
	Resolution  Resolution
	SampleCount uint32
	ImageCount  uint32
}

// DeviceMotion is one device's sampled pose plus derivatives.
type DeviceMotion struct {
	Device          DeviceID  `msgpack:"device"`
	Pose            geom.Pose `msgpack:"pose"`
	LinearVelocity  geom.Vec3 `msgpack:"linear_velocity"`
	AngularVelocity geom.Vec3 `msgpack:"angular_velocity"`
}

// HapticVibration is a single vibration request against a hand's vibration
// action.
type HapticVibration struct {
	Duration  time.Duration
	Frequency float32
	Amplitude float32
}

// ButtonKind distinguishes binary from scalar input values.
type ButtonKind int

const (
	ButtonBinary ButtonKind = iota
	ButtonScalar
)

// ButtonEntry is a changed input-button reading.
type ButtonEntry struct {
	Path    string     `msgpack:"path"`
	Kind    ButtonKind `msgpack:"kind"`
	Pressed bool       `msgpack:"pressed"`
	Value   float32    `msgpack:"value"`
}

// FaceSources selects which face-tracking inputs were negotiated at stream
// start.
type FaceSources struct {
	EyeGaze        bool `yaml:"eye_gaze" msgpack:"eye_gaze"`
	FaceExpression bool `yaml:"face_expression" msgpack:"face_expression"`
	EyeExpression  bool `yaml:"eye_expression" msgpack:"eye_expression"`
	LipExpression  bool `yaml:"lip_expression" msgpack:"lip_expression"`
}

func (f FaceSources) Any() bool {
	return f.EyeGaze || f.FaceExpression || f.EyeExpression || f.LipExpression
}

// FaceData is one tick's optional gaze and expression samples. Nil slices and
// nil gazes mean the source produced nothing this tick.
type FaceData struct {
	EyeGazes       [2]*geom.Pose `msgpack:"eye_gazes"`
	FaceExpression []float32     `msgpack:"face_expression"`
	EyeExpression  []float32     `msgpack:"eye_expression"`
	LipExpression  []float32     `msgpack:"lip_expression"`
}
