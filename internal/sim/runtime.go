// Package sim provides software stand-ins for the device runtime and the
// streaming engine so the client loop can run on a desk, without headset
// hardware or a remote host.
package sim

import (
	"log"
	"math"
	"sync"
	"time"

	"github.com/mirage-vr/client/internal/geom"
	"github.com/mirage-vr/client/internal/xr"
)

// Options fixes the simulated hardware's characteristics.
type Options struct {
	Resolution  xr.Resolution
	RefreshRate float32
	IPD         float32
}

func (o *Options) withDefaults() {
	if o.Resolution.Width == 0 {
		o.Resolution = xr.Resolution{Width: 1832, Height: 1920}
	}
	if o.RefreshRate == 0 {
		o.RefreshRate = 90
	}
	if o.IPD == 0 {
		o.IPD = 0.063
	}
}

// Runtime is a simulated device runtime: it reports a fixed display mode,
// paces frame waits to the refresh rate, and synthesizes a slowly orbiting
// head pose.
type Runtime struct {
	opts  Options
	epoch time.Time

	mu     sync.Mutex
	events []xr.Event
}

func NewRuntime(opts Options) *Runtime {
	opts.withDefaults()
	return &Runtime{
		opts:  opts,
		epoch: time.Now(),
	}
}

// PushEvent schedules a runtime event for the next poll, oldest first.
func (r *Runtime) PushEvent(ev xr.Event) {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
}

// PushSessionState is shorthand for scheduling a state-change event.
func (r *Runtime) PushSessionState(state xr.SessionState) {
	r.PushEvent(xr.Event{Kind: xr.EventSessionStateChanged, State: state})
}

func (r *Runtime) PollEvent() (xr.Event, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.events) == 0 {
		return xr.Event{}, false
	}
	ev := r.events[0]
	r.events = r.events[1:]
	return ev, true
}

func (r *Runtime) Now() (time.Duration, error) {
	return time.Since(r.epoch), nil
}

func (r *Runtime) RecommendedResolution() xr.Resolution {
	return r.opts.Resolution
}

func (r *Runtime) SupportedRefreshRates() []float32 {
	return []float32{72, r.opts.RefreshRate}
}

func (r *Runtime) CreateSession() (xr.Session, error) {
	// The simulated session is ready as soon as it exists.
	r.PushSessionState(xr.StateReady)
	return &session{runtime: r, interval: time.Duration(float64(time.Second) / float64(r.opts.RefreshRate))}, nil
}

type session struct {
	runtime  *Runtime
	interval time.Duration

	mu        sync.Mutex
	began     bool
	nextVsync time.Time
}

func (s *session) Begin() error {
	s.mu.Lock()
	s.began = true
	s.nextVsync = time.Now()
	s.mu.Unlock()
	return nil
}

func (s *session) End() error {
	s.mu.Lock()
	s.began = false
	s.mu.Unlock()
	return nil
}

func (s *session) CreateReferenceSpace() (xr.Space, error) {
	return struct{}{}, nil
}

func (s *session) PlayspaceBounds() (*geom.Vec2, error) {
	return &geom.Vec2{X: 2.5, Y: 2.5}, nil
}

// LocateViews orbits the head slowly around the play space origin, eyes
// offset half the IPD to each side.
func (s *session) LocateViews(t time.Duration, _ xr.Space) (xr.ViewFlags, [2]xr.View, error) {
	angle := t.Seconds() * 0.2
	half := s.runtime.opts.IPD / 2

	head := geom.Vec3{
		X: float32(0.1 * math.Sin(angle)),
		Y: 1.7,
		Z: float32(0.1 * math.Cos(angle)),
	}
	fov := geom.Fov{Left: -0.8, Right: 0.8, Up: 0.8, Down: -0.8}
	orientation := geom.QuatIdent()

	views := [2]xr.View{
		{Pose: geom.Pose{Orientation: orientation, Position: geom.Vec3{X: head.X - half, Y: head.Y, Z: head.Z}}, Fov: fov},
		{Pose: geom.Pose{Orientation: orientation, Position: geom.Vec3{X: head.X + half, Y: head.Y, Z: head.Z}}, Fov: fov},
	}
	return xr.ViewFlags{PositionValid: true, OrientationValid: true}, views, nil
}

func (s *session) SyncActions() error { return nil }

func (s *session) HandMotion(hand xr.Hand, t time.Duration, _ xr.Space) (*xr.DeviceMotion, []geom.Pose, error) {
	side := float32(-1)
	if hand == xr.HandRight {
		side = 1
	}
	bob := float32(0.05 * math.Sin(t.Seconds()*2))
	return &xr.DeviceMotion{
		Device: hand.DeviceID(),
		Pose: geom.Pose{
			Orientation: geom.QuatIdent(),
			Position:    geom.Vec3{X: side * 0.25, Y: 1.2 + bob, Z: -0.3},
		},
	}, nil, nil
}

func (s *session) SampleFace(xr.FaceSources, time.Duration, xr.Space) (xr.FaceData, error) {
	return xr.FaceData{}, nil
}

func (s *session) PollButtons() ([]xr.ButtonEntry, error) { return nil, nil }

func (s *session) ApplyHaptics(hand xr.Hand, v xr.HapticVibration) error {
	log.Printf("sim: haptics on %s (%.0f Hz, %.2f, %v)", hand.DeviceID(), v.Frequency, v.Amplitude, v.Duration)
	return nil
}

func (s *session) RequestRefreshRate(rate float32) error {
	return xr.ErrUnsupported
}

// WaitFrame sleeps until the next simulated vsync.
func (s *session) WaitFrame() (xr.FrameState, error) {
	s.mu.Lock()
	next := s.nextVsync
	s.nextVsync = next.Add(s.interval)
	began := s.began
	s.mu.Unlock()

	time.Sleep(time.Until(next))

	now, _ := s.runtime.Now()
	return xr.FrameState{
		PredictedDisplayTime:   now + s.interval,
		PredictedDisplayPeriod: s.interval,
		ShouldRender:           began,
	}, nil
}

func (s *session) BeginFrame() error { return nil }

func (s *session) EndFrame(time.Duration, []xr.ProjectionLayerView) error { return nil }

func (s *session) CreateSwapchain(info xr.SwapchainCreateInfo) (xr.Swapchain, error) {
	sc := &swapchain{resolution: info.Resolution}
	for i := uint32(0); i < info.ImageCount; i++ {
		sc.images = append(sc.images, xr.Image(nextImageHandle()))
	}
	return sc, nil
}

var imageHandleCounter uint64

var imageHandleMu sync.Mutex

func nextImageHandle() uint64 {
	imageHandleMu.Lock()
	defer imageHandleMu.Unlock()
	imageHandleCounter++
	return imageHandleCounter
}

type swapchain struct {
	resolution xr.Resolution
	images     []xr.Image
	next       uint32
}

func (s *swapchain) Acquire() (uint32, error) {
	idx := s.next
	s.next = (s.next + 1) % uint32(len(s.images))
	return idx, nil
}

func (s *swapchain) Wait() error    { return nil }
func (s *swapchain) Release() error { return nil }

func (s *swapchain) Images() []xr.Image { return s.images }

func (s *swapchain) Resolution() xr.Resolution { return s.resolution }

func (s *swapchain) Destroy() error { return nil }
