package client

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mirage-vr/client/internal/backend"
	"github.com/mirage-vr/client/internal/config"
	"github.com/mirage-vr/client/internal/geom"
	"github.com/mirage-vr/client/internal/history"
	"github.com/mirage-vr/client/internal/stream"
	"github.com/mirage-vr/client/internal/telemetry"
	"github.com/mirage-vr/client/internal/xr"
)

var errTest = errors.New("scripted failure")

// eventLog records ordered actions across fakes for ordering assertions.
type eventLog struct {
	mu      sync.Mutex
	entries []string
}

func (l *eventLog) add(entry string) {
	l.mu.Lock()
	l.entries = append(l.entries, entry)
	l.mu.Unlock()
}

func (l *eventLog) snapshot() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.entries...)
}

type fakeRuntime struct {
	mu      sync.Mutex
	events  []xr.Event
	now     time.Duration
	nowErr  error
	session *fakeSession
}

func newFakeRuntime() *fakeRuntime {
	rt := &fakeRuntime{now: time.Second}
	rt.session = newFakeSession()
	return rt
}

func (r *fakeRuntime) pushEvent(ev xr.Event) {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
}

func (r *fakeRuntime) PollEvent() (xr.Event, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.events) == 0 {
		return xr.Event{}, false
	}
	ev := r.events[0]
	r.events = r.events[1:]
	return ev, true
}

func (r *fakeRuntime) Now() (time.Duration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.nowErr != nil {
		return 0, r.nowErr
	}
	return r.now, nil
}

func (r *fakeRuntime) RecommendedResolution() xr.Resolution {
	return xr.Resolution{Width: 1024, Height: 1024}
}

func (r *fakeRuntime) SupportedRefreshRates() []float32 { return []float32{72, 90} }

func (r *fakeRuntime) CreateSession() (xr.Session, error) { return r.session, nil }

// fakeSession is a scriptable xr.Session. Function fields override behavior
// per test; nil fields use permissive defaults.
type fakeSession struct {
	log *eventLog

	mu              sync.Mutex
	begun           bool
	ended           bool
	swapchainsMade  int
	refreshRates    []float32
	haptics         []appliedHaptic
	endedFrames     []endedFrame
	referenceSpaces int
	buttonQueue     [][]xr.ButtonEntry
	playspaceBounds *geom.Vec2

	locateFn func(t time.Duration) (xr.ViewFlags, [2]xr.View, error)
	handFn   func(hand xr.Hand, t time.Duration) (*xr.DeviceMotion, []geom.Pose, error)
	syncErr  error
}

type appliedHaptic struct {
	hand      xr.Hand
	vibration xr.HapticVibration
}

type endedFrame struct {
	displayTime time.Duration
	layers      []xr.ProjectionLayerView
}

func newFakeSession() *fakeSession {
	return &fakeSession{
		log:             &eventLog{},
		playspaceBounds: &geom.Vec2{X: 3, Y: 3},
	}
}

// viewsWithIPD builds a valid stereo pair with the eyes ipd apart.
func viewsWithIPD(ipd float32) [2]xr.View {
	fov := geom.Fov{Left: -0.7, Right: 0.7, Up: 0.7, Down: -0.7}
	return [2]xr.View{
		{Pose: geom.Pose{Orientation: geom.QuatIdent(), Position: geom.Vec3{X: -ipd / 2, Y: 1.6}}, Fov: fov},
		{Pose: geom.Pose{Orientation: geom.QuatIdent(), Position: geom.Vec3{X: ipd / 2, Y: 1.6}}, Fov: fov},
	}
}

func (s *fakeSession) Begin() error {
	s.mu.Lock()
	s.begun = true
	s.mu.Unlock()
	return nil
}

func (s *fakeSession) End() error {
	s.mu.Lock()
	s.ended = true
	s.mu.Unlock()
	return nil
}

func (s *fakeSession) CreateReferenceSpace() (xr.Space, error) {
	s.mu.Lock()
	s.referenceSpaces++
	n := s.referenceSpaces
	s.mu.Unlock()
	return fmt.Sprintf("space-%d", n), nil
}

func (s *fakeSession) PlayspaceBounds() (*geom.Vec2, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playspaceBounds, nil
}

func (s *fakeSession) LocateViews(t time.Duration, _ xr.Space) (xr.ViewFlags, [2]xr.View, error) {
	if s.locateFn != nil {
		return s.locateFn(t)
	}
	return xr.ViewFlags{PositionValid: true, OrientationValid: true}, viewsWithIPD(0.064), nil
}

func (s *fakeSession) SyncActions() error {
	s.log.add("sync")
	return s.syncErr
}

func (s *fakeSession) HandMotion(hand xr.Hand, t time.Duration, _ xr.Space) (*xr.DeviceMotion, []geom.Pose, error) {
	if s.handFn != nil {
		return s.handFn(hand, t)
	}
	return &xr.DeviceMotion{
		Device: hand.DeviceID(),
		Pose:   geom.Pose{Orientation: geom.QuatIdent(), Position: geom.Vec3{X: 0.2, Y: 1.1, Z: -0.2}},
	}, nil, nil
}

func (s *fakeSession) SampleFace(xr.FaceSources, time.Duration, xr.Space) (xr.FaceData, error) {
	return xr.FaceData{}, nil
}

func (s *fakeSession) PollButtons() ([]xr.ButtonEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.buttonQueue) == 0 {
		return nil, nil
	}
	entries := s.buttonQueue[0]
	s.buttonQueue = s.buttonQueue[1:]
	return entries, nil
}

func (s *fakeSession) ApplyHaptics(hand xr.Hand, v xr.HapticVibration) error {
	s.mu.Lock()
	s.haptics = append(s.haptics, appliedHaptic{hand: hand, vibration: v})
	s.mu.Unlock()
	return nil
}

func (s *fakeSession) RequestRefreshRate(rate float32) error {
	s.mu.Lock()
	s.refreshRates = append(s.refreshRates, rate)
	s.mu.Unlock()
	return nil
}

func (s *fakeSession) WaitFrame() (xr.FrameState, error) {
	return xr.FrameState{
		PredictedDisplayTime:   2 * time.Second,
		PredictedDisplayPeriod: intervalFromRate(90),
		ShouldRender:           true,
	}, nil
}

func (s *fakeSession) BeginFrame() error { return nil }

func (s *fakeSession) EndFrame(displayTime time.Duration, layers []xr.ProjectionLayerView) error {
	s.mu.Lock()
	s.endedFrames = append(s.endedFrames, endedFrame{displayTime: displayTime, layers: layers})
	s.mu.Unlock()
	return nil
}

func (s *fakeSession) CreateSwapchain(info xr.SwapchainCreateInfo) (xr.Swapchain, error) {
	s.mu.Lock()
	s.swapchainsMade++
	n := s.swapchainsMade
	s.mu.Unlock()
	name := fmt.Sprintf("sc-%d", n)
	s.log.add("create " + name)
	return &fakeSwapchain{name: name, log: s.log, res: info.Resolution, count: int(info.ImageCount)}, nil
}

func (s *fakeSession) swapchainCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.swapchainsMade
}

type fakeSwapchain struct {
	name  string
	log   *eventLog
	res   xr.Resolution
	count int
	next  uint32
}

func (f *fakeSwapchain) Acquire() (uint32, error) {
	idx := f.next
	f.next = (f.next + 1) % uint32(f.count)
	return idx, nil
}

func (f *fakeSwapchain) Wait() error    { return nil }
func (f *fakeSwapchain) Release() error { return nil }

func (f *fakeSwapchain) Images() []xr.Image {
	images := make([]xr.Image, f.count)
	for i := range images {
		images[i] = xr.Image(i + 1)
	}
	return images
}

func (f *fakeSwapchain) Resolution() xr.Resolution { return f.res }

func (f *fakeSwapchain) Destroy() error {
	f.log.add("destroy " + f.name)
	return nil
}

// fakeEngine records everything sent to it and serves queued frames.
type fakeEngine struct {
	mu          sync.Mutex
	frames      []stream.Frame
	tracking    []stream.Tracking
	ipdNotices  []float32
	buttonSends [][]xr.ButtonEntry
	playspaces  []*geom.Vec2
	reports     []time.Duration
	events      chan stream.Event
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{events: make(chan stream.Event, 16)}
}

func (e *fakeEngine) queueFrame(f stream.Frame) {
	e.mu.Lock()
	e.frames = append(e.frames, f)
	e.mu.Unlock()
}

func (e *fakeEngine) PollFrame() (stream.Frame, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.frames) == 0 {
		return stream.Frame{}, false
	}
	f := e.frames[0]
	e.frames = e.frames[1:]
	return f, true
}

func (e *fakeEngine) SendTracking(t stream.Tracking) error {
	e.mu.Lock()
	e.tracking = append(e.tracking, t)
	e.mu.Unlock()
	return nil
}

func (e *fakeEngine) SendButtons(entries []xr.ButtonEntry) error {
	e.mu.Lock()
	e.buttonSends = append(e.buttonSends, entries)
	e.mu.Unlock()
	return nil
}

func (e *fakeEngine) SendViewsConfig(fov [2]geom.Fov, ipd float32) error {
	e.mu.Lock()
	e.ipdNotices = append(e.ipdNotices, ipd)
	e.mu.Unlock()
	return nil
}

func (e *fakeEngine) SendPlayspace(bounds *geom.Vec2) error {
	e.mu.Lock()
	e.playspaces = append(e.playspaces, bounds)
	e.mu.Unlock()
	return nil
}

func (e *fakeEngine) ReportSubmit(timestamp, latency time.Duration) error {
	e.mu.Lock()
	e.reports = append(e.reports, latency)
	e.mu.Unlock()
	return nil
}

func (e *fakeEngine) Events() <-chan stream.Event { return e.events }

func (e *fakeEngine) trackingCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.tracking)
}

func (e *fakeEngine) ipdCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.ipdNotices)
}

type fakeRenderer struct {
	mu             sync.Mutex
	resumed        int
	paused         int
	streamsStarted int
	lobbyFrames    int
	streamFrames   int
	hud            string
}

func (f *fakeRenderer) Initialize() error { return nil }

func (f *fakeRenderer) Resume(xr.Resolution, [2][]xr.Image) error {
	f.mu.Lock()
	f.resumed++
	f.mu.Unlock()
	return nil
}

func (f *fakeRenderer) StartStream(xr.Resolution, [2][]xr.Image) error {
	f.mu.Lock()
	f.streamsStarted++
	f.mu.Unlock()
	return nil
}

func (f *fakeRenderer) Pause() {
	f.mu.Lock()
	f.paused++
	f.mu.Unlock()
}

func (f *fakeRenderer) Destroy() {}

func (f *fakeRenderer) RenderLobby([2]backend.EyeInput) error {
	f.mu.Lock()
	f.lobbyFrames++
	f.mu.Unlock()
	return nil
}

func (f *fakeRenderer) RenderStream(stream.Buffer, [2]uint32) error {
	f.mu.Lock()
	f.streamFrames++
	f.mu.Unlock()
	return nil
}

func (f *fakeRenderer) UpdateHudMessage(message string) {
	f.mu.Lock()
	f.hud = message
	f.mu.Unlock()
}

// newTestRun wires a sessionRun over fakes, mirroring runSession.
func newTestRun() (*sessionRun, *fakeRuntime, *fakeEngine, *fakeRenderer) {
	rt := newFakeRuntime()
	engine := newFakeEngine()
	renderer := &fakeRenderer{}
	cfg := config.Default()

	c := New(cfg, rt, engine, renderer, telemetry.NewCollector(engine, 16))
	r := &sessionRun{
		c:              c,
		segment:        "test-segment",
		session:        rt.session,
		recommendedRes: rt.RecommendedResolution(),
		swapchains:     &swapchainManager{session: rt.session},
		history:        history.New(history.DefaultCapacity),
		lastGoodViews:  defaultViews(),
		frameInterval:  intervalFromRate(90),
	}
	r.space.set("space-0")
	return r, rt, engine, renderer
}
