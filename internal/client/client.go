// Package client implements the real-time control loop of the headset
// client: the session lifecycle state machine, the per-refresh frame pacer,
// and the predictive tracking sampler feeding the remote host.
package client

import (
	"context"
	"fmt"
	"log"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/mirage-vr/client/internal/backend"
	"github.com/mirage-vr/client/internal/config"
	"github.com/mirage-vr/client/internal/history"
	"github.com/mirage-vr/client/internal/stream"
	"github.com/mirage-vr/client/internal/telemetry"
	"github.com/mirage-vr/client/internal/xr"
)

// idleRetryDelay paces the render loop while no swapchain set exists yet.
const idleRetryDelay = 100 * time.Millisecond

type Client struct {
	cfg       *config.Config
	runtime   xr.Runtime
	engine    stream.Engine
	renderer  backend.Renderer
	collector *telemetry.Collector
}

func New(cfg *config.Config, rt xr.Runtime, engine stream.Engine, renderer backend.Renderer, collector *telemetry.Collector) *Client {
	return &Client{
		cfg:       cfg,
		runtime:   rt,
		engine:    engine,
		renderer:  renderer,
		collector: collector,
	}
}

// loopOutcome is the explicit result of one session segment.
type loopOutcome int

const (
	outcomeRetry loopOutcome = iota // recoverable loss; re-acquire the session
	outcomeExit                     // runtime asked to exit
)

// Run initializes the rendering backend, then repeatedly acquires a session
// and drives its render loop, rebuilding the session after a recoverable
// runtime loss until the runtime asks to exit. Setup failures are returned
// as terminal errors.
func (c *Client) Run(ctx context.Context) error {
	// Frame calls must stay on the thread owning the graphics context.
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if err := c.renderer.Initialize(); err != nil {
		return fmt.Errorf("initializing rendering backend: %w", err)
	}
	defer c.renderer.Destroy()

	for {
		outcome, err := c.runSession(ctx)
		if err != nil {
			return err
		}
		if outcome == outcomeExit {
			return nil
		}
		log.Printf("client: session lost, re-acquiring")
	}
}

func (c *Client) runSession(ctx context.Context) (loopOutcome, error) {
	session, err := c.runtime.CreateSession()
	if err != nil {
		return 0, fmt.Errorf("creating session: %w", err)
	}

	space, err := session.CreateReferenceSpace()
	if err != nil {
		return 0, fmt.Errorf("creating reference space: %w", err)
	}

	r := &sessionRun{
		c:              c,
		segment:        uuid.NewString(),
		session:        session,
		recommendedRes: c.runtime.RecommendedResolution(),
		swapchains:     &swapchainManager{session: session},
		history:        history.New(history.DefaultCapacity),
		lastGoodViews:  defaultViews(),
	}
	r.space.set(space)

	rate := negotiateRefreshRate(c.runtime.SupportedRefreshRates(), c.cfg.Headset.FallbackRefreshRate)
	r.frameInterval = intervalFromRate(rate)

	log.Printf("client: session segment %s acquired (%.0f Hz, %dx%d per eye)",
		r.segment, rate, r.recommendedRes.Width, r.recommendedRes.Height)

	// Terminal errors and external cancellation must still tear the
	// sampler down before the session resources go away.
	defer r.stopStreaming()

	return r.renderLoop(ctx)
}

// sessionRun is the state of one session segment, rebuilt from scratch after
// a runtime loss.
type sessionRun struct {
	c              *Client
	segment        string
	session        xr.Session
	recommendedRes xr.Resolution
	frameInterval  time.Duration

	space       spaceRef
	streaming   atomic.Bool
	swapchains  *swapchainManager
	history     *history.Buffer
	samplerDone chan struct{} // nil while no sampler is running

	streamRes     xr.Resolution
	lastGoodViews [2]xr.View
}

// renderLoop is the frame pacer: one iteration per display refresh, paced by
// the runtime's frame-wait call.
func (r *sessionRun) renderLoop(ctx context.Context) (loopOutcome, error) {
	for {
		if ctx.Err() != nil {
			return outcomeExit, nil
		}

		// Drain runtime events first; they gate everything below.
		for {
			ev, ok := r.c.runtime.PollEvent()
			if !ok {
				break
			}
			action, err := r.handleRuntimeEvent(ev)
			if err != nil {
				return 0, err
			}
			switch action {
			case actionRetrySession:
				return outcomeRetry, nil
			case actionExit:
				return outcomeExit, nil
			}
		}

		// Nothing to render into until the session reaches Ready.
		if r.swapchains.active() == nil {
			time.Sleep(idleRetryDelay)
			continue
		}

		if err := r.drainStreamEvents(); err != nil {
			return 0, err
		}
		// Stream start/stop may have changed the active set.
		active := r.swapchains.active()

		frameState, err := r.session.WaitFrame()
		if err != nil {
			return 0, fmt.Errorf("frame wait: %w", err)
		}

		if err := r.session.BeginFrame(); err != nil {
			return 0, fmt.Errorf("frame begin: %w", err)
		}

		if !frameState.ShouldRender {
			if err := r.session.EndFrame(frameState.PredictedDisplayTime, nil); err != nil {
				return 0, fmt.Errorf("empty frame end: %w", err)
			}
			continue
		}

		indices, err := active.acquireAndWait()
		if err != nil {
			return 0, err
		}

		var views [2]xr.View
		var displayTime time.Duration
		var res xr.Resolution
		if r.streaming.Load() && r.swapchains.streaming() {
			views, displayTime, err = r.streamFrame(frameState, indices)
			res = r.streamRes
		} else {
			views, displayTime, err = r.lobbyFrame(frameState, indices)
			res = r.recommendedRes
		}
		if err != nil {
			return 0, err
		}

		if err := active.release(); err != nil {
			return 0, err
		}

		layers := []xr.ProjectionLayerView{
			{Pose: views[0].Pose, Fov: views[0].Fov, Swapchain: active.eyes[0], Resolution: res},
			{Pose: views[1].Pose, Fov: views[1].Fov, Swapchain: active.eyes[1], Resolution: res},
		}
		if err := r.session.EndFrame(displayTime, layers); err != nil {
			return 0, fmt.Errorf("frame end: %w", err)
		}
	}
}

// spaceRef guards the reference-space handle. Writes happen only on rare
// space-change events; reads happen on every pacer and sampler tick.
type spaceRef struct {
	mu     sync.RWMutex
	handle xr.Space
}

func (s *spaceRef) get() xr.Space {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.handle
}

func (s *spaceRef) set(handle xr.Space) {
	s.mu.Lock()
	s.handle = handle
	s.mu.Unlock()
}

func negotiateRefreshRate(supported []float32, fallback float32) float32 {
	if len(supported) == 0 {
		return fallback
	}
	best := supported[0]
	for _, rate := range supported[1:] {
		if rate > best {
			best = rate
		}
	}
	return best
}

func intervalFromRate(rate float32) time.Duration {
	return time.Duration(float64(time.Second) / float64(rate))
}
