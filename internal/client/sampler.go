package client

import (
	"fmt"
	"log"
	"math"
	"sync/atomic"
	"time"

	"github.com/mirage-vr/client/internal/geom"
	"github.com/mirage-vr/client/internal/history"
	"github.com/mirage-vr/client/internal/stream"
	"github.com/mirage-vr/client/internal/xr"
)

// ipdChangeEps filters inter-pupillary distance notifications: changes
// smaller than this are noise.
const ipdChangeEps = 0.001

// sampler is the predictive tracking loop. It runs on its own goroutine for
// the lifetime of an active stream, oversampling at a third of the display
// refresh interval, and exits voluntarily within one period of the streaming
// flag being cleared.
type sampler struct {
	runtime   xr.Runtime
	session   xr.Session
	engine    stream.Engine
	history   *history.Buffer
	space     *spaceRef
	streaming *atomic.Bool

	period        time.Duration
	headOffset    time.Duration
	trackerOffset time.Duration
	faceSources   xr.FaceSources

	done chan struct{}
}

// samplerState carries the cross-tick memory: the last notified IPD and the
// last known hand positions.
type samplerState struct {
	lastIPD           float32
	lastHandPositions [2]geom.Vec3
}

func (s *sampler) run() {
	defer close(s.done)

	var state samplerState

	// Absolute deadline accumulator: per-tick overhead must not drift the
	// schedule.
	deadline := time.Now()
	for s.streaming.Load() {
		if err := s.tick(&state); err != nil {
			log.Printf("sampler: tick skipped: %v", err)
		}

		deadline = deadline.Add(s.period)
		time.Sleep(time.Until(deadline))
	}
}

func (s *sampler) tick(state *samplerState) error {
	// All input polling for streaming happens on this goroutine.
	if err := s.session.SyncActions(); err != nil {
		return fmt.Errorf("syncing actions: %w", err)
	}

	now, err := s.runtime.Now()
	if err != nil {
		return fmt.Errorf("reading runtime clock: %w", err)
	}

	target := now + s.headOffset

	motions := make([]xr.DeviceMotion, 0, 3)

	flags, views, err := s.session.LocateViews(target, s.space.get())
	if err != nil {
		return fmt.Errorf("locating views: %w", err)
	}
	if flags.Valid() {
		s.processHead(state, target, views)
		motions = append(motions, headMotion(views))
	}
	// An invalid head pose abandons the IPD and head updates only; hands
	// and face are sampled independently.

	trackerTime := now + s.trackerOffset

	var skeletons [2][]geom.Pose
	for hand := xr.HandLeft; hand <= xr.HandRight; hand++ {
		motion, skeleton, err := s.session.HandMotion(hand, trackerTime, s.space.get())
		if err != nil {
			log.Printf("sampler: %s motion unavailable: %v", hand.DeviceID(), err)
			continue
		}
		skeletons[hand] = skeleton
		if motion == nil {
			continue
		}
		if motion.Pose.Position == (geom.Vec3{}) {
			// Orientation-only tracking; carry the last known position.
			motion.Pose.Position = state.lastHandPositions[hand]
		} else {
			state.lastHandPositions[hand] = motion.Pose.Position
		}
		motions = append(motions, *motion)
	}

	var face xr.FaceData
	if s.faceSources.Any() {
		face, err = s.session.SampleFace(s.faceSources, now, s.space.get())
		if err != nil {
			log.Printf("sampler: face sample unavailable: %v", err)
			face = xr.FaceData{}
		}
	}

	if err := s.engine.SendTracking(stream.Tracking{
		TargetTimestamp: target,
		DeviceMotions:   motions,
		HandSkeletons:   skeletons,
		Face:            face,
	}); err != nil {
		log.Printf("sampler: tracking send dropped: %v", err)
	}

	buttons, err := s.session.PollButtons()
	if err != nil {
		return fmt.Errorf("polling buttons: %w", err)
	}
	if len(buttons) > 0 {
		if err := s.engine.SendButtons(buttons); err != nil {
			log.Printf("sampler: button send dropped: %v", err)
		}
	}

	return nil
}

// processHead emits the IPD notification when warranted and records the view
// set in the history buffer.
func (s *sampler) processHead(state *samplerState, target time.Duration, views [2]xr.View) {
	ipd := views[0].Pose.Position.Sub(views[1].Pose.Position).Len()
	if float32(math.Abs(float64(state.lastIPD-ipd))) > ipdChangeEps {
		if err := s.engine.SendViewsConfig([2]geom.Fov{views[0].Fov, views[1].Fov}, ipd); err != nil {
			log.Printf("sampler: views config send dropped: %v", err)
		}
		state.lastIPD = ipd
	}

	s.history.Push(history.Entry{Timestamp: target, Views: views})
}

// headMotion approximates the head pose from the two eye poses: position is
// the midpoint between the eyes, orientation is the left eye's. This assumes
// the views are coplanar and co-oriented.
func headMotion(views [2]xr.View) xr.DeviceMotion {
	return xr.DeviceMotion{
		Device: xr.DeviceHead,
		Pose: geom.Pose{
			Orientation: views[0].Pose.Orientation,
			Position:    geom.Midpoint(views[0].Pose.Position, views[1].Pose.Position),
		},
	}
}
