package client

import (
	"fmt"
	"log"
	"runtime"
	"time"

	"github.com/mirage-vr/client/internal/backend"
	"github.com/mirage-vr/client/internal/geom"
	"github.com/mirage-vr/client/internal/stream"
	"github.com/mirage-vr/client/internal/xr"
)

// defaultViews is the view set used before the sampler has produced any:
// identity pose with a narrow symmetric frustum.
func defaultViews() [2]xr.View {
	v := xr.View{
		Pose: geom.Pose{Orientation: geom.QuatIdent()},
		Fov:  geom.Fov{Left: -0.1, Right: 0.1, Up: 0.1, Down: -0.1},
	}
	return [2]xr.View{v, v}
}

// streamFrame renders one streamed frame. The decoded frame's timestamp
// selects the view set that was active when the host rendered it; a frame
// whose timestamp is not in the history reuses the previous good view set
// unchanged.
func (r *sessionRun) streamFrame(frameState xr.FrameState, indices [2]uint32) ([2]xr.View, time.Duration, error) {
	vsync := frameState.PredictedDisplayTime
	interval := frameState.PredictedDisplayPeriod
	if interval <= 0 {
		interval = r.frameInterval
	}

	frame, ok := r.pollFrame(interval)
	if !ok {
		log.Printf("client: timed out waiting for decoded frame")
		// Fallback: current predicted display time, nil buffer (renders
		// previous or blank content).
		frame = stream.Frame{Timestamp: vsync}
	}

	if views, found := r.history.Lookup(frame.Timestamp); found {
		r.lastGoodViews = views
	}
	views := r.lastGoodViews

	if err := r.c.renderer.RenderStream(frame.Buffer, indices); err != nil {
		return views, 0, fmt.Errorf("stream render: %w", err)
	}

	if ok && frame.Buffer != nil {
		if now, err := r.c.runtime.Now(); err == nil {
			latency := vsync - now
			if latency < 0 {
				latency = 0
			}
			r.c.collector.ReportSubmit(frame.Timestamp, latency)
		}
	}

	return views, frame.Timestamp, nil
}

// pollFrame polls the decoder without blocking, bounded by the configured
// fraction of the frame interval. It yields rather than sleeps between polls
// to keep added latency minimal.
func (r *sessionRun) pollFrame(interval time.Duration) (stream.Frame, bool) {
	deadline := time.Now().Add(time.Duration(float64(interval) * r.c.cfg.Headset.DecoderTimeoutMultiplier))
	for {
		if f, ok := r.c.engine.PollFrame(); ok {
			return f, true
		}
		if !time.Now().Before(deadline) {
			return stream.Frame{}, false
		}
		runtime.Gosched()
	}
}

// lobbyFrame locates views directly at the predicted display time and renders
// locally composed content.
func (r *sessionRun) lobbyFrame(frameState xr.FrameState, indices [2]uint32) ([2]xr.View, time.Duration, error) {
	_, views, err := r.session.LocateViews(frameState.PredictedDisplayTime, r.space.get())
	if err != nil {
		log.Printf("client: lobby view location failed, reusing previous views: %v", err)
		views = r.lastGoodViews
	}

	eyes := [2]backend.EyeInput{
		{Pose: views[0].Pose, Fov: views[0].Fov, ImageIndex: indices[0]},
		{Pose: views[1].Pose, Fov: views[1].Fov, ImageIndex: indices[1]},
	}
	if err := r.c.renderer.RenderLobby(eyes); err != nil {
		return views, 0, fmt.Errorf("lobby render: %w", err)
	}

	return views, frameState.PredictedDisplayTime, nil
}
