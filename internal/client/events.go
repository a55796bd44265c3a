package client

import (
	"errors"
	"fmt"
	"log"

	"github.com/mirage-vr/client/internal/stream"
	"github.com/mirage-vr/client/internal/xr"
)

// eventAction tells the render loop how to proceed after an event.
type eventAction int

const (
	actionNone         eventAction = iota
	actionRetrySession             // abort the render loop, re-acquire a session
	actionExit                     // terminate the render loop for good
)

func (r *sessionRun) handleRuntimeEvent(ev xr.Event) (eventAction, error) {
	switch ev.Kind {
	case xr.EventEventsLost:
		log.Printf("client: runtime lost %d events", ev.LostCount)
	case xr.EventInstanceLossPending:
		return actionExit, nil
	case xr.EventSessionStateChanged:
		return r.handleSessionState(ev.State)
	case xr.EventReferenceSpaceChangePending:
		return actionNone, r.recreateReferenceSpace()
	case xr.EventInteractionProfileChanged, xr.EventPerfSettingsChanged:
		// informational only
	}
	return actionNone, nil
}

func (r *sessionRun) handleSessionState(state xr.SessionState) (eventAction, error) {
	log.Printf("client: session state %s", state)

	switch state {
	case xr.StateReady:
		if err := r.session.Begin(); err != nil {
			return actionNone, fmt.Errorf("beginning session: %w", err)
		}
		set, created, err := r.swapchains.ensureLobby(r.recommendedRes)
		if err != nil {
			return actionNone, fmt.Errorf("creating lobby swapchains: %w", err)
		}
		if created {
			log.Printf("client: lobby swapchains created at %dx%d",
				r.recommendedRes.Width, r.recommendedRes.Height)
		}
		if err := r.c.renderer.Resume(r.recommendedRes, set.images()); err != nil {
			return actionNone, fmt.Errorf("resuming rendering backend: %w", err)
		}

	case xr.StateStopping:
		// Streaming resources must be fully released before the backend
		// pauses and the session ends; the sampler joins inside.
		r.stopStreaming()
		r.c.renderer.Pause()
		r.swapchains.destroyLobby()
		if err := r.session.End(); err != nil {
			return actionNone, fmt.Errorf("ending session: %w", err)
		}

	case xr.StateExiting:
		return actionExit, nil

	case xr.StateLossPending:
		return actionRetrySession, nil
	}

	return actionNone, nil
}

func (r *sessionRun) recreateReferenceSpace() error {
	space, err := r.session.CreateReferenceSpace()
	if err != nil {
		return fmt.Errorf("recreating reference space: %w", err)
	}
	r.space.set(space)
	r.sendPlayspace()
	return nil
}

func (r *sessionRun) sendPlayspace() {
	bounds, err := r.session.PlayspaceBounds()
	if err != nil {
		log.Printf("client: playspace bounds unavailable: %v", err)
		return
	}
	if err := r.c.engine.SendPlayspace(bounds); err != nil {
		log.Printf("client: sending playspace: %v", err)
	}
}

// drainStreamEvents dispatches all pending cross-thread application events
// without blocking.
func (r *sessionRun) drainStreamEvents() error {
	for {
		select {
		case ev, ok := <-r.c.engine.Events():
			if !ok {
				return nil
			}
			if err := r.handleStreamEvent(ev); err != nil {
				return err
			}
		default:
			return nil
		}
	}
}

func (r *sessionRun) handleStreamEvent(ev stream.Event) error {
	switch ev.Type {
	case stream.EventHudMessage:
		r.c.renderer.UpdateHudMessage(ev.Hud)
	case stream.EventStreamStarted:
		return r.startStreaming(ev.Started)
	case stream.EventStreamStopped:
		r.stopStreaming()
	case stream.EventHaptics:
		r.applyHaptics(ev.Haptics)
	}
	return nil
}

func (r *sessionRun) startStreaming(info *stream.StartInfo) error {
	if info.RefreshRateHint > 0 {
		r.frameInterval = intervalFromRate(info.RefreshRateHint)
		err := r.session.RequestRefreshRate(info.RefreshRateHint)
		if err != nil && !errors.Is(err, xr.ErrUnsupported) {
			log.Printf("client: refresh rate request failed: %v", err)
		}
	}
	r.streamRes = info.Resolution

	// Host settings win; the local config only fills the gap.
	faceSources := r.c.cfg.Headset.FaceTracking
	if info.Settings.FaceTracking != nil {
		faceSources = *info.Settings.FaceTracking
	}

	r.streaming.Store(true)
	r.startSampler(faceSources)

	set, created, err := r.swapchains.ensureStream(r.streamRes)
	if err != nil {
		return fmt.Errorf("creating stream swapchains: %w", err)
	}
	if created {
		log.Printf("client: stream swapchains created at %dx%d",
			r.streamRes.Width, r.streamRes.Height)
	}
	if err := r.c.renderer.StartStream(r.streamRes, set.images()); err != nil {
		return fmt.Errorf("starting stream render: %w", err)
	}

	r.sendPlayspace()
	return nil
}

// stopStreaming clears the streaming flag, waits for the sampler to exit,
// then drops the streaming swapchains. The ordering is load-bearing: the
// sampler must be gone before the resources it samples against are.
func (r *sessionRun) stopStreaming() {
	r.streaming.Store(false)
	if r.samplerDone != nil {
		<-r.samplerDone
		r.samplerDone = nil
	}
	r.swapchains.destroyStream()
}

func (r *sessionRun) startSampler(faceSources xr.FaceSources) {
	if r.samplerDone != nil {
		// A sampler is already alive; a duplicate start must not spawn a
		// second one.
		return
	}
	s := &sampler{
		runtime:       r.c.runtime,
		session:       r.session,
		engine:        r.c.engine,
		history:       r.history,
		space:         &r.space,
		streaming:     &r.streaming,
		period:        r.frameInterval / 3,
		headOffset:    r.c.cfg.Headset.HeadPredictionOffset.Std(),
		trackerOffset: r.c.cfg.Headset.TrackerPredictionOffset.Std(),
		faceSources:   faceSources,
		done:          make(chan struct{}),
	}
	r.samplerDone = s.done
	go s.run()
}

func (r *sessionRun) applyHaptics(req *stream.HapticsRequest) {
	hand := xr.HandLeft
	if req.Device == xr.DeviceRightHand {
		hand = xr.HandRight
	}
	vibration := xr.HapticVibration{
		Duration:  req.Duration,
		Frequency: req.Frequency,
		Amplitude: req.Amplitude,
	}
	if err := r.session.ApplyHaptics(hand, vibration); err != nil {
		log.Printf("client: haptics for %s skipped: %v", req.Device, err)
	}
}
