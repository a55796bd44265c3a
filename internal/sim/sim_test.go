package sim

import (
	"testing"
	"time"

	"github.com/mirage-vr/client/internal/stream"
	"github.com/mirage-vr/client/internal/xr"
)

func TestLoopbackEchoesTrackingTimestamps(t *testing.T) {
	l := NewLoopback(Options{})

	ts := 700 * time.Millisecond
	if err := l.SendTracking(stream.Tracking{TargetTimestamp: ts}); err != nil {
		t.Fatalf("SendTracking: %v", err)
	}

	if _, ok := l.PollFrame(); ok {
		t.Fatal("frame available before simulated latency elapsed")
	}

	deadline := time.Now().Add(time.Second)
	for {
		if frame, ok := l.PollFrame(); ok {
			if frame.Timestamp != ts {
				t.Fatalf("frame timestamp = %v, want %v", frame.Timestamp, ts)
			}
			if frame.Buffer == nil {
				t.Fatal("frame has no buffer")
			}
			return
		}
		if time.Now().After(deadline) {
			t.Fatal("frame never became ready")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestLoopbackBoundsInFlightFrames(t *testing.T) {
	l := NewLoopback(Options{})

	for i := 0; i < 20; i++ {
		l.SendTracking(stream.Tracking{TargetTimestamp: time.Duration(i) * time.Millisecond})
	}

	l.mu.Lock()
	pending := len(l.pending)
	l.mu.Unlock()
	if pending > 8 {
		t.Errorf("%d frames in flight, want at most 8", pending)
	}
}

func TestRuntimeSessionLifecycle(t *testing.T) {
	rt := NewRuntime(Options{})

	session, err := rt.CreateSession()
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	ev, ok := rt.PollEvent()
	if !ok || ev.Kind != xr.EventSessionStateChanged || ev.State != xr.StateReady {
		t.Fatalf("expected Ready state event after session creation, got %+v ok=%v", ev, ok)
	}

	if err := session.Begin(); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	space, err := session.CreateReferenceSpace()
	if err != nil {
		t.Fatalf("CreateReferenceSpace: %v", err)
	}

	now, err := rt.Now()
	if err != nil {
		t.Fatalf("Now: %v", err)
	}
	flags, views, err := session.LocateViews(now, space)
	if err != nil {
		t.Fatalf("LocateViews: %v", err)
	}
	if !flags.Valid() {
		t.Error("simulated views are not valid")
	}
	if views[0].Pose.Position == views[1].Pose.Position {
		t.Error("eyes are not separated")
	}

	if err := session.RequestRefreshRate(120); err != xr.ErrUnsupported {
		t.Errorf("RequestRefreshRate error = %v, want ErrUnsupported", err)
	}
}

func TestRuntimeClockAdvances(t *testing.T) {
	rt := NewRuntime(Options{})
	a, err := rt.Now()
	if err != nil {
		t.Fatalf("Now: %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	b, err := rt.Now()
	if err != nil {
		t.Fatalf("Now: %v", err)
	}
	if b <= a {
		t.Errorf("clock did not advance: %v then %v", a, b)
	}
}
