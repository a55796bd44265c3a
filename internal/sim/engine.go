package sim

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/mirage-vr/client/internal/geom"
	"github.com/mirage-vr/client/internal/stream"
	"github.com/mirage-vr/client/internal/xr"
)

// hostLatency is the simulated round trip from tracking sample to decoded
// frame.
const hostLatency = 30 * time.Millisecond

// Loopback is a streaming engine that plays the remote host: every tracking
// batch comes back as a decoded frame carrying the same target timestamp
// after a fixed simulated latency.
type Loopback struct {
	opts   Options
	events chan stream.Event

	mu      sync.Mutex
	pending []pendingFrame
}

type pendingFrame struct {
	frame   stream.Frame
	readyAt time.Time
}

// frameMarker is the opaque decoded-buffer stand-in.
type frameMarker struct{ timestamp time.Duration }

func NewLoopback(opts Options) *Loopback {
	opts.withDefaults()
	return &Loopback{
		opts:   opts,
		events: make(chan stream.Event, 16),
	}
}

// Run scripts the host side: start streaming shortly after connect, stop when
// the context ends.
func (l *Loopback) Run(ctx context.Context) {
	select {
	case <-ctx.Done():
		return
	case <-time.After(2 * time.Second):
	}

	l.events <- stream.Event{
		Type: stream.EventStreamStarted,
		Started: &stream.StartInfo{
			Resolution:      l.opts.Resolution,
			RefreshRateHint: l.opts.RefreshRate,
		},
	}
	log.Printf("sim: loopback stream started at %.0f Hz", l.opts.RefreshRate)

	<-ctx.Done()
	l.events <- stream.Event{Type: stream.EventStreamStopped}
}

func (l *Loopback) PollFrame() (stream.Frame, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.pending) == 0 || time.Now().Before(l.pending[0].readyAt) {
		return stream.Frame{}, false
	}
	f := l.pending[0].frame
	l.pending = l.pending[1:]
	return f, true
}

func (l *Loopback) SendTracking(t stream.Tracking) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.pending = append(l.pending, pendingFrame{
		frame: stream.Frame{
			Timestamp: t.TargetTimestamp,
			Buffer:    frameMarker{timestamp: t.TargetTimestamp},
		},
		readyAt: time.Now().Add(hostLatency),
	})
	// Keep only a few frames in flight, like a real decoder queue.
	if len(l.pending) > 8 {
		l.pending = l.pending[len(l.pending)-8:]
	}
	return nil
}

func (l *Loopback) SendButtons(entries []xr.ButtonEntry) error { return nil }

func (l *Loopback) SendViewsConfig(fov [2]geom.Fov, ipd float32) error {
	log.Printf("sim: views config, ipd=%.4f", ipd)
	return nil
}

func (l *Loopback) SendPlayspace(bounds *geom.Vec2) error {
	if bounds != nil {
		log.Printf("sim: playspace %.1fx%.1f", bounds.X, bounds.Y)
	}
	return nil
}

func (l *Loopback) ReportSubmit(timestamp, latency time.Duration) error { return nil }

func (l *Loopback) Events() <-chan stream.Event { return l.events }
