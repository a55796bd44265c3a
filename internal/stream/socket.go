package stream

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/mirage-vr/client/internal/geom"
	"github.com/mirage-vr/client/internal/xr"
)

// Socket is the websocket-backed Engine implementation. Outbound messages go
// through a buffered write pump so the sampler and pacer never block on the
// network; the decoder pushes finished frames through PushFrame.
type Socket struct {
	conn   *websocket.Conn
	send   chan []byte
	events chan Event
	frames chan Frame

	closeOnce sync.Once
	done      chan struct{}
}

// Dial connects to the streaming host and performs the hello exchange.
func Dial(ctx context.Context, url string) (*Socket, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dialing streaming host %s: %w", url, err)
	}

	s := &Socket{
		conn:   conn,
		send:   make(chan []byte, 256),
		events: make(chan Event, 16),
		frames: make(chan Frame, 8),
		done:   make(chan struct{}),
	}

	hello, err := encodeMessage(kindHello, helloMessage{
		InstanceID: uuid.NewString(),
		Protocol:   protocolVersion,
	})
	if err != nil {
		conn.Close()
		return nil, err
	}
	if err := conn.WriteMessage(websocket.BinaryMessage, hello); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sending hello: %w", err)
	}

	go s.writePump()
	go s.readPump()

	return s, nil
}

func (s *Socket) writePump() {
	for {
		select {
		case msg := <-s.send:
			if err := s.conn.WriteMessage(websocket.BinaryMessage, msg); err != nil {
				log.Printf("stream: write failed, closing: %v", err)
				s.Close()
				return
			}
		case <-s.done:
			return
		}
	}
}

func (s *Socket) readPump() {
	// The read pump is the only sender on events; closing the channel here
	// keeps Close safe to call from any goroutine.
	defer close(s.events)
	defer s.Close()
	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			select {
			case <-s.done:
			default:
				log.Printf("stream: read failed, closing: %v", err)
			}
			return
		}
		ev, err := decodeHostMessage(data)
		if err != nil {
			log.Printf("stream: dropping malformed host message: %v", err)
			continue
		}
		select {
		case s.events <- ev:
		case <-s.done:
			return
		}
	}
}

// enqueue hands a message to the write pump. High-rate senders drop rather
// than block when the pump falls behind.
func (s *Socket) enqueue(kind messageKind, payload interface{}) error {
	data, err := encodeMessage(kind, payload)
	if err != nil {
		return err
	}
	select {
	case s.send <- data:
		return nil
	case <-s.done:
		return fmt.Errorf("stream: socket closed")
	default:
		return fmt.Errorf("stream: send queue full, dropped message kind %d", kind)
	}
}

func (s *Socket) SendTracking(t Tracking) error {
	return s.enqueue(kindTracking, t)
}

func (s *Socket) SendButtons(entries []xr.ButtonEntry) error {
	return s.enqueue(kindButtons, buttonsMessage{Entries: entries})
}

func (s *Socket) SendViewsConfig(fov [2]geom.Fov, ipd float32) error {
	return s.enqueue(kindViewsConfig, viewsConfigMessage{Fov: fov, IPD: ipd})
}

func (s *Socket) SendPlayspace(bounds *geom.Vec2) error {
	return s.enqueue(kindPlayspace, playspaceMessage{Bounds: bounds})
}

func (s *Socket) ReportSubmit(timestamp, latency time.Duration) error {
	return s.enqueue(kindSubmitReport, submitReportMessage{
		Timestamp: timestamp,
		Latency:   latency,
	})
}

func (s *Socket) Events() <-chan Event {
	return s.events
}

// PollFrame implements FrameSource without blocking.
func (s *Socket) PollFrame() (Frame, bool) {
	select {
	case f := <-s.frames:
		return f, true
	default:
		return Frame{}, false
	}
}

// PushFrame is called by the decoder when a frame finishes decoding. When the
// pacer falls behind, the oldest queued frame is dropped in its favor.
func (s *Socket) PushFrame(f Frame) {
	for {
		select {
		case s.frames <- f:
			return
		default:
		}
		select {
		case <-s.frames:
		default:
		}
	}
}

func (s *Socket) Close() error {
	s.closeOnce.Do(func() {
		close(s.done)
		s.conn.Close()
	})
	return nil
}
