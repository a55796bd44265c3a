package stream

import (
	"fmt"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/mirage-vr/client/internal/geom"
	"github.com/mirage-vr/client/internal/xr"
)

// messageKind tags every wire message. Values are fixed; append only.
type messageKind uint8

const (
	// client → host
	kindHello messageKind = iota + 1
	kindTracking
	kindButtons
	kindViewsConfig
	kindPlayspace
	kindSubmitReport

	// host → client
	kindStreamStarted
	kindStreamStopped
	kindHaptics
	kindHudMessage
)

type envelope struct {
	Kind    messageKind        `msgpack:"kind"`
	Payload msgpack.RawMessage `msgpack:"payload"`
}

type helloMessage struct {
	InstanceID string `msgpack:"instance_id"`
	Protocol   uint32 `msgpack:"protocol"`
}

type buttonsMessage struct {
	Entries []xr.ButtonEntry `msgpack:"entries"`
}

type viewsConfigMessage struct {
	Fov [2]geom.Fov `msgpack:"fov"`
	IPD float32     `msgpack:"ipd"`
}

type playspaceMessage struct {
	Bounds *geom.Vec2 `msgpack:"bounds"`
}

type submitReportMessage struct {
	Timestamp time.Duration `msgpack:"timestamp"`
	Latency   time.Duration `msgpack:"latency"`
}

const protocolVersion = 1

func encodeMessage(kind messageKind, payload interface{}) ([]byte, error) {
	raw, err := msgpack.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encoding payload kind %d: %w", kind, err)
	}
	data, err := msgpack.Marshal(envelope{Kind: kind, Payload: raw})
	if err != nil {
		return nil, fmt.Errorf("encoding envelope kind %d: %w", kind, err)
	}
	return data, nil
}

// decodeHostMessage turns a host → client wire message into an Event.
func decodeHostMessage(data []byte) (Event, error) {
	var env envelope
	if err := msgpack.Unmarshal(data, &env); err != nil {
		return Event{}, fmt.Errorf("decoding envelope: %w", err)
	}

	switch env.Kind {
	case kindStreamStarted:
		var info StartInfo
		if err := msgpack.Unmarshal(env.Payload, &info); err != nil {
			return Event{}, fmt.Errorf("decoding stream-started: %w", err)
		}
		return Event{Type: EventStreamStarted, Started: &info}, nil
	case kindStreamStopped:
		return Event{Type: EventStreamStopped}, nil
	case kindHaptics:
		var req HapticsRequest
		if err := msgpack.Unmarshal(env.Payload, &req); err != nil {
			return Event{}, fmt.Errorf("decoding haptics: %w", err)
		}
		return Event{Type: EventHaptics, Haptics: &req}, nil
	case kindHudMessage:
		var hud string
		if err := msgpack.Unmarshal(env.Payload, &hud); err != nil {
			return Event{}, fmt.Errorf("decoding hud message: %w", err)
		}
		return Event{Type: EventHudMessage, Hud: hud}, nil
	default:
		return Event{}, fmt.Errorf("unknown host message kind %d", env.Kind)
	}
}
