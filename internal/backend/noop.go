package backend

import (
	"log"

	"github.com/mirage-vr/client/internal/stream"
	"github.com/mirage-vr/client/internal/xr"
)

// Noop is a Renderer that draws nothing. Used by sim mode and tests, where
// only the pacing and lifecycle behavior matters.
type Noop struct {
	hud string
}

func (n *Noop) Initialize() error { return nil }

func (n *Noop) Resume(resolution xr.Resolution, images [2][]xr.Image) error {
	log.Printf("backend: resumed at %dx%d with %d+%d images",
		resolution.Width, resolution.Height, len(images[0]), len(images[1]))
	return nil
}

func (n *Noop) StartStream(resolution xr.Resolution, images [2][]xr.Image) error {
	log.Printf("backend: stream render at %dx%d", resolution.Width, resolution.Height)
	return nil
}

func (n *Noop) Pause()   {}
func (n *Noop) Destroy() {}

func (n *Noop) RenderLobby(eyes [2]EyeInput) error { return nil }

func (n *Noop) RenderStream(buffer stream.Buffer, imageIndices [2]uint32) error {
	return nil
}

func (n *Noop) UpdateHudMessage(message string) {
	n.hud = message
}
