// Package backend is the boundary to the GPU rasterizer. The client core
// drives its lifecycle around session-state transitions and hands it
// swapchain images to fill; everything inside the hooks is graphics-API
// specific and out of scope here.
package backend

import (
	"github.com/mirage-vr/client/internal/geom"
	"github.com/mirage-vr/client/internal/stream"
	"github.com/mirage-vr/client/internal/xr"
)

// EyeInput is the per-eye input to a lobby render pass.
type EyeInput struct {
	Pose       geom.Pose
	Fov        geom.Fov
	ImageIndex uint32
}

// Renderer is the rendering backend driven by the frame pacer. Resume/Pause
// bracket GPU-resource availability around the session lifecycle; RenderLobby
// and RenderStream each fill one stereo pair of swapchain images.
type Renderer interface {
	Initialize() error

	// Resume hands the backend the lobby swapchain images after the
	// session becomes ready.
	Resume(resolution xr.Resolution, images [2][]xr.Image) error

	// StartStream hands the backend the streaming swapchain images.
	StartStream(resolution xr.Resolution, images [2][]xr.Image) error

	Pause()
	Destroy()

	RenderLobby(eyes [2]EyeInput) error
	RenderStream(buffer stream.Buffer, imageIndices [2]uint32) error

	UpdateHudMessage(message string)
}
