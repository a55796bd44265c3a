package client

import (
	"fmt"

	"github.com/mirage-vr/client/internal/xr"
)

// Swapchain format/usage negotiated once at creation. Values follow the
// runtime's constants for sRGB color targets.
const (
	swapchainFormatSRGBA8     = 0x8C43
	swapchainUsageColorTarget = 0x00000001
	swapchainUsageSampled     = 0x00000020
	swapchainImageCount       = 3
)

// swapchainSet is one stereo pair of swapchains.
type swapchainSet struct {
	eyes [2]xr.Swapchain
}

func newSwapchainSet(session xr.Session, res xr.Resolution) (*swapchainSet, error) {
	info := xr.SwapchainCreateInfo{
		Format:      swapchainFormatSRGBA8,
		UsageFlags:  swapchainUsageColorTarget | swapchainUsageSampled,
		Resolution:  res,
		SampleCount: 1,
		ImageCount:  swapchainImageCount,
	}

	var set swapchainSet
	for i := range set.eyes {
		sc, err := session.CreateSwapchain(info)
		if err != nil {
			if i == 1 {
				set.eyes[0].Destroy()
			}
			return nil, fmt.Errorf("creating eye %d swapchain: %w", i, err)
		}
		set.eyes[i] = sc
	}
	return &set, nil
}

func (s *swapchainSet) images() [2][]xr.Image {
	return [2][]xr.Image{s.eyes[0].Images(), s.eyes[1].Images()}
}

// acquireAndWait runs acquire → wait for both eyes. The waits are bounded
// internally by the runtime.
func (s *swapchainSet) acquireAndWait() ([2]uint32, error) {
	var indices [2]uint32
	for i, eye := range s.eyes {
		idx, err := eye.Acquire()
		if err != nil {
			return indices, fmt.Errorf("acquiring eye %d image: %w", i, err)
		}
		indices[i] = idx
	}
	for i, eye := range s.eyes {
		if err := eye.Wait(); err != nil {
			return indices, fmt.Errorf("waiting on eye %d image: %w", i, err)
		}
	}
	return indices, nil
}

func (s *swapchainSet) release() error {
	for i, eye := range s.eyes {
		if err := eye.Release(); err != nil {
			return fmt.Errorf("releasing eye %d image: %w", i, err)
		}
	}
	return nil
}

func (s *swapchainSet) destroy() {
	for _, eye := range s.eyes {
		eye.Destroy()
	}
}

// swapchainManager owns the lobby and streaming swapchain pairs for one
// session segment. Creation is get-or-create: a repeated Ready event or
// stream start never allocates a second set while one exists.
type swapchainManager struct {
	session xr.Session
	lobby   *swapchainSet
	stream  *swapchainSet
}

func (m *swapchainManager) ensureLobby(res xr.Resolution) (set *swapchainSet, created bool, err error) {
	if m.lobby != nil {
		return m.lobby, false, nil
	}
	m.lobby, err = newSwapchainSet(m.session, res)
	return m.lobby, true, err
}

func (m *swapchainManager) ensureStream(res xr.Resolution) (set *swapchainSet, created bool, err error) {
	if m.stream != nil {
		return m.stream, false, nil
	}
	m.stream, err = newSwapchainSet(m.session, res)
	return m.stream, true, err
}

// active returns the set the pacer should render into: the streaming pair
// when it exists, otherwise the lobby pair. Nil when the session has not
// reached Ready yet.
func (m *swapchainManager) active() *swapchainSet {
	if m.stream != nil {
		return m.stream
	}
	return m.lobby
}

func (m *swapchainManager) streaming() bool {
	return m.stream != nil
}

func (m *swapchainManager) destroyStream() {
	if m.stream != nil {
		m.stream.destroy()
		m.stream = nil
	}
}

func (m *swapchainManager) destroyLobby() {
	if m.lobby != nil {
		m.lobby.destroy()
		m.lobby = nil
	}
}
