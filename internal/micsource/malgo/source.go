// Package malgo adapts github.com/gen2brain/malgo's cross-platform audio
// capture into the soundlevel.MicrophoneSource contract, grounded on the
// host framework's own malgo-backed capture source (backend selection per
// GOOS, device enumeration) and adapted from its channel-based pipeline
// into the sound level meter's callback-into-ring-buffer model.
package malgo

import (
	"context"
	"runtime"
	"sync"

	"github.com/gen2brain/malgo"

	"github.com/ambiosense/soundmeter/internal/logging"
	"github.com/ambiosense/soundmeter/internal/slerrors"
)

// Config selects the capture device and format.
type Config struct {
	SampleRate  uint32
	Channels    uint32
	DeviceIndex int // -1 selects the backend's default device
}

// Source is a soundlevel.MicrophoneSource backed by malgo.
type Source struct {
	cfg Config
	log *logging.Logger

	mu      sync.Mutex
	ctx     *malgo.AllocatedContext
	device  *malgo.Device
	started bool
}

// New creates a malgo-backed Source. It does not open the device until
// Start is called.
func New(cfg Config) *Source {
	if cfg.Channels == 0 {
		cfg.Channels = 1
	}
	if cfg.SampleRate == 0 {
		cfg.SampleRate = 48000
	}
	return &Source{cfg: cfg, log: logging.ForComponent("micsource.malgo")}
}

// SampleRate reports the configured capture sample rate in Hz.
func (s *Source) SampleRate() float64 { return float64(s.cfg.SampleRate) }

// SampleWidth reports bytes per sample; malgo.FormatS16 is always 2.
func (s *Source) SampleWidth() int { return 2 }

func backendsForPlatform() []malgo.Backend {
	switch runtime.GOOS {
	case "linux":
		return []malgo.Backend{malgo.BackendAlsa, malgo.BackendPulseaudio}
	case "darwin":
		return []malgo.Backend{malgo.BackendCoreaudio}
	case "windows":
		return []malgo.Backend{malgo.BackendWasapi, malgo.BackendDsound}
	default:
		return nil // let malgo pick its own platform default
	}
}

// Start opens the capture device and begins delivering raw PCM bytes to
// sink from malgo's own capture thread until ctx is canceled or Stop is
// called.
func (s *Source) Start(ctx context.Context, sink func(p []byte)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return nil
	}

	mctx, err := malgo.InitContext(backendsForPlatform(), malgo.ContextConfig{}, func(message string) {
		s.log.Debug("malgo log", "message", message)
	})
	if err != nil {
		return slerrors.Newf("initializing audio backend: %w", err).
			Component("micsource.malgo").
			Category(slerrors.CategoryAudio).
			Build()
	}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceConfig.Capture.Format = malgo.FormatS16
	deviceConfig.Capture.Channels = s.cfg.Channels
	deviceConfig.SampleRate = s.cfg.SampleRate
	if s.cfg.DeviceIndex >= 0 {
		devices, derr := mctx.Devices(malgo.Capture)
		if derr == nil && s.cfg.DeviceIndex < len(devices) {
			deviceConfig.Capture.DeviceID = devices[s.cfg.DeviceIndex].ID.Pointer()
		}
	}

	callbacks := malgo.DeviceCallbacks{
		Data: func(_, pInputSamples []byte, _ uint32) {
			sink(pInputSamples)
		},
	}

	device, err := malgo.InitDevice(mctx.Context, deviceConfig, callbacks)
	if err != nil {
		mctx.Uninit()
		return slerrors.Newf("initializing capture device: %w", err).
			Component("micsource.malgo").
			Category(slerrors.CategoryAudio).
			Build()
	}
	if err := device.Start(); err != nil {
		device.Uninit()
		mctx.Uninit()
		return slerrors.Newf("starting capture device: %w", err).
			Component("micsource.malgo").
			Category(slerrors.CategoryAudio).
			Build()
	}

	s.ctx = mctx
	s.device = device
	s.started = true

	go func() {
		<-ctx.Done()
		_ = s.Stop()
	}()
	return nil
}

// IsRunning reports whether the capture device is currently open and
// started.
func (s *Source) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.started
}

// Stop halts capture and releases the device/context. Idempotent.
func (s *Source) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return nil
	}
	s.device.Uninit()
	s.ctx.Uninit()
	s.started = false
	return nil
}
