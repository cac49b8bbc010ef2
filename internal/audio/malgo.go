package audio

import (
	"errors"
	"fmt"
	"sync"
	"time"
	"unsafe"

	"github.com/gen2brain/malgo"
)

const bytesPerFloat32 = 4

var errDeviceTimeout = errors.New("device stopped delivering frames")

type miniaudioHost struct {
	ctx        *malgo.AllocatedContext
	sampleRate uint32
}

// OpenMiniaudio returns a HostOpener backed by miniaudio's default context.
func OpenMiniaudio(sampleRate int) HostOpener {
	return func() (Host, error) {
		ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
		if err != nil {
			return nil, fmt.Errorf("init audio context: %w", err)
		}
		return &miniaudioHost{ctx: ctx, sampleRate: uint32(sampleRate)}, nil
	}
}

func (h *miniaudioHost) DefaultInputDevice() (Device, error) {
	return h.defaultDevice(malgo.Capture)
}

func (h *miniaudioHost) DefaultOutputDevice() (Device, error) {
	return h.defaultDevice(malgo.Playback)
}

func (h *miniaudioHost) InputDevices() ([]Device, error) {
	return h.devices(malgo.Capture)
}

func (h *miniaudioHost) OutputDevices() ([]Device, error) {
	return h.devices(malgo.Playback)
}

func (h *miniaudioHost) defaultDevice(kind malgo.DeviceType) (Device, error) {
	infos, err := h.ctx.Devices(kind)
	if err != nil {
		return nil, fmt.Errorf("enumerate devices: %w", err)
	}
	for i := range infos {
		if infos[i].IsDefault == 1 {
			return &miniaudioDevice{host: h, kind: kind, info: infos[i]}, nil
		}
	}
	return nil, ErrNoDevice
}

func (h *miniaudioHost) devices(kind malgo.DeviceType) ([]Device, error) {
	infos, err := h.ctx.Devices(kind)
	if err != nil {
		return nil, fmt.Errorf("enumerate devices: %w", err)
	}

	result := make([]Device, 0, len(infos))
	for i := range infos {
		result = append(result, &miniaudioDevice{host: h, kind: kind, info: infos[i]})
	}
	return result, nil
}

func (h *miniaudioHost) Close() error {
	if err := h.ctx.Uninit(); err != nil {
		return fmt.Errorf("uninit context: %w", err)
	}
	h.ctx.Free()
	return nil
}

type miniaudioDevice struct {
	host *miniaudioHost
	kind malgo.DeviceType
	info malgo.DeviceInfo
}

func (d *miniaudioDevice) Name() string {
	return d.info.Name()
}

func (d *miniaudioDevice) Record(samples []float32) error {
	if d.kind != malgo.Capture {
		return fmt.Errorf("device %q cannot capture", d.Name())
	}

	cfg := malgo.DefaultDeviceConfig(malgo.Capture)
	cfg.Capture.Format = malgo.FormatF32
	cfg.Capture.Channels = 1
	cfg.Capture.DeviceID = d.info.ID.Pointer()
	cfg.SampleRate = d.host.sampleRate

	// The callback runs on miniaudio's thread; n is only touched there.
	var n int
	full := make(chan struct{})
	var once sync.Once
	onRecv := func(_, input []byte, _ uint32) {
		if n >= len(samples) {
			return
		}
		n += copy(samples[n:], bytesAsFloat32(input))
		if n >= len(samples) {
			once.Do(func() { close(full) })
		}
	}

	return d.run(cfg, malgo.DeviceCallbacks{Data: onRecv}, full, len(samples))
}

func (d *miniaudioDevice) Playback(samples []float32) error {
	if d.kind != malgo.Playback {
		return fmt.Errorf("device %q cannot play back", d.Name())
	}

	cfg := malgo.DefaultDeviceConfig(malgo.Playback)
	cfg.Playback.Format = malgo.FormatF32
	cfg.Playback.Channels = 1
	cfg.Playback.DeviceID = d.info.ID.Pointer()
	cfg.SampleRate = d.host.sampleRate

	var n int
	drained := make(chan struct{})
	var once sync.Once
	onSend := func(output, _ []byte, _ uint32) {
		out := bytesAsFloat32(output)
		written := copy(out, samples[n:])
		clear(out[written:])
		n += written
		if n >= len(samples) {
			once.Do(func() { close(drained) })
		}
	}

	return d.run(cfg, malgo.DeviceCallbacks{Data: onSend}, drained, len(samples))
}

// run starts a device and blocks until finished is closed or the expected
// duration of frames has passed with a generous margin.
func (d *miniaudioDevice) run(cfg malgo.DeviceConfig, callbacks malgo.DeviceCallbacks, finished <-chan struct{}, frames int) error {
	device, err := malgo.InitDevice(d.host.ctx.Context, cfg, callbacks)
	if err != nil {
		return fmt.Errorf("init device: %w", err)
	}
	defer device.Uninit()

	if err := device.Start(); err != nil {
		return fmt.Errorf("start device: %w", err)
	}

	expected := time.Duration(float64(frames) / float64(d.host.sampleRate) * float64(time.Second))
	timer := time.NewTimer(2*expected + 2*time.Second)
	defer timer.Stop()

	select {
	case <-finished:
	case <-timer.C:
		_ = device.Stop()
		return fmt.Errorf("%s: %w", d.Name(), errDeviceTimeout)
	}

	if err := device.Stop(); err != nil {
		return fmt.Errorf("stop device: %w", err)
	}
	return nil
}

// bytesAsFloat32 reinterprets a callback buffer as float32 samples without
// copying. The result is only valid inside the callback.
func bytesAsFloat32(data []byte) []float32 {
	if len(data) < bytesPerFloat32 {
		return nil
	}
	return unsafe.Slice((*float32)(unsafe.Pointer(&data[0])), len(data)/bytesPerFloat32)
}
