// Package audiotest provides an in-memory audio host for exercising the
// audio worker without hardware.
package audiotest

import (
	"errors"
	"fmt"
	"sync"

	"github.com/petems/tapedeck/internal/audio"
)

// MockHost implements audio.Host. All methods are safe for concurrent use so
// tests can inspect it while a worker is running.
type MockHost struct {
	mu            sync.Mutex
	inputs        []*MockDevice
	outputs       []*MockDevice
	defaultInput  *MockDevice
	defaultOutput *MockDevice
	openErr       error
	listErr       error
	opened        int
	closed        int
}

// NewMockHost returns a host with one default microphone and one default
// speaker.
func NewMockHost() *MockHost {
	mic := NewMockDevice("Built-in Microphone")
	spk := NewMockDevice("Built-in Speakers")
	return &MockHost{
		inputs:        []*MockDevice{mic},
		outputs:       []*MockDevice{spk},
		defaultInput:  mic,
		defaultOutput: spk,
	}
}

// NewEmptyHost returns a host without any devices.
func NewEmptyHost() *MockHost {
	return &MockHost{}
}

// Opener returns an audio.HostOpener yielding h.
func (h *MockHost) Opener() audio.HostOpener {
	return func() (audio.Host, error) {
		h.mu.Lock()
		defer h.mu.Unlock()
		if h.openErr != nil {
			return nil, h.openErr
		}
		h.opened++
		return h, nil
	}
}

// SetOpenError makes the opener fail.
func (h *MockHost) SetOpenError(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.openErr = err
}

// SetListError makes device enumeration fail.
func (h *MockHost) SetListError(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.listErr = err
}

// AddInput registers another capture device; the first one added to an empty
// host becomes the default.
func (h *MockHost) AddInput(d *MockDevice) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.inputs = append(h.inputs, d)
	if h.defaultInput == nil {
		h.defaultInput = d
	}
}

// AddOutput registers another playback device; the first one added to an
// empty host becomes the default.
func (h *MockHost) AddOutput(d *MockDevice) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.outputs = append(h.outputs, d)
	if h.defaultOutput == nil {
		h.defaultOutput = d
	}
}

// Opened reports how many times the host was opened.
func (h *MockHost) Opened() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.opened
}

// Closed reports how many times the host was closed.
func (h *MockHost) Closed() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closed
}

func (h *MockHost) DefaultInputDevice() (audio.Device, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.defaultInput == nil {
		return nil, audio.ErrNoDevice
	}
	return h.defaultInput, nil
}

func (h *MockHost) DefaultOutputDevice() (audio.Device, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.defaultOutput == nil {
		return nil, audio.ErrNoDevice
	}
	return h.defaultOutput, nil
}

func (h *MockHost) InputDevices() ([]audio.Device, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.listErr != nil {
		return nil, h.listErr
	}
	return asDevices(h.inputs), nil
}

func (h *MockHost) OutputDevices() ([]audio.Device, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.listErr != nil {
		return nil, h.listErr
	}
	return asDevices(h.outputs), nil
}

func (h *MockHost) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed++
	return nil
}

func asDevices(in []*MockDevice) []audio.Device {
	out := make([]audio.Device, len(in))
	for i, d := range in {
		out[i] = d
	}
	return out
}

// MockDevice implements audio.Device. Recording fills buffers from a
// generator; playback keeps a copy of every buffer played.
type MockDevice struct {
	mu          sync.Mutex
	name        string
	generator   func(i int) float32
	recordErr   error
	playbackErr error
	hook        func(op string, samples []float32)
	recorded    int
	played      [][]float32
}

// NewMockDevice returns a device recording silence.
func NewMockDevice(name string) *MockDevice {
	return &MockDevice{
		name:      name,
		generator: func(int) float32 { return 0 },
	}
}

// SetGenerator sets the function producing recorded sample i of a buffer.
func (d *MockDevice) SetGenerator(gen func(i int) float32) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.generator = gen
}

// SetRecordError makes Record fail with err.
func (d *MockDevice) SetRecordError(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.recordErr = err
}

// SetPlaybackError makes Playback fail with err.
func (d *MockDevice) SetPlaybackError(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.playbackErr = err
}

// SetHook installs a function called at the start of every Record and
// Playback, on the worker goroutine. It may block or panic to simulate a
// stuck or crashing backend.
func (d *MockDevice) SetHook(hook func(op string, samples []float32)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.hook = hook
}

// Recorded reports how many Record calls succeeded.
func (d *MockDevice) Recorded() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.recorded
}

// Played returns copies of every buffer played so far.
func (d *MockDevice) Played() [][]float32 {
	d.mu.Lock()
	defer d.mu.Unlock()
	result := make([][]float32, len(d.played))
	copy(result, d.played)
	return result
}

func (d *MockDevice) Name() string {
	return d.name
}

func (d *MockDevice) Record(samples []float32) error {
	d.mu.Lock()
	hook, gen, err := d.hook, d.generator, d.recordErr
	d.mu.Unlock()

	if hook != nil {
		hook("record", samples)
	}
	if err != nil {
		return err
	}
	for i := range samples {
		samples[i] = gen(i)
	}

	d.mu.Lock()
	d.recorded++
	d.mu.Unlock()
	return nil
}

func (d *MockDevice) Playback(samples []float32) error {
	d.mu.Lock()
	hook, err := d.hook, d.playbackErr
	d.mu.Unlock()

	if hook != nil {
		hook("playback", samples)
	}
	if err != nil {
		return err
	}

	cp := make([]float32, len(samples))
	copy(cp, samples)

	d.mu.Lock()
	d.played = append(d.played, cp)
	d.mu.Unlock()
	return nil
}

// HostLost returns an error wrapping audio.ErrHostLost.
func HostLost(reason string) error {
	return fmt.Errorf("%s: %w", reason, audio.ErrHostLost)
}

// ErrUnplugged is a convenient device failure for tests.
var ErrUnplugged = errors.New("device unplugged")
