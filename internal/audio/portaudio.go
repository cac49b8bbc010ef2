package audio

import (
	"errors"
	"fmt"

	"github.com/gordonklaus/portaudio"
)

// framesPerBuffer is the blocking stream buffer size in frames.
const framesPerBuffer = 512

type portAudioHost struct {
	sampleRate float64
}

// OpenPortAudio returns a HostOpener for the default PortAudio host API.
func OpenPortAudio(sampleRate int) HostOpener {
	return func() (Host, error) {
		if err := portaudio.Initialize(); err != nil {
			return nil, fmt.Errorf("failed to initialize PortAudio: %w", err)
		}
		return &portAudioHost{sampleRate: float64(sampleRate)}, nil
	}
}

func (h *portAudioHost) DefaultInputDevice() (Device, error) {
	api, err := portaudio.DefaultHostApi()
	if err != nil {
		return nil, fmt.Errorf("failed to get default host API: %w", hostError(err))
	}
	if api.DefaultInputDevice == nil {
		return nil, ErrNoDevice
	}
	return h.device(api.DefaultInputDevice), nil
}

func (h *portAudioHost) DefaultOutputDevice() (Device, error) {
	api, err := portaudio.DefaultHostApi()
	if err != nil {
		return nil, fmt.Errorf("failed to get default host API: %w", hostError(err))
	}
	if api.DefaultOutputDevice == nil {
		return nil, ErrNoDevice
	}
	return h.device(api.DefaultOutputDevice), nil
}

func (h *portAudioHost) InputDevices() ([]Device, error) {
	return h.devices(func(d *portaudio.DeviceInfo) bool { return d.MaxInputChannels > 0 })
}

func (h *portAudioHost) OutputDevices() ([]Device, error) {
	return h.devices(func(d *portaudio.DeviceInfo) bool { return d.MaxOutputChannels > 0 })
}

func (h *portAudioHost) devices(keep func(*portaudio.DeviceInfo) bool) ([]Device, error) {
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", hostError(err))
	}

	result := make([]Device, 0, len(devices))
	for _, d := range devices {
		if keep(d) {
			result = append(result, h.device(d))
		}
	}
	return result, nil
}

func (h *portAudioHost) device(info *portaudio.DeviceInfo) Device {
	return &portAudioDevice{info: info, sampleRate: h.sampleRate}
}

func (h *portAudioHost) Close() error {
	return portaudio.Terminate()
}

type portAudioDevice struct {
	info       *portaudio.DeviceInfo
	sampleRate float64
}

func (d *portAudioDevice) Name() string {
	return d.info.Name
}

func (d *portAudioDevice) Record(samples []float32) error {
	channels := min(d.info.MaxInputChannels, 2)
	if channels < 1 {
		return fmt.Errorf("device %q has no input channels", d.info.Name)
	}

	buffer := make([]float32, framesPerBuffer*channels)
	stream, err := portaudio.OpenStream(portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   d.info,
			Channels: channels,
			Latency:  d.info.DefaultLowInputLatency,
		},
		SampleRate:      d.sampleRate,
		FramesPerBuffer: framesPerBuffer,
	}, buffer)
	if err != nil {
		return fmt.Errorf("failed to open input stream: %w", hostError(err))
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return fmt.Errorf("failed to start input stream: %w", hostError(err))
	}
	defer stream.Stop()

	for n := 0; n < len(samples); {
		// An overflow still leaves a full buffer behind.
		if err := stream.Read(); err != nil && !errors.Is(err, portaudio.InputOverflowed) {
			return fmt.Errorf("failed to read input stream: %w", hostError(err))
		}
		n += copy(samples[n:], downmixInterleaved(buffer, channels, framesPerBuffer))
	}
	return nil
}

func (d *portAudioDevice) Playback(samples []float32) error {
	channels := min(d.info.MaxOutputChannels, 2)
	if channels < 1 {
		return fmt.Errorf("device %q has no output channels", d.info.Name)
	}

	buffer := make([]float32, framesPerBuffer*channels)
	stream, err := portaudio.OpenStream(portaudio.StreamParameters{
		Output: portaudio.StreamDeviceParameters{
			Device:   d.info,
			Channels: channels,
			Latency:  d.info.DefaultLowOutputLatency,
		},
		SampleRate:      d.sampleRate,
		FramesPerBuffer: framesPerBuffer,
	}, buffer)
	if err != nil {
		return fmt.Errorf("failed to open output stream: %w", hostError(err))
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return fmt.Errorf("failed to start output stream: %w", hostError(err))
	}
	defer stream.Stop()

	for n := 0; n < len(samples); n += framesPerBuffer {
		end := min(n+framesPerBuffer, len(samples))
		upmixInterleaved(buffer, samples[n:end], channels)
		if err := stream.Write(); err != nil && !errors.Is(err, portaudio.OutputUnderflowed) {
			return fmt.Errorf("failed to write output stream: %w", hostError(err))
		}
	}
	return nil
}

// hostError marks PortAudio failures that mean the library itself is gone.
func hostError(err error) error {
	if errors.Is(err, portaudio.NotInitialized) || errors.Is(err, portaudio.InternalError) {
		return fmt.Errorf("%w: %w", ErrHostLost, err)
	}
	return err
}

// downmixInterleaved averages interleaved frames into a new mono slice.
func downmixInterleaved(input []float32, channels, frames int) []float32 {
	out := make([]float32, frames)
	if channels <= 1 {
		copy(out, input)
		return out
	}

	for f := 0; f < frames; f++ {
		var sum float32
		for c := 0; c < channels; c++ {
			sum += input[f*channels+c]
		}
		out[f] = sum / float32(channels)
	}
	return out
}

// upmixInterleaved copies mono into every channel of dst and zero-fills the
// frames mono does not cover.
func upmixInterleaved(dst, mono []float32, channels int) {
	frames := len(dst) / channels
	for f := 0; f < frames; f++ {
		var v float32
		if f < len(mono) {
			v = mono[f]
		}
		for c := 0; c < channels; c++ {
			dst[f*channels+c] = v
		}
	}
}
