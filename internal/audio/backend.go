package audio

import "fmt"

// Backend names accepted by OpenHost.
const (
	BackendPortAudio = "portaudio"
	BackendMiniaudio = "miniaudio"
)

// OpenHost returns the HostOpener for the named backend.
func OpenHost(backend string, sampleRate int) (HostOpener, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate %d", sampleRate)
	}

	switch backend {
	case BackendPortAudio, "":
		return OpenPortAudio(sampleRate), nil
	case BackendMiniaudio:
		return OpenMiniaudio(sampleRate), nil
	default:
		return nil, fmt.Errorf("unknown audio backend %q", backend)
	}
}
