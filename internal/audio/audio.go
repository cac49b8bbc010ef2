package audio

import "errors"

var (
	// ErrNoDevice is returned by a Host when no default device of the
	// requested direction exists.
	ErrNoDevice = errors.New("no such device")

	// ErrHostLost is wrapped by a backend when the host itself went away
	// (audio server died, context invalidated). The worker cannot continue
	// after it.
	ErrHostLost = errors.New("audio host lost")
)

// HostOpener acquires the default audio host. It is called once, on the
// worker's own thread.
type HostOpener func() (Host, error)

// Host is the audio host the worker owns. Implementations are only ever used
// from the worker goroutine and need no locking.
type Host interface {
	DefaultInputDevice() (Device, error)
	DefaultOutputDevice() (Device, error)
	InputDevices() ([]Device, error)
	OutputDevices() ([]Device, error)
	Close() error
}

// Device performs blocking I/O against one audio device.
type Device interface {
	Name() string
	// Record fills samples with mono float32 frames captured from the device.
	Record(samples []float32) error
	// Playback plays mono float32 frames and returns once they were written.
	Playback(samples []float32) error
}

func deviceNames(devices []Device) []string {
	names := make([]string, 0, len(devices))
	for _, d := range devices {
		names = append(names, d.Name())
	}
	return names
}
