package audio

import (
	"errors"
	"fmt"
)

var (
	// ErrWorkerStopped is returned by every Bridge operation once the worker
	// finished, was stopped, or dropped a request without answering it.
	ErrWorkerStopped = errors.New("audio worker: stopped")

	// ErrWorkerRunning is returned when Run is called on a worker that is
	// already running.
	ErrWorkerRunning = errors.New("audio worker: already running")

	// ErrBridgeClosed is returned when a Bridge handle is used after its own
	// Close.
	ErrBridgeClosed = errors.New("audio bridge: closed")
)

// DevicesError wraps a backend failure while resolving, enumerating or using
// a device.
type DevicesError struct {
	Op  string
	Err error
}

func (e *DevicesError) Error() string {
	return fmt.Sprintf("audio device: %s: %v", e.Op, e.Err)
}

func (e *DevicesError) Unwrap() error {
	return e.Err
}

func devicesError(op string, err error) error {
	var de *DevicesError
	if errors.As(err, &de) {
		return err
	}
	return &DevicesError{Op: op, Err: err}
}

// IsHostLost reports whether err means the backend host is gone.
func IsHostLost(err error) bool {
	return errors.Is(err, ErrHostLost)
}
