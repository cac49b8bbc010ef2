package audio

import (
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
)

// DefaultQueueSize is the request queue capacity used when Config.QueueSize
// is not set.
const DefaultQueueSize = 64

// Config configures a bridge and its worker.
type Config struct {
	Open      HostOpener
	QueueSize int
	Logger    zerolog.Logger
}

// bridgeState is shared by every clone of a Bridge.
type bridgeState struct {
	calls chan call
	done  <-chan struct{}

	mu     sync.RWMutex
	refs   int
	closed bool
}

// Bridge is the caller side of the audio worker. Every operation blocks the
// calling goroutine until the worker answers or is gone. A Bridge may be
// used from any number of goroutines; share it with Clone and release each
// clone with Close.
type Bridge struct {
	state  *bridgeState
	closed atomic.Bool
}

// NewBridge returns a bridge and the worker serving it. It starts nothing:
// the caller owns the worker's goroutine and must either Run or Stop it.
func NewBridge(cfg Config) (*Bridge, *Worker) {
	size := cfg.QueueSize
	if size <= 0 {
		size = DefaultQueueSize
	}

	calls := make(chan call, size)
	w := newWorker(calls, cfg.Open, cfg.Logger)

	b := &Bridge{state: &bridgeState{
		calls: calls,
		done:  w.done,
		refs:  1,
	}}
	return b, w
}

// Clone returns another handle to the same worker. The worker sees the end
// of its request stream only after every handle has been closed.
func (b *Bridge) Clone() *Bridge {
	s := b.state
	s.mu.Lock()
	defer s.mu.Unlock()

	c := &Bridge{state: s}
	if s.closed || b.closed.Load() {
		c.closed.Store(true)
		return c
	}
	s.refs++
	return c
}

// Close releases this handle. Closing the last handle closes the request
// stream, which ends the worker normally once it is idle.
func (b *Bridge) Close() error {
	if !b.closed.CompareAndSwap(false, true) {
		return nil
	}

	s := b.state
	s.mu.Lock()
	defer s.mu.Unlock()

	s.refs--
	if s.refs == 0 && !s.closed {
		s.closed = true
		close(s.calls)
	}
	return nil
}

// Record captures len(samples) frames from the default input device into
// samples. An empty buffer is acknowledged without touching the device.
func (b *Bridge) Record(samples []float32) error {
	req := recordRequest{samples: samples}
	resp, err := b.roundTrip(req)
	if err != nil {
		return err
	}
	if _, ok := resp.(recordResponse); !ok {
		mismatch(req, resp)
	}
	return nil
}

// Playback plays samples on the default output device.
func (b *Bridge) Playback(samples []float32) error {
	req := playbackRequest{samples: samples}
	resp, err := b.roundTrip(req)
	if err != nil {
		return err
	}
	if _, ok := resp.(playbackResponse); !ok {
		mismatch(req, resp)
	}
	return nil
}

// InputDevices lists the names of all capture devices of the host.
func (b *Bridge) InputDevices() ([]string, error) {
	req := inputDevicesRequest{}
	resp, err := b.roundTrip(req)
	if err != nil {
		return nil, err
	}
	r, ok := resp.(inputDevicesResponse)
	if !ok {
		mismatch(req, resp)
	}
	return r.names, nil
}

// OutputDevices lists the names of all playback devices of the host.
func (b *Bridge) OutputDevices() ([]string, error) {
	req := outputDevicesRequest{}
	resp, err := b.roundTrip(req)
	if err != nil {
		return nil, err
	}
	r, ok := resp.(outputDevicesResponse)
	if !ok {
		mismatch(req, resp)
	}
	return r.names, nil
}

func (b *Bridge) roundTrip(req request) (response, error) {
	if b.closed.Load() {
		return nil, ErrBridgeClosed
	}

	c := newCall(req)
	if err := b.state.send(c); err != nil {
		return nil, err
	}
	return b.state.wait(c)
}

func (s *bridgeState) send(c call) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return ErrBridgeClosed
	}

	select {
	case <-s.done:
		return ErrWorkerStopped
	default:
	}

	select {
	case s.calls <- c:
		return nil
	case <-s.done:
		return ErrWorkerStopped
	}
}

func (s *bridgeState) wait(c call) (response, error) {
	select {
	case r := <-c.reply:
		return r.resp, r.err
	case <-s.done:
		// The worker replies before it finishes, so a reply may be
		// sitting in the buffer.
		select {
		case r := <-c.reply:
			return r.resp, r.err
		default:
			return nil, ErrWorkerStopped
		}
	}
}
