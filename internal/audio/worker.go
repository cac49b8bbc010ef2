package audio

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// Worker owns the audio host and its devices and serves bridge requests one
// at a time. Nothing it owns is touched outside Run.
type Worker struct {
	calls <-chan call
	open  HostOpener
	log   zerolog.Logger

	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
	doneOnce sync.Once
	started  atomic.Bool

	host   Host
	input  Device
	output Device
}

func newWorker(calls <-chan call, open HostOpener, log zerolog.Logger) *Worker {
	w := &Worker{
		calls: calls,
		open:  open,
		log:   log.With().Str("component", "audio-worker").Logger(),
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
	}
	// Bridges hold only the worker's channels, so a worker dropped without
	// Run or Stop becomes unreachable and must still release its callers.
	runtime.SetFinalizer(w, (*Worker).finish)
	return w
}

// Run serves requests until every bridge handle is closed (returns nil), the
// worker is stopped (returns nil), ctx is cancelled (returns ctx.Err()) or the
// host is lost (returns a *DevicesError). Run pins itself to its OS thread
// for its whole life.
func (w *Worker) Run(ctx context.Context) (err error) {
	if !w.started.CompareAndSwap(false, true) {
		select {
		case <-w.done:
			return ErrWorkerStopped
		default:
			return ErrWorkerRunning
		}
	}
	defer w.finish()
	defer func() {
		if r := recover(); r != nil {
			w.log.Error().Interface("panic", r).Msg("Audio worker crashed")
			err = fmt.Errorf("audio worker: panic: %v", r)
		}
	}()

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if w.open == nil {
		return devicesError("open host", errors.New("no host opener configured"))
	}
	host, err := w.open()
	if err != nil {
		return devicesError("open host", err)
	}
	w.host = host
	defer func() {
		if cerr := host.Close(); cerr != nil {
			w.log.Warn().Err(cerr).Msg("Failed to close audio host")
		}
	}()

	w.resolveDefaults()

	workerRunning.Set(1)
	defer workerRunning.Set(0)
	w.log.Info().Msg("Audio worker started")

	for {
		// Stop and cancellation win over queued requests.
		select {
		case <-w.stop:
			w.log.Info().Msg("Audio worker stopped")
			return nil
		case <-ctx.Done():
			w.log.Info().Err(ctx.Err()).Msg("Audio worker cancelled")
			return ctx.Err()
		default:
		}

		select {
		case <-ctx.Done():
			w.log.Info().Err(ctx.Err()).Msg("Audio worker cancelled")
			return ctx.Err()
		case <-w.stop:
			w.log.Info().Msg("Audio worker stopped")
			return nil
		case c, ok := <-w.calls:
			if !ok {
				w.log.Info().Msg("All bridges closed, audio worker exiting")
				return nil
			}
			workerQueueDepth.Set(float64(len(w.calls)))
			if err := w.dispatch(c); err != nil {
				w.log.Error().Err(err).Msg("Audio host lost, audio worker exiting")
				return err
			}
		}
	}
}

// Stop makes the worker finish after the request it is handling, if any.
// Requests still queued are never answered; their callers get
// ErrWorkerStopped. Stopping a worker that was never run finishes it at once,
// as does dropping it without calling Run or Stop.
func (w *Worker) Stop() {
	w.stopOnce.Do(func() { close(w.stop) })
	if w.started.CompareAndSwap(false, true) {
		w.finish()
	}
}

// Done is closed once the worker has finished.
func (w *Worker) Done() <-chan struct{} {
	return w.done
}

func (w *Worker) finish() {
	w.doneOnce.Do(func() { close(w.done) })
}

// resolveDefaults looks up the default devices. A missing device is not an
// error here; it is looked up again when a request needs it.
func (w *Worker) resolveDefaults() {
	if in, err := w.host.DefaultInputDevice(); err != nil {
		w.log.Warn().Err(err).Msg("No default input device")
	} else {
		w.input = in
		w.log.Info().Str("device", in.Name()).Msg("Default input device")
	}

	if out, err := w.host.DefaultOutputDevice(); err != nil {
		w.log.Warn().Err(err).Msg("No default output device")
	} else {
		w.output = out
		w.log.Info().Str("device", out.Name()).Msg("Default output device")
	}
}

// dispatch answers c exactly once. It returns an error only when the worker
// must not continue.
func (w *Worker) dispatch(c call) error {
	start := time.Now()
	kind := c.req.kind()

	resp, err := w.handle(c.req)
	c.respond(resp, err)
	observeRequest(kind, start, err)

	if err != nil {
		w.log.Error().Err(err).Str("request", kind).Msg("Audio request failed")
		if IsHostLost(err) {
			return err
		}
		return nil
	}
	w.log.Debug().Str("request", kind).Dur("took", time.Since(start)).Msg("Audio request handled")
	return nil
}

func (w *Worker) handle(req request) (response, error) {
	switch r := req.(type) {
	case recordRequest:
		if len(r.samples) == 0 {
			return recordResponse{}, nil
		}
		dev, err := w.inputDevice()
		if err != nil {
			return nil, devicesError("default input device", err)
		}
		if err := dev.Record(r.samples); err != nil {
			return nil, devicesError("record on "+dev.Name(), err)
		}
		return recordResponse{}, nil

	case playbackRequest:
		if len(r.samples) == 0 {
			return playbackResponse{}, nil
		}
		dev, err := w.outputDevice()
		if err != nil {
			return nil, devicesError("default output device", err)
		}
		if err := dev.Playback(r.samples); err != nil {
			return nil, devicesError("playback on "+dev.Name(), err)
		}
		return playbackResponse{}, nil

	case inputDevicesRequest:
		devices, err := w.host.InputDevices()
		if err != nil {
			return nil, devicesError("list input devices", err)
		}
		return inputDevicesResponse{names: deviceNames(devices)}, nil

	case outputDevicesRequest:
		devices, err := w.host.OutputDevices()
		if err != nil {
			return nil, devicesError("list output devices", err)
		}
		return outputDevicesResponse{names: deviceNames(devices)}, nil

	default:
		return nil, fmt.Errorf("audio worker: unknown request %T", req)
	}
}

func (w *Worker) inputDevice() (Device, error) {
	if w.input == nil {
		d, err := w.host.DefaultInputDevice()
		if err != nil {
			return nil, err
		}
		w.input = d
	}
	return w.input, nil
}

func (w *Worker) outputDevice() (Device, error) {
	if w.output == nil {
		d, err := w.host.DefaultOutputDevice()
		if err != nil {
			return nil, err
		}
		w.output = d
	}
	return w.output, nil
}
