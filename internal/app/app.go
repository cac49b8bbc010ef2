package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/petems/tapedeck/internal/audio"
	"github.com/petems/tapedeck/internal/config"
	"github.com/petems/tapedeck/internal/events"
	"github.com/petems/tapedeck/internal/tape"
	"github.com/rs/zerolog"
)

var (
	ErrAlreadyRecording = errors.New("already recording")
	ErrNotRecording     = errors.New("not recording")
	ErrBusy             = errors.New("recorder busy")
	ErrNoTape           = errors.New("no tape recorded yet")
)

type Mode int

const (
	PushToTalk Mode = iota
	Toggle
)

type Config struct {
	Bridge *audio.Bridge
	Bus    *events.Bus
	Shelf  *tape.Shelf
	Config *config.Config
	Logger zerolog.Logger
}

// App is the recorder the tray and hotkey drive. All audio goes through the
// bridge; App never touches a device itself.
type App struct {
	bridge *audio.Bridge
	bus    *events.Bus
	shelf  *tape.Shelf
	cfg    *config.Config
	log    zerolog.Logger

	mu          sync.Mutex
	recording   bool
	playing     bool
	current     *tape.Tape
	stopCapture chan struct{}
	captureDone chan struct{}
	seq         int
}

func New(cfg Config) *App {
	shelf := cfg.Shelf
	if shelf == nil {
		shelf = tape.NewShelf(cfg.Config.MaxTapes)
	}
	bus := cfg.Bus
	if bus == nil {
		bus = events.New()
	}
	return &App{
		bridge: cfg.Bridge,
		bus:    bus,
		shelf:  shelf,
		cfg:    cfg.Config,
		log:    cfg.Logger,
	}
}

func (a *App) mode() Mode {
	if a.cfg.Mode == config.ModePushToTalk {
		return PushToTalk
	}
	return Toggle
}

// OnHotkey is the global hotkey callback.
func (a *App) OnHotkey(pressed bool) {
	a.mu.Lock()
	mode, recording := a.mode(), a.recording
	a.mu.Unlock()

	var err error
	switch mode {
	case PushToTalk:
		if pressed && !recording {
			err = a.StartRecording()
		} else if !pressed && recording {
			_, err = a.StopRecording()
		}
	case Toggle:
		if !pressed {
			return
		}
		if !recording {
			err = a.StartRecording()
		} else {
			_, err = a.StopRecording()
		}
	}
	if err != nil && !errors.Is(err, ErrNotRecording) && !errors.Is(err, ErrAlreadyRecording) {
		a.log.Error().Err(err).Msg("Hotkey action failed")
	}
}

// ToggleRecording starts or stops recording depending on the current state.
func (a *App) ToggleRecording() error {
	if a.IsRecording() {
		_, err := a.StopRecording()
		return err
	}
	return a.StartRecording()
}

// StartRecording begins capturing into a fresh tape. Capture runs on its own
// goroutine, one chunk per Record request.
func (a *App) StartRecording() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.recording {
		return ErrAlreadyRecording
	}
	if a.playing {
		return ErrBusy
	}

	a.seq++
	t := tape.New(fmt.Sprintf("Tape %d (%s)", a.seq, time.Now().Format("2006-01-02 15:04:05")))
	stop := make(chan struct{})
	done := make(chan struct{})

	a.recording = true
	a.current = t
	a.stopCapture = stop
	a.captureDone = done

	a.log.Info().Str("tape", t.Name).Msg("Starting recording")
	go a.capture(t, stop, done)

	a.publishState(events.StateRecording)
	return nil
}

// StopRecording ends the current recording, shelves the tape and returns it.
func (a *App) StopRecording() (*tape.Tape, error) {
	a.mu.Lock()
	if !a.recording {
		a.mu.Unlock()
		return nil, ErrNotRecording
	}
	t, stop, done := a.current, a.stopCapture, a.captureDone
	a.recording = false
	a.current = nil
	a.mu.Unlock()

	a.log.Info().Str("tape", t.Name).Msg("Stopping recording")
	close(stop)
	<-done

	if err := a.shelve(t); err != nil {
		return nil, err
	}
	a.publishState(events.StateIdle)
	return t, nil
}

func (a *App) capture(t *tape.Tape, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	frames := a.cfg.ChunkFrames()
	for {
		select {
		case <-stop:
			return
		default:
		}

		chunk := make([]float32, frames)
		if err := a.bridge.Record(chunk); err != nil {
			a.captureFailed(t, err)
			return
		}
		if err := t.Append(chunk); err != nil {
			a.log.Error().Err(err).Str("tape", t.Name).Msg("Append failed")
			return
		}
	}
}

// captureFailed ends a recording the capture goroutine could not continue.
// If StopRecording already claimed the tape it finishes the job instead.
func (a *App) captureFailed(t *tape.Tape, err error) {
	a.log.Error().Err(err).Str("tape", t.Name).Msg("Recording failed")
	a.publishError("record", err)

	a.mu.Lock()
	owned := a.recording && a.current == t
	if owned {
		a.recording = false
		a.current = nil
	}
	a.mu.Unlock()

	if !owned {
		return
	}
	if t.IndexEnd > 0 {
		if serr := a.shelve(t); serr != nil {
			a.log.Error().Err(serr).Msg("Failed to shelve partial tape")
		}
	}
	a.publishState(events.StateError)
}

func (a *App) shelve(t *tape.Tape) error {
	t.Finalize()
	if err := a.shelf.Put(t); err != nil {
		return err
	}

	d := t.Duration(a.cfg.Audio.SampleRate)
	a.log.Info().Str("tape", t.Name).Dur("duration", d).Msg("Tape shelved")
	a.bus.Publish(events.TapeFinishedEvent{Name: t.Name, Samples: t.IndexEnd, Duration: d})
	return nil
}

// PlayLast plays the newest tape on the default output device.
func (a *App) PlayLast() error {
	t, ok := a.shelf.Last()
	if !ok {
		return ErrNoTape
	}
	return a.play(t)
}

// Play plays the tape with the given name.
func (a *App) Play(name string) error {
	t, ok := a.shelf.Get(name)
	if !ok {
		return fmt.Errorf("tape %q: %w", name, ErrNoTape)
	}
	return a.play(t)
}

func (a *App) play(t *tape.Tape) error {
	a.mu.Lock()
	if a.recording || a.playing {
		a.mu.Unlock()
		return ErrBusy
	}
	a.playing = true
	a.mu.Unlock()

	defer func() {
		a.mu.Lock()
		a.playing = false
		a.mu.Unlock()
	}()

	a.publishState(events.StatePlaying)
	a.log.Info().Str("tape", t.Name).Msg("Playing tape")

	if err := a.bridge.Playback(t.Samples()); err != nil {
		a.log.Error().Err(err).Str("tape", t.Name).Msg("Playback failed")
		a.publishError("playback", err)
		a.publishState(events.StateError)
		return err
	}
	a.publishState(events.StateIdle)
	return nil
}

func (a *App) InputDevices() ([]string, error) {
	names, err := a.bridge.InputDevices()
	if err != nil {
		a.publishError("input_devices", err)
	}
	return names, err
}

func (a *App) OutputDevices() ([]string, error) {
	names, err := a.bridge.OutputDevices()
	if err != nil {
		a.publishError("output_devices", err)
	}
	return names, err
}

// Tapes lists the shelved tapes, newest first.
func (a *App) Tapes() []*tape.Tape {
	return a.shelf.List()
}

func (a *App) IsRecording() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.recording
}

// SetMode switches between push-to-talk and toggle and persists the choice.
func (a *App) SetMode(mode string) error {
	if mode != config.ModePushToTalk && mode != config.ModeToggle {
		return fmt.Errorf("invalid mode %q", mode)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.cfg.Mode = mode
	return a.cfg.SaveMode(mode)
}

// Shutdown stops any recording and releases the app's bridge handle.
func (a *App) Shutdown(ctx context.Context) error {
	stopped := make(chan error, 1)
	go func() {
		_, err := a.StopRecording()
		if errors.Is(err, ErrNotRecording) {
			err = nil
		}
		stopped <- err
	}()

	var err error
	select {
	case err = <-stopped:
	case <-ctx.Done():
		err = ctx.Err()
	}

	if cerr := a.bridge.Close(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}

func (a *App) publishState(state events.RecorderState) {
	a.bus.Publish(events.RecorderStateEvent{State: state, At: time.Now()})
}

func (a *App) publishError(op string, err error) {
	a.bus.Publish(events.AudioErrorEvent{Op: op, Error: err.Error(), At: time.Now()})
}
