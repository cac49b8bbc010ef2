package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/petems/tapedeck/internal/audio"
	"github.com/petems/tapedeck/internal/audio/audiotest"
	"github.com/petems/tapedeck/internal/config"
	"github.com/petems/tapedeck/internal/events"
	"github.com/petems/tapedeck/internal/tape"
)

type fixture struct {
	app    *App
	worker *audio.Worker
	mic    *audiotest.MockDevice
	spk    *audiotest.MockDevice
	states chan events.RecorderState
	errs   chan events.AudioErrorEvent
}

func newFixture(t *testing.T, mode string) *fixture {
	t.Helper()
	cfg := config.Default()
	cfg.Mode = mode
	return newFixtureWithConfig(t, cfg)
}

// newFixtureWithConfig wires an App to a running worker over a mock host.
// Each Record request takes about a millisecond and yields ten samples.
func newFixtureWithConfig(t *testing.T, cfg *config.Config) *fixture {
	t.Helper()

	mic := audiotest.NewMockDevice("Test Mic")
	mic.SetGenerator(func(i int) float32 { return float32(i) })
	mic.SetHook(func(op string, _ []float32) {
		if op == "record" {
			time.Sleep(time.Millisecond)
		}
	})
	spk := audiotest.NewMockDevice("Test Speakers")

	host := audiotest.NewEmptyHost()
	host.AddInput(mic)
	host.AddOutput(spk)

	bridge, worker := audio.NewBridge(audio.Config{Open: host.Opener(), Logger: zerolog.Nop()})
	go func() { _ = worker.Run(context.Background()) }()
	t.Cleanup(func() {
		worker.Stop()
		<-worker.Done()
	})

	cfg.Audio.SampleRate = 1000
	cfg.Audio.ChunkMs = 10

	bus := events.New()
	f := &fixture{
		worker: worker,
		mic:    mic,
		spk:    spk,
		states: make(chan events.RecorderState, 256),
		errs:   make(chan events.AudioErrorEvent, 256),
	}
	unsubState := bus.Subscribe(func(e events.RecorderStateEvent) {
		select {
		case f.states <- e.State:
		default:
		}
	})
	unsubErr := bus.Subscribe(func(e events.AudioErrorEvent) {
		select {
		case f.errs <- e:
		default:
		}
	})
	t.Cleanup(func() {
		unsubState()
		unsubErr()
	})

	f.app = New(Config{
		Bridge: bridge,
		Bus:    bus,
		Shelf:  tape.NewShelf(4),
		Config: cfg,
		Logger: zerolog.Nop(),
	})
	return f
}

func (f *fixture) waitState(t *testing.T, want events.RecorderState) {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case s := <-f.states:
			if s == want {
				return
			}
		case <-timeout:
			t.Fatalf("state %q was never published", want)
		}
	}
}

func (f *fixture) waitRecorded(t *testing.T, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return f.mic.Recorded() >= n },
		2*time.Second, time.Millisecond)
}

func TestToggleModeKeyPress(t *testing.T) {
	f := newFixture(t, config.ModeToggle)
	app := f.app

	if app.IsRecording() {
		t.Error("App should not be recording initially")
	}

	// First key press - should start recording
	app.OnHotkey(true)
	if !app.IsRecording() {
		t.Error("App should be recording after first key press")
	}

	// Key release - should NOT stop recording in Toggle mode
	app.OnHotkey(false)
	if !app.IsRecording() {
		t.Error("App should still be recording after key release in Toggle mode")
	}

	// Second key press - should stop recording
	app.OnHotkey(true)
	if app.IsRecording() {
		t.Error("App should have stopped recording after second key press")
	}
	assert.Len(t, app.Tapes(), 1)
}

func TestPushToTalkModeKeyPress(t *testing.T) {
	f := newFixture(t, config.ModePushToTalk)
	app := f.app

	app.OnHotkey(true)
	if !app.IsRecording() {
		t.Error("App should be recording after key press")
	}

	app.OnHotkey(false)
	if app.IsRecording() {
		t.Error("App should have stopped recording after key release")
	}
}

func TestToggleModeIgnoresKeyRelease(t *testing.T) {
	f := newFixture(t, config.ModeToggle)
	app := f.app

	// Key release when not recording - should do nothing
	app.OnHotkey(false)
	if app.IsRecording() {
		t.Error("App should not start recording on key release")
	}

	app.OnHotkey(true)
	app.OnHotkey(false)
	app.OnHotkey(false)
	app.OnHotkey(false)
	if !app.IsRecording() {
		t.Error("App should still be recording after multiple key releases in Toggle mode")
	}
}

func TestStopRecordingShelvesTape(t *testing.T) {
	f := newFixture(t, config.ModeToggle)

	require.NoError(t, f.app.StartRecording())
	assert.ErrorIs(t, f.app.StartRecording(), ErrAlreadyRecording)
	f.waitState(t, events.StateRecording)
	f.waitRecorded(t, 3)

	tp, err := f.app.StopRecording()
	require.NoError(t, err)
	f.waitState(t, events.StateIdle)

	assert.True(t, tp.Finalized())
	assert.GreaterOrEqual(t, tp.IndexEnd, uint64(30))
	assert.Zero(t, tp.IndexEnd%10, "tapes hold whole chunks")
	assert.Equal(t, float32(9), tp.Samples()[9])

	last, ok := f.app.shelf.Last()
	require.True(t, ok)
	assert.Same(t, tp, last)

	_, err = f.app.StopRecording()
	assert.ErrorIs(t, err, ErrNotRecording)
}

func TestPlayLastPlaysNewestTape(t *testing.T) {
	f := newFixture(t, config.ModeToggle)

	assert.ErrorIs(t, f.app.PlayLast(), ErrNoTape)

	require.NoError(t, f.app.StartRecording())
	f.waitRecorded(t, 2)
	tp, err := f.app.StopRecording()
	require.NoError(t, err)

	require.NoError(t, f.app.PlayLast())
	f.waitState(t, events.StatePlaying)
	f.waitState(t, events.StateIdle)

	played := f.spk.Played()
	require.Len(t, played, 1)
	assert.Equal(t, tp.Samples(), played[0])

	require.NoError(t, f.app.Play(tp.Name))
	assert.Len(t, f.spk.Played(), 2)
	assert.ErrorIs(t, f.app.Play("Tape 99"), ErrNoTape)
}

func TestPlayWhileRecordingIsBusy(t *testing.T) {
	f := newFixture(t, config.ModeToggle)

	require.NoError(t, f.app.StartRecording())
	f.waitRecorded(t, 1)
	_, err := f.app.StopRecording()
	require.NoError(t, err)

	require.NoError(t, f.app.StartRecording())
	assert.ErrorIs(t, f.app.PlayLast(), ErrBusy)
	_, err = f.app.StopRecording()
	require.NoError(t, err)
}

func TestPlaybackFailurePublishesError(t *testing.T) {
	f := newFixture(t, config.ModeToggle)

	require.NoError(t, f.app.StartRecording())
	f.waitRecorded(t, 1)
	_, err := f.app.StopRecording()
	require.NoError(t, err)

	f.spk.SetPlaybackError(audiotest.ErrUnplugged)
	err = f.app.PlayLast()
	assert.ErrorIs(t, err, audiotest.ErrUnplugged)

	var de *audio.DevicesError
	assert.True(t, errors.As(err, &de))
	f.waitState(t, events.StateError)

	select {
	case e := <-f.errs:
		assert.Equal(t, "playback", e.Op)
	case <-time.After(2 * time.Second):
		t.Fatal("no audio error event")
	}
}

func TestRecordFailureEndsRecording(t *testing.T) {
	f := newFixture(t, config.ModeToggle)

	require.NoError(t, f.app.StartRecording())
	f.waitRecorded(t, 2)
	f.mic.SetRecordError(audiotest.ErrUnplugged)

	require.Eventually(t, func() bool { return !f.app.IsRecording() },
		2*time.Second, time.Millisecond)
	f.waitState(t, events.StateError)

	_, err := f.app.StopRecording()
	assert.ErrorIs(t, err, ErrNotRecording)

	// The partial recording is kept.
	last, ok := f.app.shelf.Last()
	require.True(t, ok)
	assert.True(t, last.Finalized())
	assert.GreaterOrEqual(t, last.IndexEnd, uint64(20))
}

func TestWorkerStopEndsRecording(t *testing.T) {
	f := newFixture(t, config.ModeToggle)

	require.NoError(t, f.app.StartRecording())
	f.waitRecorded(t, 1)

	f.worker.Stop()
	<-f.worker.Done()

	require.Eventually(t, func() bool { return !f.app.IsRecording() },
		2*time.Second, time.Millisecond)
	f.waitState(t, events.StateError)

	select {
	case e := <-f.errs:
		assert.Equal(t, "record", e.Op)
		assert.Equal(t, audio.ErrWorkerStopped.Error(), e.Error)
	case <-time.After(2 * time.Second):
		t.Fatal("no audio error event")
	}

	_, err := f.app.InputDevices()
	assert.ErrorIs(t, err, audio.ErrWorkerStopped)
}

func TestDeviceListsPassThrough(t *testing.T) {
	f := newFixture(t, config.ModeToggle)

	in, err := f.app.InputDevices()
	require.NoError(t, err)
	assert.Equal(t, []string{"Test Mic"}, in)

	out, err := f.app.OutputDevices()
	require.NoError(t, err)
	assert.Equal(t, []string{"Test Speakers"}, out)
}

func TestShutdownStopsRecordingAndClosesBridge(t *testing.T) {
	f := newFixture(t, config.ModeToggle)

	require.NoError(t, f.app.StartRecording())
	f.waitRecorded(t, 1)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, f.app.Shutdown(ctx))

	assert.False(t, f.app.IsRecording())
	assert.Len(t, f.app.Tapes(), 1)

	// The app held the only handle, so the worker winds down.
	select {
	case <-f.worker.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("worker still running after shutdown")
	}
}

func TestSetModePersistsToLoadedFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	path := filepath.Join(t.TempDir(), "deck.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"mode": "Toggle", "max_tapes": 4}`), 0644))

	cfg, err := config.LoadFrom(path)
	require.NoError(t, err)
	cfg.Audio.Backend = "miniaudio" // a --backend override for this run only

	f := newFixtureWithConfig(t, cfg)

	assert.Error(t, f.app.SetMode("Hold"))
	require.NoError(t, f.app.SetMode(config.ModePushToTalk))

	onDisk, err := config.LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, config.ModePushToTalk, onDisk.Mode)
	assert.Equal(t, 4, onDisk.MaxTapes)
	assert.Equal(t, "portaudio", onDisk.Audio.Backend)

	_, err = os.Stat(config.Path())
	assert.True(t, os.IsNotExist(err), "platform config must not be written")

	f.app.OnHotkey(true)
	assert.True(t, f.app.IsRecording())
	f.app.OnHotkey(false)
	assert.False(t, f.app.IsRecording())
}
