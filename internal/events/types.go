package events

import "time"

// Event type constants for kelindar/event.
const (
	TypeRecorderState uint32 = iota + 1
	TypeTapeFinished
	TypeAudioError
)

// Event is what kelindar/event dispatches.
type Event interface {
	Type() uint32
}

// RecorderState is the recorder's visible state.
type RecorderState string

const (
	StateIdle      RecorderState = "idle"
	StateRecording RecorderState = "recording"
	StatePlaying   RecorderState = "playing"
	StateError     RecorderState = "error"
)

// RecorderStateEvent is published whenever the recorder changes state.
type RecorderStateEvent struct {
	State RecorderState
	At    time.Time
}

// Type returns the event type identifier for RecorderStateEvent.
func (e RecorderStateEvent) Type() uint32 { return TypeRecorderState }

// TapeFinishedEvent is published when a recording has been shelved.
type TapeFinishedEvent struct {
	Name     string
	Samples  uint64
	Duration time.Duration
}

// Type returns the event type identifier for TapeFinishedEvent.
func (e TapeFinishedEvent) Type() uint32 { return TypeTapeFinished }

// AudioErrorEvent reports a failed bridge operation.
type AudioErrorEvent struct {
	Op    string
	Error string
	At    time.Time
}

// Type returns the event type identifier for AudioErrorEvent.
func (e AudioErrorEvent) Type() uint32 { return TypeAudioError }
