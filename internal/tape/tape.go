// Package tape holds recorded sessions. A Tape is written by exactly one
// capture goroutine until it is finalized and is read-only afterwards.
package tape

import (
	"errors"
	"time"
)

// ErrFinalized is returned when appending to a finished tape.
var ErrFinalized = errors.New("tape: finalized")

// Tape is one recorded session.
type Tape struct {
	Name      string
	CreatedAt time.Time
	// IndexEnd is the logical end of the recording in samples.
	IndexEnd uint64
	Data     []float32

	finalized bool
}

// New starts an empty tape.
func New(name string) *Tape {
	return &Tape{Name: name, CreatedAt: time.Now()}
}

// Append adds captured samples at the end of the tape.
func (t *Tape) Append(samples []float32) error {
	if t.finalized {
		return ErrFinalized
	}
	t.Data = append(t.Data[:t.IndexEnd], samples...)
	t.IndexEnd += uint64(len(samples))
	return nil
}

// Finalize closes the tape for writing and drops any spare capacity.
// Finalizing twice is a no-op.
func (t *Tape) Finalize() {
	if t.finalized {
		return
	}
	t.finalized = true
	data := make([]float32, t.IndexEnd)
	copy(data, t.Data[:t.IndexEnd])
	t.Data = data
}

// Finalized reports whether the tape is closed for writing.
func (t *Tape) Finalized() bool {
	return t.finalized
}

// Samples returns the recorded samples up to IndexEnd.
func (t *Tape) Samples() []float32 {
	return t.Data[:t.IndexEnd]
}

// Duration is the playing time of the tape at sampleRate.
func (t *Tape) Duration(sampleRate int) time.Duration {
	if sampleRate <= 0 {
		return 0
	}
	return time.Duration(t.IndexEnd) * time.Second / time.Duration(sampleRate)
}
