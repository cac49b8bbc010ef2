package tape

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTapeLifecycle(t *testing.T) {
	tp := New("morning")
	assert.Equal(t, "morning", tp.Name)
	assert.False(t, tp.Finalized())
	assert.Zero(t, tp.IndexEnd)

	require.NoError(t, tp.Append([]float32{0.1, 0.2}))
	require.NoError(t, tp.Append([]float32{0.3}))
	require.NoError(t, tp.Append(nil))
	assert.Equal(t, uint64(3), tp.IndexEnd)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, tp.Samples())

	tp.Finalize()
	assert.True(t, tp.Finalized())
	assert.Equal(t, len(tp.Data), cap(tp.Data), "finalize drops spare capacity")

	err := tp.Append([]float32{1})
	assert.ErrorIs(t, err, ErrFinalized)
	assert.Equal(t, uint64(3), tp.IndexEnd)

	tp.Finalize()
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, tp.Data)
}

func TestTapeDuration(t *testing.T) {
	tests := []struct {
		name       string
		samples    int
		sampleRate int
		expected   time.Duration
	}{
		{"empty", 0, 16000, 0},
		{"one second", 16000, 16000, time.Second},
		{"half second", 24000, 48000, 500 * time.Millisecond},
		{"invalid rate", 100, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tp := New(tt.name)
			require.NoError(t, tp.Append(make([]float32, tt.samples)))
			assert.Equal(t, tt.expected, tp.Duration(tt.sampleRate))
		})
	}
}

func TestShelfKeepsNewestFirst(t *testing.T) {
	shelf := NewShelf(2)

	_, ok := shelf.Last()
	assert.False(t, ok)

	open := New("open")
	assert.ErrorIs(t, shelf.Put(open), ErrNotFinalized)

	for i := 1; i <= 3; i++ {
		tp := New(fmt.Sprintf("tape-%d", i))
		tp.Finalize()
		require.NoError(t, shelf.Put(tp))
	}

	assert.Equal(t, 2, shelf.Len())
	last, ok := shelf.Last()
	require.True(t, ok)
	assert.Equal(t, "tape-3", last.Name)

	names := []string{}
	for _, tp := range shelf.List() {
		names = append(names, tp.Name)
	}
	assert.Equal(t, []string{"tape-3", "tape-2"}, names)

	_, ok = shelf.Get("tape-1")
	assert.False(t, ok, "oldest tape is evicted")
	got, ok := shelf.Get("tape-2")
	require.True(t, ok)
	assert.Equal(t, "tape-2", got.Name)
}

func TestNewShelfMinimumSize(t *testing.T) {
	shelf := NewShelf(0)
	for _, name := range []string{"a", "b"} {
		tp := New(name)
		tp.Finalize()
		require.NoError(t, shelf.Put(tp))
	}
	assert.Equal(t, 1, shelf.Len())
}
