package tray

import (
	"testing"

	"github.com/petems/tapedeck/internal/config"
	"github.com/petems/tapedeck/internal/events"
)

func TestEmojiForState(t *testing.T) {
	tests := []struct {
		state    events.RecorderState
		expected string
	}{
		{events.StateIdle, "🟢"},
		{events.StateRecording, "🔴"},
		{events.StatePlaying, "🔵"},
		{events.StateError, "⚪️"},
		{events.RecorderState("unknown"), "🟢"},
	}

	for _, tt := range tests {
		t.Run(string(tt.state), func(t *testing.T) {
			if got := emojiForState(tt.state); got != tt.expected {
				t.Errorf("emojiForState(%q) = %q, want %q", tt.state, got, tt.expected)
			}
		})
	}
}

func TestModeTitle(t *testing.T) {
	tests := []struct {
		name     string
		mode     string
		expected string
	}{
		{"PushToTalk mode", config.ModePushToTalk, "Mode: Push-to-Talk"},
		{"Toggle mode", config.ModeToggle, "Mode: Toggle"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := modeTitle(tt.mode); got != tt.expected {
				t.Errorf("expected %s, got %s", tt.expected, got)
			}
		})
	}
}

func TestFormatDeviceList(t *testing.T) {
	got := formatDeviceList([]string{"Built-in Microphone", "USB Mic"}, nil)
	want := "Input devices:\n  Built-in Microphone\n  USB Mic\nOutput devices:\n  (none)\n"
	if got != want {
		t.Errorf("formatDeviceList() = %q, want %q", got, want)
	}
}
