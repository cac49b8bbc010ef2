//go:build linux

package hotkey

import "testing"

func TestX11Modifiers(t *testing.T) {
	tests := []struct {
		mods Modifier
		mask int
	}{
		{0, 0},
		{ModShift, 1},
		{ModCtrl, 4},
		{ModAlt, 8},
		{ModSuper, 64},
		{ModCtrl | ModAlt | ModShift, 13},
	}
	for _, tt := range tests {
		if got := x11Modifiers(tt.mods); got != tt.mask {
			t.Errorf("x11Modifiers(%d) = %d, want %d", tt.mods, got, tt.mask)
		}
	}
}

func TestX11KeysymName(t *testing.T) {
	tests := map[string]string{
		"Space":  "space",
		"Return": "Return",
		"R":      "r",
		"7":      "7",
		"F5":     "F5",
	}
	for key, want := range tests {
		if got := x11KeysymName(key); got != want {
			t.Errorf("x11KeysymName(%q) = %q, want %q", key, got, want)
		}
	}
}
