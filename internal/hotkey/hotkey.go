package hotkey

import (
	"fmt"
	"strings"
)

// Manager defines the interface for global hotkey management
type Manager interface {
	Register(accel string, callback func(pressed bool)) error
	Unregister(accel string) error
	Close() error
}

// Modifier is a bit set of modifier keys.
type Modifier uint8

const (
	ModShift Modifier = 1 << iota
	ModCtrl
	ModAlt
	ModSuper
)

// Accelerator is a parsed hotkey such as "Ctrl+Shift+R".
type Accelerator struct {
	Mods Modifier
	// Key is the canonical key name: "A".."Z", "0".."9", "F1".."F12",
	// "Space", "Return", "Tab" or "Escape".
	Key string
}

func (a Accelerator) String() string {
	var parts []string
	for _, m := range []struct {
		mod  Modifier
		name string
	}{{ModCtrl, "Ctrl"}, {ModAlt, "Alt"}, {ModShift, "Shift"}, {ModSuper, "Super"}} {
		if a.Mods&m.mod != 0 {
			parts = append(parts, m.name)
		}
	}
	return strings.Join(append(parts, a.Key), "+")
}

var modifierNames = map[string]Modifier{
	"shift":   ModShift,
	"ctrl":    ModCtrl,
	"control": ModCtrl,
	"alt":     ModAlt,
	"option":  ModAlt,
	"opt":     ModAlt,
	"super":   ModSuper,
	"cmd":     ModSuper,
	"command": ModSuper,
	"meta":    ModSuper,
	"win":     ModSuper,
}

var namedKeys = map[string]string{
	"space":  "Space",
	"return": "Return",
	"enter":  "Return",
	"tab":    "Tab",
	"escape": "Escape",
	"esc":    "Escape",
}

// ParseAccelerator parses strings like "Alt+Space" or "cmd+shift+r".
// Exactly one non-modifier key is required.
func ParseAccelerator(accel string) (Accelerator, error) {
	var a Accelerator
	if strings.TrimSpace(accel) == "" {
		return a, fmt.Errorf("empty hotkey")
	}

	for _, part := range strings.Split(accel, "+") {
		part = strings.TrimSpace(part)
		if part == "" {
			return Accelerator{}, fmt.Errorf("hotkey %q: empty key", accel)
		}
		if mod, ok := modifierNames[strings.ToLower(part)]; ok {
			a.Mods |= mod
			continue
		}
		if a.Key != "" {
			return Accelerator{}, fmt.Errorf("hotkey %q: more than one key", accel)
		}
		key, ok := canonicalKey(part)
		if !ok {
			return Accelerator{}, fmt.Errorf("hotkey %q: unknown key %q", accel, part)
		}
		a.Key = key
	}

	if a.Key == "" {
		return Accelerator{}, fmt.Errorf("hotkey %q: no key", accel)
	}
	return a, nil
}

func canonicalKey(name string) (string, bool) {
	if key, ok := namedKeys[strings.ToLower(name)]; ok {
		return key, true
	}
	if len(name) == 1 {
		c := strings.ToUpper(name)[0]
		if (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') {
			return string(c), true
		}
		return "", false
	}
	upper := strings.ToUpper(name)
	if upper[0] == 'F' {
		var n int
		if _, err := fmt.Sscanf(upper, "F%d", &n); err == nil && n >= 1 && n <= 12 && upper == fmt.Sprintf("F%d", n) {
			return upper, true
		}
	}
	return "", false
}
