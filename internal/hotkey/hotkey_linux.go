//go:build linux

package hotkey

/*
#cgo pkg-config: x11 xtst
#include <X11/Xlib.h>
#include <X11/keysym.h>
#include <X11/extensions/XTest.h>
#include <stdlib.h>

Display* displayPtr = NULL;

int openDisplay() {
    if (displayPtr == NULL) {
        displayPtr = XOpenDisplay(NULL);
    }
    return displayPtr != NULL;
}

int keycodeFor(const char* name) {
    if (!openDisplay()) return 0;
    KeySym sym = XStringToKeysym(name);
    if (sym == NoSymbol) return 0;
    return XKeysymToKeycode(displayPtr, sym);
}

int grabKey(int keycode, int modifiers) {
    if (!openDisplay()) return 0;

    Window root = DefaultRootWindow(displayPtr);
    XGrabKey(displayPtr, keycode, modifiers, root, False, GrabModeAsync, GrabModeAsync);
    XSelectInput(displayPtr, root, KeyPressMask | KeyReleaseMask);
    XSync(displayPtr, False);

    return 1;
}

void ungrabKey(int keycode, int modifiers) {
    if (displayPtr == NULL) return;
    XUngrabKey(displayPtr, keycode, modifiers, DefaultRootWindow(displayPtr));
    XSync(displayPtr, False);
}

int checkEvent(int* keycode, int* pressed) {
    if (displayPtr == NULL) return 0;

    XEvent event;
    if (XPending(displayPtr) > 0) {
        XNextEvent(displayPtr, &event);
        if (event.type == KeyPress || event.type == KeyRelease) {
            *keycode = event.xkey.keycode;
            *pressed = (event.type == KeyPress) ? 1 : 0;
            return 1;
        }
    }
    return 0;
}
*/
import "C"

import (
	"fmt"
	"strings"
	"sync"
	"time"
	"unsafe"
)

type grab struct {
	keycode   int
	modifiers int
}

type linuxManager struct {
	mu        sync.Mutex
	callbacks map[int]func(bool)
	grabs     map[string]grab
	stop      chan struct{}
	closeOnce sync.Once
}

// New creates a new Linux hotkey manager using X11
func New() (Manager, error) {
	mgr := &linuxManager{
		callbacks: make(map[int]func(bool)),
		grabs:     make(map[string]grab),
		stop:      make(chan struct{}),
	}

	go mgr.eventLoop()

	return mgr, nil
}

// x11Modifiers maps modifiers to X11 masks (ShiftMask, ControlMask,
// Mod1Mask, Mod4Mask).
func x11Modifiers(mods Modifier) int {
	var mask int
	if mods&ModShift != 0 {
		mask |= 1
	}
	if mods&ModCtrl != 0 {
		mask |= 4
	}
	if mods&ModAlt != 0 {
		mask |= 8
	}
	if mods&ModSuper != 0 {
		mask |= 64
	}
	return mask
}

// x11KeysymName returns the keysym name XStringToKeysym expects.
func x11KeysymName(key string) string {
	switch key {
	case "Space":
		return "space"
	case "Return", "Tab", "Escape":
		return key
	}
	if len(key) == 1 {
		return strings.ToLower(key)
	}
	return key
}

func (m *linuxManager) Register(accel string, callback func(pressed bool)) error {
	a, err := ParseAccelerator(accel)
	if err != nil {
		return err
	}

	name := C.CString(x11KeysymName(a.Key))
	defer C.free(unsafe.Pointer(name))

	keycode := int(C.keycodeFor(name))
	if keycode == 0 {
		return fmt.Errorf("no keycode for %s", a.Key)
	}
	modifiers := x11Modifiers(a.Mods)

	ret := C.grabKey(C.int(keycode), C.int(modifiers))
	if ret == 0 {
		return fmt.Errorf("failed to grab key")
	}

	m.mu.Lock()
	m.callbacks[keycode] = callback
	m.grabs[accel] = grab{keycode: keycode, modifiers: modifiers}
	m.mu.Unlock()
	return nil
}

func (m *linuxManager) eventLoop() {
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			var keycode, pressed C.int
			if C.checkEvent(&keycode, &pressed) != 0 {
				m.mu.Lock()
				cb, ok := m.callbacks[int(keycode)]
				m.mu.Unlock()
				if ok {
					cb(pressed == 1)
				}
			}
		}
	}
}

func (m *linuxManager) Unregister(accel string) error {
	m.mu.Lock()
	g, ok := m.grabs[accel]
	if ok {
		delete(m.grabs, accel)
		delete(m.callbacks, g.keycode)
	}
	m.mu.Unlock()

	if !ok {
		return fmt.Errorf("hotkey %q not registered", accel)
	}
	C.ungrabKey(C.int(g.keycode), C.int(g.modifiers))
	return nil
}

func (m *linuxManager) Close() error {
	m.closeOnce.Do(func() { close(m.stop) })
	return nil
}
