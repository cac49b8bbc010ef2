package permissions

import "errors"

var (
	ErrMicrophone    = errors.New("microphone permission not granted")
	ErrAccessibility = errors.New("accessibility permission not granted (System Settings → Privacy & Security → Accessibility)")
)
