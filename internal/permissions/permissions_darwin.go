//go:build darwin

package permissions

/*
#cgo LDFLAGS: -framework AVFoundation -framework Cocoa
#import <AVFoundation/AVFoundation.h>
#import <Cocoa/Cocoa.h>

int checkMicrophonePermission() {
    AVAuthorizationStatus status = [AVCaptureDevice authorizationStatusForMediaType:AVMediaTypeAudio];
    return (int)status;
}

void requestMicrophonePermission() {
    [AVCaptureDevice requestAccessForMediaType:AVMediaTypeAudio completionHandler:^(BOOL granted) {}];
}

int checkAccessibilityPermission() {
    NSDictionary *options = @{(__bridge id)kAXTrustedCheckOptionPrompt: @YES};
    return AXIsProcessTrustedWithOptions((__bridge CFDictionaryRef)options) ? 1 : 0;
}
*/
import "C"

const (
	PermissionNotDetermined = 0
	PermissionRestricted    = 1
	PermissionDenied        = 2
	PermissionAuthorized    = 3
)

// CheckMicrophone returns the current microphone permission status
func CheckMicrophone() int {
	return int(C.checkMicrophonePermission())
}

// RequestMicrophone triggers the system microphone permission dialog
func RequestMicrophone() {
	C.requestMicrophonePermission()
}

// CheckAccessibility reports whether the app may register global hotkeys.
// The system shows its own prompt when it may not.
func CheckAccessibility() bool {
	return int(C.checkAccessibilityPermission()) == 1
}

// EnsureMicrophone requests microphone access if it has not been granted.
func EnsureMicrophone() error {
	switch CheckMicrophone() {
	case PermissionAuthorized:
		return nil
	case PermissionNotDetermined:
		RequestMicrophone()
	}
	return ErrMicrophone
}

// EnsureAccessibility checks the accessibility permission hotkeys need.
func EnsureAccessibility() error {
	if !CheckAccessibility() {
		return ErrAccessibility
	}
	return nil
}
