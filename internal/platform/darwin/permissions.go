//go:build darwin && cgo

package darwin

/*
#cgo CFLAGS: -x objective-c
#cgo LDFLAGS: -framework ApplicationServices -framework CoreGraphics -framework Foundation
#include <ApplicationServices/ApplicationServices.h>
#include <CoreGraphics/CoreGraphics.h>

static int ax_is_trusted() {
    return AXIsProcessTrusted();
}

// Check with the system prompt enabled. Shows the System Settings dialog
// the first time the process asks.
static int ax_request_trust() {
    CFStringRef keys[] = { kAXTrustedCheckOptionPrompt };
    CFTypeRef values[] = { kCFBooleanTrue };
    CFDictionaryRef options = CFDictionaryCreate(
        kCFAllocatorDefault,
        (const void **)keys, (const void **)values, 1,
        &kCFTypeDictionaryKeyCallBacks, &kCFTypeDictionaryValueCallBacks);
    int trusted = AXIsProcessTrustedWithOptions(options);
    CFRelease(options);
    return trusted;
}

static int cg_can_listen() {
    return CGPreflightListenEventAccess();
}

static int cg_request_listen() {
    return CGRequestListenEventAccess();
}
*/
import "C"

import "github.com/louis030195/bigbrother/internal/platform"

// DarwinPermissions implements platform.Permissions for macOS.
// Accessibility covers tree reads and input injection; input monitoring
// covers the CGEventTap used by recording.
type DarwinPermissions struct{}

// NewPermissions creates a new macOS permission checker.
func NewPermissions() *DarwinPermissions {
	return &DarwinPermissions{}
}

func (p *DarwinPermissions) Check() platform.PermissionStatus {
	return platform.PermissionStatus{
		Accessibility:   C.ax_is_trusted() != 0,
		InputMonitoring: C.cg_can_listen() != 0,
	}
}

func (p *DarwinPermissions) Request() platform.PermissionStatus {
	return platform.PermissionStatus{
		Accessibility:   C.ax_request_trust() != 0,
		InputMonitoring: C.cg_request_listen() != 0,
	}
}
