//go:build darwin && cgo

package darwin

/*
#cgo CFLAGS: -x objective-c
#cgo LDFLAGS: -framework ApplicationServices -framework Foundation -framework AppKit
#include <ApplicationServices/ApplicationServices.h>
#include <stdlib.h>
#include <string.h>
#import <AppKit/AppKit.h>

// Report the frontmost application's name and pid.
// Caller frees *outName.
static int ws_frontmost_app(char **outName, pid_t *outPid) {
    @autoreleasepool {
        NSRunningApplication *app = [[NSWorkspace sharedWorkspace] frontmostApplication];
        if (!app) return -1;
        NSString *name = [app localizedName];
        *outName = strdup(name ? [name UTF8String] : "");
        *outPid = [app processIdentifier];
        return 0;
    }
}

// Copy the title of the focused window of the given pid.
// Caller frees *outTitle. Returns 1 when there is no focused window.
static int ax_focused_window_title(pid_t pid, char **outTitle) {
    AXUIElementRef app = AXUIElementCreateApplication(pid);
    CFTypeRef window = NULL;
    AXError err = AXUIElementCopyAttributeValue(app, kAXFocusedWindowAttribute, &window);
    CFRelease(app);
    if (err != kAXErrorSuccess || !window) return 1;

    CFTypeRef title = NULL;
    err = AXUIElementCopyAttributeValue((AXUIElementRef)window, kAXTitleAttribute, &title);
    CFRelease(window);
    if (err != kAXErrorSuccess || !title || CFGetTypeID(title) != CFStringGetTypeID()) {
        if (title) CFRelease(title);
        return 1;
    }
    CFStringRef str = (CFStringRef)title;
    CFIndex maxLen = CFStringGetMaximumSizeForEncoding(CFStringGetLength(str), kCFStringEncodingUTF8) + 1;
    char *copied = malloc(maxLen);
    if (!CFStringGetCString(str, copied, maxLen, kCFStringEncodingUTF8)) {
        free(copied);
        CFRelease(title);
        return 1;
    }
    CFRelease(title);
    *outTitle = copied;
    return 0;
}

// Activate the named application (case-insensitive match on localized name).
static int ws_activate_app(const char *name) {
    @autoreleasepool {
        NSString *target = [NSString stringWithUTF8String:name];
        for (NSRunningApplication *app in [[NSWorkspace sharedWorkspace] runningApplications]) {
            NSString *appName = [app localizedName];
            if (appName && [appName caseInsensitiveCompare:target] == NSOrderedSame) {
                return [app activateWithOptions:NSApplicationActivateAllWindows] ? 0 : -1;
            }
        }
        return 1;
    }
}
*/
import "C"

import (
	"unsafe"

	"github.com/louis030195/bigbrother/internal/platform"
	"github.com/louis030195/bigbrother/internal/uierr"
)

// DarwinFocuser implements the platform.Focuser interface for macOS.
type DarwinFocuser struct{}

// NewFocuser creates a new macOS focuser.
func NewFocuser() *DarwinFocuser {
	return &DarwinFocuser{}
}

func (f *DarwinFocuser) FrontmostApp() (platform.AppInfo, error) {
	var cName *C.char
	var cPid C.pid_t
	if C.ws_frontmost_app(&cName, &cPid) != 0 {
		return platform.AppInfo{}, uierr.New(uierr.PlatformError, "no frontmost application")
	}
	info := platform.AppInfo{
		Name: C.GoString(cName),
		PID:  int(cPid),
	}
	C.free(unsafe.Pointer(cName))

	// Window title is best-effort; some apps expose no focused window.
	var cTitle *C.char
	if C.ax_focused_window_title(cPid, &cTitle) == 0 {
		info.Window = C.GoString(cTitle)
		C.free(unsafe.Pointer(cTitle))
	}
	return info, nil
}

func (f *DarwinFocuser) Activate(name string) error {
	cName := C.CString(name)
	defer C.free(unsafe.Pointer(cName))

	switch C.ws_activate_app(cName) {
	case 0:
		return nil
	case 1:
		return uierr.Newf(uierr.ElementNotFound, "application %q is not running", name)
	default:
		return uierr.Newf(uierr.PlatformError, "failed to activate %q", name)
	}
}
