//go:build darwin && cgo

package darwin

/*
#cgo CFLAGS: -x objective-c
#cgo LDFLAGS: -framework CoreGraphics -framework CoreFoundation -framework ApplicationServices
#include <CoreGraphics/CoreGraphics.h>
#include <CoreFoundation/CoreFoundation.h>

extern void goHookEvent(int kind, double x, double y, int button, int clicks,
                        long long modifiers, int dx, int dy,
                        unsigned short keycode, unsigned int ch, int hasChar);

static CFMachPortRef hookTap = NULL;
static CFRunLoopRef hookRunLoop = NULL;
static CFRunLoopSourceRef hookSource = NULL;

static CGEventRef hook_callback(CGEventTapProxy proxy, CGEventType type, CGEventRef event, void *info) {
    CGPoint loc = CGEventGetLocation(event);
    long long flags = (long long)CGEventGetFlags(event);

    switch (type) {
        case kCGEventMouseMoved:
        case kCGEventLeftMouseDragged:
        case kCGEventRightMouseDragged:
            goHookEvent(0, loc.x, loc.y, 0, 0, flags, 0, 0, 0, 0, 0);
            break;
        case kCGEventLeftMouseDown:
        case kCGEventRightMouseDown:
        case kCGEventOtherMouseDown: {
            int button = 0;
            if (type == kCGEventRightMouseDown) button = 1;
            else if (type == kCGEventOtherMouseDown) button = 2;
            int clicks = (int)CGEventGetIntegerValueField(event, kCGMouseEventClickState);
            goHookEvent(1, loc.x, loc.y, button, clicks, flags, 0, 0, 0, 0, 0);
            break;
        }
        case kCGEventScrollWheel: {
            int dy = (int)CGEventGetIntegerValueField(event, kCGScrollWheelEventDeltaAxis1);
            int dx = (int)CGEventGetIntegerValueField(event, kCGScrollWheelEventDeltaAxis2);
            goHookEvent(2, loc.x, loc.y, 0, 0, flags, dx, dy, 0, 0, 0);
            break;
        }
        case kCGEventKeyDown: {
            unsigned short keycode = (unsigned short)CGEventGetIntegerValueField(event, kCGKeyboardEventKeycode);
            UniChar chars[4];
            UniCharCount len = 0;
            CGEventKeyboardGetUnicodeString(event, 4, &len, chars);
            unsigned int ch = len > 0 ? chars[0] : 0;
            goHookEvent(3, loc.x, loc.y, 0, 0, flags, 0, 0, keycode, ch, len > 0 ? 1 : 0);
            break;
        }
        case kCGEventTapDisabledByTimeout:
            // Slow consumers get the tap disabled; re-enable and keep going.
            if (hookTap) CGEventTapEnable(hookTap, true);
            break;
        default:
            break;
    }
    // Listen-only tap; the event continues to the frontmost app untouched.
    return event;
}

// Create the tap on the calling thread. Must be followed by hook_loop()
// on the same thread.
int hook_prepare(void) {
    CGEventMask mask =
        CGEventMaskBit(kCGEventMouseMoved) |
        CGEventMaskBit(kCGEventLeftMouseDragged) |
        CGEventMaskBit(kCGEventRightMouseDragged) |
        CGEventMaskBit(kCGEventLeftMouseDown) |
        CGEventMaskBit(kCGEventRightMouseDown) |
        CGEventMaskBit(kCGEventOtherMouseDown) |
        CGEventMaskBit(kCGEventScrollWheel) |
        CGEventMaskBit(kCGEventKeyDown);

    hookTap = CGEventTapCreate(kCGHIDEventTap, kCGHeadInsertEventTap,
                               kCGEventTapOptionListenOnly, mask,
                               hook_callback, NULL);
    if (!hookTap) return -1;

    hookSource = CFMachPortCreateRunLoopSource(kCFAllocatorDefault, hookTap, 0);
    hookRunLoop = CFRunLoopGetCurrent();
    CFRunLoopAddSource(hookRunLoop, hookSource, kCFRunLoopCommonModes);
    CGEventTapEnable(hookTap, true);
    return 0;
}

void hook_loop(void) {
    CFRunLoopRun();

    CGEventTapEnable(hookTap, false);
    CFRunLoopRemoveSource(hookRunLoop, hookSource, kCFRunLoopCommonModes);
    CFRelease(hookSource);
    CFRelease(hookTap);
    hookSource = NULL;
    hookTap = NULL;
    hookRunLoop = NULL;
}

void hook_stop(void) {
    if (hookRunLoop) CFRunLoopStop(hookRunLoop);
}
*/
import "C"

import (
	"sync"

	"github.com/louis030195/bigbrother/internal/platform"
	"github.com/louis030195/bigbrother/internal/uierr"
)

// The tap callback carries no user data pointer that can legally hold a Go
// value, so the active callback lives in package state. One hook per
// process; Start fails when one is already running.
var (
	hookMu     sync.Mutex
	hookFn     func(platform.RawEvent)
	hookActive bool
)

// DarwinInputHook implements platform.InputHook using a listen-only
// CGEventTap on a dedicated OS thread.
type DarwinInputHook struct{}

// NewInputHook creates a new macOS input hook.
func NewInputHook() *DarwinInputHook {
	return &DarwinInputHook{}
}

func (h *DarwinInputHook) Start(fn func(platform.RawEvent)) error {
	hookMu.Lock()
	if hookActive {
		hookMu.Unlock()
		return uierr.New(uierr.PlatformError, "input hook already running")
	}
	hookFn = fn
	hookActive = true
	hookMu.Unlock()

	prepared := make(chan error, 1)
	go runHookLoop(prepared)

	if err := <-prepared; err != nil {
		hookMu.Lock()
		hookFn = nil
		hookActive = false
		hookMu.Unlock()
		return err
	}
	return nil
}

// Stop asks the tap's run loop to exit. Best-effort: a run loop parked in
// a native wait exits on its next wakeup.
func (h *DarwinInputHook) Stop() error {
	hookMu.Lock()
	defer hookMu.Unlock()
	if !hookActive {
		return nil
	}
	C.hook_stop()
	hookFn = nil
	hookActive = false
	return nil
}
