//go:build darwin && cgo

package darwin

/*
#include <CoreGraphics/CoreGraphics.h>

int hook_prepare(void);
void hook_loop(void);
*/
import "C"

import (
	"runtime"
	"unicode"

	"github.com/louis030195/bigbrother/internal/platform"
	"github.com/louis030195/bigbrother/internal/uierr"
)

// Modifier flags that make a keystroke a command rather than text input.
var commandModifiers = int64(C.kCGEventFlagMaskCommand) | int64(C.kCGEventFlagMaskControl)

// runHookLoop hosts the event tap. CGEventTap delivery is bound to the
// run loop of the creating thread, so both creation and the loop stay on
// one locked OS thread.
func runHookLoop(prepared chan<- error) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if C.hook_prepare() != 0 {
		prepared <- uierr.New(uierr.PermissionDenied,
			"failed to create event tap; grant Input Monitoring permission in System Settings > Privacy & Security")
		return
	}
	prepared <- nil
	C.hook_loop()
}

//export goHookEvent
func goHookEvent(kind C.int, x, y C.double, button, clicks C.int,
	modifiers C.longlong, dx, dy C.int,
	keycode C.ushort, ch C.uint, hasChar C.int) {

	hookMu.Lock()
	fn := hookFn
	hookMu.Unlock()
	if fn == nil {
		return
	}

	ev := platform.RawEvent{
		X:         float64(x),
		Y:         float64(y),
		Button:    int(button),
		Clicks:    int(clicks),
		Modifiers: int(modifiers),
		DX:        int(dx),
		DY:        int(dy),
		KeyCode:   uint16(keycode),
	}

	switch kind {
	case 0:
		ev.Kind = platform.RawMove
	case 1:
		ev.Kind = platform.RawButtonDown
	case 2:
		ev.Kind = platform.RawScroll
	case 3:
		ev.Kind = platform.RawKeyDown
		if hasChar != 0 && int64(modifiers)&commandModifiers == 0 {
			r := rune(ch)
			if unicode.IsPrint(r) {
				ev.Char = r
				ev.Printable = true
			}
		}
	default:
		return
	}
	fn(ev)
}
