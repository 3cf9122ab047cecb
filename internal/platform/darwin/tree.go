//go:build darwin && cgo

package darwin

/*
#cgo CFLAGS: -x objective-c
#cgo LDFLAGS: -framework ApplicationServices -framework CoreFoundation -framework Foundation -framework AppKit
#include <ApplicationServices/ApplicationServices.h>
#include <stdlib.h>
#include <string.h>
#import <AppKit/AppKit.h>

typedef struct {
    pid_t pid;
    char *name;
} RunningApp;

// List regular (activationPolicy == regular) running applications.
// Caller frees with ws_free_apps.
static int ws_list_apps(RunningApp **outApps, int *outCount) {
    @autoreleasepool {
        NSArray<NSRunningApplication *> *apps = [[NSWorkspace sharedWorkspace] runningApplications];
        RunningApp *result = malloc(sizeof(RunningApp) * [apps count]);
        if (!result) return -1;
        int n = 0;
        for (NSRunningApplication *app in apps) {
            if ([app activationPolicy] != NSApplicationActivationPolicyRegular) continue;
            NSString *name = [app localizedName];
            result[n].pid = [app processIdentifier];
            result[n].name = strdup(name ? [name UTF8String] : "");
            n++;
        }
        *outApps = result;
        *outCount = n;
        return 0;
    }
}

static void ws_free_apps(RunningApp *apps, int count) {
    for (int i = 0; i < count; i++) {
        free(apps[i].name);
    }
    free(apps);
}

static AXUIElementRef ax_app_element(pid_t pid) {
    return AXUIElementCreateApplication(pid);
}

// Copy a string-valued attribute into a malloc'd UTF-8 buffer.
// Returns 0 on success, 1 when the attribute is missing or not a string,
// -1 on API error.
static int ax_copy_string_attr(AXUIElementRef el, const char *attr, char **out) {
    CFStringRef attrName = CFStringCreateWithCString(kCFAllocatorDefault, attr, kCFStringEncodingUTF8);
    CFTypeRef value = NULL;
    AXError err = AXUIElementCopyAttributeValue(el, attrName, &value);
    CFRelease(attrName);
    if (err == kAXErrorNoValue || err == kAXErrorAttributeUnsupported) return 1;
    if (err != kAXErrorSuccess || !value) return -1;

    char *copied = NULL;
    if (CFGetTypeID(value) == CFStringGetTypeID()) {
        CFStringRef str = (CFStringRef)value;
        CFIndex maxLen = CFStringGetMaximumSizeForEncoding(CFStringGetLength(str), kCFStringEncodingUTF8) + 1;
        copied = malloc(maxLen);
        if (!CFStringGetCString(str, copied, maxLen, kCFStringEncodingUTF8)) {
            free(copied);
            copied = NULL;
        }
    } else if (CFGetTypeID(value) == CFNumberGetTypeID()) {
        double num = 0;
        CFNumberGetValue((CFNumberRef)value, kCFNumberDoubleType, &num);
        copied = malloc(64);
        snprintf(copied, 64, "%g", num);
    }
    CFRelease(value);
    if (!copied) return 1;
    *out = copied;
    return 0;
}

// Copy the element's children into a malloc'd array of retained refs.
// Caller releases each ref and frees the array.
static int ax_copy_children(AXUIElementRef el, AXUIElementRef **out, int *outCount) {
    CFTypeRef value = NULL;
    AXError err = AXUIElementCopyAttributeValue(el, kAXChildrenAttribute, &value);
    if (err == kAXErrorNoValue || err == kAXErrorAttributeUnsupported) {
        *outCount = 0;
        return 0;
    }
    if (err != kAXErrorSuccess || !value || CFGetTypeID(value) != CFArrayGetTypeID()) {
        if (value) CFRelease(value);
        return -1;
    }
    CFArrayRef arr = (CFArrayRef)value;
    CFIndex count = CFArrayGetCount(arr);
    AXUIElementRef *result = malloc(sizeof(AXUIElementRef) * (count > 0 ? count : 1));
    for (CFIndex i = 0; i < count; i++) {
        AXUIElementRef child = (AXUIElementRef)CFArrayGetValueAtIndex(arr, i);
        CFRetain(child);
        result[i] = child;
    }
    CFRelease(arr);
    *out = result;
    *outCount = (int)count;
    return 0;
}

static int ax_get_bounds(AXUIElementRef el, float *x, float *y, float *w, float *h) {
    CFTypeRef posValue = NULL, sizeValue = NULL;
    if (AXUIElementCopyAttributeValue(el, kAXPositionAttribute, &posValue) != kAXErrorSuccess) return -1;
    if (AXUIElementCopyAttributeValue(el, kAXSizeAttribute, &sizeValue) != kAXErrorSuccess) {
        CFRelease(posValue);
        return -1;
    }
    CGPoint pos;
    CGSize size;
    AXValueGetValue((AXValueRef)posValue, kAXValueTypeCGPoint, &pos);
    AXValueGetValue((AXValueRef)sizeValue, kAXValueTypeCGSize, &size);
    CFRelease(posValue);
    CFRelease(sizeValue);
    *x = pos.x;
    *y = pos.y;
    *w = size.width;
    *h = size.height;
    return 0;
}

static int ax_focus(AXUIElementRef el) {
    AXError err = AXUIElementSetAttributeValue(el, kAXFocusedAttribute, kCFBooleanTrue);
    if (err != kAXErrorSuccess) {
        // Fall back to raising the element (works for windows).
        err = AXUIElementPerformAction(el, kAXRaiseAction);
    }
    return err == kAXErrorSuccess ? 0 : -1;
}

static void ax_release(AXUIElementRef el) {
    if (el) CFRelease(el);
}
*/
import "C"

import (
	"runtime"
	"strings"
	"unsafe"

	"github.com/louis030195/bigbrother/internal/platform"
	"github.com/louis030195/bigbrother/internal/uierr"
)

// axAttrNames maps the portable attribute names onto AX attribute constants.
var axAttrNames = map[platform.Attr]string{
	platform.AttrRole:        "AXRole",
	platform.AttrTitle:       "AXTitle",
	platform.AttrValue:       "AXValue",
	platform.AttrDescription: "AXDescription",
}

// axNode wraps a retained AXUIElementRef as a platform.Node. The ref is
// released by a finalizer; nodes are short-lived traversal handles, never
// persisted.
type axNode struct {
	ref C.AXUIElementRef
}

func newAXNode(ref C.AXUIElementRef) *axNode {
	n := &axNode{ref: ref}
	runtime.SetFinalizer(n, func(n *axNode) {
		C.ax_release(n.ref)
	})
	return n
}

func (n *axNode) Attr(a platform.Attr) (string, error) {
	axName, ok := axAttrNames[a]
	if !ok {
		return "", uierr.Newf(uierr.PlatformError, "unknown attribute %q", a)
	}
	cName := C.CString(axName)
	defer C.free(unsafe.Pointer(cName))

	var out *C.char
	rc := C.ax_copy_string_attr(n.ref, cName, &out)
	runtime.KeepAlive(n)
	switch rc {
	case 0:
		s := C.GoString(out)
		C.free(unsafe.Pointer(out))
		return s, nil
	case 1:
		return "", uierr.Newf(uierr.PlatformError, "attribute %q not present", a)
	default:
		return "", uierr.Newf(uierr.PlatformError, "failed to read attribute %q", a)
	}
}

func (n *axNode) Children() ([]platform.Node, error) {
	var refs *C.AXUIElementRef
	var count C.int
	if C.ax_copy_children(n.ref, &refs, &count) != 0 {
		runtime.KeepAlive(n)
		return nil, uierr.New(uierr.PlatformError, "failed to enumerate children")
	}
	runtime.KeepAlive(n)
	if count == 0 {
		return nil, nil
	}
	defer C.free(unsafe.Pointer(refs))

	slice := unsafe.Slice(refs, int(count))
	children := make([]platform.Node, int(count))
	for i, ref := range slice {
		children[i] = newAXNode(ref)
	}
	return children, nil
}

func (n *axNode) Bounds() (platform.Bounds, error) {
	var x, y, w, h C.float
	rc := C.ax_get_bounds(n.ref, &x, &y, &w, &h)
	runtime.KeepAlive(n)
	if rc != 0 {
		return platform.Bounds{}, uierr.New(uierr.PlatformError, "element has no screen bounds")
	}
	return platform.Bounds{X: int(x), Y: int(y), Width: int(w), Height: int(h)}, nil
}

func (n *axNode) Focus() error {
	rc := C.ax_focus(n.ref)
	runtime.KeepAlive(n)
	if rc != 0 {
		return uierr.New(uierr.PlatformError, "failed to focus element")
	}
	return nil
}

// desktopNode is a synthetic root whose children are the accessibility
// roots of every regular running application. The system-wide AX element
// does not expose children, so the desktop is assembled from the process
// list instead.
type desktopNode struct{}

func (d *desktopNode) Attr(a platform.Attr) (string, error) {
	if a == platform.AttrRole {
		return "AXDesktop", nil
	}
	return "", uierr.Newf(uierr.PlatformError, "attribute %q not present", a)
}

func (d *desktopNode) Children() ([]platform.Node, error) {
	apps, err := runningApps()
	if err != nil {
		return nil, err
	}
	children := make([]platform.Node, 0, len(apps))
	for _, app := range apps {
		children = append(children, newAXNode(C.ax_app_element(C.pid_t(app.PID))))
	}
	return children, nil
}

func (d *desktopNode) Bounds() (platform.Bounds, error) {
	return platform.Bounds{}, uierr.New(uierr.PlatformError, "desktop root has no bounds")
}

func (d *desktopNode) Focus() error {
	return uierr.New(uierr.PlatformError, "desktop root cannot be focused")
}

// DarwinTree implements the platform.Tree interface for macOS.
type DarwinTree struct{}

// NewTree creates a new macOS accessibility tree.
func NewTree() *DarwinTree {
	return &DarwinTree{}
}

func (t *DarwinTree) Desktop() (platform.Node, error) {
	return &desktopNode{}, nil
}

func (t *DarwinTree) App(name string) (platform.Node, error) {
	apps, err := runningApps()
	if err != nil {
		return nil, err
	}
	for _, app := range apps {
		if strings.EqualFold(app.Name, name) {
			return newAXNode(C.ax_app_element(C.pid_t(app.PID))), nil
		}
	}
	return nil, uierr.Newf(uierr.ElementNotFound, "application %q is not running", name)
}

type runningApp struct {
	Name string
	PID  int
}

func runningApps() ([]runningApp, error) {
	var cApps *C.RunningApp
	var cCount C.int
	if C.ws_list_apps(&cApps, &cCount) != 0 {
		return nil, uierr.New(uierr.PlatformError, "failed to enumerate running applications")
	}
	defer C.ws_free_apps(cApps, cCount)

	count := int(cCount)
	if count == 0 {
		return nil, nil
	}
	slice := unsafe.Slice(cApps, count)
	apps := make([]runningApp, 0, count)
	for _, ca := range slice {
		apps = append(apps, runningApp{Name: C.GoString(ca.name), PID: int(ca.pid)})
	}
	return apps, nil
}
