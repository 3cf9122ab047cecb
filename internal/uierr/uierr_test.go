package uierr

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
)

func TestCodeOf_Classified(t *testing.T) {
	err := New(ElementNotFound, "no match for role:btn")
	if got := CodeOf(err); got != ElementNotFound {
		t.Fatalf("expected element_not_found, got %s", got)
	}
}

func TestCodeOf_Wrapped(t *testing.T) {
	inner := Wrap(PermissionDenied, "accessibility not trusted", errors.New("AXIsProcessTrusted=0"))
	err := fmt.Errorf("startup: %w", inner)
	if got := CodeOf(err); got != PermissionDenied {
		t.Fatalf("expected permission_denied through wrapping, got %s", got)
	}
}

func TestCodeOf_Plain(t *testing.T) {
	if got := CodeOf(errors.New("boom")); got != Unknown {
		t.Fatalf("expected unknown for plain error, got %s", got)
	}
}

func TestAsError_WireShape(t *testing.T) {
	data, err := json.Marshal(AsError(New(Timeout, "waited 5s")))
	if err != nil {
		t.Fatal(err)
	}
	want := `{"code":"timeout","message":"waited 5s"}`
	if string(data) != want {
		t.Fatalf("wire shape mismatch:\n got %s\nwant %s", data, want)
	}
}

func TestWrap_EmptyMessageUsesCause(t *testing.T) {
	cause := errors.New("CGEventTapCreate failed")
	err := Wrap(PlatformError, "", cause)
	if err.Message != cause.Error() {
		t.Fatalf("expected message from cause, got %q", err.Message)
	}
	if !errors.Is(err, cause) {
		t.Fatal("cause not reachable via errors.Is")
	}
}
