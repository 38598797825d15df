// internal/fault/fault_test.go
package fault

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOf_Wrapped(t *testing.T) {
	sentinel := New(KindTiming, "x: timeout")
	err := fmt.Errorf("attempt 3: %w", sentinel)

	if got := KindOf(err); got != KindTiming {
		t.Fatalf("KindOf: got=%v want=%v", got, KindTiming)
	}
	if !errors.Is(err, sentinel) {
		t.Fatalf("errors.Is lost the sentinel")
	}
	if !Is(err, KindTiming) {
		t.Fatalf("Is(KindTiming) = false")
	}
}

func TestKindOf_Plain(t *testing.T) {
	if got := KindOf(errors.New("plain")); got != KindUnknown {
		t.Fatalf("got=%v want=unknown", got)
	}
	if got := KindOf(nil); got != KindUnknown {
		t.Fatalf("nil: got=%v want=unknown", got)
	}
	if Is(nil, KindUnknown) {
		t.Fatalf("nil error must not match any kind")
	}
}

func TestKind_String(t *testing.T) {
	cases := map[Kind]string{
		KindProtocol:  "protocol",
		KindTransport: "transport",
		KindTiming:    "timing",
		KindConfig:    "config",
		KindDecode:    "decode",
		KindUnknown:   "unknown",
	}
	for k, want := range cases {
		if got := k.String(); got != want {
			t.Fatalf("Kind(%d).String() = %q, want %q", k, got, want)
		}
	}
}
