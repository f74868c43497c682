package logfields

import (
	"log/slog"
	"testing"
	"time"
)

// TestHelperKeyNames verifies string-based helper key/value stability.
func TestHelperKeyNames(t *testing.T) {
	cases := []struct {
		name    string
		attrKey string
		attrVal string
		attr    slog.Attr
	}{
		{"Service", KeyService, "Reg", Service("Reg")},
		{"RunMode", KeyRunMode, "run_once", RunMode("run_once")},
		{"State", KeyState, "idle", State("idle")},
		{"Dependency", KeyDependency, "MsgEx", Dependency("MsgEx")},
		{"Decision", KeyDecision, "deep_sleep", Decision("deep_sleep")},
		{"Port", KeyPort, "/dev/ttyS2", Port("/dev/ttyS2")},
		{"Device", KeyDevice, "abc", Device("abc")},
		{"Callback", KeyCallback, "flush", Callback("flush")},
		{"Path", KeyPath, "/tmp/x", Path("/tmp/x")},
	}

	for _, tc := range cases {
		if tc.attr.Key != tc.attrKey {
			t.Fatalf("%s: expected key %s, got %s", tc.name, tc.attrKey, tc.attr.Key)
		}
		if got := tc.attr.Value.String(); got != tc.attrVal {
			t.Fatalf("%s: expected value %s, got %v", tc.name, tc.attrVal, got)
		}
	}
}

// TestNumericHelpers verifies keys and kinds for numeric helpers.
func TestNumericHelpers(t *testing.T) {
	if v := Attempt(3); v.Key != KeyAttempt || v.Value.Int64() != 3 {
		t.Fatalf("Attempt mismatch: %v", v)
	}
	if v := Opcode(0x61); v.Value.Int64() != 97 {
		t.Fatalf("Opcode value mismatch: %v", v)
	}
	if v := Seconds(0xFFFFFFFF); v.Value.Uint64() != 0xFFFFFFFF {
		t.Fatalf("Seconds value mismatch: %v", v)
	}
	if v := Horizon(5 * time.Second); v.Value.Duration() != 5*time.Second {
		t.Fatalf("Horizon value mismatch: %v", v)
	}
	if v := Connected(true); !v.Value.Bool() {
		t.Fatalf("Connected value mismatch: %v", v)
	}
}

// TestErrorHelper ensures Error() handles nil and non-nil errors predictably.
func TestErrorHelper(t *testing.T) {
	attr := Error(nil)
	if attr.Key != KeyError {
		t.Fatalf("Error key mismatch: %s", attr.Key)
	}
	if attr.Value.String() != "" {
		t.Fatalf("Expected empty error string, got %s", attr.Value.String())
	}
	attr = Error(errTest{})
	if attr.Value.String() != "err-test" {
		t.Fatalf("Expected 'err-test', got %s", attr.Value.String())
	}
}

type errTest struct{}

func (e errTest) Error() string { return "err-test" }
