package logfields

import (
	"errors"
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
		{"RunID", KeyRunID, "6f1c", RunID("6f1c")},
		{"Stage", KeyStage, "generating", Stage("generating")},
		{"State", KeyState, "done", State("done")},
		{"Version", KeyVersion, "1.2.3", Version("1.2.3")},
		{"Tool", KeyTool, "jazzy", Tool("jazzy")},
		{"ToolVersion", KeyToolVersion, "0.14.4", ToolVersion("0.14.4")},
		{"Path", KeyPath, "Documentation/html", Path("Documentation/html")},
		{"Rule", KeyRule, "version", Rule("version")},
	}

	for _, tc := range cases {
		if tc.attr.Key != tc.attrKey {
			// Key drift would break log ingestion schemas.
			t.Fatalf("%s: expected key %s, got %s", tc.name, tc.attrKey, tc.attr.Key)
		}
		if tc.attr.Value.String() != tc.attrVal {
			t.Fatalf("%s: expected value %s, got %s", tc.name, tc.attrVal, tc.attr.Value.String())
		}
	}
}

func TestNumericHelpers(t *testing.T) {
	if a := ExitCode(3); a.Key != KeyExitCode || a.Value.Int64() != 3 {
		t.Fatalf("unexpected ExitCode attr %v", a)
	}
	if a := Files(12); a.Key != KeyFiles || a.Value.Int64() != 12 {
		t.Fatalf("unexpected Files attr %v", a)
	}
	if a := Duration(1500 * time.Microsecond); a.Value.Float64() != 1.5 {
		t.Fatalf("unexpected Duration attr %v", a)
	}
}

func TestErrorHelper(t *testing.T) {
	if Error(nil).Value.String() != "" {
		t.Fatal("nil error should produce empty value")
	}
	if Error(errors.New("boom")).Value.String() != "boom" {
		t.Fatal("error message not preserved")
	}
}
