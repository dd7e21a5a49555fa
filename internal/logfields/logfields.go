package logfields

import (
	"log/slog"
	"time"
)

// Canonical log field name constants to avoid drift across packages.
const (
	KeyRunID       = "run_id"
	KeyStage       = "stage"
	KeyState       = "state"
	KeyVersion     = "module_version"
	KeyTool        = "tool"
	KeyToolVersion = "tool_version"
	KeyExitCode    = "exit_code"
	KeyDurationMS  = "duration_ms"
	KeyPath        = "path"
	KeyFiles       = "files"
	KeyRule        = "rule"
	KeyError       = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func RunID(id string) slog.Attr          { return slog.String(KeyRunID, id) }
func Stage(name string) slog.Attr        { return slog.String(KeyStage, name) }
func State(s string) slog.Attr           { return slog.String(KeyState, s) }
func Version(v string) slog.Attr         { return slog.String(KeyVersion, v) }
func Tool(name string) slog.Attr         { return slog.String(KeyTool, name) }
func ToolVersion(v string) slog.Attr     { return slog.String(KeyToolVersion, v) }
func ExitCode(code int) slog.Attr        { return slog.Int(KeyExitCode, code) }
func Path(p string) slog.Attr            { return slog.String(KeyPath, p) }
func Files(n int) slog.Attr              { return slog.Int(KeyFiles, n) }
func Rule(name string) slog.Attr         { return slog.String(KeyRule, name) }
func Duration(d time.Duration) slog.Attr { return slog.Float64(KeyDurationMS, float64(d.Microseconds())/1000) }

func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
