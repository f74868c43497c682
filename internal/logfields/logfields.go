package logfields

import (
	"log/slog"
	"time"
)

// Canonical log field name constants to avoid drift across packages.
const (
	KeyService    = "service"
	KeyRunMode    = "run_mode"
	KeyState      = "state"
	KeyDependency = "dependency"
	KeyHorizon    = "horizon"
	KeyDecision   = "decision"
	KeyAttempt    = "attempt"
	KeyAttempts   = "attempts"
	KeyOpcode     = "opcode"
	KeySeconds    = "seconds"
	KeyPort       = "port"
	KeyDevice     = "device_id"
	KeyMsgType    = "msg_type"
	KeyMsgSubtype = "msg_subtype"
	KeyConnected  = "connected"
	KeyCallback   = "callback"
	KeyPath       = "path"
	KeyDurationMS = "duration_ms"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func Service(name string) slog.Attr     { return slog.String(KeyService, name) }
func RunMode(m string) slog.Attr        { return slog.String(KeyRunMode, m) }
func State(s string) slog.Attr          { return slog.String(KeyState, s) }
func Dependency(name string) slog.Attr  { return slog.String(KeyDependency, name) }
func Horizon(d time.Duration) slog.Attr { return slog.Duration(KeyHorizon, d) }
func Decision(d string) slog.Attr       { return slog.String(KeyDecision, d) }
func Attempt(n int) slog.Attr           { return slog.Int(KeyAttempt, n) }
func Attempts(n int) slog.Attr          { return slog.Int(KeyAttempts, n) }
func Opcode(op byte) slog.Attr          { return slog.Int(KeyOpcode, int(op)) }
func Seconds(s uint32) slog.Attr        { return slog.Uint64(KeySeconds, uint64(s)) }
func Port(p string) slog.Attr           { return slog.String(KeyPort, p) }
func Device(id string) slog.Attr        { return slog.String(KeyDevice, id) }
func MsgType(t int) slog.Attr           { return slog.Int(KeyMsgType, t) }
func MsgSubtype(s int) slog.Attr        { return slog.Int(KeyMsgSubtype, s) }
func Connected(c bool) slog.Attr        { return slog.Bool(KeyConnected, c) }
func Callback(name string) slog.Attr    { return slog.String(KeyCallback, name) }
func Path(p string) slog.Attr           { return slog.String(KeyPath, p) }
func DurationMS(ms float64) slog.Attr   { return slog.Float64(KeyDurationMS, ms) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
