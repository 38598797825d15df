// internal/status/tracker.go
package status

import (
	"errors"
	"time"

	"github.com/tamzrod/witmotion-modbus/internal/fault"
)

// Tracker folds poll outcomes and the 1 Hz clock into a Snapshot.
// It is owned by a single goroutine.
type Tracker struct {
	snap       Snapshot
	staleAfter time.Duration
	lastOK     time.Time
}

// NewTracker starts in HealthUnknown. A staleAfter of zero disables
// stale detection.
func NewTracker(staleAfter time.Duration) *Tracker {
	return &Tracker{
		snap:       Snapshot{Health: HealthUnknown},
		staleAfter: staleAfter,
	}
}

// Snapshot returns the current state.
func (t *Tracker) Snapshot() Snapshot { return t.snap }

// Observe records one poll outcome and reports whether the snapshot changed.
func (t *Tracker) Observe(err error, at time.Time) (Snapshot, bool) {
	prev := t.snap

	if err == nil {
		t.lastOK = at
		// Recovery resets error state.
		t.snap = Snapshot{Health: HealthOK}
		return t.snap, t.snap != prev
	}

	t.snap.Health = HealthError
	t.snap.LastErrorCode = ErrorCode(err)
	// seconds_in_error only advances on Tick.
	return t.snap, t.snap != prev
}

// Tick advances the 1 Hz clock.
func (t *Tracker) Tick(now time.Time) (Snapshot, bool) {
	prev := t.snap

	if t.snap.Health == HealthOK && t.staleAfter > 0 && now.Sub(t.lastOK) > t.staleAfter {
		t.snap.Health = HealthStale
	}
	if t.snap.Health != HealthOK && t.snap.Health != HealthUnknown && t.snap.Health != HealthDisabled {
		if t.snap.SecondsInError < MaxSecondsInError {
			t.snap.SecondsInError++
		}
	}
	return t.snap, t.snap != prev
}

// Disable marks the sensor as no longer polled.
func (t *Tracker) Disable() Snapshot {
	t.snap.Health = HealthDisabled
	return t.snap
}

// ErrorCode extracts a best-effort uint16 code from an error without assuming concrete types.
// Device exception codes pass through; local failures map by fault kind.
func ErrorCode(err error) uint16 {
	if err == nil {
		return 0
	}

	type coder interface{ ModbusCode() uint16 }

	var c coder
	if errors.As(err, &c) {
		return c.ModbusCode()
	}

	switch fault.KindOf(err) {
	case fault.KindTiming:
		return CodeTiming
	case fault.KindProtocol:
		return CodeProtocol
	case fault.KindTransport:
		return CodeTransport
	case fault.KindDecode:
		return CodeDecode
	case fault.KindConfig:
		return CodeConfig
	}
	return CodeGeneric
}
