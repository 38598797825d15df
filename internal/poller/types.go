// internal/poller/types.go
package poller

import (
	"time"

	"github.com/tamzrod/witmotion-modbus/internal/witmotion"
)

// Result is the outcome of one poll tick.
type Result struct {
	Seq uint64
	At  time.Time

	// RawErrorCode is the exception code the device answered with.
	// 0 means no exception; other failures leave it 0.
	RawErrorCode uint16

	Sample witmotion.Sample
	Err    error // non-nil means the tick failed
}

// OK reports whether the tick produced a sample.
func (r Result) OK() bool { return r.Err == nil }
