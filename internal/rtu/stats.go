// internal/rtu/stats.go
package rtu

import (
	"errors"
	"sync/atomic"
)

// Stats counts engine activity since creation.
type Stats struct {
	Transactions uint64
	Attempts     uint64
	Retries      uint64
	Timeouts     uint64
	CRCErrors    uint64
	FrameErrors  uint64
	Exceptions   uint64
	Broadcasts   uint64
}

type counters struct {
	transactions atomic.Uint64
	attempts     atomic.Uint64
	retries      atomic.Uint64
	timeouts     atomic.Uint64
	crcErrors    atomic.Uint64
	frameErrors  atomic.Uint64
	exceptions   atomic.Uint64
	broadcasts   atomic.Uint64
}

// observe files a failed attempt under one counter.
func (c *counters) observe(err error) {
	var exc *ExceptionError
	switch {
	case errors.Is(err, ErrTimeout):
		c.timeouts.Add(1)
	case errors.Is(err, ErrCRCMismatch):
		c.crcErrors.Add(1)
	case errors.As(err, &exc):
		c.exceptions.Add(1)
	case errors.Is(err, ErrFrameTooShort),
		errors.Is(err, ErrLengthMismatch),
		errors.Is(err, ErrAddressMismatch),
		errors.Is(err, ErrFunctionMismatch):
		c.frameErrors.Add(1)
	}
}

func (c *counters) snapshot() Stats {
	return Stats{
		Transactions: c.transactions.Load(),
		Attempts:     c.attempts.Load(),
		Retries:      c.retries.Load(),
		Timeouts:     c.timeouts.Load(),
		CRCErrors:    c.crcErrors.Load(),
		FrameErrors:  c.frameErrors.Load(),
		Exceptions:   c.exceptions.Load(),
		Broadcasts:   c.broadcasts.Load(),
	}
}
