// internal/rtu/engine.go
package rtu

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tamzrod/witmotion-modbus/internal/fault"
)

// Timing defaults.
const (
	DefaultTimeout = 200 * time.Millisecond

	// charBits is one 8N1 character on the wire: start + 8 data + stop.
	charBits = 10

	// silentIntervalFast is the fixed 3.5 character gap above 19200 baud.
	silentIntervalFast = 1750 * time.Microsecond

	// txMargin is added to the computed transmit time of a request.
	txMargin = 300 * time.Microsecond
)

//go:generate mockgen -destination=../mocks/channel_mock.go -package=mocks github.com/tamzrod/witmotion-modbus/internal/rtu Channel

// Channel is the half-duplex byte link the engine drives.
type Channel interface {
	Write(p []byte) (n int, err error)

	// ReadUntil reads whatever arrives before deadline.
	// It returns 0, nil when the deadline passes with nothing received.
	ReadUntil(p []byte, deadline time.Time) (n int, err error)

	// DiscardInput drops bytes already waiting on the receive side.
	DiscardInput() error
}

// baudReporter is implemented by channels that know their line speed.
type baudReporter interface {
	BaudRate() int
}

// Policy bounds one transaction.
type Policy struct {
	// Timeout is the per-attempt wait for a reply, counted from the end of
	// the request transmission.
	Timeout time.Duration

	// Retries is the number of extra attempts after the first.
	Retries int
}

func (p Policy) normalized() Policy {
	if p.Timeout <= 0 {
		p.Timeout = DefaultTimeout
	}
	if p.Retries < 0 {
		p.Retries = 0
	}
	return p
}

// Options configures an Engine.
type Options struct {
	// BaudRate is used for pacing when the channel does not report one.
	BaudRate int

	// Delay is the minimum idle time between the end of one transaction
	// and the next request. The 3.5 character silent interval is always
	// observed.
	Delay time.Duration

	Logger zerolog.Logger
}

// Engine runs request/response transactions over one Channel.
// Transactions are serialized: at most one is in flight.
type Engine struct {
	mu      sync.Mutex
	ch      Channel
	opts    Options
	log     zerolog.Logger
	lastEnd time.Time
	stats   counters
}

// NewEngine binds an engine to ch. The caller keeps ownership of ch.
func NewEngine(ch Channel, opts Options) *Engine {
	return &Engine{
		ch:   ch,
		opts: opts,
		log:  opts.Logger,
	}
}

// Execute sends req and returns the validated reply.
//
// Timeouts and malformed or corrupted replies are retried up to p.Retries
// times; the last error is returned once attempts run out. Exception
// replies and channel errors are returned at once. Broadcast requests
// return a synthetic Response{Broadcast: true} right after the write.
// ctx is consulted between attempts only; a started write is never cut.
func (e *Engine) Execute(ctx context.Context, req Request, p Policy) (Response, error) {
	frame, err := req.Encode()
	if err != nil {
		return Response{}, err
	}
	p = p.normalized()

	e.mu.Lock()
	defer e.mu.Unlock()

	e.stats.transactions.Add(1)

	if req.IsBroadcast() {
		if err := ctx.Err(); err != nil {
			return Response{}, err
		}
		e.stats.attempts.Add(1)
		e.pace()
		if err := e.ch.DiscardInput(); err != nil {
			e.lastEnd = time.Now()
			return Response{}, fmt.Errorf("%w: discard input: %v", ErrChannelRead, err)
		}
		err := e.send(frame)
		e.lastEnd = time.Now()
		if err != nil {
			return Response{}, err
		}
		e.stats.broadcasts.Add(1)
		return Response{Broadcast: true}, nil
	}

	var lastErr error
	for attempt := 0; attempt <= p.Retries; attempt++ {
		if err := ctx.Err(); err != nil {
			if lastErr != nil {
				return Response{}, fmt.Errorf("%w (last attempt: %v)", err, lastErr)
			}
			return Response{}, err
		}
		if attempt > 0 {
			e.stats.retries.Add(1)
		}
		e.stats.attempts.Add(1)

		resp, err := e.roundTrip(frame, req, p.Timeout)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		e.stats.observe(err)

		e.log.Debug().
			Uint8("address", req.Address).
			Uint16("start", req.Start).
			Int("attempt", attempt+1).
			Int("attempts", p.Retries+1).
			Str("kind", fault.KindOf(err).String()).
			Err(err).
			Msg("transaction attempt failed")

		if !Retryable(err) {
			return Response{}, err
		}
	}
	return Response{}, lastErr
}

// Retryable reports whether a failed attempt may be repeated.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	var exc *ExceptionError
	if errors.As(err, &exc) {
		return false
	}
	switch fault.KindOf(err) {
	case fault.KindTiming, fault.KindProtocol:
		return true
	default:
		return false
	}
}

// Stats returns a snapshot of the engine counters.
func (e *Engine) Stats() Stats {
	return e.stats.snapshot()
}

func (e *Engine) roundTrip(frame Frame, req Request, timeout time.Duration) (Response, error) {
	e.pace()

	if err := e.ch.DiscardInput(); err != nil {
		e.lastEnd = time.Now()
		return Response{}, fmt.Errorf("%w: discard input: %v", ErrChannelRead, err)
	}

	if err := e.send(frame); err != nil {
		e.lastEnd = time.Now()
		return Response{}, err
	}

	deadline := time.Now().Add(busTime(e.baudRate(), len(frame)) + timeout)
	resp, err := e.receive(req, deadline)
	e.lastEnd = time.Now()
	return resp, err
}

func (e *Engine) send(frame Frame) error {
	n, err := e.ch.Write(frame)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrChannelWrite, err)
	}
	if n != len(frame) {
		return fmt.Errorf("%w: wrote %d of %d bytes", ErrChannelWrite, n, len(frame))
	}
	return nil
}

// receive assembles the reply from partial reads until a frame is found
// or the deadline passes.
func (e *Engine) receive(req Request, deadline time.Time) (Response, error) {
	buf := make([]byte, 0, MaxFrameSize)
	chunk := make([]byte, MaxFrameSize)

	for {
		if len(buf) == MaxFrameSize {
			buf = resync(buf, req)
		}

		n, err := e.ch.ReadUntil(chunk[:MaxFrameSize-len(buf)], deadline)
		if n > 0 {
			buf = append(buf, chunk[:n]...)
			if resp, found, rerr := scan(buf, req); found {
				return resp, rerr
			}
		}
		if err != nil {
			return Response{}, fmt.Errorf("%w: %v", ErrChannelRead, err)
		}
		if !time.Now().Before(deadline) {
			if len(buf) == 0 {
				return Response{}, ErrTimeout
			}
			_, derr := DecodeResponse(buf, req)
			if derr == nil {
				derr = fmt.Errorf("%w: %d unframed bytes", ErrLengthMismatch, len(buf))
			}
			return Response{}, derr
		}
	}
}

// scan looks for the reply to req inside buf, skipping leading noise.
// found is true once a CRC-valid frame from the expected slave is seen;
// its decode result (which may be an exception) is returned.
func scan(buf []byte, req Request) (resp Response, found bool, err error) {
	for i := 0; i+1 < len(buf); i++ {
		if req.Address != BroadcastAddress && buf[i] != req.Address {
			continue
		}
		if buf[i+1]&^ExceptionFlag != req.Function {
			continue
		}
		size, known := frameSize(buf[i:])
		if !known || size < MinResponseSize || i+size > len(buf) {
			continue
		}
		f := Frame(buf[i : i+size])
		if !f.CheckCRC() {
			continue
		}
		resp, err = DecodeResponse(f, req)
		return resp, true, err
	}
	return Response{}, false, nil
}

// resync drops the bytes ahead of the next position where a reply to req
// could start. buf[0] is never a frame start here: any frame beginning at
// 0 fits in MaxFrameSize and has already been rejected by scan.
func resync(buf []byte, req Request) []byte {
	for i := 1; i < len(buf); i++ {
		if req.Address == BroadcastAddress || buf[i] == req.Address {
			return append(buf[:0], buf[i:]...)
		}
	}
	return buf[:0]
}

// pace waits out the inter-frame gap since the previous transaction.
func (e *Engine) pace() {
	if e.lastEnd.IsZero() {
		return
	}
	gap := silentInterval(e.baudRate())
	if e.opts.Delay > gap {
		gap = e.opts.Delay
	}
	if wait := gap - time.Since(e.lastEnd); wait > 0 {
		time.Sleep(wait)
	}
}

func (e *Engine) baudRate() int {
	if br, ok := e.ch.(baudReporter); ok {
		if b := br.BaudRate(); b > 0 {
			return b
		}
	}
	return e.opts.BaudRate
}

// silentInterval is the 3.5 character gap that delimits RTU frames.
func silentInterval(baud int) time.Duration {
	if baud <= 0 || baud > 19200 {
		return silentIntervalFast
	}
	return time.Duration(float64(time.Second) * 3.5 * charBits / float64(baud))
}

// busTime is the time needed to clock n bytes out at baud.
func busTime(baud, n int) time.Duration {
	if baud <= 0 {
		return txMargin
	}
	return time.Duration(int64(n)*charBits*int64(time.Second)/int64(baud)) + txMargin
}
