// internal/baud/detector.go
package baud

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tamzrod/witmotion-modbus/internal/fault"
	"github.com/tamzrod/witmotion-modbus/internal/rtu"
	"github.com/tamzrod/witmotion-modbus/internal/witmotion"
)

// Probe defaults.
const (
	DefaultProbeTimeout = 100 * time.Millisecond
	DefaultProbeRetries = 1
)

var ErrBaudDetectionFailed = fault.New(fault.KindConfig, "baud: detection failed")

// DefaultCandidates is the search order. Common sensor rates come first.
var DefaultCandidates = []int{9600, 19200, 38400, 57600, 115200, 2400, 4800, 230400, 460800, 921600}

type State int

const (
	Idle State = iota
	Probing
	Found
	Exhausted
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Probing:
		return "probing"
	case Found:
		return "found"
	case Exhausted:
		return "exhausted"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Line is the part of the byte channel the detector reconfigures.
type Line interface {
	SetBaudRate(baud int) error
}

// Executor runs one transaction.
type Executor interface {
	Execute(ctx context.Context, req rtu.Request, p rtu.Policy) (rtu.Response, error)
}

type Config struct {
	// Address is the slave to probe. BroadcastAddress probes with a
	// discovery read and learns the address from the reply.
	Address byte

	Candidates []int
	Probe      rtu.Policy
	Logger     zerolog.Logger
}

// Result is what detection settled on.
type Result struct {
	BaudRate int
	Address  byte
}

// Detector searches the candidate rates for one the device answers at.
type Detector struct {
	mu      sync.Mutex
	line    Line
	exec    Executor
	cfg     Config
	log     zerolog.Logger
	state   State
	probing int
	result  Result
	lastErr error
}

func New(line Line, exec Executor, cfg Config) *Detector {
	if len(cfg.Candidates) == 0 {
		cfg.Candidates = DefaultCandidates
	}
	if cfg.Probe.Timeout <= 0 {
		cfg.Probe.Timeout = DefaultProbeTimeout
	}
	return &Detector{
		line: line,
		exec: exec,
		cfg:  cfg,
		log:  cfg.Logger,
	}
}

// State returns the current state and, while probing, the rate under test.
func (d *Detector) State() (State, int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state, d.probing
}

// Detect returns the cached result once Found. Otherwise it walks the
// candidate list once. A cancelled search returns to Idle; running out of
// candidates is terminal until Reset.
func (d *Detector) Detect(ctx context.Context) (Result, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	switch d.state {
	case Found:
		return d.result, nil
	case Exhausted:
		return Result{}, d.exhaustedErr()
	}

	for _, rate := range d.cfg.Candidates {
		if err := ctx.Err(); err != nil {
			d.state, d.probing = Idle, 0
			return Result{}, err
		}

		d.state, d.probing = Probing, rate
		addr, err := d.probe(ctx, rate)
		if err != nil {
			d.lastErr = err
			d.log.Debug().
				Int("baud", rate).
				Str("kind", fault.KindOf(err).String()).
				Err(err).
				Msg("no answer at rate")
			continue
		}

		d.state, d.probing = Found, 0
		d.result = Result{BaudRate: rate, Address: addr}
		d.log.Info().
			Int("baud", rate).
			Uint8("address", addr).
			Msg("baud rate detected")
		return d.result, nil
	}

	if err := ctx.Err(); err != nil {
		d.state, d.probing = Idle, 0
		return Result{}, err
	}
	d.state, d.probing = Exhausted, 0
	return Result{}, d.exhaustedErr()
}

func (d *Detector) probe(ctx context.Context, rate int) (byte, error) {
	if err := d.line.SetBaudRate(rate); err != nil {
		return 0, err
	}

	req := rtu.ReadRequest(d.cfg.Address, witmotion.RegAccX, 1)
	if d.cfg.Address == rtu.BroadcastAddress {
		req.Discover = true
	}

	resp, err := d.exec.Execute(ctx, req, d.cfg.Probe)
	if err != nil {
		return 0, err
	}
	return resp.Address, nil
}

func (d *Detector) exhaustedErr() error {
	if d.lastErr != nil {
		return fmt.Errorf("%w: %d rates tried, last: %v", ErrBaudDetectionFailed, len(d.cfg.Candidates), d.lastErr)
	}
	return fmt.Errorf("%w: %d rates tried", ErrBaudDetectionFailed, len(d.cfg.Candidates))
}

// Reset forgets any result so the next Detect searches again.
func (d *Detector) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.state, d.probing = Idle, 0
	d.result = Result{}
	d.lastErr = nil
}
