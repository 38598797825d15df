// internal/session/session.go

// Package session connects to one WitMotion sensor, settles the line speed
// and slave address, and hands out samples.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tamzrod/witmotion-modbus/internal/baud"
	"github.com/tamzrod/witmotion-modbus/internal/fault"
	"github.com/tamzrod/witmotion-modbus/internal/poller"
	"github.com/tamzrod/witmotion-modbus/internal/rtu"
	"github.com/tamzrod/witmotion-modbus/internal/serialport"
	"github.com/tamzrod/witmotion-modbus/internal/witmotion"
)

var (
	ErrClosed = fault.New(fault.KindConfig, "session: closed")
	ErrBusy   = fault.New(fault.KindConfig, "session: polling in progress")
)

// Port is the byte channel a session owns.
// *serialport.Port and *devicesim.Device satisfy it.
type Port interface {
	rtu.Channel
	SetBaudRate(baud int) error
	BaudRate() int
	Close() error
}

// Opener opens the device at an initial baud rate.
type Opener func(device string, baud int) (Port, error)

// Options is everything a session needs. Zero durations take defaults.
type Options struct {
	Device  string
	Address byte

	// BaudRate forces the line speed. 0 runs detection.
	BaudRate int

	Interval    time.Duration
	Timeout     time.Duration
	Retries     int
	Delay       time.Duration
	Temperature bool

	ProbeTimeout time.Duration
	ProbeRetries int
	Candidates   []int

	// Serial framing passed to the default opener.
	DataBits int
	StopBits int
	Parity   string
	RS485    bool

	// Open replaces the serial port, mainly for tests.
	Open Opener

	Logger zerolog.Logger
}

const DefaultInterval = 500 * time.Millisecond

// Session owns one port and the engine driving it.
type Session struct {
	id     string
	opts   Options
	log    zerolog.Logger
	port   Port
	engine *rtu.Engine

	mu       sync.Mutex
	detector *baud.Detector
	address  byte
	closed   bool
	cancel   context.CancelFunc
	done     chan struct{}
}

// Connect opens the port and settles baud rate and address.
// With no forced rate the candidates are probed in order; with a forced
// rate and the broadcast address one discovery read learns the address.
func Connect(ctx context.Context, opts Options) (*Session, error) {
	if opts.Device == "" && opts.Open == nil {
		return nil, fmt.Errorf("%w: device path required", rtu.ErrInvalidArgument)
	}
	if opts.BaudRate < 0 {
		return nil, fmt.Errorf("%w: baud rate %d", rtu.ErrInvalidArgument, opts.BaudRate)
	}
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Timeout <= 0 {
		opts.Timeout = rtu.DefaultTimeout
	}
	if len(opts.Candidates) == 0 {
		opts.Candidates = baud.DefaultCandidates
	}
	open := opts.Open
	if open == nil {
		open = serialOpener(opts)
	}

	id := uuid.NewString()
	log := opts.Logger.With().Str("session", id).Str("device", opts.Device).Logger()

	initial := opts.BaudRate
	if initial == 0 {
		initial = opts.Candidates[0]
	}
	port, err := open(opts.Device, initial)
	if err != nil {
		return nil, err
	}

	s := &Session{
		id:      id,
		opts:    opts,
		log:     log,
		port:    port,
		address: opts.Address,
		engine: rtu.NewEngine(port, rtu.Options{
			BaudRate: initial,
			Delay:    opts.Delay,
			Logger:   log,
		}),
	}

	if err := s.settle(ctx); err != nil {
		_ = port.Close()
		return nil, err
	}

	log.Info().
		Int("baud", s.port.BaudRate()).
		Uint8("address", s.address).
		Msg("sensor connected")
	return s, nil
}

func serialOpener(opts Options) Opener {
	return func(device string, rate int) (Port, error) {
		p, err := serialport.Open(serialport.Config{
			Device:   device,
			BaudRate: rate,
			DataBits: opts.DataBits,
			StopBits: opts.StopBits,
			Parity:   opts.Parity,
			RS485:    opts.RS485,
			Logger:   opts.Logger,
		})
		if err != nil {
			return nil, err
		}
		return p, nil
	}
}

// settle runs detection or address discovery as the options require.
func (s *Session) settle(ctx context.Context) error {
	if s.opts.BaudRate == 0 {
		res, err := s.newDetector().Detect(ctx)
		if err != nil {
			return err
		}
		s.address = res.Address
		return nil
	}

	if s.address != rtu.BroadcastAddress {
		return nil
	}
	addr, err := s.discover(ctx)
	if err != nil {
		return fmt.Errorf("session: address discovery at %d baud: %w", s.opts.BaudRate, err)
	}
	s.address = addr
	return nil
}

func (s *Session) newDetector() *baud.Detector {
	if s.detector == nil {
		s.detector = baud.New(s.port, s.engine, baud.Config{
			Address:    s.opts.Address,
			Candidates: s.opts.Candidates,
			Probe:      rtu.Policy{Timeout: s.opts.ProbeTimeout, Retries: s.opts.ProbeRetries},
			Logger:     s.log,
		})
	}
	return s.detector
}

func (s *Session) discover(ctx context.Context) (byte, error) {
	req := rtu.ReadRequest(rtu.BroadcastAddress, witmotion.RegAccX, 1)
	req.Discover = true

	resp, err := s.engine.Execute(ctx, req, s.policy())
	if err != nil {
		return 0, err
	}
	return resp.Address, nil
}

func (s *Session) policy() rtu.Policy {
	return rtu.Policy{Timeout: s.opts.Timeout, Retries: s.opts.Retries}
}

func (s *Session) window() (uint16, uint16) {
	if s.opts.Temperature {
		return witmotion.SampleStart, witmotion.SampleCountTemp
	}
	return witmotion.SampleStart, witmotion.SampleCount
}

// ID identifies the session in logs and published payloads.
func (s *Session) ID() string { return s.id }

// BaudRate is the line speed in use.
func (s *Session) BaudRate() int { return s.port.BaudRate() }

// Address is the resolved slave address.
func (s *Session) Address() byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.address
}

// Stats returns the transaction counters.
func (s *Session) Stats() rtu.Stats { return s.engine.Stats() }

// Poll starts the polling loop. The returned channel is closed once ctx
// ends or the session is closed. Only one loop runs at a time.
func (s *Session) Poll(ctx context.Context) (<-chan poller.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrClosed
	}
	if s.done != nil {
		return nil, ErrBusy
	}

	start, count := s.window()
	p, err := poller.New(poller.Config{
		Address:  s.address,
		Interval: s.opts.Interval,
		Start:    start,
		Count:    count,
		Policy:   s.policy(),
	}, s.engine, s.log)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	out := make(chan poller.Result)
	done := make(chan struct{})
	s.cancel, s.done = cancel, done

	go func() {
		defer close(done)
		defer close(out)
		p.Run(ctx, out)

		s.mu.Lock()
		if s.done == done {
			s.cancel, s.done = nil, nil
		}
		s.mu.Unlock()
		cancel()
	}()
	return out, nil
}

// ReadSample performs one read outside the polling loop.
func (s *Session) ReadSample(ctx context.Context) (witmotion.Sample, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return witmotion.Sample{}, ErrClosed
	}
	addr := s.address
	s.mu.Unlock()

	start, count := s.window()
	req := rtu.ReadRequest(addr, start, count)
	resp, err := s.engine.Execute(ctx, req, s.policy())
	if err != nil {
		return witmotion.Sample{}, err
	}
	return witmotion.Decode(req, resp, time.Now())
}

// WriteRegister writes one register and checks the echo.
func (s *Session) WriteRegister(ctx context.Context, reg, value uint16) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	addr := s.address
	s.mu.Unlock()

	_, err := s.engine.Execute(ctx, rtu.WriteRequest(addr, reg, value), s.policy())
	return err
}

// ChangeBaudRate reprograms the sensor to rate, follows it on the line and
// optionally saves the setting on the device.
func (s *Session) ChangeBaudRate(ctx context.Context, rate int, save bool) error {
	code, ok := witmotion.BaudCode(rate)
	if !ok {
		return fmt.Errorf("%w: unsupported device baud rate %d", rtu.ErrInvalidArgument, rate)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if s.done != nil {
		return ErrBusy
	}

	if err := s.write(ctx, witmotion.RegKey, witmotion.UnlockKey); err != nil {
		return err
	}
	if err := s.write(ctx, witmotion.RegBaud, code); err != nil {
		return err
	}

	if err := s.port.SetBaudRate(rate); err != nil {
		return err
	}
	if s.detector != nil {
		s.detector.Reset()
	}

	if save {
		if err := s.write(ctx, witmotion.RegKey, witmotion.UnlockKey); err != nil {
			return err
		}
		if err := s.write(ctx, witmotion.RegSave, 0); err != nil {
			return err
		}
	}

	s.log.Info().Int("baud", rate).Bool("saved", save).Msg("sensor baud rate changed")
	return nil
}

func (s *Session) write(ctx context.Context, reg, val uint16) error {
	if _, err := s.engine.Execute(ctx, rtu.WriteRequest(s.address, reg, val), s.policy()); err != nil {
		return fmt.Errorf("session: write 0x%02x: %w", reg, err)
	}
	return nil
}

// Redetect forgets the current rate and searches again.
// It is refused while polling.
func (s *Session) Redetect(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, ErrClosed
	}
	if s.done != nil {
		return 0, ErrBusy
	}

	d := s.newDetector()
	d.Reset()
	res, err := d.Detect(ctx)
	if err != nil {
		return 0, err
	}
	s.address = res.Address
	return res.BaudRate, nil
}

// Close stops polling and releases the port. It is safe to call twice.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	cancel, done := s.cancel, s.done
	s.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}

	err := s.port.Close()
	s.log.Debug().Msg("session closed")
	if err != nil && !errors.Is(err, serialport.ErrClosed) {
		return err
	}
	return nil
}
