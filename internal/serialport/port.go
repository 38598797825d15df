// internal/serialport/port.go
package serialport

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/goburrow/serial"
	"github.com/rs/zerolog"

	"github.com/tamzrod/witmotion-modbus/internal/fault"
)

// DefaultReadSlice is the blocking granularity of one OS read.
const DefaultReadSlice = 5 * time.Millisecond

var (
	ErrOpen   = fault.New(fault.KindTransport, "serialport: open failed")
	ErrClosed = fault.New(fault.KindTransport, "serialport: port closed")
)

// Config describes the serial line. Zero values mean 8N1.
type Config struct {
	Device   string
	BaudRate int
	DataBits int
	StopBits int
	Parity   string
	RS485    bool

	// ReadSlice bounds a single OS read so deadlines are honoured.
	ReadSlice time.Duration

	Logger zerolog.Logger
}

func (c Config) serial() *serial.Config {
	sc := &serial.Config{
		Address:  c.Device,
		BaudRate: c.BaudRate,
		DataBits: c.DataBits,
		StopBits: c.StopBits,
		Parity:   c.Parity,
		Timeout:  c.ReadSlice,
	}
	if sc.DataBits == 0 {
		sc.DataBits = 8
	}
	if sc.StopBits == 0 {
		sc.StopBits = 1
	}
	if sc.Parity == "" {
		sc.Parity = "N"
	}
	if sc.Timeout <= 0 {
		sc.Timeout = DefaultReadSlice
	}
	sc.RS485.Enabled = c.RS485
	return sc
}

// Port is a serial line usable as an rtu.Channel.
// The line can be reopened at another speed in place.
type Port struct {
	mu   sync.Mutex
	cfg  Config
	port serial.Port
	log  zerolog.Logger

	open func(*serial.Config) (serial.Port, error)
}

// Open opens the device described by cfg.
func Open(cfg Config) (*Port, error) {
	return openWith(cfg, serial.Open)
}

func openWith(cfg Config, open func(*serial.Config) (serial.Port, error)) (*Port, error) {
	if cfg.Device == "" {
		return nil, fmt.Errorf("%w: empty device path", ErrOpen)
	}
	if cfg.BaudRate <= 0 {
		return nil, fmt.Errorf("%w: invalid baud rate %d", ErrOpen, cfg.BaudRate)
	}

	p := &Port{cfg: cfg, log: cfg.Logger, open: open}
	if err := p.reopen(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Port) reopen() error {
	sc := p.cfg.serial()
	port, err := p.open(sc)
	if err != nil {
		return fmt.Errorf("%w: %s at %d baud: %v", ErrOpen, sc.Address, sc.BaudRate, err)
	}
	p.port = port

	p.log.Debug().
		Str("device", sc.Address).
		Int("baud", sc.BaudRate).
		Msg("serial port opened")
	return nil
}

// Write sends b in full or reports how much went out.
func (p *Port) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.port == nil {
		return 0, ErrClosed
	}
	return p.port.Write(b)
}

// ReadUntil returns the first bytes that arrive before deadline,
// or 0, nil when none do.
func (p *Port) ReadUntil(b []byte, deadline time.Time) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.port == nil {
		return 0, ErrClosed
	}
	for time.Now().Before(deadline) {
		n, err := p.port.Read(b)
		if n > 0 {
			return n, nil
		}
		if err != nil && !errors.Is(err, serial.ErrTimeout) {
			return 0, err
		}
	}
	return 0, nil
}

// maxDiscard bounds one drain on a line that never goes quiet.
const maxDiscard = 1024

// DiscardInput drains bytes left over from an earlier exchange.
func (p *Port) DiscardInput() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.port == nil {
		return ErrClosed
	}

	var scratch [64]byte
	dropped := 0
	for dropped < maxDiscard {
		n, err := p.port.Read(scratch[:])
		if errors.Is(err, serial.ErrTimeout) || (n == 0 && err == nil) {
			break
		}
		if err != nil {
			return err
		}
		dropped += n
	}
	if dropped > 0 {
		p.log.Trace().Int("bytes", dropped).Msg("discarded stale input")
	}
	return nil
}

// BaudRate is the current line speed.
func (p *Port) BaudRate() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cfg.BaudRate
}

// SetBaudRate reopens the line at baud. It is a no-op at the current speed.
func (p *Port) SetBaudRate(baud int) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if baud <= 0 {
		return fmt.Errorf("%w: invalid baud rate %d", ErrOpen, baud)
	}
	if p.port != nil && baud == p.cfg.BaudRate {
		return nil
	}
	if p.port != nil {
		_ = p.port.Close()
		p.port = nil
	}
	p.cfg.BaudRate = baud
	return p.reopen()
}

// Close releases the device. Further calls fail with ErrClosed.
func (p *Port) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.port == nil {
		return nil
	}
	err := p.port.Close()
	p.port = nil
	return err
}
