// internal/devicesim/device.go

// Package devicesim simulates a WitMotion sensor behind an RS485 line.
// It is driven through the same byte-channel methods as a serial port and
// frames its replies with goburrow/modbus's RTU packager.
package devicesim

import (
	"encoding/binary"
	"errors"
	"sync"
	"time"

	"github.com/goburrow/modbus"
)

// RegisterFileSize is the number of addressable registers.
const RegisterFileSize = 0x90

const (
	regBaud      = 0x04
	broadcastID  = 0xFF
	exceptionBit = 0x80
)

var ErrClosed = errors.New("devicesim: closed")

var baudByCode = map[uint16]int{
	1: 4800, 2: 9600, 3: 19200, 4: 38400, 5: 57600,
	6: 115200, 7: 230400, 8: 460800, 9: 921600,
}

// Options shape the simulated device and line.
type Options struct {
	// BaudRate is the speed the device listens at.
	BaudRate int
	Address  byte

	// LineBaudRate is the speed the host side starts at.
	LineBaudRate int

	// Silent devices never answer.
	Silent bool

	// Noise is sent ahead of every reply.
	Noise []byte

	// ChunkSize splits each reply into reads of at most this many bytes.
	ChunkSize int

	// ReplyDelay holds a reply back after the request is written.
	ReplyDelay time.Duration

	// Exception, when set, is returned for every read.
	Exception byte
}

// Device is a simulated sensor and the line leading to it.
type Device struct {
	mu   sync.Mutex
	opts Options
	pkg  *modbus.RTUClientHandler

	regs     [RegisterFileSize]uint16
	lineBaud int
	closed   bool

	pending [][]byte
	readyAt time.Time

	corrupt  int
	requests int
	answered int
}

// New builds a device with an all-zero register file.
func New(opts Options) *Device {
	if opts.LineBaudRate == 0 {
		opts.LineBaudRate = opts.BaudRate
	}
	return &Device{
		opts:     opts,
		pkg:      modbus.NewRTUClientHandler(""),
		lineBaud: opts.LineBaudRate,
	}
}

// SetRegisters stores vals from start on.
func (d *Device) SetRegisters(start uint16, vals ...uint16) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i, v := range vals {
		if int(start)+i < RegisterFileSize {
			d.regs[int(start)+i] = v
		}
	}
}

// Register returns one register value.
func (d *Device) Register(reg uint16) uint16 {
	d.mu.Lock()
	defer d.mu.Unlock()
	if int(reg) >= RegisterFileSize {
		return 0
	}
	return d.regs[reg]
}

// CorruptNext damages the CRC of the next n replies.
func (d *Device) CorruptNext(n int) {
	d.mu.Lock()
	d.corrupt = n
	d.mu.Unlock()
}

// SetSilent toggles whether the device answers.
func (d *Device) SetSilent(silent bool) {
	d.mu.Lock()
	d.opts.Silent = silent
	d.mu.Unlock()
}

// Requests counts frames written to the line, understood or not.
func (d *Device) Requests() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.requests
}

// Answered counts replies the device produced.
func (d *Device) Answered() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.answered
}

// DeviceBaudRate is the speed the device currently listens at.
func (d *Device) DeviceBaudRate() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.opts.BaudRate
}

func (d *Device) Write(p []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return 0, ErrClosed
	}
	d.requests++
	d.pending = nil

	if d.opts.Silent || d.lineBaud != d.opts.BaudRate || len(p) < 4 {
		return len(p), nil
	}
	if p[0] != d.opts.Address && p[0] != broadcastID {
		return len(p), nil
	}

	pdu, err := d.pkg.Decode(p)
	if err != nil {
		return len(p), nil
	}

	reply, after := d.handle(pdu)

	d.pkg.SlaveId = d.opts.Address
	adu, err := d.pkg.Encode(reply)
	if err != nil {
		return len(p), nil
	}
	if d.corrupt > 0 {
		d.corrupt--
		adu[len(adu)-1] ^= 0xFF
	}

	d.answered++
	d.queue(append(append([]byte(nil), d.opts.Noise...), adu...))
	if after != nil {
		after()
	}
	return len(p), nil
}

// handle answers one request PDU. after runs once the reply is queued.
func (d *Device) handle(pdu *modbus.ProtocolDataUnit) (*modbus.ProtocolDataUnit, func()) {
	switch pdu.FunctionCode {
	case modbus.FuncCodeReadHoldingRegisters:
		if len(pdu.Data) != 4 {
			return exception(pdu.FunctionCode, modbus.ExceptionCodeIllegalDataValue), nil
		}
		if d.opts.Exception != 0 {
			return exception(pdu.FunctionCode, d.opts.Exception), nil
		}
		start := int(binary.BigEndian.Uint16(pdu.Data[0:2]))
		count := int(binary.BigEndian.Uint16(pdu.Data[2:4]))
		if count == 0 || count > 125 {
			return exception(pdu.FunctionCode, modbus.ExceptionCodeIllegalDataValue), nil
		}
		if start+count > RegisterFileSize {
			return exception(pdu.FunctionCode, modbus.ExceptionCodeIllegalDataAddress), nil
		}
		data := make([]byte, 1+2*count)
		data[0] = byte(2 * count)
		for i := 0; i < count; i++ {
			binary.BigEndian.PutUint16(data[1+2*i:], d.regs[start+i])
		}
		return &modbus.ProtocolDataUnit{FunctionCode: pdu.FunctionCode, Data: data}, nil

	case modbus.FuncCodeWriteSingleRegister:
		if len(pdu.Data) != 4 {
			return exception(pdu.FunctionCode, modbus.ExceptionCodeIllegalDataValue), nil
		}
		reg := int(binary.BigEndian.Uint16(pdu.Data[0:2]))
		val := binary.BigEndian.Uint16(pdu.Data[2:4])
		if reg >= RegisterFileSize {
			return exception(pdu.FunctionCode, modbus.ExceptionCodeIllegalDataAddress), nil
		}
		d.regs[reg] = val

		var after func()
		if reg == regBaud {
			if rate, ok := baudByCode[val]; ok {
				after = func() { d.opts.BaudRate = rate }
			}
		}
		echo := append([]byte(nil), pdu.Data...)
		return &modbus.ProtocolDataUnit{FunctionCode: pdu.FunctionCode, Data: echo}, after

	default:
		return exception(pdu.FunctionCode, modbus.ExceptionCodeIllegalFunction), nil
	}
}

func exception(fc, code byte) *modbus.ProtocolDataUnit {
	return &modbus.ProtocolDataUnit{FunctionCode: fc | exceptionBit, Data: []byte{code}}
}

func (d *Device) queue(b []byte) {
	size := d.opts.ChunkSize
	if size <= 0 {
		size = len(b)
	}
	for len(b) > 0 {
		n := size
		if n > len(b) {
			n = len(b)
		}
		d.pending = append(d.pending, b[:n])
		b = b[n:]
	}
	d.readyAt = time.Now().Add(d.opts.ReplyDelay)
}

// ReadUntil hands out queued reply bytes, one chunk per call.
func (d *Device) ReadUntil(p []byte, deadline time.Time) (int, error) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return 0, ErrClosed
	}
	if len(d.pending) == 0 {
		d.mu.Unlock()
		time.Sleep(time.Until(deadline))
		return 0, nil
	}
	ready := d.readyAt
	if wait := time.Until(ready); wait > 0 {
		d.mu.Unlock()
		if !ready.Before(deadline) {
			time.Sleep(time.Until(deadline))
			return 0, nil
		}
		time.Sleep(wait)
		d.mu.Lock()
	}
	defer d.mu.Unlock()

	if len(d.pending) == 0 {
		return 0, nil
	}
	chunk := d.pending[0]
	n := copy(p, chunk)
	if n < len(chunk) {
		d.pending[0] = chunk[n:]
	} else {
		d.pending = d.pending[1:]
	}
	return n, nil
}

func (d *Device) DiscardInput() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrClosed
	}
	d.pending = nil
	return nil
}

func (d *Device) SetBaudRate(baud int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrClosed
	}
	d.lineBaud = baud
	d.pending = nil
	return nil
}

func (d *Device) BaudRate() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lineBaud
}

func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	d.pending = nil
	return nil
}
