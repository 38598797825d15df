// internal/rtu/frame.go
package rtu

import (
	"encoding/binary"
	"fmt"
)

// Function codes.
const (
	FuncReadHoldingRegisters byte = 0x03
	FuncWriteSingleRegister  byte = 0x06

	// ExceptionFlag is set on the echoed function code of an exception reply.
	ExceptionFlag byte = 0x80
)

// Frame geometry.
const (
	// BroadcastAddress is the catch-all slave address.
	BroadcastAddress byte = 0xFF

	// MaxReadRegisters is the largest register count accepted per read.
	MaxReadRegisters uint16 = 125

	// MinResponseSize is address + function + one byte + CRC.
	MinResponseSize = 5

	// MaxFrameSize bounds any RTU frame on the wire.
	MaxFrameSize = 256

	crcSize        = 2
	requestSize    = 8
	writeEchoSize  = 8
	exceptionSize  = 5
	readHeaderSize = 3
)

// Frame is a complete RTU frame: address, function, payload, CRC.
type Frame []byte

func (f Frame) Address() byte { return f[0] }

func (f Frame) Function() byte { return f[1] &^ ExceptionFlag }

func (f Frame) IsException() bool { return f[1]&ExceptionFlag != 0 }

// CRC returns the trailing CRC stored in the frame.
func (f Frame) CRC() uint16 {
	n := len(f)
	return uint16(f[n-2]) | uint16(f[n-1])<<8
}

// CheckCRC reports whether the trailing CRC matches the preceding bytes.
func (f Frame) CheckCRC() bool {
	if len(f) < crcSize+1 {
		return false
	}
	return f.CRC() == CRC16(f[:len(f)-crcSize])
}

// Request describes one master request.
// For reads, Start/Count select the register window.
// For single-register writes, Start is the register and Value the word written.
type Request struct {
	Address  byte
	Function byte
	Start    uint16
	Count    uint16
	Value    uint16

	// Discover asks a broadcast request to wait for whichever slave answers.
	// The echoed address is then accepted as-is.
	Discover bool
}

// ReadRequest builds a read-holding-registers Request.
func ReadRequest(address byte, start, count uint16) Request {
	return Request{
		Address:  address,
		Function: FuncReadHoldingRegisters,
		Start:    start,
		Count:    count,
	}
}

// WriteRequest builds a write-single-register Request.
func WriteRequest(address byte, register, value uint16) Request {
	return Request{
		Address:  address,
		Function: FuncWriteSingleRegister,
		Start:    register,
		Value:    value,
	}
}

// IsBroadcast reports whether no reply is expected.
func (r Request) IsBroadcast() bool {
	return r.Address == BroadcastAddress && !r.Discover
}

// Encode builds the wire frame for r.
func (r Request) Encode() (Frame, error) {
	switch r.Function {
	case FuncReadHoldingRegisters:
		return EncodeReadRequest(r.Address, r.Start, r.Count)
	case FuncWriteSingleRegister:
		return EncodeWriteRequest(r.Address, r.Start, r.Value), nil
	default:
		return nil, fmt.Errorf("%w: unsupported function 0x%02x", ErrInvalidArgument, r.Function)
	}
}

// Response is a validated reply.
type Response struct {
	Address   byte
	Function  byte
	ByteCount byte
	Registers []uint16

	// Broadcast marks the synthetic result of a request that expects no reply.
	Broadcast bool
}

// EncodeReadRequest builds a read-holding-registers frame.
func EncodeReadRequest(address byte, start, count uint16) (Frame, error) {
	if count == 0 || count > MaxReadRegisters {
		return nil, fmt.Errorf("%w: register count %d (want 1..%d)", ErrInvalidArgument, count, MaxReadRegisters)
	}
	if uint32(start)+uint32(count) > 0x10000 {
		return nil, fmt.Errorf("%w: register window 0x%04x+%d overflows", ErrInvalidArgument, start, count)
	}

	b := make([]byte, 6, requestSize)
	b[0] = address
	b[1] = FuncReadHoldingRegisters
	binary.BigEndian.PutUint16(b[2:4], start)
	binary.BigEndian.PutUint16(b[4:6], count)
	return AppendCRC(b), nil
}

// EncodeWriteRequest builds a write-single-register frame.
func EncodeWriteRequest(address byte, register, value uint16) Frame {
	b := make([]byte, 6, requestSize)
	b[0] = address
	b[1] = FuncWriteSingleRegister
	binary.BigEndian.PutUint16(b[2:4], register)
	binary.BigEndian.PutUint16(b[4:6], value)
	return AppendCRC(b)
}

// DecodeResponse validates b as the reply to req.
// b must hold exactly one frame.
func DecodeResponse(b []byte, req Request) (Response, error) {
	if len(b) < MinResponseSize {
		return Response{}, fmt.Errorf("%w: %d bytes", ErrFrameTooShort, len(b))
	}

	f := Frame(b)
	if !f.CheckCRC() {
		return Response{}, fmt.Errorf("%w: got=0x%04x want=0x%04x",
			ErrCRCMismatch, f.CRC(), CRC16(b[:len(b)-crcSize]))
	}

	if req.Address != BroadcastAddress && f.Address() != req.Address {
		return Response{}, fmt.Errorf("%w: got=%d want=%d", ErrAddressMismatch, f.Address(), req.Address)
	}

	if f.IsException() {
		if f.Function() != req.Function {
			return Response{}, fmt.Errorf("%w: exception for fc=0x%02x, want 0x%02x",
				ErrFunctionMismatch, f.Function(), req.Function)
		}
		if len(b) != exceptionSize {
			return Response{}, fmt.Errorf("%w: exception frame is %d bytes", ErrLengthMismatch, len(b))
		}
		return Response{}, &ExceptionError{Function: f.Function(), Exception: b[2]}
	}

	if f.Function() != req.Function {
		return Response{}, fmt.Errorf("%w: got=0x%02x want=0x%02x", ErrFunctionMismatch, f.Function(), req.Function)
	}

	switch req.Function {
	case FuncReadHoldingRegisters:
		return decodeRead(f, req)
	case FuncWriteSingleRegister:
		return decodeWriteEcho(f, req)
	default:
		return Response{}, fmt.Errorf("%w: unsupported function 0x%02x", ErrInvalidArgument, req.Function)
	}
}

func decodeRead(f Frame, req Request) (Response, error) {
	byteCount := int(f[2])
	payload := f[readHeaderSize : len(f)-crcSize]

	if byteCount != len(payload) {
		return Response{}, fmt.Errorf("%w: byte count %d, payload %d", ErrLengthMismatch, byteCount, len(payload))
	}
	if byteCount != 2*int(req.Count) {
		return Response{}, fmt.Errorf("%w: byte count %d, requested %d registers", ErrLengthMismatch, byteCount, req.Count)
	}

	return Response{
		Address:   f.Address(),
		Function:  f.Function(),
		ByteCount: byte(byteCount),
		Registers: unpackRegisters(payload),
	}, nil
}

func decodeWriteEcho(f Frame, req Request) (Response, error) {
	if len(f) != writeEchoSize {
		return Response{}, fmt.Errorf("%w: write echo is %d bytes", ErrLengthMismatch, len(f))
	}
	reg := binary.BigEndian.Uint16(f[2:4])
	val := binary.BigEndian.Uint16(f[4:6])
	if reg != req.Start || val != req.Value {
		return Response{}, fmt.Errorf("%w: echo reg=0x%04x val=0x%04x, sent reg=0x%04x val=0x%04x",
			ErrLengthMismatch, reg, val, req.Start, req.Value)
	}
	return Response{
		Address:   f.Address(),
		Function:  f.Function(),
		Registers: []uint16{val},
	}, nil
}

// frameSize returns the total size of the response frame starting at b[0].
// ok is false when the function code cannot be sized.
// size is MinResponseSize while the header is still incomplete.
func frameSize(b []byte) (size int, ok bool) {
	if len(b) < readHeaderSize {
		return MinResponseSize, true
	}
	if b[1]&ExceptionFlag != 0 {
		return exceptionSize, true
	}
	switch b[1] {
	case FuncReadHoldingRegisters:
		return int(b[2]) + readHeaderSize + crcSize, true
	case FuncWriteSingleRegister:
		return writeEchoSize, true
	default:
		return 0, false
	}
}

// unpackRegisters reads big-endian words.
func unpackRegisters(data []byte) []uint16 {
	n := len(data) / 2
	out := make([]uint16, n)
	for i := 0; i < n; i++ {
		out[i] = binary.BigEndian.Uint16(data[2*i:])
	}
	return out
}
