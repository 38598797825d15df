// internal/rtu/frame_test.go
package rtu

import (
	"errors"
	"testing"

	"github.com/goburrow/modbus"
	"gotest.tools/v3/assert"
)

var (
	// reply to ReadRequest(0x50, 0x34, 3): registers 0x0000 0x0100 0xFFFF
	goldenRead = []byte{0x50, 0x03, 0x06, 0x00, 0x00, 0x01, 0x00, 0xFF, 0xFF, 0xD0, 0xAA}

	// illegal data address for fc 0x03 from 0x50
	goldenException = []byte{0x50, 0x83, 0x02, 0x91, 0x20}

	// unlock key written to 0x69
	goldenWrite = []byte{0x50, 0x06, 0x00, 0x69, 0xB5, 0x88, 0x22, 0xA1}
)

func TestEncodeReadRequest_Golden(t *testing.T) {
	cases := []struct {
		addr  byte
		start uint16
		count uint16
		want  []byte
	}{
		{0x01, 0x0000, 10, []byte{0x01, 0x03, 0x00, 0x00, 0x00, 0x0A, 0xC5, 0xCD}},
		{0x01, 0x0000, 1, []byte{0x01, 0x03, 0x00, 0x00, 0x00, 0x01, 0x84, 0x0A}},
		{0x50, 0x0034, 12, []byte{0x50, 0x03, 0x00, 0x34, 0x00, 0x0C, 0x09, 0x80}},
		{0xFF, 0x0034, 1, []byte{0xFF, 0x03, 0x00, 0x34, 0x00, 0x01, 0xD0, 0x1A}},
	}

	for _, c := range cases {
		f, err := EncodeReadRequest(c.addr, c.start, c.count)
		assert.NilError(t, err)
		assert.DeepEqual(t, []byte(f), c.want)
	}
}

func TestEncodeReadRequest_InvalidCount(t *testing.T) {
	for _, n := range []uint16{0, MaxReadRegisters + 1} {
		_, err := EncodeReadRequest(0x50, 0x34, n)
		assert.ErrorIs(t, err, ErrInvalidArgument)
	}

	_, err := EncodeReadRequest(0x50, 0xFFFF, 2)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = EncodeReadRequest(0x50, 0x0000, MaxReadRegisters)
	assert.NilError(t, err)
}

func TestEncodeWriteRequest_Golden(t *testing.T) {
	assert.DeepEqual(t, []byte(EncodeWriteRequest(0x50, 0x0069, 0xB588)), goldenWrite)
}

// goburrow's RTU packager builds the same ADU.
func TestEncodeReadRequest_MatchesGoburrow(t *testing.T) {
	h := modbus.NewRTUClientHandler("")
	h.SlaveId = 0x50

	want, err := h.Encode(&modbus.ProtocolDataUnit{
		FunctionCode: modbus.FuncCodeReadHoldingRegisters,
		Data:         []byte{0x00, 0x34, 0x00, 0x0C},
	})
	assert.NilError(t, err)

	got, err := EncodeReadRequest(0x50, 0x34, 12)
	assert.NilError(t, err)
	assert.DeepEqual(t, []byte(got), want)
}

func TestDecodeResponse_Read(t *testing.T) {
	resp, err := DecodeResponse(goldenRead, ReadRequest(0x50, 0x34, 3))
	assert.NilError(t, err)
	assert.Equal(t, resp.Address, byte(0x50))
	assert.Equal(t, resp.Function, FuncReadHoldingRegisters)
	assert.Equal(t, resp.ByteCount, byte(6))
	assert.DeepEqual(t, resp.Registers, []uint16{0x0000, 0x0100, 0xFFFF})
}

func TestDecodeResponse_RoundTrip(t *testing.T) {
	regs := []byte{0x12, 0x34, 0xAB, 0xCD}
	b := append([]byte{0x07, 0x03, byte(len(regs))}, regs...)
	f := AppendCRC(b)

	resp, err := DecodeResponse(f, ReadRequest(0x07, 0, 2))
	assert.NilError(t, err)
	assert.DeepEqual(t, resp.Registers, []uint16{0x1234, 0xABCD})
}

func TestDecodeResponse_Exception(t *testing.T) {
	_, err := DecodeResponse(goldenException, ReadRequest(0x50, 0x34, 3))

	var exc *ExceptionError
	assert.Assert(t, errors.As(err, &exc))
	assert.Equal(t, exc.Function, FuncReadHoldingRegisters)
	assert.Equal(t, exc.Exception, ExceptionIllegalDataAddress)
	assert.Equal(t, exc.ModbusCode(), uint16(2))
}

func TestDecodeResponse_WriteEcho(t *testing.T) {
	resp, err := DecodeResponse(goldenWrite, WriteRequest(0x50, 0x0069, 0xB588))
	assert.NilError(t, err)
	assert.DeepEqual(t, resp.Registers, []uint16{0xB588})

	_, err = DecodeResponse(goldenWrite, WriteRequest(0x50, 0x0069, 0x0000))
	assert.ErrorIs(t, err, ErrLengthMismatch)
}

func TestDecodeResponse_Errors(t *testing.T) {
	corrupt := append([]byte(nil), goldenRead...)
	corrupt[4] ^= 0x01

	wrongAddr := AppendCRC([]byte{0x51, 0x03, 0x06, 0, 0, 1, 0, 0xFF, 0xFF})
	wrongFunc := AppendCRC([]byte{0x50, 0x04, 0x06, 0, 0, 1, 0, 0xFF, 0xFF})
	badCount := AppendCRC([]byte{0x50, 0x03, 0x04, 0, 0, 1, 0, 0xFF, 0xFF})
	shortPayload := AppendCRC([]byte{0x50, 0x03, 0x02, 0x00, 0xFF})

	cases := []struct {
		name string
		b    []byte
		want error
	}{
		{"too short", goldenRead[:4], ErrFrameTooShort},
		{"crc", corrupt, ErrCRCMismatch},
		{"address", wrongAddr, ErrAddressMismatch},
		{"function", wrongFunc, ErrFunctionMismatch},
		{"byte count vs payload", badCount, ErrLengthMismatch},
		{"byte count vs request", shortPayload, ErrLengthMismatch},
	}

	req := ReadRequest(0x50, 0x34, 3)
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := DecodeResponse(c.b, req)
			assert.ErrorIs(t, err, c.want)
		})
	}
}

func TestDecodeResponse_DiscoverAcceptsAnyAddress(t *testing.T) {
	req := ReadRequest(BroadcastAddress, 0x34, 3)
	req.Discover = true

	resp, err := DecodeResponse(goldenRead, req)
	assert.NilError(t, err)
	assert.Equal(t, resp.Address, byte(0x50))
}

func TestFrameSize(t *testing.T) {
	cases := []struct {
		b    []byte
		want int
	}{
		{[]byte{0x50}, MinResponseSize},
		{[]byte{0x50, 0x83, 0x02}, 5},
		{[]byte{0x50, 0x03, 0x18}, 29},
		{[]byte{0x50, 0x06, 0x00}, 8},
	}
	for _, c := range cases {
		got, ok := frameSize(c.b)
		assert.Assert(t, ok)
		assert.Equal(t, got, c.want)
	}

	_, ok := frameSize([]byte{0x50, 0x10, 0x00})
	assert.Assert(t, !ok)
}

func TestExceptionCodesMatchGoburrow(t *testing.T) {
	assert.Equal(t, ExceptionIllegalFunction, byte(modbus.ExceptionCodeIllegalFunction))
	assert.Equal(t, ExceptionIllegalDataAddress, byte(modbus.ExceptionCodeIllegalDataAddress))
	assert.Equal(t, ExceptionIllegalDataValue, byte(modbus.ExceptionCodeIllegalDataValue))
	assert.Equal(t, ExceptionSlaveDeviceFailure, byte(modbus.ExceptionCodeServerDeviceFailure))
	assert.Equal(t, ExceptionSlaveDeviceBusy, byte(modbus.ExceptionCodeServerDeviceBusy))
}
