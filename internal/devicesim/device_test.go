// internal/devicesim/device_test.go
package devicesim

import (
	"errors"
	"testing"
	"time"

	"gotest.tools/v3/assert"

	"github.com/tamzrod/witmotion-modbus/internal/rtu"
)

func read(t *testing.T, d *Device) []byte {
	t.Helper()
	var out []byte
	buf := make([]byte, 64)
	for {
		n, err := d.ReadUntil(buf, time.Now().Add(5*time.Millisecond))
		assert.NilError(t, err)
		if n == 0 {
			return out
		}
		out = append(out, buf[:n]...)
	}
}

func TestDevice_AnswersRead(t *testing.T) {
	d := New(Options{BaudRate: 9600, Address: 0x50})
	d.SetRegisters(0x34, 0x0000, 0x0100, 0xFFFF)

	req, err := rtu.EncodeReadRequest(0x50, 0x34, 3)
	assert.NilError(t, err)
	_, err = d.Write(req)
	assert.NilError(t, err)

	got := read(t, d)
	assert.DeepEqual(t, got, []byte{0x50, 0x03, 0x06, 0x00, 0x00, 0x01, 0x00, 0xFF, 0xFF, 0xD0, 0xAA})
}

func TestDevice_WrongBaudIsSilent(t *testing.T) {
	d := New(Options{BaudRate: 115200, LineBaudRate: 9600, Address: 0x50})

	req, _ := rtu.EncodeReadRequest(0x50, 0x34, 1)
	_, _ = d.Write(req)
	assert.Equal(t, len(read(t, d)), 0)

	assert.NilError(t, d.SetBaudRate(115200))
	_, _ = d.Write(req)
	assert.Assert(t, len(read(t, d)) > 0)
	assert.Equal(t, d.Requests(), 2)
	assert.Equal(t, d.Answered(), 1)
}

func TestDevice_OutOfRangeException(t *testing.T) {
	d := New(Options{BaudRate: 9600, Address: 0x50})

	req, _ := rtu.EncodeReadRequest(0x50, 0x8F, 2)
	_, _ = d.Write(req)

	resp := read(t, d)
	_, err := rtu.DecodeResponse(resp, rtu.ReadRequest(0x50, 0x8F, 2))
	var exc *rtu.ExceptionError
	assert.Assert(t, errors.As(err, &exc))
	assert.Equal(t, exc.Exception, rtu.ExceptionIllegalDataAddress)
}

func TestDevice_WriteBaudSwitchesAfterEcho(t *testing.T) {
	d := New(Options{BaudRate: 9600, Address: 0x50})

	_, _ = d.Write(rtu.EncodeWriteRequest(0x50, regBaud, 6))
	echo := read(t, d)
	_, err := rtu.DecodeResponse(echo, rtu.WriteRequest(0x50, regBaud, 6))
	assert.NilError(t, err)
	assert.Equal(t, d.DeviceBaudRate(), 115200)
}

func TestDevice_NoiseAndChunks(t *testing.T) {
	d := New(Options{BaudRate: 9600, Address: 0x50, Noise: []byte{0xAA, 0x55}, ChunkSize: 3})

	req, _ := rtu.EncodeReadRequest(0x50, 0x34, 1)
	_, _ = d.Write(req)

	buf := make([]byte, 64)
	n, err := d.ReadUntil(buf, time.Now().Add(5*time.Millisecond))
	assert.NilError(t, err)
	assert.Equal(t, n, 3)
	assert.DeepEqual(t, buf[:2], []byte{0xAA, 0x55})
}
