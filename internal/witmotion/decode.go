// internal/witmotion/decode.go
package witmotion

import (
	"fmt"
	"time"

	"github.com/tamzrod/witmotion-modbus/internal/fault"
	"github.com/tamzrod/witmotion-modbus/internal/rtu"
)

var ErrInsufficientRegisters = fault.New(fault.KindDecode, "witmotion: insufficient registers")

// Vector is an X/Y/Z (or roll/pitch/yaw) triple.
type Vector [3]float32

// Sample is one decoded reading. Quantities outside the requested
// register window are nil.
type Sample struct {
	Time    time.Time
	Address byte

	Acceleration    *Vector // g
	AngularVelocity *Vector // deg/s
	Magnetic        *Vector // device units
	Angles          *Vector // deg
	Temperature     *float32

	// Start and Registers keep the raw window the sample came from.
	Start     uint16
	Registers []uint16
}

// Decode converts a read response into physical quantities.
func Decode(req rtu.Request, resp rtu.Response, at time.Time) (Sample, error) {
	if len(resp.Registers) < int(req.Count) {
		return Sample{}, fmt.Errorf("%w: got %d, want %d", ErrInsufficientRegisters, len(resp.Registers), req.Count)
	}

	regs := resp.Registers[:req.Count]
	s := Sample{
		Time:      at,
		Address:   resp.Address,
		Start:     req.Start,
		Registers: append([]uint16(nil), regs...),
	}

	s.Acceleration = vector(regs, req.Start, RegAccX, AccelScale)
	s.AngularVelocity = vector(regs, req.Start, RegGyroX, GyroScale)
	s.Magnetic = vector(regs, req.Start, RegMagX, MagScale)
	s.Angles = vector(regs, req.Start, RegRoll, AngleScale)

	if i, ok := index(req.Start, len(regs), RegTemp, 1); ok {
		t := scaled(regs[i], TempScale)
		s.Temperature = &t
	}
	return s, nil
}

func vector(regs []uint16, start, reg uint16, scale float32) *Vector {
	i, ok := index(start, len(regs), reg, 3)
	if !ok {
		return nil
	}
	return &Vector{
		scaled(regs[i], scale),
		scaled(regs[i+1], scale),
		scaled(regs[i+2], scale),
	}
}

// index locates reg..reg+n-1 inside a window of count words at start.
func index(start uint16, count int, reg uint16, n int) (int, bool) {
	if reg < start {
		return 0, false
	}
	i := int(reg - start)
	if i+n > count {
		return 0, false
	}
	return i, true
}

func scaled(raw uint16, scale float32) float32 {
	return float32(int16(raw)) * scale
}
