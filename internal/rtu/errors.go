// internal/rtu/errors.go
package rtu

import (
	"fmt"

	"github.com/tamzrod/witmotion-modbus/internal/fault"
)

// Frame and transaction errors. Match with errors.Is.
var (
	ErrFrameTooShort    = fault.New(fault.KindProtocol, "rtu: frame too short")
	ErrCRCMismatch      = fault.New(fault.KindProtocol, "rtu: crc mismatch")
	ErrAddressMismatch  = fault.New(fault.KindProtocol, "rtu: address mismatch")
	ErrFunctionMismatch = fault.New(fault.KindProtocol, "rtu: function mismatch")
	ErrLengthMismatch   = fault.New(fault.KindProtocol, "rtu: length mismatch")

	ErrChannelWrite = fault.New(fault.KindTransport, "rtu: channel write failed")
	ErrChannelRead  = fault.New(fault.KindTransport, "rtu: channel read failed")

	ErrTimeout = fault.New(fault.KindTiming, "rtu: response timeout")

	ErrInvalidArgument = fault.New(fault.KindConfig, "rtu: invalid argument")
)

// Modbus exception codes relevant to register reads and writes.
const (
	ExceptionIllegalFunction    byte = 0x01
	ExceptionIllegalDataAddress byte = 0x02
	ExceptionIllegalDataValue   byte = 0x03
	ExceptionSlaveDeviceFailure byte = 0x04
	ExceptionSlaveDeviceBusy    byte = 0x06
)

// ExceptionError is a well-formed exception reply from the slave.
// The device has rejected the request; it is never retried.
type ExceptionError struct {
	Function  byte
	Exception byte
}

func (e *ExceptionError) Error() string {
	return fmt.Sprintf("rtu: exception response fc=0x%02x code=0x%02x (%s)",
		e.Function, e.Exception, exceptionText(e.Exception))
}

func (e *ExceptionError) Kind() fault.Kind { return fault.KindProtocol }

// ModbusCode exposes the raw exception byte.
func (e *ExceptionError) ModbusCode() uint16 { return uint16(e.Exception) }

func exceptionText(code byte) string {
	switch code {
	case ExceptionIllegalFunction:
		return "illegal function"
	case ExceptionIllegalDataAddress:
		return "illegal data address"
	case ExceptionIllegalDataValue:
		return "illegal data value"
	case ExceptionSlaveDeviceFailure:
		return "slave device failure"
	case ExceptionSlaveDeviceBusy:
		return "slave device busy"
	default:
		return "unknown"
	}
}
