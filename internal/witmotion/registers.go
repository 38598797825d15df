// internal/witmotion/registers.go
package witmotion

// Control registers.
const (
	RegSave      uint16 = 0x00
	RegCalibrate uint16 = 0x01
	RegOutput    uint16 = 0x02
	RegRate      uint16 = 0x03
	RegBaud      uint16 = 0x04
	RegKey       uint16 = 0x69
)

// Data registers. Each quantity is three consecutive words (X, Y, Z or
// roll, pitch, yaw).
const (
	RegAccX  uint16 = 0x34
	RegGyroX uint16 = 0x37
	RegMagX  uint16 = 0x3A
	RegRoll  uint16 = 0x3D
	RegTemp  uint16 = 0x40
)

// Read windows covering the four motion blocks, with and without temperature.
const (
	SampleStart     = RegAccX
	SampleCount     = 12
	SampleCountTemp = 13
)

// Scale factors: physical value = int16(register) * scale.
const (
	AccelScale = float32(16.0 / 32768.0)   // g
	GyroScale  = float32(2000.0 / 32768.0) // deg/s
	AngleScale = float32(180.0 / 32768.0)  // deg
	MagScale   = float32(1.0)              // device units
	TempScale  = float32(1.0 / 100.0)      // degC
)

// UnlockKey written to RegKey enables configuration writes.
const UnlockKey uint16 = 0xB588

// Calibration modes for RegCalibrate.
const (
	CalNormal    uint16 = 0x00
	CalGyroAccel uint16 = 0x01
	CalMag       uint16 = 0x02
	CalAltitude  uint16 = 0x03
	CalAngleZ    uint16 = 0x04
)

var baudCodes = map[int]uint16{
	4800:   1,
	9600:   2,
	19200:  3,
	38400:  4,
	57600:  5,
	115200: 6,
	230400: 7,
	460800: 8,
	921600: 9,
}

// BaudCode is the RegBaud value selecting rate.
func BaudCode(rate int) (uint16, bool) {
	c, ok := baudCodes[rate]
	return c, ok
}

// RateCode is the RegRate value for an output rate in Hz.
// Zero means output disabled.
func RateCode(hz float64) (uint16, bool) {
	switch hz {
	case 0:
		return 0x0D, true
	case 0.2:
		return 0x01, true
	case 0.5:
		return 0x02, true
	case 1:
		return 0x03, true
	case 2:
		return 0x04, true
	case 5:
		return 0x05, true
	case 10:
		return 0x06, true
	case 20:
		return 0x07, true
	case 50:
		return 0x08, true
	case 100:
		return 0x09, true
	case 125:
		return 0x0A, true
	case 200:
		return 0x0B, true
	default:
		return 0, false
	}
}
