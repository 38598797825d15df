// internal/rtu/crc.go
package rtu

// CRC16/MODBUS parameters: reflected polynomial 0x8005, initial value 0xFFFF.
const (
	crcPolynomial uint16 = 0xA001
	crcInitial    uint16 = 0xFFFF
)

// CRC16 computes the Modbus CRC over b.
func CRC16(b []byte) uint16 {
	crc := crcInitial
	for _, v := range b {
		crc ^= uint16(v)
		for i := 0; i < 8; i++ {
			if crc&0x0001 != 0 {
				crc = (crc >> 1) ^ crcPolynomial
			} else {
				crc >>= 1
			}
		}
	}
	return crc
}

// AppendCRC appends the CRC of b to b, low byte first.
func AppendCRC(b []byte) Frame {
	crc := CRC16(b)
	return append(b, byte(crc), byte(crc>>8))
}
