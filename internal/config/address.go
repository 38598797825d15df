// internal/config/address.go
package config

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseAddress accepts a slave address as hex ("0x50") or decimal ("80").
// An empty string is the broadcast address.
func ParseAddress(s string) (byte, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultAddress, nil
	}

	var (
		v   uint64
		err error
	)
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		v, err = strconv.ParseUint(s[2:], 16, 8)
	} else {
		v, err = strconv.ParseUint(s, 10, 8)
	}
	if err != nil {
		return 0, fmt.Errorf("invalid slave address %q: want 0-255 as decimal or 0x hex", s)
	}
	return byte(v), nil
}
