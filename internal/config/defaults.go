// internal/config/defaults.go
package config

// Defaults applied by Normalize.
const (
	DefaultAddress        = 0xFF
	DefaultIntervalMs     = 500
	DefaultTimeoutMs      = 200
	DefaultRetries        = 2
	DefaultProbeTimeoutMs = 100
	DefaultProbeRetries   = 1
	DefaultDataBits       = 8
	DefaultStopBits       = 1
	DefaultParity         = "N"
	DefaultMQTTTimeoutMs  = 10000

	staleIntervals = 5
)

// Default returns a config for device with everything else unset.
// Validate and Normalize it like a loaded file.
func Default(device string) *Config {
	cfg := &Config{}
	cfg.Reader.Serial.Device = device
	return cfg
}
