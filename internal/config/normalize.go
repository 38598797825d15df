// internal/config/normalize.go
package config

import (
	"github.com/google/uuid"
)

// Normalize applies post-validation normalization.
// It is allowed to mutate configuration.
// It MUST be called only after Validate().
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}
	r := &cfg.Reader

	// ------------------------------------------------------------
	// SERIAL LINE: 8N1 unless told otherwise
	// ------------------------------------------------------------

	if r.Serial.DataBits == 0 {
		r.Serial.DataBits = DefaultDataBits
	}
	if r.Serial.StopBits == 0 {
		r.Serial.StopBits = DefaultStopBits
	}
	if r.Serial.Parity == "" {
		r.Serial.Parity = DefaultParity
	}

	// ------------------------------------------------------------
	// TIMING
	// ------------------------------------------------------------

	if r.Poll.IntervalMs == 0 {
		r.Poll.IntervalMs = DefaultIntervalMs
	}
	if r.Poll.TimeoutMs == 0 {
		r.Poll.TimeoutMs = DefaultTimeoutMs
	}
	if r.Poll.Retries == nil {
		n := DefaultRetries
		r.Poll.Retries = &n
	}
	if r.Detect.ProbeTimeoutMs == 0 {
		r.Detect.ProbeTimeoutMs = DefaultProbeTimeoutMs
	}
	if r.Detect.ProbeRetries == nil {
		n := DefaultProbeRetries
		r.Detect.ProbeRetries = &n
	}
	if r.Status.StaleAfterMs == 0 {
		r.Status.StaleAfterMs = staleIntervals * r.Poll.IntervalMs
	}

	// ------------------------------------------------------------
	// SINKS
	// ------------------------------------------------------------

	if m := r.Sinks.MQTT; m != nil {
		if m.ClientID == "" {
			m.ClientID = "witreader-" + uuid.NewString()
		}
		if m.TimeoutMs == 0 {
			m.TimeoutMs = DefaultMQTTTimeoutMs
		}
	}
}

// Address returns the parsed slave address. Call after Validate.
func (r ReaderConfig) Address() byte {
	a, err := ParseAddress(r.Sensor.Address)
	if err != nil {
		return DefaultAddress
	}
	return a
}
