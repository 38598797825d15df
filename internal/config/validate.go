// internal/config/validate.go
package config

import (
	"fmt"
)

// Validate checks configuration correctness.
// It performs declarative validation only.
// It MUST NOT mutate configuration.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}
	r := &cfg.Reader

	// ------------------------------------------------------------
	// SERIAL LINE
	// ------------------------------------------------------------

	if r.Serial.Device == "" {
		return fmt.Errorf("serial.device is required")
	}
	if r.Serial.Baud < 0 {
		return fmt.Errorf("serial.baud %d: must be 0 (auto) or a positive rate", r.Serial.Baud)
	}
	switch r.Serial.DataBits {
	case 0, 7, 8:
	default:
		return fmt.Errorf("serial.data_bits %d: must be 7 or 8", r.Serial.DataBits)
	}
	switch r.Serial.StopBits {
	case 0, 1, 2:
	default:
		return fmt.Errorf("serial.stop_bits %d: must be 1 or 2", r.Serial.StopBits)
	}
	switch r.Serial.Parity {
	case "", "N", "E", "O":
	default:
		return fmt.Errorf("serial.parity %q: must be N, E or O", r.Serial.Parity)
	}

	// ------------------------------------------------------------
	// SENSOR
	// ------------------------------------------------------------

	if _, err := ParseAddress(r.Sensor.Address); err != nil {
		return fmt.Errorf("sensor.address: %v", err)
	}

	// ------------------------------------------------------------
	// TIMING
	// ------------------------------------------------------------

	if r.Poll.IntervalMs < 0 {
		return fmt.Errorf("poll.interval_ms %d: must be >= 0", r.Poll.IntervalMs)
	}
	if r.Poll.TimeoutMs < 0 {
		return fmt.Errorf("poll.timeout_ms %d: must be >= 0", r.Poll.TimeoutMs)
	}
	if r.Poll.Retries != nil && *r.Poll.Retries < 0 {
		return fmt.Errorf("poll.retries %d: must be >= 0", *r.Poll.Retries)
	}
	if r.Poll.DelayMs < 0 {
		return fmt.Errorf("poll.delay_ms %d: must be >= 0", r.Poll.DelayMs)
	}
	if r.Detect.ProbeTimeoutMs < 0 {
		return fmt.Errorf("detect.probe_timeout_ms %d: must be >= 0", r.Detect.ProbeTimeoutMs)
	}
	if r.Detect.ProbeRetries != nil && (*r.Detect.ProbeRetries < 0 || *r.Detect.ProbeRetries > 1) {
		return fmt.Errorf("detect.probe_retries %d: must be 0 or 1", *r.Detect.ProbeRetries)
	}

	seen := make(map[int]bool)
	for _, c := range r.Detect.Candidates {
		if c <= 0 {
			return fmt.Errorf("detect.candidates: invalid rate %d", c)
		}
		if seen[c] {
			return fmt.Errorf("detect.candidates: rate %d listed twice", c)
		}
		seen[c] = true
	}

	if r.Status.StaleAfterMs < 0 {
		return fmt.Errorf("status.stale_after_ms %d: must be >= 0", r.Status.StaleAfterMs)
	}

	// ------------------------------------------------------------
	// SINKS
	// ------------------------------------------------------------

	if m := r.Sinks.MQTT; m != nil {
		if m.Broker == "" {
			return fmt.Errorf("sinks.mqtt.broker is required")
		}
		if m.Topic == "" {
			return fmt.Errorf("sinks.mqtt.topic is required")
		}
		if m.QoS > 2 {
			return fmt.Errorf("sinks.mqtt.qos %d: must be 0, 1 or 2", m.QoS)
		}
		if m.TimeoutMs < 0 {
			return fmt.Errorf("sinks.mqtt.timeout_ms %d: must be >= 0", m.TimeoutMs)
		}
	}
	if n := r.Sinks.NATS; n != nil {
		if n.URL == "" {
			return fmt.Errorf("sinks.nats.url is required")
		}
		if n.Subject == "" {
			return fmt.Errorf("sinks.nats.subject is required")
		}
	}

	return nil
}
