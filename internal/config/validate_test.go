// internal/config/validate_test.go
package config

import (
	"strings"
	"testing"
)

// helper to build a minimal valid config quickly
func reader(device, address string) *Config {
	return &Config{
		Reader: ReaderConfig{
			Serial: SerialConfig{Device: device},
			Sensor: SensorConfig{Address: address},
		},
	}
}

func intp(v int) *int { return &v }

// ---- tests ----

func TestValidate_Minimal(t *testing.T) {
	if err := Validate(reader("/dev/ttyUSB0", "")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_Rejects(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(c *Config)
		want   string
	}{
		{"no device", func(c *Config) { c.Reader.Serial.Device = "" }, "serial.device"},
		{"negative baud", func(c *Config) { c.Reader.Serial.Baud = -1 }, "serial.baud"},
		{"parity", func(c *Config) { c.Reader.Serial.Parity = "X" }, "serial.parity"},
		{"stop bits", func(c *Config) { c.Reader.Serial.StopBits = 3 }, "serial.stop_bits"},
		{"address", func(c *Config) { c.Reader.Sensor.Address = "0x1FF" }, "sensor.address"},
		{"retries", func(c *Config) { c.Reader.Poll.Retries = intp(-1) }, "poll.retries"},
		{"probe retries", func(c *Config) { c.Reader.Detect.ProbeRetries = intp(3) }, "detect.probe_retries"},
		{"duplicate candidate", func(c *Config) { c.Reader.Detect.Candidates = []int{9600, 9600} }, "listed twice"},
		{"mqtt broker", func(c *Config) { c.Reader.Sinks.MQTT = &MQTTConfig{Topic: "t"} }, "sinks.mqtt.broker"},
		{"mqtt qos", func(c *Config) { c.Reader.Sinks.MQTT = &MQTTConfig{Broker: "tcp://b:1883", Topic: "t", QoS: 3} }, "qos"},
		{"nats subject", func(c *Config) { c.Reader.Sinks.NATS = &NATSConfig{URL: "nats://n:4222"} }, "sinks.nats.subject"},
	}

	for _, tc := range cases {
		cfg := reader("/dev/ttyUSB0", "0x50")
		tc.mutate(cfg)

		err := Validate(cfg)
		if err == nil {
			t.Fatalf("%s: expected error, got nil", tc.name)
		}
		if !strings.Contains(err.Error(), tc.want) {
			t.Fatalf("%s: error %q does not mention %q", tc.name, err, tc.want)
		}
	}
}

func TestValidate_DoesNotMutate(t *testing.T) {
	cfg := reader("/dev/ttyUSB0", "")
	if err := Validate(cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Reader.Poll.IntervalMs != 0 || cfg.Reader.Poll.Retries != nil {
		t.Fatalf("Validate mutated config: %+v", cfg.Reader.Poll)
	}
}

func TestNormalize_Defaults(t *testing.T) {
	cfg := reader("/dev/ttyUSB0", "")
	cfg.Reader.Sinks.MQTT = &MQTTConfig{Broker: "tcp://b:1883", Topic: "imu"}
	Normalize(cfg)

	r := cfg.Reader
	if r.Serial.DataBits != 8 || r.Serial.StopBits != 1 || r.Serial.Parity != "N" {
		t.Fatalf("expected 8N1, got %d%s%d", r.Serial.DataBits, r.Serial.Parity, r.Serial.StopBits)
	}
	if r.Poll.IntervalMs != 500 || r.Poll.TimeoutMs != 200 || *r.Poll.Retries != 2 {
		t.Fatalf("poll defaults: %+v retries=%d", r.Poll, *r.Poll.Retries)
	}
	if r.Detect.ProbeTimeoutMs != 100 || *r.Detect.ProbeRetries != 1 {
		t.Fatalf("detect defaults: %+v", r.Detect)
	}
	if r.Status.StaleAfterMs != 2500 {
		t.Fatalf("stale_after_ms=%d want 2500", r.Status.StaleAfterMs)
	}
	if !strings.HasPrefix(r.Sinks.MQTT.ClientID, "witreader-") {
		t.Fatalf("client id %q", r.Sinks.MQTT.ClientID)
	}
	if r.Address() != 0xFF {
		t.Fatalf("default address=%d", r.Address())
	}
}

func TestNormalize_KeepsExplicitZeroRetries(t *testing.T) {
	cfg := reader("/dev/ttyUSB0", "")
	cfg.Reader.Poll.Retries = intp(0)
	Normalize(cfg)

	if *cfg.Reader.Poll.Retries != 0 {
		t.Fatalf("explicit retries=0 overwritten with %d", *cfg.Reader.Poll.Retries)
	}
}

func TestParseAddress(t *testing.T) {
	cases := map[string]byte{
		"":     0xFF,
		"0x50": 0x50,
		"0X0a": 0x0A,
		"80":   80,
		"255":  255,
	}
	for in, want := range cases {
		got, err := ParseAddress(in)
		if err != nil || got != want {
			t.Fatalf("ParseAddress(%q) = %d, %v; want %d", in, got, err, want)
		}
	}

	for _, bad := range []string{"256", "0x100", "-1", "abc", "0x"} {
		if _, err := ParseAddress(bad); err == nil {
			t.Fatalf("ParseAddress(%q): expected error", bad)
		}
	}
}
