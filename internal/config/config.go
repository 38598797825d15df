// internal/config/config.go
package config

type Config struct {
	Reader ReaderConfig `yaml:"witreader"`
}

type ReaderConfig struct {
	Serial SerialConfig `yaml:"serial"`
	Sensor SensorConfig `yaml:"sensor"`
	Poll   PollConfig   `yaml:"poll"`
	Detect DetectConfig `yaml:"detect"`
	Sinks  SinksConfig  `yaml:"sinks"`
	Status StatusConfig `yaml:"status"`
}

// ---- SERIAL LINE ----

type SerialConfig struct {
	Device   string `yaml:"device"`
	Baud     int    `yaml:"baud"` // 0 = auto-detect
	DataBits int    `yaml:"data_bits"`
	StopBits int    `yaml:"stop_bits"`
	Parity   string `yaml:"parity"`
	RS485    bool   `yaml:"rs485"`
}

// ---- SENSOR ----

type SensorConfig struct {
	// Address is hex ("0x50") or decimal. Empty means broadcast (255).
	Address     string `yaml:"address"`
	Temperature bool   `yaml:"temperature"`
}

// ---- POLL ----

type PollConfig struct {
	IntervalMs int  `yaml:"interval_ms"`
	TimeoutMs  int  `yaml:"timeout_ms"`
	Retries    *int `yaml:"retries"`
	DelayMs    int  `yaml:"delay_ms"` // minimum idle gap between transactions
}

// ---- BAUD DETECTION ----

type DetectConfig struct {
	ProbeTimeoutMs int   `yaml:"probe_timeout_ms"`
	ProbeRetries   *int  `yaml:"probe_retries"`
	Candidates     []int `yaml:"candidates"`
}

// ---- SINKS ----

type SinksConfig struct {
	Console ConsoleConfig `yaml:"console"`
	MQTT    *MQTTConfig   `yaml:"mqtt"`
	NATS    *NATSConfig   `yaml:"nats"`
}

type ConsoleConfig struct {
	Disabled bool `yaml:"disabled"`
	Verbose  bool `yaml:"verbose"` // dump raw registers
}

type MQTTConfig struct {
	Broker    string `yaml:"broker"`
	ClientID  string `yaml:"client_id"`
	Topic     string `yaml:"topic"`
	QoS       byte   `yaml:"qos"`
	Retained  bool   `yaml:"retained"`
	Username  string `yaml:"username"`
	Password  string `yaml:"password"`
	TimeoutMs int    `yaml:"timeout_ms"`
}

type NATSConfig struct {
	URL     string `yaml:"url"`
	Subject string `yaml:"subject"`
}

// ---- STATUS ----

type StatusConfig struct {
	// StaleAfterMs marks the sensor stale when no sample arrived for this long.
	// 0 means 5 poll intervals.
	StaleAfterMs int `yaml:"stale_after_ms"`
}
