// internal/writer/mqtt/client.go
package mqtt

import (
	"errors"
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
)

const (
	keepAlive      = 30 * time.Second
	quiesceMs      = 250
	defaultTimeout = 10 * time.Second
)

type Config struct {
	Broker   string
	ClientID string
	Username string
	Password string
	QoS      byte
	Retained bool

	// Timeout bounds connect and every publish.
	Timeout time.Duration
}

// api is the part of paho.Client used here.
type api interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
	IsConnectionOpen() bool
	Disconnect(quiesce uint)
}

// Client publishes payloads to one MQTT broker.
type Client struct {
	api      api
	qos      byte
	retained bool
	timeout  time.Duration
}

// Connect dials the broker and waits for the session to come up.
func Connect(cfg Config) (*Client, error) {
	if cfg.Broker == "" {
		return nil, errors.New("mqtt: broker required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	opts := paho.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetKeepAlive(keepAlive).
		SetConnectTimeout(cfg.Timeout).
		SetAutoReconnect(true)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}

	c := paho.NewClient(opts)
	t := c.Connect()
	if ok := t.WaitTimeout(cfg.Timeout); !ok {
		return nil, fmt.Errorf("mqtt: connect %s: timed out", cfg.Broker)
	}
	if err := t.Error(); err != nil {
		return nil, fmt.Errorf("mqtt: connect %s: %w", cfg.Broker, err)
	}

	return newClient(c, cfg), nil
}

func newClient(a api, cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	return &Client{
		api:      a,
		qos:      cfg.QoS,
		retained: cfg.Retained,
		timeout:  cfg.Timeout,
	}
}

// Publish sends payload to topic and waits for the broker to take it.
func (c *Client) Publish(topic string, payload []byte) error {
	t := c.api.Publish(topic, c.qos, c.retained, payload)
	if ok := t.WaitTimeout(c.timeout); !ok {
		return fmt.Errorf("mqtt: publish %s: timed out", topic)
	}
	if err := t.Error(); err != nil {
		return fmt.Errorf("mqtt: publish %s: %w", topic, err)
	}
	return nil
}

func (c *Client) Close() error {
	if c.api.IsConnectionOpen() {
		c.api.Disconnect(quiesceMs)
	}
	return nil
}
