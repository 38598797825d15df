// internal/writer/nats/client.go
package nats

import (
	"errors"
	"fmt"

	"github.com/nats-io/nats.go"
)

type Config struct {
	URL string

	// Name identifies the connection on the server.
	Name string
}

// conn is the part of *nats.Conn used here.
type conn interface {
	Publish(subj string, data []byte) error
	Flush() error
	Close()
}

// Client publishes payloads to a NATS server.
type Client struct {
	nc conn
}

func Connect(cfg Config) (*Client, error) {
	if cfg.URL == "" {
		return nil, errors.New("nats: url required")
	}

	var opts []nats.Option
	if cfg.Name != "" {
		opts = append(opts, nats.Name(cfg.Name))
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("nats: connect %s: %w", cfg.URL, err)
	}
	return &Client{nc: nc}, nil
}

func (c *Client) Publish(subject string, payload []byte) error {
	if err := c.nc.Publish(subject, payload); err != nil {
		return fmt.Errorf("nats: publish %s: %w", subject, err)
	}
	return nil
}

// Close flushes buffered messages before closing the connection.
func (c *Client) Close() error {
	err := c.nc.Flush()
	c.nc.Close()
	return err
}
