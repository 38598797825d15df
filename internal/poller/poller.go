// internal/poller/poller.go
package poller

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/tamzrod/witmotion-modbus/internal/rtu"
	"github.com/tamzrod/witmotion-modbus/internal/witmotion"
)

// Client runs one Modbus transaction. *rtu.Engine satisfies it.
type Client interface {
	Execute(ctx context.Context, req rtu.Request, p rtu.Policy) (rtu.Response, error)
}

// Config is the minimal runtime config the poller needs.
type Config struct {
	Address  byte
	Interval time.Duration
	Start    uint16
	Count    uint16
	Policy   rtu.Policy
}

// Poller is a clock-driven reader of one sensor.
type Poller struct {
	cfg    Config
	client Client
	log    zerolog.Logger
	seq    uint64
}

// New creates a poller with immutable config.
func New(cfg Config, client Client, log zerolog.Logger) (*Poller, error) {
	if client == nil {
		return nil, errors.New("poller: client required")
	}
	if cfg.Interval <= 0 {
		return nil, errors.New("poller: interval must be > 0")
	}
	if cfg.Count == 0 || cfg.Count > rtu.MaxReadRegisters {
		return nil, errors.New("poller: register count out of range")
	}
	if cfg.Address == rtu.BroadcastAddress {
		return nil, errors.New("poller: broadcast address cannot be polled")
	}
	return &Poller{cfg: cfg, client: client, log: log}, nil
}

// PollOnce performs exactly one read-and-decode cycle.
// All-or-nothing: a failed transaction or decode leaves Sample empty.
func (p *Poller) PollOnce(ctx context.Context) Result {
	p.seq++
	res := Result{Seq: p.seq}

	req := rtu.ReadRequest(p.cfg.Address, p.cfg.Start, p.cfg.Count)
	resp, err := p.client.Execute(ctx, req, p.cfg.Policy)
	res.At = time.Now()
	if err != nil {
		res.Err = err
		var exc *rtu.ExceptionError
		if errors.As(err, &exc) {
			res.RawErrorCode = exc.ModbusCode()
		}
		return res
	}

	s, err := witmotion.Decode(req, resp, res.At)
	if err != nil {
		res.Err = err
		return res
	}

	res.Sample = s
	return res
}
