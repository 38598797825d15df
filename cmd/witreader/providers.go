// cmd/witreader/providers.go
package main

import (
	"context"
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/tamzrod/witmotion-modbus/internal/config"
	"github.com/tamzrod/witmotion-modbus/internal/session"
	"github.com/tamzrod/witmotion-modbus/internal/status"
	"github.com/tamzrod/witmotion-modbus/internal/writer"
)

func ms(v int) time.Duration { return time.Duration(v) * time.Millisecond }

// ProvideSessionOptions maps a normalized config onto session options.
func ProvideSessionOptions(cfg *config.Config, log zerolog.Logger) session.Options {
	r := cfg.Reader

	opts := session.Options{
		Device:      r.Serial.Device,
		Address:     r.Address(),
		BaudRate:    r.Serial.Baud,
		Interval:    ms(r.Poll.IntervalMs),
		Timeout:     ms(r.Poll.TimeoutMs),
		Delay:       ms(r.Poll.DelayMs),
		Temperature: r.Sensor.Temperature,

		ProbeTimeout: ms(r.Detect.ProbeTimeoutMs),
		Candidates:   r.Detect.Candidates,

		DataBits: r.Serial.DataBits,
		StopBits: r.Serial.StopBits,
		Parity:   r.Serial.Parity,
		RS485:    r.Serial.RS485,

		Logger: log,
	}
	if r.Poll.Retries != nil {
		opts.Retries = *r.Poll.Retries
	}
	if r.Detect.ProbeRetries != nil {
		opts.ProbeRetries = *r.Detect.ProbeRetries
	}
	return opts
}

// ProvideSession connects to the sensor. Failure here is fatal to the CLI.
func ProvideSession(ctx context.Context, opts session.Options) (*session.Session, func(), error) {
	s, err := session.Connect(ctx, opts)
	if err != nil {
		return nil, nil, err
	}
	return s, func() { _ = s.Close() }, nil
}

// ProvideWriters builds the configured sinks, tagged with the session id.
func ProvideWriters(cfg *config.Config, s *session.Session, stdout io.Writer) (*writer.Fanout, func(), error) {
	w, err := writer.Build(cfg.Reader.Sinks, s.ID(), stdout)
	if err != nil {
		return nil, nil, err
	}
	return w, func() { _ = w.Close() }, nil
}

func ProvideTracker(cfg *config.Config) *status.Tracker {
	return status.NewTracker(ms(cfg.Reader.Status.StaleAfterMs))
}
