// cmd/witreader/app.go
package main

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/tamzrod/witmotion-modbus/internal/poller"
	"github.com/tamzrod/witmotion-modbus/internal/rtu"
	"github.com/tamzrod/witmotion-modbus/internal/session"
	"github.com/tamzrod/witmotion-modbus/internal/status"
	"github.com/tamzrod/witmotion-modbus/internal/writer"
)

// sampleSource is the part of *session.Session the app drives.
type sampleSource interface {
	Poll(ctx context.Context) (<-chan poller.Result, error)
	Stats() rtu.Stats
}

type sink interface {
	writer.Writer
	writer.StatusWriter
}

// App joins the poll loop to the sinks and keeps sensor health.
type App struct {
	src     sampleSource
	sink    sink
	tracker *status.Tracker
	log     zerolog.Logger
	tick    time.Duration
}

func NewApp(s *session.Session, w *writer.Fanout, t *status.Tracker, log zerolog.Logger) *App {
	return newApp(s, w, t, log)
}

func newApp(src sampleSource, w sink, t *status.Tracker, log zerolog.Logger) *App {
	return &App{
		src:     src,
		sink:    w,
		tracker: t,
		log:     log,
		tick:    time.Second,
	}
}

// Run polls until ctx ends. The app goroutine owns the tracker.
func (a *App) Run(ctx context.Context) error {
	results, err := a.src.Poll(ctx)
	if err != nil {
		return err
	}

	gate := writer.NewStatusGate(a.sink)
	a.writeStatus(gate, a.tracker.Snapshot())

	secTicker := time.NewTicker(a.tick)
	defer secTicker.Stop()

	for {
		select {
		case res, ok := <-results:
			if !ok {
				a.writeStatus(gate, a.tracker.Disable())
				a.logStats()
				return nil
			}

			// --- data delivery ---
			if err := a.sink.Write(res); err != nil {
				a.log.Warn().Uint64("seq", res.Seq).Err(err).Msg("writer error")
			}

			// --- status update ---
			snap, changed := a.tracker.Observe(res.Err, res.At)
			if changed {
				a.log.Info().
					Str("health", status.HealthName(snap.Health)).
					Uint16("last_error_code", snap.LastErrorCode).
					Msg("sensor health changed")
			}
			a.writeStatus(gate, snap)

		case now := <-secTicker.C:
			snap, _ := a.tracker.Tick(now)
			a.writeStatus(gate, snap)
		}
	}
}

func (a *App) writeStatus(w writer.StatusWriter, s status.Snapshot) {
	if err := w.WriteStatus(s); err != nil {
		a.log.Warn().Err(err).Msg("status write failed")
	}
}

func (a *App) logStats() {
	st := a.src.Stats()
	a.log.Info().
		Uint64("transactions", st.Transactions).
		Uint64("attempts", st.Attempts).
		Uint64("retries", st.Retries).
		Uint64("timeouts", st.Timeouts).
		Uint64("crc_errors", st.CRCErrors).
		Uint64("frame_errors", st.FrameErrors).
		Uint64("exceptions", st.Exceptions).
		Msg("reader stopped")
}
