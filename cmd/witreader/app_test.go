package main

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"gotest.tools/v3/assert"

	"github.com/tamzrod/witmotion-modbus/internal/poller"
	"github.com/tamzrod/witmotion-modbus/internal/rtu"
	"github.com/tamzrod/witmotion-modbus/internal/status"
)

type scriptedSource struct {
	results []poller.Result
	err     error
}

func (s *scriptedSource) Poll(ctx context.Context) (<-chan poller.Result, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := make(chan poller.Result)
	go func() {
		defer close(out)
		for _, r := range s.results {
			select {
			case out <- r:
			case <-ctx.Done():
				return
			}
		}
		<-ctx.Done()
	}()
	return out, nil
}

func (s *scriptedSource) Stats() rtu.Stats { return rtu.Stats{} }

type recordingSink struct {
	mu       sync.Mutex
	results  []poller.Result
	statuses []status.Snapshot
}

func (r *recordingSink) Write(res poller.Result) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, res)
	return nil
}

func (r *recordingSink) WriteStatus(s status.Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statuses = append(r.statuses, s)
	return nil
}

func TestAppRun_DeliversAndTracksHealth(t *testing.T) {
	now := time.Now()
	src := &scriptedSource{results: []poller.Result{
		{Seq: 1, At: now},
		{Seq: 2, At: now, Err: rtu.ErrTimeout},
		{Seq: 3, At: now},
	}}
	sink := &recordingSink{}

	a := newApp(src, sink, status.NewTracker(0), zerolog.Nop())
	a.tick = time.Hour

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	assert.NilError(t, a.Run(ctx))

	assert.Equal(t, len(sink.results), 3)

	// unknown, ok, error, ok, disabled
	want := []status.Snapshot{
		{Health: status.HealthUnknown},
		{Health: status.HealthOK},
		{Health: status.HealthError, LastErrorCode: status.CodeTiming},
		{Health: status.HealthOK},
		{Health: status.HealthDisabled},
	}
	assert.DeepEqual(t, sink.statuses, want)
}

func TestAppRun_TickCountsSecondsInError(t *testing.T) {
	src := &scriptedSource{results: []poller.Result{
		{Seq: 1, At: time.Now(), Err: rtu.ErrTimeout},
	}}
	sink := &recordingSink{}

	a := newApp(src, sink, status.NewTracker(0), zerolog.Nop())
	a.tick = 10 * time.Millisecond

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	assert.NilError(t, a.Run(ctx))

	var maxSeconds uint16
	for _, s := range sink.statuses {
		if s.SecondsInError > maxSeconds {
			maxSeconds = s.SecondsInError
		}
	}
	assert.Assert(t, maxSeconds >= 2, "seconds_in_error=%d", maxSeconds)
}

func TestAppRun_PollError(t *testing.T) {
	boom := errors.New("closed")
	a := newApp(&scriptedSource{err: boom}, &recordingSink{}, status.NewTracker(0), zerolog.Nop())

	assert.ErrorIs(t, a.Run(context.Background()), boom)
}
