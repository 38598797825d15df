// internal/poller/poller_test.go
package poller

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tamzrod/witmotion-modbus/internal/rtu"
	"github.com/tamzrod/witmotion-modbus/internal/witmotion"
)

type fakeClient struct {
	mu    sync.Mutex
	calls int
	fail  func(call int) error
	delay time.Duration
}

func (f *fakeClient) Execute(ctx context.Context, req rtu.Request, p rtu.Policy) (rtu.Response, error) {
	f.mu.Lock()
	f.calls++
	call := f.calls
	f.mu.Unlock()

	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.fail != nil {
		if err := f.fail(call); err != nil {
			return rtu.Response{}, err
		}
	}
	regs := make([]uint16, req.Count)
	regs[1] = 0x0100
	return rtu.Response{Address: req.Address, Function: req.Function, Registers: regs}, nil
}

func (f *fakeClient) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func testConfig() Config {
	return Config{
		Address:  0x50,
		Interval: 20 * time.Millisecond,
		Start:    witmotion.SampleStart,
		Count:    witmotion.SampleCount,
	}
}

func TestNew_Validation(t *testing.T) {
	c := &fakeClient{}

	bad := []Config{
		{Address: 0x50, Interval: 0, Start: 0x34, Count: 12},
		{Address: 0x50, Interval: time.Second, Start: 0x34, Count: 0},
		{Address: 0x50, Interval: time.Second, Start: 0x34, Count: 126},
		{Address: 0xFF, Interval: time.Second, Start: 0x34, Count: 12},
	}
	for i, cfg := range bad {
		if _, err := New(cfg, c, zerolog.Nop()); err == nil {
			t.Fatalf("case %d: expected error", i)
		}
	}

	if _, err := New(testConfig(), nil, zerolog.Nop()); err == nil {
		t.Fatalf("nil client: expected error")
	}
}

func TestPollOnce_Success(t *testing.T) {
	p, err := New(testConfig(), &fakeClient{}, zerolog.Nop())
	if err != nil {
		t.Fatalf("New() err=%v", err)
	}

	res := p.PollOnce(context.Background())
	if res.Err != nil {
		t.Fatalf("PollOnce err=%v", res.Err)
	}
	if res.Seq != 1 {
		t.Fatalf("seq=%d want 1", res.Seq)
	}
	s := res.Sample
	if s.Acceleration == nil || s.AngularVelocity == nil || s.Magnetic == nil || s.Angles == nil {
		t.Fatalf("expected all four blocks, got %+v", s)
	}
	if s.Acceleration[1] != 0.125 {
		t.Fatalf("acc y=%v want 0.125", s.Acceleration[1])
	}
	if s.Temperature != nil {
		t.Fatalf("temperature was not requested")
	}
}

func TestPollOnce_Failure(t *testing.T) {
	c := &fakeClient{fail: func(int) error { return rtu.ErrTimeout }}
	p, err := New(testConfig(), c, zerolog.Nop())
	if err != nil {
		t.Fatalf("New() err=%v", err)
	}

	res := p.PollOnce(context.Background())
	if !errors.Is(res.Err, rtu.ErrTimeout) {
		t.Fatalf("expected timeout, got %v", res.Err)
	}
	if res.Sample.Acceleration != nil {
		t.Fatalf("failed tick must not carry a sample")
	}
}

func TestPollOnce_ExceptionCode(t *testing.T) {
	c := &fakeClient{fail: func(int) error {
		return &rtu.ExceptionError{Function: rtu.FuncReadHoldingRegisters, Exception: rtu.ExceptionIllegalDataAddress}
	}}
	p, _ := New(testConfig(), c, zerolog.Nop())

	res := p.PollOnce(context.Background())
	if res.RawErrorCode != 2 {
		t.Fatalf("raw error code=%d want 2", res.RawErrorCode)
	}
}

func TestNextTick(t *testing.T) {
	anchor := time.Unix(1000, 0)
	iv := 100 * time.Millisecond

	cases := []struct {
		now   time.Duration
		want  time.Duration
		wantK int64
	}{
		{0, 100 * time.Millisecond, 1},
		{10 * time.Millisecond, 100 * time.Millisecond, 1},
		{100 * time.Millisecond, 200 * time.Millisecond, 2},
		// overrun past two slots: skip ahead, no catch-up
		{250 * time.Millisecond, 300 * time.Millisecond, 3},
	}
	for _, c := range cases {
		next, k := nextTick(anchor, iv, anchor.Add(c.now))
		if !next.Equal(anchor.Add(c.want)) || k != c.wantK {
			t.Fatalf("now=+%v: got +%v (k=%d), want +%v (k=%d)",
				c.now, next.Sub(anchor), k, c.want, c.wantK)
		}
	}

	next, k := nextTick(anchor, iv, anchor.Add(-time.Second))
	if !next.Equal(anchor) || k != 0 {
		t.Fatalf("before anchor: got %v k=%d", next, k)
	}
}

func TestRun_ContinuesAfterFailure(t *testing.T) {
	c := &fakeClient{fail: func(call int) error {
		if call == 2 {
			return rtu.ErrCRCMismatch
		}
		return nil
	}}
	p, _ := New(testConfig(), c, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	out := make(chan Result)
	done := make(chan struct{})
	go func() {
		p.Run(ctx, out)
		close(done)
	}()

	var got []Result
	for len(got) < 3 {
		select {
		case r := <-out:
			got = append(got, r)
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for results, got %d", len(got))
		}
	}
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("Run did not stop after cancel")
	}

	if got[0].Err != nil || got[2].Err != nil {
		t.Fatalf("ticks 1 and 3 should succeed: %v, %v", got[0].Err, got[2].Err)
	}
	if !errors.Is(got[1].Err, rtu.ErrCRCMismatch) {
		t.Fatalf("tick 2: got %v", got[1].Err)
	}
	for i, r := range got {
		if r.Seq != uint64(i+1) {
			t.Fatalf("result %d has seq %d", i, r.Seq)
		}
	}
}

func TestRun_NoCatchUpBurst(t *testing.T) {
	cfg := testConfig()
	cfg.Interval = 10 * time.Millisecond
	c := &fakeClient{delay: 35 * time.Millisecond}
	p, _ := New(cfg, c, zerolog.Nop())

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	out := make(chan Result, 64)
	p.Run(ctx, out)

	// each tick takes ~3.5 intervals; a catch-up loop would fire about 20 times
	if n := c.callCount(); n > 7 {
		t.Fatalf("%d polls in 200ms with 35ms transactions", n)
	}
}
