// internal/poller/runner.go
package poller

import (
	"context"
	"time"
)

// Run polls on a schedule anchored at its start and emits one Result per
// tick on out. Slots missed during a slow tick are skipped, not replayed.
// Failed ticks are emitted with Err set; the loop keeps going until ctx ends.
func (p *Poller) Run(ctx context.Context, out chan<- Result) {
	anchor := time.Now()
	slot := int64(0)

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		res := p.PollOnce(ctx)
		if ctx.Err() != nil {
			return
		}

		if res.Err != nil {
			p.log.Warn().
				Uint64("seq", res.Seq).
				Err(res.Err).
				Msg("poll failed")
		}

		select {
		case out <- res:
		case <-ctx.Done():
			return
		}

		next, k := nextTick(anchor, p.cfg.Interval, time.Now())
		if skipped := k - slot - 1; skipped > 0 {
			p.log.Debug().
				Int64("skipped", skipped).
				Uint64("seq", res.Seq).
				Msg("poll overran its interval")
		}
		slot = k
		timer.Reset(time.Until(next))
	}
}

// nextTick returns the first slot anchor + k*interval strictly after now.
func nextTick(anchor time.Time, interval time.Duration, now time.Time) (time.Time, int64) {
	if now.Before(anchor) {
		return anchor, 0
	}
	k := int64(now.Sub(anchor)/interval) + 1
	return anchor.Add(time.Duration(k) * interval), k
}
