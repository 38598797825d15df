// internal/writer/status_writer.go
package writer

import (
	"fmt"

	"github.com/tamzrod/witmotion-modbus/internal/status"
)

// StatusGate forwards only snapshots that differ from the last one
// delivered. After a failed delivery the next snapshot is always sent.
type StatusGate struct {
	next StatusWriter

	needFull bool
	last     status.Snapshot
}

func NewStatusGate(next StatusWriter) *StatusGate {
	return &StatusGate{
		next:     next,
		needFull: true, // first snapshot always goes out
	}
}

func (g *StatusGate) WriteStatus(s status.Snapshot) error {
	if !g.needFull && s == g.last {
		return nil
	}

	if err := g.next.WriteStatus(s); err != nil {
		// Any failure introduces doubt: re-assert on next call.
		g.needFull = true
		return fmt.Errorf("status writer: %w", err)
	}

	g.needFull = false
	g.last = s
	return nil
}
