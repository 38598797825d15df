// internal/writer/types.go
package writer

import (
	"time"

	"github.com/tamzrod/witmotion-modbus/internal/poller"
	"github.com/tamzrod/witmotion-modbus/internal/status"
	"github.com/tamzrod/witmotion-modbus/internal/witmotion"
)

// Writer delivers poll results.
type Writer interface {
	Write(res poller.Result) error
}

// StatusWriter is the delivery-only contract for sensor health.
// It receives a snapshot and delivers it verbatim.
type StatusWriter interface {
	WriteStatus(s status.Snapshot) error
}

// SamplePayload is the wire form of one poll result.
type SamplePayload struct {
	Session string    `json:"session"`
	Seq     uint64    `json:"seq"`
	At      time.Time `json:"at"`
	Address byte      `json:"address"`

	Acceleration    *witmotion.Vector `json:"acceleration,omitempty"`
	AngularVelocity *witmotion.Vector `json:"angular_velocity,omitempty"`
	Magnetic        *witmotion.Vector `json:"magnetic,omitempty"`
	Angles          *witmotion.Vector `json:"angles,omitempty"`
	Temperature     *float32          `json:"temperature,omitempty"`

	Error     string `json:"error,omitempty"`
	ErrorCode uint16 `json:"error_code,omitempty"`
}

// NewSamplePayload flattens res for publishing.
func NewSamplePayload(session string, res poller.Result) SamplePayload {
	p := SamplePayload{
		Session: session,
		Seq:     res.Seq,
		At:      res.At,
	}
	if res.Err != nil {
		p.Error = res.Err.Error()
		p.ErrorCode = status.ErrorCode(res.Err)
		return p
	}

	s := res.Sample
	p.Address = s.Address
	p.Acceleration = s.Acceleration
	p.AngularVelocity = s.AngularVelocity
	p.Magnetic = s.Magnetic
	p.Angles = s.Angles
	p.Temperature = s.Temperature
	return p
}

// StatusPayload is the wire form of a health snapshot.
type StatusPayload struct {
	Session        string    `json:"session"`
	At             time.Time `json:"at"`
	Health         string    `json:"health"`
	HealthCode     uint16    `json:"health_code"`
	LastErrorCode  uint16    `json:"last_error_code"`
	SecondsInError uint16    `json:"seconds_in_error"`
}

func NewStatusPayload(session string, s status.Snapshot, at time.Time) StatusPayload {
	return StatusPayload{
		Session:        session,
		At:             at,
		Health:         status.HealthName(s.Health),
		HealthCode:     s.Health,
		LastErrorCode:  s.LastErrorCode,
		SecondsInError: s.SecondsInError,
	}
}
