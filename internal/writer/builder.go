// internal/writer/builder.go
package writer

import (
	"io"
	"time"

	cfg "github.com/tamzrod/witmotion-modbus/internal/config"
	wmqtt "github.com/tamzrod/witmotion-modbus/internal/writer/mqtt"
	wnats "github.com/tamzrod/witmotion-modbus/internal/writer/nats"
)

// Build creates the writers named in the sinks section.
// Assumes config has already passed validation and normalization.
// On error every transport opened so far is closed again.
func Build(s cfg.SinksConfig, session string, stdout io.Writer) (*Fanout, error) {
	f := New()

	if !s.Console.Disabled {
		f.Add("console", NewConsole(stdout, s.Console.Verbose))
	}

	if m := s.MQTT; m != nil {
		c, err := wmqtt.Connect(wmqtt.Config{
			Broker:   m.Broker,
			ClientID: m.ClientID,
			Username: m.Username,
			Password: m.Password,
			QoS:      m.QoS,
			Retained: m.Retained,
			Timeout:  time.Duration(m.TimeoutMs) * time.Millisecond,
		})
		if err != nil {
			_ = f.Close()
			return nil, err
		}
		f.Add("mqtt", NewBroker(c, m.Topic, m.Topic+"/status", session))
	}

	if n := s.NATS; n != nil {
		c, err := wnats.Connect(wnats.Config{URL: n.URL, Name: session})
		if err != nil {
			_ = f.Close()
			return nil, err
		}
		f.Add("nats", NewBroker(c, n.Subject, n.Subject+".status", session))
	}

	return f, nil
}
