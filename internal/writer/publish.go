// internal/writer/publish.go
package writer

import (
	"encoding/json"
	"time"

	"github.com/tamzrod/witmotion-modbus/internal/poller"
	"github.com/tamzrod/witmotion-modbus/internal/status"
)

// Publisher moves opaque payloads to a broker topic or subject.
type Publisher interface {
	Publish(topic string, payload []byte) error
	Close() error
}

// Broker publishes results and health as JSON through a Publisher.
type Broker struct {
	pub         Publisher
	topic       string
	statusTopic string
	session     string
	now         func() time.Time
}

func NewBroker(pub Publisher, topic, statusTopic, session string) *Broker {
	return &Broker{
		pub:         pub,
		topic:       topic,
		statusTopic: statusTopic,
		session:     session,
		now:         time.Now,
	}
}

func (b *Broker) Write(res poller.Result) error {
	data, err := json.Marshal(NewSamplePayload(b.session, res))
	if err != nil {
		return err
	}
	return b.pub.Publish(b.topic, data)
}

func (b *Broker) WriteStatus(s status.Snapshot) error {
	data, err := json.Marshal(NewStatusPayload(b.session, s, b.now()))
	if err != nil {
		return err
	}
	return b.pub.Publish(b.statusTopic, data)
}

func (b *Broker) Close() error { return b.pub.Close() }
