package broker

import (
	"encoding/json"

	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"

	"github.com/amankwa/attendance-services/internal/events"
)

// Broker publishes base station events for the stream gateway to fan out
// to web clients.
type Broker struct {
	Conn *nats.Conn
}

func NewBroker(nc *nats.Conn) *Broker {
	return &Broker{Conn: nc}
}

// Publish wraps the payload in an envelope and sends it on the events
// subject. Delivery is fire and forget; a failure is logged, never fatal.
func (b *Broker) Publish(eventType string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Errorf("events: unable to marshal %s payload: %v", eventType, err)
		return
	}

	env := &events.Envelope{Type: eventType, Data: data}
	raw, err := json.Marshal(env)
	if err != nil {
		log.Errorf("events: unable to marshal envelope: %v", err)
		return
	}

	if err := b.Conn.Publish(events.Subject, raw); err != nil {
		log.Errorf("events: publishing %s failed: %v", eventType, err)
	}
}
