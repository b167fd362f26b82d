package broker

import (
	"encoding/json"

	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"

	"github.com/amankwa/attendance-services/internal/events"
	"github.com/amankwa/attendance-services/internal/streamsvc/hub"
)

// Broker forwards base station events from NATS to connected web
// clients.
type Broker struct {
	Conn *nats.Conn
	hub  *hub.Hub
}

func NewBroker(conn *nats.Conn, h *hub.Hub) *Broker {
	return &Broker{Conn: conn, hub: h}
}

// Subscribe starts consuming the base station event subject.
func (b *Broker) Subscribe() (*nats.Subscription, error) {
	sub, err := b.Conn.Subscribe(events.Subject, b.handleMessage)
	if err != nil {
		return nil, err
	}

	return sub, nil
}

func (b *Broker) handleMessage(msgNats *nats.Msg) {
	env := &events.Envelope{}
	if err := json.Unmarshal(msgNats.Data, env); err != nil {
		log.Errorf("Error: malformed event envelope %s", err)
		return
	}

	log.Debugf("fanning out %s event to %d sockets", env.Type, b.hub.Count())
	b.hub.Broadcast(msgNats.Data)
}
