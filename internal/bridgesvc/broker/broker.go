package broker

import (
	"encoding/json"

	"github.com/nats-io/nats.go"

	"github.com/presensia/presensi-services/internal/comm"
	log "github.com/sirupsen/logrus"
)

// Broker relays tag events to NATS so services beyond the bridge's own
// websocket/poll consumers can react to card reads.
type Broker struct {
	Conn *nats.Conn
}

func NewBroker(conn *nats.Conn) *Broker {
	return &Broker{Conn: conn}
}

// Publish implements reader.Sink.
func (b *Broker) Publish(ev comm.TagEvent) {
	bytes, err := json.Marshal(ev)
	if err != nil {
		log.Errorf("Failed to marshal TagEvent for NATS: %v", err)
		return
	}

	if err := b.Conn.Publish(comm.TagTopic, bytes); err != nil {
		log.Errorf("Error publishing to topic %s: %s", comm.TagTopic, err)
	}
}
