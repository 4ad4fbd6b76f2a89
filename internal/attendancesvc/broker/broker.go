package broker

import (
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/presensia/presensi-services/internal/bridgesvc/fanout"
	"github.com/presensia/presensi-services/internal/comm"
	log "github.com/sirupsen/logrus"
)

// Broker follows the tag relay so the attendance service can answer
// "what was the last card seen" without talking to the bridge directly.
// The take-once/freshness semantics are the fanout slot's.
type Broker struct {
	Conn *nats.Conn
	slot *fanout.LatestSlot
}

func NewBroker(conn *nats.Conn, window time.Duration) *Broker {
	return &Broker{
		Conn: conn,
		slot: fanout.NewLatestSlot(window),
	}
}

// Subscribe starts consuming tag events from the bridge.
func (b *Broker) Subscribe(topic string) (*nats.Subscription, error) {
	sub, err := b.Conn.Subscribe(topic, b.handleMessages)
	if err != nil {
		return nil, err
	}

	return sub, nil
}

func (b *Broker) handleMessages(msgNats *nats.Msg) {
	event := &comm.TagEvent{}
	if err := json.Unmarshal(msgNats.Data, event); err != nil {
		log.Errorf("Error decoding tag event: %s", err)
		return
	}
	if event.UID == "" {
		return
	}

	// stamp with receipt time, the bridge clock may drift
	b.slot.Publish(comm.TagEvent{UID: event.UID, At: time.Now()})
}

// TakeLatest reports the most recent tag once, while fresh.
func (b *Broker) TakeLatest() (string, bool) {
	return b.slot.Take()
}
