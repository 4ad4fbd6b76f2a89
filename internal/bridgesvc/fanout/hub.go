package fanout

import (
	"sync"

	"github.com/gorilla/websocket"

	"github.com/presensia/presensi-services/internal/comm"
	log "github.com/sirupsen/logrus"
)

// Subscriber is the slice of *websocket.Conn the hub needs.
type Subscriber interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Hub keeps the set of currently connected push-mode subscribers and
// delivers every tag event to each of them. A subscriber that fails a
// write is dropped without affecting delivery to the others.
type Hub struct {
	connMap sync.Map // socketId -> Subscriber
}

func NewHub() *Hub {
	return &Hub{}
}

func (h *Hub) Add(socketId string, sub Subscriber) {
	h.connMap.Store(socketId, sub)
}

func (h *Hub) Remove(socketId string) {
	h.connMap.Delete(socketId)
}

func (h *Hub) Count() int {
	count := 0
	h.connMap.Range(func(key, value any) bool {
		count++
		return true
	})
	return count
}

// Publish sends the tag UID as one text frame to every subscriber.
func (h *Hub) Publish(ev comm.TagEvent) {
	h.connMap.Range(func(key, value any) bool {
		socketId := key.(string)
		sub := value.(Subscriber)
		if err := sub.WriteMessage(websocket.TextMessage, []byte(ev.UID)); err != nil {
			log.Warnf("dropping subscriber %s: %v", socketId, err)
			h.connMap.Delete(socketId)
			sub.Close()
		}
		return true
	})
}
