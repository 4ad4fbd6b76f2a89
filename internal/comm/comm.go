package comm

import (
	"time"
)

// TagTopic is the NATS subject the bridge publishes card reads on.
const TagTopic = "bridge.tag"

// TagEvent is one card read coming off the serial reader. It only lives
// in memory and on the wire between the bridge and its consumers.
type TagEvent struct {
	UID string    `json:"uid"`
	At  time.Time `json:"at"`
}
