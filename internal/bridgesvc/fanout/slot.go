package fanout

import (
	"sync"
	"time"

	"github.com/presensia/presensi-services/internal/comm"
)

// LatestSlot is the pull-mode side of the bridge: a single slot holding
// the most recent tag read. A poll only sees the tag while it is fresh,
// and taking it clears the slot so sequential pollers never see the
// same tap twice.
type LatestSlot struct {
	mu     sync.Mutex
	uid    string
	at     time.Time
	window time.Duration
}

func NewLatestSlot(window time.Duration) *LatestSlot {
	return &LatestSlot{window: window}
}

func (s *LatestSlot) Publish(ev comm.TagEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.uid = ev.UID
	s.at = ev.At
}

// Take reports the latest tag if it was set within the freshness
// window, clearing the slot on success.
func (s *LatestSlot) Take() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.uid == "" || time.Since(s.at) >= s.window {
		return "", false
	}

	uid := s.uid
	s.uid = ""
	return uid, true
}
