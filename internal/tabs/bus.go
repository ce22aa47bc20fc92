// Package tabs implements the cross-tab exclusivity protocol over an
// in-process broadcast channel. It is advisory, not a correctness
// guarantee: a lost or late frame means a probe simply reports "not
// occupied".
package tabs

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/pkudinov/liveclass/internal/domain"
)

type FrameType string

const (
	FrameCheck    FrameType = "check"
	FrameOccupied FrameType = "occupied"
	FrameJoined   FrameType = "joined"
	FrameLeft     FrameType = "left"
)

// Frame is one broadcast message. To is set only on addressed replies;
// empty means every other subscriber sees it.
type Frame struct {
	Type    FrameType
	Meeting domain.MeetingID
	User    domain.UserID
	From    string
	To      string
}

// Bus fans frames out to every subscribed tab. Sends never block: a
// subscriber with a full channel misses the frame, which the protocol
// tolerates.
type Bus struct {
	mu   sync.RWMutex
	subs map[string]chan Frame
}

func NewBus() *Bus {
	return &Bus{subs: make(map[string]chan Frame)}
}

func (b *Bus) Subscribe(tab string) <-chan Frame {
	ch := make(chan Frame, 16)
	b.mu.Lock()
	defer b.mu.Unlock()
	if old, ok := b.subs[tab]; ok {
		close(old)
	}
	b.subs[tab] = ch
	return ch
}

func (b *Bus) Unsubscribe(tab string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if ch, ok := b.subs[tab]; ok {
		close(ch)
		delete(b.subs, tab)
	}
}

func (b *Bus) Publish(f Frame) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for tab, ch := range b.subs {
		if tab == f.From {
			continue
		}
		if f.To != "" && tab != f.To {
			continue
		}
		select {
		case ch <- f:
		default:
			log.Debug().Str("module", "tabs").Str("tab", tab).Str("type", string(f.Type)).Msg("dropped frame for slow tab")
		}
	}
}
