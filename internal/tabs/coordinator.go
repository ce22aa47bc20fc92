package tabs

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/pkudinov/liveclass/internal/domain"
)

// Coordinator speaks the exclusivity protocol for one tab. It answers
// peers' checks while this tab holds a live session, and probes peers
// before this tab joins.
type Coordinator struct {
	bus    *Bus
	tab    string
	window time.Duration
	rx     <-chan Frame
	done   chan struct{}

	mu       sync.Mutex
	holding  bool
	meeting  domain.MeetingID
	user     domain.UserID
	conflict domain.MeetingID // zero when no conflict recorded
	probeCh  chan struct{}
	probing  domain.MeetingID
}

func NewCoordinator(bus *Bus, tab string, window time.Duration) *Coordinator {
	c := &Coordinator{
		bus:    bus,
		tab:    tab,
		window: window,
		rx:     bus.Subscribe(tab),
		done:   make(chan struct{}),
	}
	go c.run()
	return c
}

func (c *Coordinator) run() {
	defer close(c.done)
	for f := range c.rx {
		c.handle(f)
	}
}

func (c *Coordinator) handle(f Frame) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch f.Type {
	case FrameCheck:
		if c.holding && c.meeting == f.Meeting && c.user == f.User {
			log.Debug().Str("module", "tabs").Str("tab", c.tab).Str("peer", f.From).Msg("answering occupied")
			c.bus.Publish(Frame{Type: FrameOccupied, Meeting: f.Meeting, User: f.User, From: c.tab, To: f.From})
		}
	case FrameOccupied:
		if c.probeCh != nil && c.probing == f.Meeting {
			select {
			case c.probeCh <- struct{}{}:
			default:
			}
		}
	case FrameJoined:
		// Another tab of the same user went live in a meeting we are
		// not holding: remember the conflict.
		if !c.holding && c.user != "" && c.user == f.User {
			c.conflict = f.Meeting
		}
	case FrameLeft:
		if c.conflict == f.Meeting {
			c.conflict = ""
		}
	}
}

// Probe asks peers whether meeting is already held by another tab of
// the same user. Absence of a reply within the window means "not
// occupied"; the check is best effort only.
func (c *Coordinator) Probe(ctx context.Context, meeting domain.MeetingID, user domain.UserID) bool {
	ch := make(chan struct{}, 1)
	c.mu.Lock()
	c.user = user
	c.probeCh = ch
	c.probing = meeting
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.probeCh = nil
		c.probing = ""
		c.mu.Unlock()
	}()

	c.bus.Publish(Frame{Type: FrameCheck, Meeting: meeting, User: user, From: c.tab})

	timer := time.NewTimer(c.window)
	defer timer.Stop()
	select {
	case <-ch:
		c.mu.Lock()
		c.conflict = meeting
		c.mu.Unlock()
		log.Info().Str("module", "tabs").Str("tab", c.tab).Str("meeting", string(meeting)).Msg("meeting occupied by another tab")
		return true
	case <-timer.C:
		return false
	case <-ctx.Done():
		return false
	}
}

// Joined records this tab as the live holder and announces it.
func (c *Coordinator) Joined(meeting domain.MeetingID, user domain.UserID) {
	c.mu.Lock()
	c.holding = true
	c.meeting = meeting
	c.user = user
	c.mu.Unlock()
	c.bus.Publish(Frame{Type: FrameJoined, Meeting: meeting, User: user, From: c.tab})
}

// Left drops the holder mark and tells peers to clear conflict flags.
func (c *Coordinator) Left() {
	c.mu.Lock()
	if !c.holding {
		c.mu.Unlock()
		return
	}
	meeting, user := c.meeting, c.user
	c.holding = false
	c.meeting = ""
	c.mu.Unlock()
	c.bus.Publish(Frame{Type: FrameLeft, Meeting: meeting, User: user, From: c.tab})
}

// Conflict reports whether another tab is believed to hold a session
// for the given meeting.
func (c *Coordinator) Conflict(meeting domain.MeetingID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conflict != "" && c.conflict == meeting
}

// ConflictMeeting returns the meeting currently recorded as occupied
// elsewhere, if any.
func (c *Coordinator) ConflictMeeting() (domain.MeetingID, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conflict, c.conflict != ""
}

// Close unsubscribes from the bus and stops the answer loop.
func (c *Coordinator) Close() {
	c.bus.Unsubscribe(c.tab)
	<-c.done
}
