package session

import "github.com/pkudinov/liveclass/internal/domain"

// chatStore reconciles optimistic local sends with the authoritative
// broadcast stream. Messages are append-ordered; the id index makes the
// inbound merge idempotent against local echoes.
type chatStore struct {
	self       domain.UserID
	messages   []domain.ChatMessage
	index      map[string]int
	unread     int
	viewActive bool
}

func newChatStore(self domain.UserID) *chatStore {
	return &chatStore{self: self, index: make(map[string]int)}
}

// appendLocal records a pending placeholder immediately.
func (c *chatStore) appendLocal(msg domain.ChatMessage) {
	c.index[msg.ID] = len(c.messages)
	c.messages = append(c.messages, msg)
}

// confirm replaces the placeholder in place with the authoritative
// message. If the broadcast echo beat the confirmation here, the
// authoritative id is already present and the placeholder is dropped
// instead, so exactly one entry survives either ordering.
func (c *chatStore) confirm(localID string, authoritative domain.ChatMessage) {
	authoritative.Status = domain.DeliverySent
	i, ok := c.index[localID]
	if !ok {
		c.merge(authoritative)
		return
	}
	if j, dup := c.index[authoritative.ID]; dup && authoritative.ID != localID {
		// Echo already merged: remove the placeholder, keep the echo.
		c.messages[j].Status = domain.DeliverySent
		c.messages = append(c.messages[:i], c.messages[i+1:]...)
		delete(c.index, localID)
		c.reindex(i)
		return
	}
	delete(c.index, localID)
	c.messages[i] = authoritative
	c.index[authoritative.ID] = i
}

// fail marks the placeholder failed; it is never retried automatically.
func (c *chatStore) fail(localID string) {
	if i, ok := c.index[localID]; ok {
		c.messages[i].Status = domain.DeliveryError
	}
}

// merge appends an inbound message unless its id is already known.
// Unread counts only foreign messages while the chat view is inactive.
func (c *chatStore) merge(msg domain.ChatMessage) bool {
	if _, ok := c.index[msg.ID]; ok {
		return false
	}
	msg.Status = domain.DeliverySent
	c.index[msg.ID] = len(c.messages)
	c.messages = append(c.messages, msg)
	if !c.viewActive && msg.Sender != c.self {
		c.unread++
	}
	return true
}

func (c *chatStore) setViewActive(active bool) {
	c.viewActive = active
	if active {
		c.unread = 0
	}
}

func (c *chatStore) reindex(from int) {
	for i := from; i < len(c.messages); i++ {
		c.index[c.messages[i].ID] = i
	}
}

func (c *chatStore) snapshot() []domain.ChatMessage {
	return append([]domain.ChatMessage(nil), c.messages...)
}

func (c *chatStore) reset() {
	c.messages = nil
	c.index = make(map[string]int)
	c.unread = 0
	c.viewActive = false
}
