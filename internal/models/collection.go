package models

import (
	"sort"
)

// MessageCollection is an ordered set of messages with a playback cursor.
// The zero value is an empty collection positioned before the first message.
type MessageCollection struct {
	messages []*Message
	pos      int
}

// NewMessageCollection returns a collection holding messages in the given order.
func NewMessageCollection(messages []*Message) *MessageCollection {
	c := &MessageCollection{}
	c.messages = append(c.messages, messages...)
	return c
}

// Len returns the number of messages in the collection.
func (c *MessageCollection) Len() int {
	return len(c.messages)
}

// Messages returns the messages in collection order.
func (c *MessageCollection) Messages() []*Message {
	out := make([]*Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// Add appends a message to the end of the collection.
func (c *MessageCollection) Add(m *Message) {
	c.messages = append(c.messages, m)
}

// Current returns the message under the cursor, or nil when the collection is empty.
func (c *MessageCollection) Current() *Message {
	if c.pos < 0 || c.pos >= len(c.messages) {
		return nil
	}
	return c.messages[c.pos]
}

// Next advances the cursor and returns the new current message. At the end of
// the collection the cursor stays put and nil is returned.
func (c *MessageCollection) Next() *Message {
	if c.pos+1 >= len(c.messages) {
		return nil
	}
	c.pos++
	return c.messages[c.pos]
}

// Previous moves the cursor back and returns the new current message. At the
// start of the collection the cursor stays put and nil is returned.
func (c *MessageCollection) Previous() *Message {
	if c.pos <= 0 || len(c.messages) == 0 {
		return nil
	}
	c.pos--
	return c.messages[c.pos]
}

// Remove drops the message with the given id. The cursor keeps pointing at the
// message that followed the removed one, or the new last message.
func (c *MessageCollection) Remove(id uint) bool {
	for i, m := range c.messages {
		if m.ID != id {
			continue
		}
		c.messages = append(c.messages[:i], c.messages[i+1:]...)
		if i < c.pos || c.pos >= len(c.messages) {
			c.pos--
		}
		if c.pos < 0 {
			c.pos = 0
		}
		return true
	}
	return false
}

// Sort orders unread messages first and newest first within each group, then
// rewinds the cursor.
func (c *MessageCollection) Sort() {
	sort.SliceStable(c.messages, func(i, j int) bool {
		a, b := c.messages[i], c.messages[j]
		if a.Read != b.Read {
			return !a.Read
		}
		if !a.Date.Equal(b.Date) {
			return a.Date.After(b.Date)
		}
		return a.ID > b.ID
	})
	c.pos = 0
}
