package models

import (
	"time"
)

// Message is a recorded voicemail left in a mailbox folder.
type Message struct {
	ID              uint      `json:"id"`
	MailboxID       uint      `json:"mailbox_id"`
	FolderID        uint      `json:"folder_id"`
	Date            time.Time `json:"date"`
	Read            bool      `json:"read"`
	OriginalMailbox *int      `json:"original_mailbox,omitempty"`
	CallerID        *string   `json:"caller_id,omitempty"`
	Duration        string    `json:"duration"`
	Recording       string    `json:"recording"`
}

// IsPersisted reports whether the message has been stored.
func (m *Message) IsPersisted() bool {
	return m != nil && m.ID != 0
}

// MarkAsRead flips the in-memory read flag. It returns true only when the
// flag changed.
func (m *Message) MarkAsRead() bool {
	if m.Read {
		return false
	}
	m.Read = true
	return true
}

// WithFolder returns a copy of the message placed in folder. The identifier
// and every other field are preserved.
func (m *Message) WithFolder(folder *Folder) *Message {
	moved := *m
	if m.OriginalMailbox != nil {
		v := *m.OriginalMailbox
		moved.OriginalMailbox = &v
	}
	if m.CallerID != nil {
		v := *m.CallerID
		moved.CallerID = &v
	}
	moved.FolderID = folder.ID
	return &moved
}
