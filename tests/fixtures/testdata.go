// Package fixtures builds voicemail entities and deposit messages for tests.
package fixtures

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/welldanyogia/voicemail-store/internal/models"
)

// BaseDate is the date of the first message made by CreateMessages.
var BaseDate = time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

// MailboxBuilder creates test Mailbox instances with fluent API
type MailboxBuilder struct {
	mailbox models.Mailbox
}

// NewMailboxBuilder creates a new MailboxBuilder with sensible defaults
func NewMailboxBuilder() *MailboxBuilder {
	return &MailboxBuilder{
		mailbox: models.Mailbox{
			ContextID:     1,
			MailboxNumber: "1001",
			MailboxName:   "1001",
			Password:      "1234",
			Name:          "Test User",
			Email:         "user@example.com",
		},
	}
}

// WithID sets the mailbox ID
func (b *MailboxBuilder) WithID(id uint) *MailboxBuilder {
	b.mailbox.ID = id
	return b
}

// WithContext sets the owning context
func (b *MailboxBuilder) WithContext(owner *models.Context) *MailboxBuilder {
	b.mailbox.ContextID = owner.ID
	return b
}

// WithNumber sets the mailbox number
func (b *MailboxBuilder) WithNumber(number string) *MailboxBuilder {
	b.mailbox.MailboxNumber = number
	b.mailbox.MailboxName = number
	return b
}

// WithName sets the owner name
func (b *MailboxBuilder) WithName(name string) *MailboxBuilder {
	b.mailbox.Name = name
	return b
}

// WithCounts sets the initial counters
func (b *MailboxBuilder) WithCounts(read, unread int) *MailboxBuilder {
	b.mailbox.Read, b.mailbox.Unread = &read, &unread
	return b
}

// Build returns the constructed Mailbox
func (b *MailboxBuilder) Build() *models.Mailbox {
	m := b.mailbox
	return &m
}

// MessageBuilder creates test Message instances with fluent API
type MessageBuilder struct {
	message models.Message
}

// NewMessageBuilder creates a new MessageBuilder with sensible defaults
func NewMessageBuilder() *MessageBuilder {
	return &MessageBuilder{
		message: models.Message{
			MailboxID: 1,
			FolderID:  1,
			Date:      BaseDate,
			Duration:  "10",
		},
	}
}

// WithID sets the message ID
func (b *MessageBuilder) WithID(id uint) *MessageBuilder {
	b.message.ID = id
	return b
}

// In files the message in mailbox and folder
func (b *MessageBuilder) In(mailbox *models.Mailbox, folder *models.Folder) *MessageBuilder {
	b.message.MailboxID = mailbox.ID
	b.message.FolderID = folder.ID
	return b
}

// WithDate sets the message date
func (b *MessageBuilder) WithDate(t time.Time) *MessageBuilder {
	b.message.Date = t
	return b
}

// WithRead sets the read flag
func (b *MessageBuilder) WithRead(read bool) *MessageBuilder {
	b.message.Read = read
	return b
}

// WithCallerID sets the caller id
func (b *MessageBuilder) WithCallerID(callerID string) *MessageBuilder {
	b.message.CallerID = &callerID
	return b
}

// WithRecording sets the recording path
func (b *MessageBuilder) WithRecording(path string) *MessageBuilder {
	b.message.Recording = path
	return b
}

// Build returns the constructed Message
func (b *MessageBuilder) Build() *models.Message {
	m := b.message
	return &m
}

// CreateMessages builds count unsaved messages one minute apart
func CreateMessages(mailbox *models.Mailbox, folder *models.Folder, count int) []*models.Message {
	messages := make([]*models.Message, count)
	for i := range messages {
		messages[i] = NewMessageBuilder().
			In(mailbox, folder).
			WithDate(BaseDate.Add(time.Duration(i) * time.Minute)).
			WithCallerID(fmt.Sprintf("\"Caller %d\" <%d>", i, 2000+i)).
			Build()
	}
	return messages
}

// StandardFolders are the folders a voicemail system is provisioned with.
func StandardFolders() []*models.Folder {
	names := []string{"INBOX", "Old", "Work", "Family", "Friends"}
	folders := make([]*models.Folder, len(names))
	for i, name := range names {
		folders[i] = &models.Folder{Name: name, Recording: "vm-" + name, DTMF: i}
	}
	return folders
}

// Deposit describes a voicemail deposit message
type Deposit struct {
	From     string
	To       []string
	CallerID string
	Duration string
	Date     time.Time
	Audio    []byte
}

// NewDeposit returns a deposit of a short WAV recording to rcpt
func NewDeposit(rcpt ...string) *Deposit {
	return &Deposit{
		From:     "asterisk@pbx.example.com",
		To:       rcpt,
		CallerID: "\"Bob\" <2002>",
		Duration: "7",
		Date:     BaseDate,
		Audio:    []byte("RIFF\x24\x00\x00\x00WAVEfmt "),
	}
}

// Bytes renders the deposit as a MIME message with the audio attached
func (d *Deposit) Bytes() []byte {
	const boundary = "voicemail-boundary"
	var b strings.Builder

	fmt.Fprintf(&b, "From: Voicemail <%s>\r\n", d.From)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(d.To, ", "))
	fmt.Fprintf(&b, "Subject: New voicemail\r\n")
	fmt.Fprintf(&b, "Date: %s\r\n", d.Date.Format(time.RFC1123Z))
	if d.CallerID != "" {
		fmt.Fprintf(&b, "X-Caller-ID: %s\r\n", d.CallerID)
	}
	if d.Duration != "" {
		fmt.Fprintf(&b, "X-Voicemail-Duration: %s\r\n", d.Duration)
	}
	fmt.Fprintf(&b, "MIME-Version: 1.0\r\n")
	fmt.Fprintf(&b, "Content-Type: multipart/mixed; boundary=%q\r\n\r\n", boundary)

	fmt.Fprintf(&b, "--%s\r\n", boundary)
	fmt.Fprintf(&b, "Content-Type: text/plain; charset=utf-8\r\n\r\n")
	fmt.Fprintf(&b, "You have a new voicemail.\r\n")

	if len(d.Audio) > 0 {
		fmt.Fprintf(&b, "--%s\r\n", boundary)
		fmt.Fprintf(&b, "Content-Type: audio/x-wav; name=\"msg0000.wav\"\r\n")
		fmt.Fprintf(&b, "Content-Transfer-Encoding: base64\r\n")
		fmt.Fprintf(&b, "Content-Disposition: attachment; filename=\"msg0000.wav\"\r\n\r\n")
		fmt.Fprintf(&b, "%s\r\n", base64.StdEncoding.EncodeToString(d.Audio))
	}
	fmt.Fprintf(&b, "--%s--\r\n", boundary)

	return []byte(b.String())
}
