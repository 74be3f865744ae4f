package models

// Mailbox is a voicemail box identified by its number within a context.
//
// Read and Unread are the message-waiting counters. They are nil until the
// first counter operation touches a mailbox created without initial values,
// and once the mailbox is stored they only change through the counter
// operations of the mailbox repository.
type Mailbox struct {
	ID            uint   `json:"id"`
	ContextID     uint   `json:"context_id"`
	MailboxNumber string `json:"mailbox_number"`
	MailboxName   string `json:"mailbox_name"`
	Password      string `json:"-"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	GreetingBusy  string `json:"greeting_busy"`
	GreetingAway  string `json:"greeting_away"`
	GreetingName  string `json:"greeting_name"`
	Read          *int   `json:"read"`
	Unread        *int   `json:"unread"`
}

// IsPersisted reports whether the mailbox has been stored.
func (m *Mailbox) IsPersisted() bool {
	return m != nil && m.ID != 0
}

// Counts returns the counters with nil treated as zero.
func (m *Mailbox) Counts() Counts {
	return Counts{Read: intOrZero(m.Read), Unread: intOrZero(m.Unread)}
}

// MailboxConfig is a key/value setting scoped to a mailbox.
type MailboxConfig struct {
	ID        uint   `json:"id"`
	MailboxID uint   `json:"mailbox_id"`
	Key       string `json:"key"`
	Value     string `json:"value"`
}

// IsPersisted reports whether the setting has been stored.
func (c *MailboxConfig) IsPersisted() bool {
	return c != nil && c.ID != 0
}

// Counts holds the message-waiting counters of a mailbox.
type Counts struct {
	Read   int `json:"read"`
	Unread int `json:"unread"`
}

func intOrZero(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}
