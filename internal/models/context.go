package models

// Context is a voicemail domain. Mailboxes and context configuration belong to it.
type Context struct {
	ID     uint   `json:"id"`
	Domain string `json:"domain"`
}

// IsPersisted reports whether the context has been assigned an identifier by storage.
func (c *Context) IsPersisted() bool {
	return c != nil && c.ID != 0
}

// ContextConfig is a key/value setting scoped to a context.
type ContextConfig struct {
	ID        uint   `json:"id"`
	ContextID uint   `json:"context_id"`
	Key       string `json:"key"`
	Value     string `json:"value"`
}

// IsPersisted reports whether the setting has been stored.
func (c *ContextConfig) IsPersisted() bool {
	return c != nil && c.ID != 0
}
