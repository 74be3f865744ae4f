package models

// Folder groups messages. DTMF is the digit a caller presses to select it.
type Folder struct {
	ID        uint   `json:"id"`
	Name      string `json:"name"`
	Recording string `json:"recording"`
	DTMF      int    `json:"dtmf"`
}

// IsPersisted reports whether the folder has been stored.
func (f *Folder) IsPersisted() bool {
	return f != nil && f.ID != 0
}
