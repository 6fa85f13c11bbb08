package domain

import "time"

// Notification is a rendered highlight notification pending dispatch.
type Notification struct {
	TargetUserID string
	Title        string
	Description  string
	MessageID    string
	ChannelID    string
	CreatedAt    time.Time // creation time of the matched message
}

// SameAs checks if two notifications would render identically for the
// same recipient. The dispatch queue collapses such duplicates on
// drain.
func (n *Notification) SameAs(other *Notification) bool {
	return n.TargetUserID == other.TargetUserID && n.Description == other.Description
}
