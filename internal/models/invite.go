package models

import "time"

type InviteStatus string

const (
	InvitePending  InviteStatus = "pending"
	InviteAccepted InviteStatus = "accepted"
	InviteDeclined InviteStatus = "declined"
)

// Invite asks the recipient to open a chat with the sender.
type Invite struct {
	ID          string       `db:"id" json:"id"`
	SenderID    string       `db:"sender_id" json:"sender_id"`
	SenderName  string       `db:"sender_name" json:"sender_name"`
	RecipientID string       `db:"recipient_id" json:"recipient_id"`
	Status      InviteStatus `db:"status" json:"status"`
	CreatedAt   time.Time    `db:"created_at" json:"created_at"`
}

// CanTransition reports whether the invite may move to the given status.
// Accepted and declined are terminal.
func (i Invite) CanTransition(to InviteStatus) bool {
	return i.Status == InvitePending && (to == InviteAccepted || to == InviteDeclined)
}
