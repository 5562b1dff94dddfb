package models

import "time"

type NotificationType string

const (
	NotifyInvite   NotificationType = "invite"
	NotifyMessage  NotificationType = "message"
	NotifyAccepted NotificationType = "accepted"
)

// NotificationEvent is published for the notification consumers (push, email, browser).
type NotificationEvent struct {
	Type        NotificationType `json:"type"`
	RecipientID string           `json:"recipient_id"`
	SenderID    string           `json:"sender_id"`
	SenderName  string           `json:"sender_name,omitempty"`
	ChatID      string           `json:"chat_id,omitempty"`
	InviteID    string           `json:"invite_id,omitempty"`
	Preview     string           `json:"preview,omitempty"`
	OccurredAt  time.Time        `json:"occurred_at"`
}

// RoutingKey is the AMQP routing key of the event.
func (e NotificationEvent) RoutingKey() string {
	return "notifications." + string(e.Type)
}
