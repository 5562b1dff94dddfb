package models

import (
	"database/sql/driver"
	"time"
)

type MessageType string

const (
	MessageText   MessageType = "text"
	MessageImage  MessageType = "image"
	MessageSystem MessageType = "system"
)

const (
	DeletedTextPlaceholder  = "This message was deleted"
	DeletedImagePlaceholder = ""
	ImagePreview            = "Sent an image"
	EmptyChatPreview        = "No messages"
)

// ReplyRef is a point-in-time copy of the message being replied to.
type ReplyRef struct {
	ID       string      `json:"id"`
	Content  string      `json:"content"`
	SenderID string      `json:"sender_id"`
	Type     MessageType `json:"type"`
}

func (r ReplyRef) Value() (driver.Value, error) {
	return jsonValue(r)
}

func (r *ReplyRef) Scan(src any) error {
	return scanJSON(src, r)
}

// ImageMeta describes an uploaded image attachment.
type ImageMeta struct {
	OriginalName string `json:"original_name"`
	Size         int64  `json:"size"`
	ContentType  string `json:"content_type"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
}

func (m ImageMeta) Value() (driver.Value, error) {
	return jsonValue(m)
}

func (m *ImageMeta) Scan(src any) error {
	return scanJSON(src, m)
}

// Message represents a chat message. Deleted messages are kept as tombstones.
type Message struct {
	ID        string      `db:"id" json:"id"`
	ChatID    string      `db:"chat_id" json:"chat_id"`
	SenderID  string      `db:"sender_id" json:"sender_id"`
	Content   string      `db:"content" json:"content"`
	Type      MessageType `db:"type" json:"type"`
	ReplyTo   *ReplyRef   `db:"reply_to" json:"reply_to,omitempty"`
	ImageID   *string     `db:"image_id" json:"image_id,omitempty"`
	ImageMeta *ImageMeta  `db:"image_meta" json:"image_meta,omitempty"`
	Timestamp time.Time   `db:"created_at" json:"timestamp"`
	Read      bool        `db:"read" json:"read"`
	Deleted   bool        `db:"deleted" json:"deleted"`
}

// TombstoneContent is the content a deleted message of type t carries.
func TombstoneContent(t MessageType) string {
	if t == MessageImage {
		return DeletedImagePlaceholder
	}
	return DeletedTextPlaceholder
}

// LastMessagePreview is the chat-list preview for a message.
func LastMessagePreview(t MessageType, content string) string {
	if t == MessageImage {
		return ImagePreview
	}
	return content
}

// Reply snapshots m for use as a reply reference.
func (m Message) Reply() *ReplyRef {
	return &ReplyRef{ID: m.ID, Content: m.Content, SenderID: m.SenderID, Type: m.Type}
}

// Tombstone returns m as it looks after deletion.
func (m Message) Tombstone() Message {
	m.Deleted = true
	m.Content = TombstoneContent(m.Type)
	return m
}
