package models

import (
	"database/sql/driver"
	"sort"
	"time"
)

// ParticipantInfo is the name and image snapshot of a participant, copied into the chat.
type ParticipantInfo struct {
	Name  string  `json:"name"`
	Image *string `json:"image,omitempty"`
}

// ParticipantInfoMap is keyed by user id.
type ParticipantInfoMap map[string]ParticipantInfo

func (m ParticipantInfoMap) Value() (driver.Value, error) {
	if m == nil {
		return jsonValue(ParticipantInfoMap{})
	}
	return jsonValue(m)
}

func (m *ParticipantInfoMap) Scan(src any) error {
	return scanJSON(src, m)
}

// LastMessage caches the latest message of a chat for the chat list.
type LastMessage struct {
	Content   string      `json:"content"`
	SenderID  string      `json:"sender_id"`
	Timestamp time.Time   `json:"timestamp"`
	Type      MessageType `json:"type"`
}

func (l LastMessage) Value() (driver.Value, error) {
	return jsonValue(l)
}

func (l *LastMessage) Scan(src any) error {
	return scanJSON(src, l)
}

// Chat represents a private chat between exactly two users.
// User1ID is always the lexically smaller id.
type Chat struct {
	ID              string             `db:"id" json:"id"`
	User1ID         string             `db:"user1_id" json:"-"`
	User2ID         string             `db:"user2_id" json:"-"`
	Participants    []string           `db:"-" json:"participants"`
	ParticipantInfo ParticipantInfoMap `db:"participant_info" json:"participant_info"`
	LastMessage     *LastMessage       `db:"last_message" json:"last_message,omitempty"`
	CreatedAt       time.Time          `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time          `db:"updated_at" json:"updated_at"`
}

// ChatSummary is a chat as listed for one user.
type ChatSummary struct {
	Chat
	PeerID      string `json:"peer_id"`
	UnreadCount int    `json:"unread_count"`
}

// SortedPair orders two user ids the way they are stored on a chat.
func SortedPair(a, b string) (string, string) {
	pair := []string{a, b}
	sort.Strings(pair)
	return pair[0], pair[1]
}

// Fill derives Participants from the stored pair.
func (c *Chat) Fill() {
	c.Participants = []string{c.User1ID, c.User2ID}
}

// HasParticipant reports whether userID is one of the two participants.
func (c Chat) HasParticipant(userID string) bool {
	return userID != "" && (c.User1ID == userID || c.User2ID == userID)
}

// PeerOf returns the other participant.
func (c Chat) PeerOf(userID string) string {
	if c.User1ID == userID {
		return c.User2ID
	}
	return c.User1ID
}
