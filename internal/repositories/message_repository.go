package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"pairchat-service/internal/models"
)

var ErrMessageNotFound = errors.New("message not found")

const messageColumns = `id, chat_id, sender_id, content, type, reply_to, image_id, image_meta, created_at, read, deleted`

// MessageRepository defines interactions for chat messages.
type MessageRepository interface {
	CreateMessage(ctx context.Context, msg models.Message) (models.Message, error)
	GetMessage(ctx context.Context, messageID string) (models.Message, error)
	ListChatMessages(ctx context.Context, chatID string) ([]models.Message, error)
	MarkDeleted(ctx context.Context, messageID string, senderID string, content string) (models.Message, error)
	MarkRead(ctx context.Context, chatID string, readerID string) ([]string, error)
	ReadMessageIDs(ctx context.Context, chatID string, senderID string) ([]string, error)
	CountUnread(ctx context.Context, chatID string, userID string) (int, error)
	ListImageIDs(ctx context.Context, chatID string) ([]string, error)
	DeleteChatMessagesBatch(ctx context.Context, chatID string, limit int) (int, error)
}

// MessageRepo is a sqlx-backed repository.
type MessageRepo struct {
	db *sqlx.DB
}

// NewMessageRepo constructs MessageRepo.
func NewMessageRepo(db *sqlx.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

// CreateMessage stores a message in a chat. Read and deleted always start false.
func (r *MessageRepo) CreateMessage(ctx context.Context, msg models.Message) (models.Message, error) {
	var created models.Message
	err := r.db.GetContext(ctx, &created, `INSERT INTO messages (id, chat_id, sender_id, content, type, reply_to, image_id, image_meta)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING `+messageColumns,
		msg.ID, msg.ChatID, msg.SenderID, msg.Content, msg.Type, msg.ReplyTo, msg.ImageID, msg.ImageMeta)
	return created, err
}

// GetMessage retrieves a single message.
func (r *MessageRepo) GetMessage(ctx context.Context, messageID string) (models.Message, error) {
	var msg models.Message
	err := r.db.GetContext(ctx, &msg, `SELECT `+messageColumns+` FROM messages WHERE id=$1`, messageID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Message{}, ErrMessageNotFound
	}
	return msg, err
}

// ListChatMessages returns the chat's messages, oldest first. Tombstones are included.
func (r *MessageRepo) ListChatMessages(ctx context.Context, chatID string) ([]models.Message, error) {
	msgs := []models.Message{}
	err := r.db.SelectContext(ctx, &msgs, `SELECT `+messageColumns+` FROM messages
        WHERE chat_id=$1
        ORDER BY created_at ASC, id ASC`, chatID)
	return msgs, err
}

// MarkDeleted turns the sender's message into a tombstone carrying content.
// A message that is already a tombstone is returned unchanged.
func (r *MessageRepo) MarkDeleted(ctx context.Context, messageID string, senderID string, content string) (models.Message, error) {
	var msg models.Message
	err := r.db.GetContext(ctx, &msg, `UPDATE messages SET deleted = TRUE, content = $3
        WHERE id=$1 AND sender_id=$2 AND deleted = FALSE
        RETURNING `+messageColumns, messageID, senderID, content)
	if !errors.Is(err, sql.ErrNoRows) {
		return msg, err
	}

	existing, err := r.GetMessage(ctx, messageID)
	if err != nil {
		return models.Message{}, err
	}
	if existing.SenderID != senderID || !existing.Deleted {
		return models.Message{}, ErrMessageNotFound
	}
	return existing, nil
}

// MarkRead flips every unread message in the chat not sent by readerID and returns their ids.
func (r *MessageRepo) MarkRead(ctx context.Context, chatID string, readerID string) ([]string, error) {
	ids := []string{}
	err := r.db.SelectContext(ctx, &ids, `UPDATE messages SET read = TRUE
        WHERE chat_id=$1 AND sender_id<>$2 AND read = FALSE
        RETURNING id`, chatID, readerID)
	return ids, err
}

// ReadMessageIDs lists the sender's messages in the chat that the peer has read.
func (r *MessageRepo) ReadMessageIDs(ctx context.Context, chatID string, senderID string) ([]string, error) {
	ids := []string{}
	err := r.db.SelectContext(ctx, &ids, `SELECT id FROM messages
        WHERE chat_id=$1 AND sender_id=$2 AND read = TRUE
        ORDER BY created_at ASC`, chatID, senderID)
	return ids, err
}

// CountUnread counts messages from others in the chat that userID has not read.
func (r *MessageRepo) CountUnread(ctx context.Context, chatID string, userID string) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM messages
        WHERE chat_id=$1 AND sender_id<>$2 AND read = FALSE`, chatID, userID)
	return count, err
}

// ListImageIDs returns the hosted image ids attached to the chat's messages.
func (r *MessageRepo) ListImageIDs(ctx context.Context, chatID string) ([]string, error) {
	ids := []string{}
	err := r.db.SelectContext(ctx, &ids, `SELECT image_id FROM messages
        WHERE chat_id=$1 AND type='image' AND image_id IS NOT NULL AND deleted = FALSE`, chatID)
	return ids, err
}

// DeleteChatMessagesBatch removes up to limit messages of the chat and returns how many went.
func (r *MessageRepo) DeleteChatMessagesBatch(ctx context.Context, chatID string, limit int) (int, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM messages WHERE id IN (
            SELECT id FROM messages WHERE chat_id=$1 LIMIT $2
        )`, chatID, limit)
	if err != nil {
		return 0, err
	}
	count, err := res.RowsAffected()
	return int(count), err
}
