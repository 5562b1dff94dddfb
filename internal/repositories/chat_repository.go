package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"pairchat-service/internal/models"
)

var (
	ErrChatNotFound = errors.New("chat not found")
	ErrSelfChat     = errors.New("cannot create chat with self")
)

const chatColumns = `id, user1_id, user2_id, participant_info, last_message, created_at, updated_at`

// ChatRepository abstracts chat persistence.
type ChatRepository interface {
	CreateOrGetChat(ctx context.Context, userID string, peerID string, info models.ParticipantInfoMap) (models.Chat, bool, error)
	IsParticipant(ctx context.Context, chatID string, userID string) (bool, error)
	GetChat(ctx context.Context, chatID string) (models.Chat, error)
	ListChats(ctx context.Context, userID string) ([]models.Chat, error)
	SetLastMessage(ctx context.Context, chatID string, last *models.LastMessage) error
	UpdateParticipantInfo(ctx context.Context, chatID string, userID string, info models.ParticipantInfo) (models.Chat, error)
	UpdateParticipantInfoForUser(ctx context.Context, userID string, info models.ParticipantInfo) ([]models.Chat, error)
	DeleteChat(ctx context.Context, chatID string) error
}

// ChatRepo is a sqlx implementation of ChatRepository.
type ChatRepo struct {
	db *sqlx.DB
}

// NewChatRepo constructs a ChatRepo.
func NewChatRepo(db *sqlx.DB) *ChatRepo {
	return &ChatRepo{db: db}
}

// CreateOrGetChat creates a chat between two users if it does not already exist.
// The bool result reports whether a new chat was created.
func (r *ChatRepo) CreateOrGetChat(ctx context.Context, userID string, peerID string, info models.ParticipantInfoMap) (models.Chat, bool, error) {
	if userID == peerID {
		return models.Chat{}, false, ErrSelfChat
	}
	user1, user2 := models.SortedPair(userID, peerID)

	var chat models.Chat
	err := r.db.GetContext(ctx, &chat, `INSERT INTO chats (id, user1_id, user2_id, participant_info)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (user1_id, user2_id) DO NOTHING
        RETURNING `+chatColumns, uuid.NewString(), user1, user2, info)
	if err == nil {
		chat.Fill()
		return chat, true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return models.Chat{}, false, err
	}

	err = r.db.GetContext(ctx, &chat, `SELECT `+chatColumns+` FROM chats WHERE user1_id=$1 AND user2_id=$2`, user1, user2)
	if err != nil {
		return models.Chat{}, false, err
	}
	chat.Fill()
	return chat, false, nil
}

// IsParticipant checks whether a user belongs to the chat.
func (r *ChatRepo) IsParticipant(ctx context.Context, chatID string, userID string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM chats WHERE id=$1 AND (user1_id=$2 OR user2_id=$2))`, chatID, userID)
	return exists, err
}

// GetChat fetches a chat by id.
func (r *ChatRepo) GetChat(ctx context.Context, chatID string) (models.Chat, error) {
	var chat models.Chat
	err := r.db.GetContext(ctx, &chat, `SELECT `+chatColumns+` FROM chats WHERE id=$1`, chatID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Chat{}, ErrChatNotFound
	}
	if err != nil {
		return models.Chat{}, err
	}
	chat.Fill()
	return chat, nil
}

// ListChats returns the user's chats, most recently updated first.
func (r *ChatRepo) ListChats(ctx context.Context, userID string) ([]models.Chat, error) {
	chats := []models.Chat{}
	err := r.db.SelectContext(ctx, &chats, `SELECT `+chatColumns+` FROM chats
        WHERE user1_id=$1 OR user2_id=$1
        ORDER BY updated_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	for i := range chats {
		chats[i].Fill()
	}
	return chats, nil
}

// SetLastMessage replaces the cached last message and bumps updated_at.
func (r *ChatRepo) SetLastMessage(ctx context.Context, chatID string, last *models.LastMessage) error {
	res, err := r.db.ExecContext(ctx, `UPDATE chats SET last_message=$2, updated_at=$3 WHERE id=$1`, chatID, last, time.Now().UTC())
	if err != nil {
		return err
	}
	return expectOne(res, ErrChatNotFound)
}

// UpdateParticipantInfo merges info into the snapshot kept for userID in one chat.
func (r *ChatRepo) UpdateParticipantInfo(ctx context.Context, chatID string, userID string, info models.ParticipantInfo) (models.Chat, error) {
	patch := models.ParticipantInfoMap{userID: info}
	var chat models.Chat
	err := r.db.GetContext(ctx, &chat, `UPDATE chats SET participant_info = participant_info || $3::jsonb
        WHERE id=$1 AND (user1_id=$2 OR user2_id=$2)
        RETURNING `+chatColumns, chatID, userID, patch)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Chat{}, ErrChatNotFound
	}
	if err != nil {
		return models.Chat{}, err
	}
	chat.Fill()
	return chat, nil
}

// UpdateParticipantInfoForUser re-syncs the snapshot of userID in every chat it belongs to.
func (r *ChatRepo) UpdateParticipantInfoForUser(ctx context.Context, userID string, info models.ParticipantInfo) ([]models.Chat, error) {
	patch := models.ParticipantInfoMap{userID: info}
	chats := []models.Chat{}
	err := r.db.SelectContext(ctx, &chats, `UPDATE chats SET participant_info = participant_info || $2::jsonb
        WHERE user1_id=$1 OR user2_id=$1
        RETURNING `+chatColumns, userID, patch)
	if err != nil {
		return nil, err
	}
	for i := range chats {
		chats[i].Fill()
	}
	return chats, nil
}

// DeleteChat removes the chat row. Remaining messages cascade.
func (r *ChatRepo) DeleteChat(ctx context.Context, chatID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM chats WHERE id=$1`, chatID)
	if err != nil {
		return err
	}
	return expectOne(res, ErrChatNotFound)
}

func expectOne(res sql.Result, notFound error) error {
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return notFound
	}
	return nil
}
