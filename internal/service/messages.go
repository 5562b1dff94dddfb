package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"pairchat-service/internal/imagestore"
	"pairchat-service/internal/logger"
	"pairchat-service/internal/models"
	"pairchat-service/internal/observability"
	"pairchat-service/internal/repositories"
)

const previewLimit = 100

// ImageInput is an image message as sent by the client.
type ImageInput struct {
	Image     string
	FileName  string
	Width     int
	Height    int
	ReplyToID string
}

type MessageService struct {
	chats     repositories.ChatRepository
	messages  repositories.MessageRepository
	images    ImageStore
	notifier  Notifier
	publisher Publisher
	audit     Auditor
	now       func() time.Time
}

func NewMessageService(
	chats repositories.ChatRepository,
	messages repositories.MessageRepository,
	images ImageStore,
	notifier Notifier,
	publisher Publisher,
	audit Auditor,
) *MessageService {
	return &MessageService{
		chats:     chats,
		messages:  messages,
		images:    images,
		notifier:  orNopNotifier(notifier),
		publisher: publisher,
		audit:     orNopAuditor(audit),
		now:       time.Now,
	}
}

// List returns the chat's messages oldest first, tombstones included.
func (s *MessageService) List(ctx context.Context, chatID, userID string) ([]models.Message, error) {
	const op = "service.ListMessages"

	if _, err := participantChat(ctx, s.chats, chatID, userID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	msgs, err := s.messages.ListChatMessages(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return msgs, nil
}

// SendText stores a text message. replyToID, when set, must name a message of the same chat.
func (s *MessageService) SendText(ctx context.Context, chatID, senderID, content, replyToID string) (models.Message, error) {
	const op = "service.SendText"

	if strings.TrimSpace(content) == "" {
		return models.Message{}, ErrEmptyMessage
	}

	chat, err := participantChat(ctx, s.chats, chatID, senderID)
	if err != nil {
		return models.Message{}, fmt.Errorf("%s: %w", op, err)
	}

	reply, err := s.replyRef(ctx, chatID, replyToID)
	if err != nil {
		return models.Message{}, fmt.Errorf("%s: %w", op, err)
	}

	msg, err := s.store(ctx, chat, models.Message{
		ID:       uuid.NewString(),
		ChatID:   chatID,
		SenderID: senderID,
		Content:  content,
		Type:     models.MessageText,
		ReplyTo:  reply,
	})
	if err != nil {
		return models.Message{}, fmt.Errorf("%s: %w", op, err)
	}
	return msg, nil
}

// SendImage uploads the image under the chat's folder and stores a message pointing at it.
func (s *MessageService) SendImage(ctx context.Context, chatID, senderID string, in ImageInput) (models.Message, error) {
	const op = "service.SendImage"

	chat, err := participantChat(ctx, s.chats, chatID, senderID)
	if err != nil {
		return models.Message{}, fmt.Errorf("%s: %w", op, err)
	}

	reply, err := s.replyRef(ctx, chatID, in.ReplyToID)
	if err != nil {
		return models.Message{}, fmt.Errorf("%s: %w", op, err)
	}

	uploaded, err := s.images.Upload(ctx, imagestore.UploadRequest{
		Image:    in.Image,
		FileName: imagestore.UniqueFileName(in.FileName),
		Folder:   imagestore.ChatFolder(chatID),
	})
	if err != nil {
		observability.IncImageError("upload")
		return models.Message{}, fmt.Errorf("%s: %w", op, err)
	}

	imageID := uploaded.FileID
	msg, err := s.store(ctx, chat, models.Message{
		ID:       uuid.NewString(),
		ChatID:   chatID,
		SenderID: senderID,
		Content:  uploaded.URL,
		Type:     models.MessageImage,
		ReplyTo:  reply,
		ImageID:  &imageID,
		ImageMeta: &models.ImageMeta{
			OriginalName: in.FileName,
			Size:         uploaded.Size,
			ContentType:  uploaded.ContentType,
			Width:        in.Width,
			Height:       in.Height,
		},
	})
	if err != nil {
		return models.Message{}, fmt.Errorf("%s: %w", op, err)
	}
	return msg, nil
}

func (s *MessageService) store(ctx context.Context, chat models.Chat, msg models.Message) (models.Message, error) {
	created, err := s.messages.CreateMessage(ctx, msg)
	if err != nil {
		return models.Message{}, err
	}

	preview := models.LastMessagePreview(created.Type, created.Content)
	last := &models.LastMessage{
		Content:   preview,
		SenderID:  created.SenderID,
		Timestamp: created.Timestamp,
		Type:      created.Type,
	}
	if last.Timestamp.IsZero() {
		last.Timestamp = s.now().UTC()
	}
	if err := s.chats.SetLastMessage(ctx, chat.ID, last); err != nil {
		return models.Message{}, err
	}

	observability.IncMessageSent(string(created.Type))

	peerID := chat.PeerOf(created.SenderID)
	s.notifier.Notify(ctx,
		models.MessagesTopic(chat.ID),
		models.ChatsTopic(chat.User1ID),
		models.ChatsTopic(chat.User2ID),
	)
	publishNotification(ctx, s.publisher, models.NotificationEvent{
		Type:        models.NotifyMessage,
		RecipientID: peerID,
		SenderID:    created.SenderID,
		SenderName:  chat.ParticipantInfo[created.SenderID].Name,
		ChatID:      chat.ID,
		Preview:     truncate(preview, previewLimit),
		OccurredAt:  last.Timestamp,
	})

	return created, nil
}

// Delete tombstones the sender's own message. An attached image is removed from the store first;
// a failing image delete is logged and does not stop the tombstone.
func (s *MessageService) Delete(ctx context.Context, chatID, messageID, userID string) (models.Message, error) {
	const op = "service.DeleteMessage"

	chat, err := participantChat(ctx, s.chats, chatID, userID)
	if err != nil {
		return models.Message{}, fmt.Errorf("%s: %w", op, err)
	}

	msg, err := s.messages.GetMessage(ctx, messageID)
	if err != nil {
		return models.Message{}, fmt.Errorf("%s: %w", op, err)
	}
	if msg.ChatID != chatID {
		return models.Message{}, fmt.Errorf("%s: %w", op, repositories.ErrMessageNotFound)
	}
	if msg.SenderID != userID {
		return models.Message{}, ErrNotSender
	}
	if msg.Deleted {
		return msg, nil
	}

	if msg.Type == models.MessageImage && msg.ImageID != nil && *msg.ImageID != "" {
		if err := s.images.Delete(ctx, *msg.ImageID); err != nil {
			observability.IncImageError("delete")
			logger.FromContext(ctx).Warn("image delete failed",
				zap.String("message_id", msg.ID),
				zap.String("image_id", *msg.ImageID),
				zap.Error(err),
			)
		}
	}

	deleted, err := s.messages.MarkDeleted(ctx, messageID, userID, models.TombstoneContent(msg.Type))
	if err != nil {
		return models.Message{}, fmt.Errorf("%s: %w", op, err)
	}

	s.notifier.Notify(ctx, models.MessagesTopic(chatID))
	s.audit.Emit(ctx, "info", "message.delete",
		fmt.Sprintf("message %s in chat %s deleted", messageID, chat.ID), userID)

	return deleted, nil
}

// MarkRead flips every unread message the peer sent in the chat. Read never goes back to false.
func (s *MessageService) MarkRead(ctx context.Context, chatID, userID string) ([]string, error) {
	const op = "service.MarkRead"

	chat, err := participantChat(ctx, s.chats, chatID, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	ids, err := s.messages.MarkRead(ctx, chatID, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if len(ids) > 0 {
		s.notifier.Notify(ctx,
			models.MessagesTopic(chatID),
			models.ChatsTopic(chat.User1ID),
			models.ChatsTopic(chat.User2ID),
		)
	}
	return ids, nil
}

// ReadStatus lists the caller's messages in the chat that the peer has read.
func (s *MessageService) ReadStatus(ctx context.Context, chatID, userID string) ([]string, error) {
	const op = "service.ReadStatus"

	if _, err := participantChat(ctx, s.chats, chatID, userID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	ids, err := s.messages.ReadMessageIDs(ctx, chatID, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return ids, nil
}

func (s *MessageService) replyRef(ctx context.Context, chatID, replyToID string) (*models.ReplyRef, error) {
	if replyToID == "" {
		return nil, nil
	}
	target, err := s.messages.GetMessage(ctx, replyToID)
	if errors.Is(err, repositories.ErrMessageNotFound) || (err == nil && target.ChatID != chatID) {
		return nil, ErrReplyNotFound
	}
	if err != nil {
		return nil, err
	}
	return target.Reply(), nil
}

func truncate(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit]) + "..."
}
