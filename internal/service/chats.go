package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"pairchat-service/internal/logger"
	"pairchat-service/internal/models"
	"pairchat-service/internal/observability"
	"pairchat-service/internal/repositories"
)

type ChatService struct {
	chats    repositories.ChatRepository
	messages repositories.MessageRepository
	users    repositories.UserRepository
	images   ImageStore
	notifier Notifier
	audit    Auditor
	now      func() time.Time
}

func NewChatService(
	chats repositories.ChatRepository,
	messages repositories.MessageRepository,
	users repositories.UserRepository,
	images ImageStore,
	notifier Notifier,
	audit Auditor,
) *ChatService {
	return &ChatService{
		chats:    chats,
		messages: messages,
		users:    users,
		images:   images,
		notifier: orNopNotifier(notifier),
		audit:    orNopAuditor(audit),
		now:      time.Now,
	}
}

// Start opens a chat with peerID directly, or returns the one that already exists.
func (s *ChatService) Start(ctx context.Context, userID, peerID string) (models.Chat, bool, error) {
	const op = "service.StartChat"

	if userID == peerID {
		return models.Chat{}, false, repositories.ErrSelfChat
	}
	if _, err := s.users.GetUser(ctx, peerID); err != nil {
		return models.Chat{}, false, fmt.Errorf("%s: %w", op, err)
	}

	info, err := participantInfo(ctx, s.users, userID, peerID)
	if err != nil {
		return models.Chat{}, false, fmt.Errorf("%s: %w", op, err)
	}

	chat, created, err := s.chats.CreateOrGetChat(ctx, userID, peerID, info)
	if err != nil {
		return models.Chat{}, false, fmt.Errorf("%s: %w", op, err)
	}

	if created {
		s.notifier.Notify(ctx, models.ChatsTopic(userID), models.ChatsTopic(peerID))
	}
	return chat, created, nil
}

// List returns the user's chats, most recently updated first, with unread counts.
func (s *ChatService) List(ctx context.Context, userID string) ([]models.ChatSummary, error) {
	const op = "service.ListChats"

	chats, err := s.chats.ListChats(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	counts := s.countUnread(ctx, userID, chats)

	summaries := make([]models.ChatSummary, 0, len(chats))
	for _, chat := range chats {
		summaries = append(summaries, models.ChatSummary{
			Chat:        chat,
			PeerID:      chat.PeerOf(userID),
			UnreadCount: counts[chat.ID],
		})
	}
	return summaries, nil
}

func (s *ChatService) Get(ctx context.Context, chatID, userID string) (models.Chat, error) {
	const op = "service.GetChat"

	chat, err := participantChat(ctx, s.chats, chatID, userID)
	if err != nil {
		return models.Chat{}, fmt.Errorf("%s: %w", op, err)
	}
	return chat, nil
}

// UnreadCounts maps chat id to the number of unread messages sent by the peer.
func (s *ChatService) UnreadCounts(ctx context.Context, userID string) (map[string]int, error) {
	const op = "service.UnreadCounts"

	chats, err := s.chats.ListChats(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return s.countUnread(ctx, userID, chats), nil
}

// countUnread issues one count per chat. A failing chat is logged and left out.
func (s *ChatService) countUnread(ctx context.Context, userID string, chats []models.Chat) map[string]int {
	counts := make(map[string]int, len(chats))
	for _, chat := range chats {
		n, err := s.messages.CountUnread(ctx, chat.ID, userID)
		if err != nil {
			logger.FromContext(ctx).Warn("unread count failed",
				zap.String("chat_id", chat.ID),
				zap.Error(err),
			)
			continue
		}
		counts[chat.ID] = n
	}
	return counts
}

// UpdateParticipantInfo replaces the caller's own name/image snapshot in one chat.
func (s *ChatService) UpdateParticipantInfo(ctx context.Context, chatID, userID string, info models.ParticipantInfo) (models.Chat, error) {
	const op = "service.UpdateParticipantInfo"

	chat, err := participantChat(ctx, s.chats, chatID, userID)
	if err != nil {
		return models.Chat{}, fmt.Errorf("%s: %w", op, err)
	}

	info.Name = strings.TrimSpace(info.Name)
	if info.Name == "" {
		info.Name = chat.ParticipantInfo[userID].Name
	}

	updated, err := s.chats.UpdateParticipantInfo(ctx, chatID, userID, info)
	if err != nil {
		return models.Chat{}, fmt.Errorf("%s: %w", op, err)
	}

	s.notifier.Notify(ctx, models.ChatsTopic(chat.User1ID), models.ChatsTopic(chat.User2ID))
	return updated, nil
}

// Delete removes the chat with all its messages and their images.
// Steps are not rolled back when a later one fails.
func (s *ChatService) Delete(ctx context.Context, chatID, userID string) (int, error) {
	const op = "service.DeleteChat"

	chat, err := participantChat(ctx, s.chats, chatID, userID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	deleted, err := s.purgeMessages(ctx, chatID)
	if err != nil {
		return deleted, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.chats.DeleteChat(ctx, chatID); err != nil {
		return deleted, fmt.Errorf("%s: %w", op, err)
	}

	s.notifier.Notify(ctx,
		models.MessagesTopic(chatID),
		models.ChatsTopic(chat.User1ID),
		models.ChatsTopic(chat.User2ID),
	)
	s.audit.Emit(ctx, "info", "chat.delete",
		fmt.Sprintf("chat %s deleted with %d messages", chatID, deleted), userID)

	return deleted, nil
}

// Clear deletes every message of the chat but keeps the chat itself.
func (s *ChatService) Clear(ctx context.Context, chatID, userID string) (int, error) {
	const op = "service.ClearChat"

	chat, err := participantChat(ctx, s.chats, chatID, userID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	deleted, err := s.purgeMessages(ctx, chatID)
	if err != nil {
		return deleted, fmt.Errorf("%s: %w", op, err)
	}

	last := &models.LastMessage{
		Content:   models.EmptyChatPreview,
		SenderID:  "",
		Timestamp: s.now().UTC(),
		Type:      models.MessageSystem,
	}
	if err := s.chats.SetLastMessage(ctx, chatID, last); err != nil {
		return deleted, fmt.Errorf("%s: %w", op, err)
	}

	s.notifier.Notify(ctx,
		models.MessagesTopic(chatID),
		models.ChatsTopic(chat.User1ID),
		models.ChatsTopic(chat.User2ID),
	)
	s.audit.Emit(ctx, "info", "chat.clear",
		fmt.Sprintf("chat %s cleared, %d messages removed", chatID, deleted), userID)

	return deleted, nil
}

// purgeMessages drops the chat's images from the store, then its messages in batches.
func (s *ChatService) purgeMessages(ctx context.Context, chatID string) (int, error) {
	log := logger.FromContext(ctx)

	imageIDs, err := s.messages.ListImageIDs(ctx, chatID)
	if err != nil {
		return 0, err
	}
	for _, id := range imageIDs {
		if err := s.images.Delete(ctx, id); err != nil {
			observability.IncImageError("delete")
			log.Warn("image delete failed", zap.String("chat_id", chatID), zap.String("image_id", id), zap.Error(err))
		}
	}

	total := 0
	for {
		n, err := s.messages.DeleteChatMessagesBatch(ctx, chatID, MessageBatchSize)
		total += n
		if err != nil {
			return total, err
		}
		if n < MessageBatchSize {
			break
		}
	}

	log.Info("chat messages purged", zap.String("chat_id", chatID), zap.Int("count", total))
	return total, nil
}
