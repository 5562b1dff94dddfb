package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"pairchat-service/internal/imagestore"
	"pairchat-service/internal/logger"
	"pairchat-service/internal/models"
	"pairchat-service/internal/repositories"
)

var (
	ErrNotParticipant = errors.New("not a chat participant")
	ErrNotSender      = errors.New("only the sender can delete this message")
	ErrSelfInvite     = errors.New("cannot invite yourself")
	ErrEmptyMessage   = errors.New("message content is required")
	ErrReplyNotFound  = errors.New("replied message not found in this chat")
	ErrNoPeer         = errors.New("chat has no other participant")
)

// MessageBatchSize is how many messages a chat deletion removes per round trip.
const MessageBatchSize = 500

// Notifier fans out "rows behind these topics changed" to realtime subscribers.
type Notifier interface {
	Notify(ctx context.Context, topics ...string)
}

type Publisher interface {
	Publish(ctx context.Context, routingKey string, event any) error
}

type ImageStore interface {
	Upload(ctx context.Context, req imagestore.UploadRequest) (imagestore.UploadResult, error)
	Delete(ctx context.Context, fileID string) error
}

type Auditor interface {
	Emit(ctx context.Context, level, action, text string, userID string)
}

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, ...string) {}

type nopAuditor struct{}

func (nopAuditor) Emit(context.Context, string, string, string, string) {}

func orNopNotifier(n Notifier) Notifier {
	if n == nil {
		return nopNotifier{}
	}
	return n
}

func orNopAuditor(a Auditor) Auditor {
	if a == nil {
		return nopAuditor{}
	}
	return a
}

// publishNotification hands the event to the notification consumers. Failures only get logged.
func publishNotification(ctx context.Context, publisher Publisher, event models.NotificationEvent) {
	if publisher == nil {
		return
	}
	if err := publisher.Publish(ctx, event.RoutingKey(), event); err != nil {
		logger.FromContext(ctx).Warn("notification publish failed",
			zap.String("type", string(event.Type)),
			zap.Error(err),
		)
	}
}

// participantInfo snapshots name and image of the given users for a new chat.
func participantInfo(ctx context.Context, users repositories.UserRepository, userIDs ...string) (models.ParticipantInfoMap, error) {
	info := make(models.ParticipantInfoMap, len(userIDs))
	for _, id := range userIDs {
		user, err := users.GetUser(ctx, id)
		if errors.Is(err, repositories.ErrUserNotFound) {
			info[id] = models.ParticipantInfo{Name: unknownSenderName}
			continue
		}
		if err != nil {
			return nil, err
		}
		info[id] = models.ParticipantInfo{Name: user.Name, Image: user.Image}
	}
	return info, nil
}

func participantChat(ctx context.Context, chats repositories.ChatRepository, chatID, userID string) (models.Chat, error) {
	chat, err := chats.GetChat(ctx, chatID)
	if err != nil {
		return models.Chat{}, err
	}
	if !chat.HasParticipant(userID) {
		return models.Chat{}, ErrNotParticipant
	}
	return chat, nil
}
