package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"pairchat-service/internal/logger"
	"pairchat-service/internal/models"
	"pairchat-service/internal/repositories"
)

const unknownSenderName = "Unknown User"

type InviteService struct {
	invites   repositories.InviteRepository
	users     repositories.UserRepository
	chats     repositories.ChatRepository
	notifier  Notifier
	publisher Publisher
	now       func() time.Time
}

func NewInviteService(
	invites repositories.InviteRepository,
	users repositories.UserRepository,
	chats repositories.ChatRepository,
	notifier Notifier,
	publisher Publisher,
) *InviteService {
	return &InviteService{
		invites:   invites,
		users:     users,
		chats:     chats,
		notifier:  orNopNotifier(notifier),
		publisher: publisher,
		now:       time.Now,
	}
}

// Send invites recipientID to chat. An already pending invite from the same sender is returned as is.
// senderName falls back to the stored profile name, then to "Unknown User".
func (s *InviteService) Send(ctx context.Context, senderID, senderName, recipientID string) (models.Invite, bool, error) {
	const op = "service.SendInvite"

	if senderID == recipientID {
		return models.Invite{}, false, ErrSelfInvite
	}
	if _, err := s.users.GetUser(ctx, recipientID); err != nil {
		return models.Invite{}, false, fmt.Errorf("%s: %w", op, err)
	}

	existing, err := s.invites.FindPendingInvite(ctx, senderID, recipientID)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, repositories.ErrInviteNotFound) {
		return models.Invite{}, false, fmt.Errorf("%s: %w", op, err)
	}

	name := strings.TrimSpace(senderName)
	if name == "" {
		name = unknownSenderName
		if sender, err := s.users.GetUser(ctx, senderID); err == nil && strings.TrimSpace(sender.Name) != "" {
			name = sender.Name
		}
	}

	invite, err := s.invites.CreateInvite(ctx, models.Invite{
		ID:          uuid.NewString(),
		SenderID:    senderID,
		SenderName:  name,
		RecipientID: recipientID,
		Status:      models.InvitePending,
	})
	if err != nil {
		return models.Invite{}, false, fmt.Errorf("%s: %w", op, err)
	}

	s.notifier.Notify(ctx, models.InvitesTopic(recipientID))
	publishNotification(ctx, s.publisher, models.NotificationEvent{
		Type:        models.NotifyInvite,
		RecipientID: recipientID,
		SenderID:    senderID,
		SenderName:  name,
		InviteID:    invite.ID,
		OccurredAt:  s.now().UTC(),
	})

	return invite, true, nil
}

func (s *InviteService) ListPending(ctx context.Context, userID string) ([]models.Invite, error) {
	const op = "service.ListPendingInvites"

	invites, err := s.invites.ListPendingInvites(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return invites, nil
}

// Accept moves a pending invite to accepted and opens the chat between the two users.
// Only the recipient may accept. A second accept fails with ErrInviteNotPending.
func (s *InviteService) Accept(ctx context.Context, inviteID, userID string) (models.Chat, error) {
	const op = "service.AcceptInvite"

	if _, err := s.recipientInvite(ctx, inviteID, userID); err != nil {
		return models.Chat{}, fmt.Errorf("%s: %w", op, err)
	}

	invite, err := s.invites.UpdateStatusIfPending(ctx, inviteID, userID, models.InviteAccepted)
	if err != nil {
		return models.Chat{}, fmt.Errorf("%s: %w", op, err)
	}

	info, err := participantInfo(ctx, s.users, invite.SenderID, invite.RecipientID)
	if err != nil {
		return models.Chat{}, fmt.Errorf("%s: %w", op, err)
	}

	chat, created, err := s.chats.CreateOrGetChat(ctx, invite.SenderID, invite.RecipientID, info)
	if err != nil {
		return models.Chat{}, fmt.Errorf("%s: %w", op, err)
	}

	logger.FromContext(ctx).Info("invite accepted",
		zap.String("invite_id", invite.ID),
		zap.String("chat_id", chat.ID),
		zap.Bool("chat_created", created),
	)

	s.notifier.Notify(ctx,
		models.InvitesTopic(invite.RecipientID),
		models.ChatsTopic(invite.SenderID),
		models.ChatsTopic(invite.RecipientID),
	)

	recipientName := info[invite.RecipientID].Name
	publishNotification(ctx, s.publisher, models.NotificationEvent{
		Type:        models.NotifyAccepted,
		RecipientID: invite.SenderID,
		SenderID:    invite.RecipientID,
		SenderName:  recipientName,
		ChatID:      chat.ID,
		InviteID:    invite.ID,
		OccurredAt:  s.now().UTC(),
	})

	return chat, nil
}

// Decline moves a pending invite to declined.
func (s *InviteService) Decline(ctx context.Context, inviteID, userID string) (models.Invite, error) {
	const op = "service.DeclineInvite"

	if _, err := s.recipientInvite(ctx, inviteID, userID); err != nil {
		return models.Invite{}, fmt.Errorf("%s: %w", op, err)
	}

	invite, err := s.invites.UpdateStatusIfPending(ctx, inviteID, userID, models.InviteDeclined)
	if err != nil {
		return models.Invite{}, fmt.Errorf("%s: %w", op, err)
	}

	s.notifier.Notify(ctx, models.InvitesTopic(userID))
	return invite, nil
}

// recipientInvite hides invites addressed to someone else.
func (s *InviteService) recipientInvite(ctx context.Context, inviteID, userID string) (models.Invite, error) {
	invite, err := s.invites.GetInvite(ctx, inviteID)
	if err != nil {
		return models.Invite{}, err
	}
	if invite.RecipientID != userID {
		return models.Invite{}, repositories.ErrInviteNotFound
	}
	if !invite.CanTransition(models.InviteAccepted) {
		return models.Invite{}, repositories.ErrInviteNotPending
	}
	return invite, nil
}
