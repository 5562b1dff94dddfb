package service

import (
	"context"

	"pairchat-service/internal/models"
)

// Snapshots answers the realtime queries with the same rules as the HTTP API.
type Snapshots struct {
	chats    *ChatService
	messages *MessageService
	invites  *InviteService
}

func NewSnapshots(chats *ChatService, messages *MessageService, invites *InviteService) *Snapshots {
	return &Snapshots{chats: chats, messages: messages, invites: invites}
}

func (s *Snapshots) ListChats(ctx context.Context, userID string) ([]models.ChatSummary, error) {
	return s.chats.List(ctx, userID)
}

func (s *Snapshots) ListMessages(ctx context.Context, userID, chatID string) ([]models.Message, error) {
	return s.messages.List(ctx, chatID, userID)
}

func (s *Snapshots) ListPendingInvites(ctx context.Context, userID string) ([]models.Invite, error) {
	return s.invites.ListPending(ctx, userID)
}

func (s *Snapshots) ReadStatus(ctx context.Context, userID, chatID string) ([]string, error) {
	return s.messages.ReadStatus(ctx, chatID, userID)
}

func (s *Snapshots) UnreadCounts(ctx context.Context, userID string) (map[string]int, error) {
	return s.chats.UnreadCounts(ctx, userID)
}
