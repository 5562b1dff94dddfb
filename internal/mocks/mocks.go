package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"pairchat-service/internal/models"
)

type UserRepositoryMock struct {
	mock.Mock
}

func (m *UserRepositoryMock) CreateUser(ctx context.Context, account models.Account) (models.User, error) {
	args := m.Called(ctx, account)
	var user models.User
	if val := args.Get(0); val != nil {
		user = val.(models.User)
	}
	return user, args.Error(1)
}

func (m *UserRepositoryMock) GetUser(ctx context.Context, userID string) (models.User, error) {
	args := m.Called(ctx, userID)
	var user models.User
	if val := args.Get(0); val != nil {
		user = val.(models.User)
	}
	return user, args.Error(1)
}

func (m *UserRepositoryMock) GetAccountByEmail(ctx context.Context, email string) (models.Account, error) {
	args := m.Called(ctx, email)
	var account models.Account
	if val := args.Get(0); val != nil {
		account = val.(models.Account)
	}
	return account, args.Error(1)
}

func (m *UserRepositoryMock) SearchUsers(ctx context.Context, term string, excludeID string) ([]models.User, error) {
	args := m.Called(ctx, term, excludeID)
	var list []models.User
	if val := args.Get(0); val != nil {
		list = val.([]models.User)
	}
	return list, args.Error(1)
}

func (m *UserRepositoryMock) UpdateProfile(ctx context.Context, userID string, name *string, image *string) (models.User, error) {
	args := m.Called(ctx, userID, name, image)
	var user models.User
	if val := args.Get(0); val != nil {
		user = val.(models.User)
	}
	return user, args.Error(1)
}

func (m *UserRepositoryMock) SetStatus(ctx context.Context, userID string, status models.UserStatus, at time.Time) error {
	args := m.Called(ctx, userID, status, at)
	return args.Error(0)
}

type InviteRepositoryMock struct {
	mock.Mock
}

func (m *InviteRepositoryMock) CreateInvite(ctx context.Context, invite models.Invite) (models.Invite, error) {
	args := m.Called(ctx, invite)
	var created models.Invite
	if val := args.Get(0); val != nil {
		created = val.(models.Invite)
	}
	return created, args.Error(1)
}

func (m *InviteRepositoryMock) FindPendingInvite(ctx context.Context, senderID string, recipientID string) (models.Invite, error) {
	args := m.Called(ctx, senderID, recipientID)
	var invite models.Invite
	if val := args.Get(0); val != nil {
		invite = val.(models.Invite)
	}
	return invite, args.Error(1)
}

func (m *InviteRepositoryMock) ListPendingInvites(ctx context.Context, recipientID string) ([]models.Invite, error) {
	args := m.Called(ctx, recipientID)
	var list []models.Invite
	if val := args.Get(0); val != nil {
		list = val.([]models.Invite)
	}
	return list, args.Error(1)
}

func (m *InviteRepositoryMock) GetInvite(ctx context.Context, inviteID string) (models.Invite, error) {
	args := m.Called(ctx, inviteID)
	var invite models.Invite
	if val := args.Get(0); val != nil {
		invite = val.(models.Invite)
	}
	return invite, args.Error(1)
}

func (m *InviteRepositoryMock) UpdateStatusIfPending(ctx context.Context, inviteID string, recipientID string, status models.InviteStatus) (models.Invite, error) {
	args := m.Called(ctx, inviteID, recipientID, status)
	var invite models.Invite
	if val := args.Get(0); val != nil {
		invite = val.(models.Invite)
	}
	return invite, args.Error(1)
}

type ChatRepositoryMock struct {
	mock.Mock
}

func (m *ChatRepositoryMock) CreateOrGetChat(ctx context.Context, userID string, peerID string, info models.ParticipantInfoMap) (models.Chat, bool, error) {
	args := m.Called(ctx, userID, peerID, info)
	var chat models.Chat
	if val := args.Get(0); val != nil {
		chat = val.(models.Chat)
	}
	return chat, args.Bool(1), args.Error(2)
}

func (m *ChatRepositoryMock) IsParticipant(ctx context.Context, chatID string, userID string) (bool, error) {
	args := m.Called(ctx, chatID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *ChatRepositoryMock) GetChat(ctx context.Context, chatID string) (models.Chat, error) {
	args := m.Called(ctx, chatID)
	var chat models.Chat
	if val := args.Get(0); val != nil {
		chat = val.(models.Chat)
	}
	return chat, args.Error(1)
}

func (m *ChatRepositoryMock) ListChats(ctx context.Context, userID string) ([]models.Chat, error) {
	args := m.Called(ctx, userID)
	var list []models.Chat
	if val := args.Get(0); val != nil {
		list = val.([]models.Chat)
	}
	return list, args.Error(1)
}

func (m *ChatRepositoryMock) SetLastMessage(ctx context.Context, chatID string, last *models.LastMessage) error {
	args := m.Called(ctx, chatID, last)
	return args.Error(0)
}

func (m *ChatRepositoryMock) UpdateParticipantInfo(ctx context.Context, chatID string, userID string, info models.ParticipantInfo) (models.Chat, error) {
	args := m.Called(ctx, chatID, userID, info)
	var chat models.Chat
	if val := args.Get(0); val != nil {
		chat = val.(models.Chat)
	}
	return chat, args.Error(1)
}

func (m *ChatRepositoryMock) UpdateParticipantInfoForUser(ctx context.Context, userID string, info models.ParticipantInfo) ([]models.Chat, error) {
	args := m.Called(ctx, userID, info)
	var list []models.Chat
	if val := args.Get(0); val != nil {
		list = val.([]models.Chat)
	}
	return list, args.Error(1)
}

func (m *ChatRepositoryMock) DeleteChat(ctx context.Context, chatID string) error {
	args := m.Called(ctx, chatID)
	return args.Error(0)
}

type MessageRepositoryMock struct {
	mock.Mock
}

func (m *MessageRepositoryMock) CreateMessage(ctx context.Context, msg models.Message) (models.Message, error) {
	args := m.Called(ctx, msg)
	var created models.Message
	switch val := args.Get(0).(type) {
	case models.Message:
		created = val
	case func(context.Context, models.Message) models.Message:
		created = val(ctx, msg)
	}
	return created, args.Error(1)
}

func (m *MessageRepositoryMock) GetMessage(ctx context.Context, messageID string) (models.Message, error) {
	args := m.Called(ctx, messageID)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *MessageRepositoryMock) ListChatMessages(ctx context.Context, chatID string) ([]models.Message, error) {
	args := m.Called(ctx, chatID)
	var list []models.Message
	if val := args.Get(0); val != nil {
		list = val.([]models.Message)
	}
	return list, args.Error(1)
}

func (m *MessageRepositoryMock) MarkDeleted(ctx context.Context, messageID string, senderID string, content string) (models.Message, error) {
	args := m.Called(ctx, messageID, senderID, content)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *MessageRepositoryMock) MarkRead(ctx context.Context, chatID string, readerID string) ([]string, error) {
	args := m.Called(ctx, chatID, readerID)
	var ids []string
	if val := args.Get(0); val != nil {
		ids = val.([]string)
	}
	return ids, args.Error(1)
}

func (m *MessageRepositoryMock) ReadMessageIDs(ctx context.Context, chatID string, senderID string) ([]string, error) {
	args := m.Called(ctx, chatID, senderID)
	var ids []string
	if val := args.Get(0); val != nil {
		ids = val.([]string)
	}
	return ids, args.Error(1)
}

func (m *MessageRepositoryMock) CountUnread(ctx context.Context, chatID string, userID string) (int, error) {
	args := m.Called(ctx, chatID, userID)
	return args.Int(0), args.Error(1)
}

func (m *MessageRepositoryMock) ListImageIDs(ctx context.Context, chatID string) ([]string, error) {
	args := m.Called(ctx, chatID)
	var ids []string
	if val := args.Get(0); val != nil {
		ids = val.([]string)
	}
	return ids, args.Error(1)
}

func (m *MessageRepositoryMock) DeleteChatMessagesBatch(ctx context.Context, chatID string, limit int) (int, error) {
	args := m.Called(ctx, chatID, limit)
	return args.Int(0), args.Error(1)
}
