package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"pairchat-service/internal/mocks"
	"pairchat-service/internal/models"
)

func TestSearchBlankTerm(t *testing.T) {
	users := new(mocks.UserRepositoryMock)
	svc := NewUserService(users, new(mocks.ChatRepositoryMock), nil)

	list, err := svc.Search(context.Background(), "  ", "u1")
	require.NoError(t, err)
	assert.Empty(t, list)
	users.AssertNotCalled(t, "SearchUsers", mock.Anything, mock.Anything, mock.Anything)
}

func TestSearchExcludesCaller(t *testing.T) {
	users := new(mocks.UserRepositoryMock)
	svc := NewUserService(users, new(mocks.ChatRepositoryMock), nil)

	users.On("SearchUsers", mock.Anything, "bo", "u1").Return([]models.User{{ID: "u2", Name: "Bob"}}, nil).Once()

	list, err := svc.Search(context.Background(), " bo ", "u1")
	require.NoError(t, err)
	assert.Len(t, list, 1)
	users.AssertExpectations(t)
}

func TestUpdateProfileResyncsChats(t *testing.T) {
	users := new(mocks.UserRepositoryMock)
	chats := new(mocks.ChatRepositoryMock)
	notifier := new(mocks.NotifierRecorder)
	svc := NewUserService(users, chats, notifier)

	name := " Annie "
	trimmed := "Annie"
	users.On("UpdateProfile", mock.Anything, "u1", &trimmed, (*string)(nil)).
		Return(models.User{ID: "u1", Name: "Annie"}, nil).Once()
	chats.On("UpdateParticipantInfoForUser", mock.Anything, "u1", models.ParticipantInfo{Name: "Annie"}).
		Return([]models.Chat{testChat("c1", "u1", "u2"), testChat("c2", "u1", "u3")}, nil).Once()

	user, err := svc.UpdateProfile(context.Background(), "u1", &name, nil)
	require.NoError(t, err)
	assert.Equal(t, "Annie", user.Name)
	assert.ElementsMatch(t, []string{
		models.ChatsTopic("u1"),
		models.ChatsTopic("u2"),
		models.ChatsTopic("u3"),
	}, notifier.Topics())
	users.AssertExpectations(t)
	chats.AssertExpectations(t)
}
