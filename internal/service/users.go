package service

import (
	"context"
	"fmt"
	"strings"

	"pairchat-service/internal/models"
	"pairchat-service/internal/repositories"
)

type UserService struct {
	users    repositories.UserRepository
	chats    repositories.ChatRepository
	notifier Notifier
}

func NewUserService(users repositories.UserRepository, chats repositories.ChatRepository, notifier Notifier) *UserService {
	return &UserService{users: users, chats: chats, notifier: orNopNotifier(notifier)}
}

func (s *UserService) Get(ctx context.Context, userID string) (models.User, error) {
	const op = "service.GetUser"

	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}
	return user, nil
}

// Search finds other users whose name or email contains term, ignoring case. A blank term finds nobody.
func (s *UserService) Search(ctx context.Context, term string, currentUserID string) ([]models.User, error) {
	const op = "service.SearchUsers"

	term = strings.TrimSpace(term)
	if term == "" {
		return []models.User{}, nil
	}

	users, err := s.users.SearchUsers(ctx, term, currentUserID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return users, nil
}

// UpdateProfile changes the user's name or image and refreshes the snapshot kept in each of their chats.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, name *string, image *string) (models.User, error) {
	const op = "service.UpdateProfile"

	if name != nil {
		trimmed := strings.TrimSpace(*name)
		if trimmed == "" {
			name = nil
		} else {
			name = &trimmed
		}
	}

	user, err := s.users.UpdateProfile(ctx, userID, name, image)
	if err != nil {
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	chats, err := s.chats.UpdateParticipantInfoForUser(ctx, userID, models.ParticipantInfo{Name: user.Name, Image: user.Image})
	if err != nil {
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	topics := []string{models.ChatsTopic(userID)}
	for _, chat := range chats {
		topics = append(topics, models.ChatsTopic(chat.PeerOf(userID)))
	}
	s.notifier.Notify(ctx, topics...)

	return user, nil
}
