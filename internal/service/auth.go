package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"pairchat-service/internal/auth"
	"pairchat-service/internal/logger"
	"pairchat-service/internal/models"
	"pairchat-service/internal/repositories"
)

type TokenIssuer interface {
	Generate(userID, email string, ttl time.Duration) (string, time.Time, error)
}

// Session is what a successful sign up or sign in hands back to the client.
type Session struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
	User      models.User `json:"user"`
}

type AuthService struct {
	users       repositories.UserRepository
	tokens      TokenIssuer
	sessionTTL  time.Duration
	rememberTTL time.Duration
	now         func() time.Time
}

func NewAuthService(users repositories.UserRepository, tokens TokenIssuer, sessionTTL, rememberTTL time.Duration) *AuthService {
	return &AuthService{
		users:       users,
		tokens:      tokens,
		sessionTTL:  sessionTTL,
		rememberTTL: rememberTTL,
		now:         time.Now,
	}
}

// SignUp creates an account and signs it in.
func (s *AuthService) SignUp(ctx context.Context, name, email, password string, remember bool) (Session, error) {
	const op = "service.SignUp"

	email = normalizeEmail(email)
	if !validEmail(email) {
		return Session{}, auth.NewError(auth.CodeInvalidEmail)
	}
	if len(password) < auth.MinPasswordLength {
		return Session{}, auth.NewError(auth.CodeWeakPassword)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = strings.SplitN(email, "@", 2)[0]
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return Session{}, fmt.Errorf("%s: %w", op, err)
	}

	now := s.now().UTC()
	user, err := s.users.CreateUser(ctx, models.Account{
		User: models.User{
			ID:         uuid.NewString(),
			Name:       name,
			Email:      email,
			Status:     models.StatusOnline,
			LastActive: now,
		},
		PasswordHash: hash,
	})
	if errors.Is(err, repositories.ErrEmailTaken) {
		return Session{}, auth.NewError(auth.CodeEmailInUse)
	}
	if err != nil {
		return Session{}, fmt.Errorf("%s: %w", op, err)
	}

	return s.issue(user, s.ttl(remember))
}

// SignIn checks credentials and marks the user online.
// remember selects the long-lived session.
func (s *AuthService) SignIn(ctx context.Context, email, password string, remember bool) (Session, error) {
	const op = "service.SignIn"

	email = normalizeEmail(email)
	if !validEmail(email) {
		return Session{}, auth.NewError(auth.CodeInvalidEmail)
	}

	account, err := s.users.GetAccountByEmail(ctx, email)
	if errors.Is(err, repositories.ErrUserNotFound) {
		return Session{}, auth.NewError(auth.CodeUserNotFound)
	}
	if err != nil {
		return Session{}, fmt.Errorf("%s: %w", op, err)
	}
	if err := auth.CheckPassword(account.PasswordHash, password); err != nil {
		return Session{}, auth.NewError(auth.CodeWrongPassword)
	}

	now := s.now().UTC()
	if err := s.users.SetStatus(ctx, account.ID, models.StatusOnline, now); err != nil {
		return Session{}, fmt.Errorf("%s: %w", op, err)
	}
	account.User.Status = models.StatusOnline
	account.User.LastActive = now

	return s.issue(account.User, s.ttl(remember))
}

// SignInWithOAuth signs in the account matching a provider-verified email.
// The first sign-in creates the account without a password.
func (s *AuthService) SignInWithOAuth(ctx context.Context, profile auth.OAuthProfile, remember bool) (Session, error) {
	const op = "service.SignInWithOAuth"

	email := normalizeEmail(profile.Email)
	if !validEmail(email) {
		return Session{}, auth.NewError(auth.CodeInvalidEmail)
	}
	if !profile.EmailVerified {
		return Session{}, auth.NewError(auth.CodeUnverifiedEmail)
	}

	session, err := s.signInExisting(ctx, email, remember)
	if !errors.Is(err, repositories.ErrUserNotFound) {
		if err != nil {
			return Session{}, fmt.Errorf("%s: %w", op, err)
		}
		return session, nil
	}

	name := strings.TrimSpace(profile.Name)
	if name == "" {
		name = strings.SplitN(email, "@", 2)[0]
	}
	var image *string
	if profile.Picture != "" {
		image = &profile.Picture
	}
	user, err := s.users.CreateUser(ctx, models.Account{
		User: models.User{
			ID:         uuid.NewString(),
			Name:       name,
			Email:      email,
			Image:      image,
			Status:     models.StatusOnline,
			LastActive: s.now().UTC(),
		},
	})
	if errors.Is(err, repositories.ErrEmailTaken) {
		// A concurrent first sign-in for the same email won the insert.
		session, err = s.signInExisting(ctx, email, remember)
		if err != nil {
			return Session{}, fmt.Errorf("%s: %w", op, err)
		}
		return session, nil
	}
	if err != nil {
		return Session{}, fmt.Errorf("%s: %w", op, err)
	}
	logger.FromContext(ctx).Info("account created from oauth", zap.String("user_id", user.ID))

	return s.issue(user, s.ttl(remember))
}

func (s *AuthService) signInExisting(ctx context.Context, email string, remember bool) (Session, error) {
	account, err := s.users.GetAccountByEmail(ctx, email)
	if err != nil {
		return Session{}, err
	}
	now := s.now().UTC()
	if err := s.users.SetStatus(ctx, account.ID, models.StatusOnline, now); err != nil {
		return Session{}, err
	}
	account.User.Status = models.StatusOnline
	account.User.LastActive = now
	return s.issue(account.User, s.ttl(remember))
}

// SignOut marks the user offline. Tokens are stateless and simply expire.
func (s *AuthService) SignOut(ctx context.Context, userID string) error {
	const op = "service.SignOut"

	if err := s.users.SetStatus(ctx, userID, models.StatusOffline, s.now().UTC()); err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			logger.FromContext(ctx).Warn("sign out for missing user", zap.String("user_id", userID))
			return nil
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *AuthService) Me(ctx context.Context, userID string) (models.User, error) {
	const op = "service.Me"

	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}
	return user, nil
}

func (s *AuthService) ttl(remember bool) time.Duration {
	if remember {
		return s.rememberTTL
	}
	return s.sessionTTL
}

func (s *AuthService) issue(user models.User, ttl time.Duration) (Session, error) {
	token, expiresAt, err := s.tokens.Generate(user.ID, user.Email, ttl)
	if err != nil {
		return Session{}, fmt.Errorf("service.issue: %w", err)
	}
	return Session{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}
