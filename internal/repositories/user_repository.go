package repositories

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"pairchat-service/internal/models"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrEmailTaken   = errors.New("email already in use")
)

const userColumns = `id, name, email, image, status, last_active, created_at`

// UserRepository abstracts user persistence.
type UserRepository interface {
	CreateUser(ctx context.Context, account models.Account) (models.User, error)
	GetUser(ctx context.Context, userID string) (models.User, error)
	GetAccountByEmail(ctx context.Context, email string) (models.Account, error)
	SearchUsers(ctx context.Context, term string, excludeID string) ([]models.User, error)
	UpdateProfile(ctx context.Context, userID string, name *string, image *string) (models.User, error)
	SetStatus(ctx context.Context, userID string, status models.UserStatus, at time.Time) error
}

// UserRepo is a sqlx implementation of UserRepository.
type UserRepo struct {
	db *sqlx.DB
}

// NewUserRepo constructs a UserRepo.
func NewUserRepo(db *sqlx.DB) *UserRepo {
	return &UserRepo{db: db}
}

// CreateUser inserts a new account and returns its public profile. An empty ID gets a fresh uuid.
func (r *UserRepo) CreateUser(ctx context.Context, account models.Account) (models.User, error) {
	if account.ID == "" {
		account.ID = uuid.NewString()
	}
	var user models.User
	err := r.db.GetContext(ctx, &user, `INSERT INTO users (id, name, email, password_hash, image, status, last_active)
        VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING `+userColumns,
		account.ID, account.Name, strings.ToLower(account.Email), account.PasswordHash, account.Image, account.Status, account.LastActive)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return models.User{}, ErrEmailTaken
		}
		return models.User{}, err
	}
	return user, nil
}

// GetUser fetches a user by id.
func (r *UserRepo) GetUser(ctx context.Context, userID string) (models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user, `SELECT `+userColumns+` FROM users WHERE id=$1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrUserNotFound
	}
	return user, err
}

// GetAccountByEmail fetches a user with its password hash.
func (r *UserRepo) GetAccountByEmail(ctx context.Context, email string) (models.Account, error) {
	var account models.Account
	err := r.db.GetContext(ctx, &account, `SELECT `+userColumns+`, password_hash FROM users WHERE email=$1`, strings.ToLower(email))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Account{}, ErrUserNotFound
	}
	return account, err
}

// SearchUsers matches name or email case-insensitively, excluding the caller.
func (r *UserRepo) SearchUsers(ctx context.Context, term string, excludeID string) ([]models.User, error) {
	pattern := "%" + escapeLike(strings.ToLower(term)) + "%"
	users := []models.User{}
	err := r.db.SelectContext(ctx, &users, `SELECT `+userColumns+` FROM users
        WHERE id <> $1 AND (LOWER(name) LIKE $2 OR LOWER(email) LIKE $2)
        ORDER BY name ASC LIMIT 50`, excludeID, pattern)
	return users, err
}

// UpdateProfile changes the provided fields only.
func (r *UserRepo) UpdateProfile(ctx context.Context, userID string, name *string, image *string) (models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user, `UPDATE users SET
            name = COALESCE($2, name),
            image = COALESCE($3, image)
        WHERE id=$1 RETURNING `+userColumns, userID, name, image)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrUserNotFound
	}
	return user, err
}

// SetStatus flips presence and stamps last activity.
func (r *UserRepo) SetStatus(ctx context.Context, userID string, status models.UserStatus, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET status=$2, last_active=$3 WHERE id=$1`, userID, status, at)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrUserNotFound
	}
	return nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
