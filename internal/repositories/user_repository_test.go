package repositories

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pairchat-service/internal/models"
)

func userRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "name", "email", "image", "status", "last_active", "created_at"})
}

func TestCreateUser(t *testing.T) {
	insert := regexp.QuoteMeta(`INSERT INTO users (id, name, email, password_hash, image, status, last_active)`)

	t.Run("keeps given id and lowercases email", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery(insert).
			WithArgs(ann, "Ann", "ann@example.com", "hash", nil, "online", stamp).
			WillReturnRows(userRows().AddRow(ann, "Ann", "ann@example.com", nil, "online", stamp, stamp))

		user, err := NewUserRepo(db).CreateUser(context.Background(), models.Account{
			User:         models.User{ID: ann, Name: "Ann", Email: "Ann@Example.com", Status: models.StatusOnline, LastActive: stamp},
			PasswordHash: "hash",
		})
		require.NoError(t, err)
		assert.Equal(t, ann, user.ID)
		assert.Equal(t, models.StatusOnline, user.Status)
		assert.Nil(t, user.Image)
	})

	t.Run("fills a missing id", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery(insert).
			WithArgs(anyUUID{}, "Ann", "ann@example.com", "", nil, "online", stamp).
			WillReturnRows(userRows().AddRow(ann, "Ann", "ann@example.com", nil, "online", stamp, stamp))

		_, err := NewUserRepo(db).CreateUser(context.Background(), models.Account{
			User: models.User{Name: "Ann", Email: "ann@example.com", Status: models.StatusOnline, LastActive: stamp},
		})
		require.NoError(t, err)
	})

	t.Run("duplicate email", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery(insert).WillReturnError(&pq.Error{Code: "23505"})

		_, err := NewUserRepo(db).CreateUser(context.Background(), models.Account{
			User: models.User{ID: ann, Name: "Ann", Email: "ann@example.com", Status: models.StatusOnline, LastActive: stamp},
		})
		assert.ErrorIs(t, err, ErrEmailTaken)
	})
}

func TestGetAccountByEmailNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery(regexp.QuoteMeta(`FROM users WHERE email=$1`)).
		WithArgs("ann@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "image", "status", "last_active", "created_at", "password_hash"}))

	_, err := NewUserRepo(db).GetAccountByEmail(context.Background(), "ANN@example.com")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestSearchUsersEscapesPattern(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery(regexp.QuoteMeta(`WHERE id <> $1 AND (LOWER(name) LIKE $2 OR LOWER(email) LIKE $2)`)).
		WithArgs(ann, `%50\%\_off%`).
		WillReturnRows(userRows().AddRow(bob, "Bob", "bob@example.com", nil, "offline", stamp, stamp))

	users, err := NewUserRepo(db).SearchUsers(context.Background(), "50%_OFF", ann)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, bob, users[0].ID)
}

func TestSetStatusUnknownUser(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE users SET status=$2, last_active=$3 WHERE id=$1`)).
		WithArgs(ann, "offline", stamp).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := NewUserRepo(db).SetStatus(context.Background(), ann, models.StatusOffline, stamp)
	assert.ErrorIs(t, err, ErrUserNotFound)
}
