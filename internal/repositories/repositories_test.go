package repositories

import (
	"database/sql/driver"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

const (
	ann   = "11111111-1111-1111-1111-111111111111"
	bob   = "22222222-2222-2222-2222-222222222222"
	chat1 = "aaaaaaaa-aaaa-aaaa-aaaa-aaaaaaaaaaaa"
	msg1  = "bbbbbbbb-bbbb-bbbb-bbbb-bbbbbbbbbbbb"
	inv1  = "cccccccc-cccc-cccc-cccc-cccccccccccc"
)

var stamp = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

// newMockDB returns a sqlx handle over sqlmock and fails the test on unmet expectations.
func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return sqlx.NewDb(db, "postgres"), mock
}

// anyUUID matches a string argument holding a parseable uuid.
type anyUUID struct{}

func (anyUUID) Match(v driver.Value) bool {
	s, ok := v.(string)
	if !ok {
		return false
	}
	_, err := uuid.Parse(s)
	return err == nil
}
