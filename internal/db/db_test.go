package db

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationsEmbedded(t *testing.T) {
	entries, err := fs.ReadDir(migrationsFS, "migrations")
	require.NoError(t, err)

	var up, down int
	for _, e := range entries {
		switch {
		case strings.HasSuffix(e.Name(), ".up.sql"):
			up++
		case strings.HasSuffix(e.Name(), ".down.sql"):
			down++
		}
	}
	assert.Equal(t, up, down)
	assert.NotZero(t, up)
}

func TestInitMigrationKeepsPairConstraint(t *testing.T) {
	body, err := fs.ReadFile(migrationsFS, "migrations/000001_init.up.sql")
	require.NoError(t, err)

	sql := string(body)
	assert.Contains(t, sql, "UNIQUE (user1_id, user2_id)")
	assert.Contains(t, sql, "CHECK (user1_id < user2_id)")
	assert.Contains(t, sql, "ON DELETE CASCADE")
}
