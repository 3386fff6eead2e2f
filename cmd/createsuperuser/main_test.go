package main

import (
	"context"
	"testing"

	"github.com/Baaaki/yamdb/internal/models"
	"github.com/Baaaki/yamdb/internal/repository"
	"github.com/Baaaki/yamdb/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureSuperuser(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	defer testDB.Teardown(t)
	repo := repository.NewUserRepository(testDB.DB)
	ctx := context.Background()

	created, err := ensureSuperuser(ctx, repo, "root", "root@example.com")
	require.NoError(t, err)
	assert.True(t, created.IsSuperuser)
	assert.Equal(t, models.RoleAdmin, created.Role)

	again, err := ensureSuperuser(ctx, repo, "root", "root@example.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, again.ID)

	existing := testutil.CreateUser(t, testDB.DB, "alice", models.RoleUser)
	promoted, err := ensureSuperuser(ctx, repo, "someone-else", "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, existing.ID, promoted.ID)

	stored, err := repo.GetByID(ctx, existing.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsAdmin())
}
