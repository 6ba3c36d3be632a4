package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/loopwar-api/internal/models"
)

func TestUserRepositoryLookupsAndDuplicates(t *testing.T) {
	db := openTestDB(t, &models.User{})
	repo := NewUserRepository(db)
	ctx := context.Background()

	user := models.User{Username: "ada_l", Email: "Ada@Example.com", PasswordHash: "hash", Role: models.RoleStudent}
	require.NoError(t, repo.Create(ctx, &user))

	byEmail, err := repo.GetByIdentifier(ctx, "ada@example.com")
	require.NoError(t, err)
	require.Equal(t, user.ID, byEmail.ID)

	byName, err := repo.GetByIdentifier(ctx, " ada_l ")
	require.NoError(t, err)
	require.Equal(t, user.ID, byName.ID)

	emailTaken, usernameTaken, err := repo.ExistsByEmailOrUsername(ctx, "ADA@example.com", "someone")
	require.NoError(t, err)
	require.True(t, emailTaken)
	require.False(t, usernameTaken)

	emailTaken, usernameTaken, err = repo.ExistsByEmailOrUsername(ctx, "new@example.com", "ada_l")
	require.NoError(t, err)
	require.False(t, emailTaken)
	require.True(t, usernameTaken)
}

func TestUserRepositoryUsernameExists(t *testing.T) {
	db := openTestDB(t, &models.User{})
	repo := NewUserRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &models.User{Username: "grace", Email: "grace@example.com", PasswordHash: "hash", Role: models.RoleStudent}))

	exists, err := repo.UsernameExists(ctx, " grace ")
	require.NoError(t, err)
	require.True(t, exists)

	exists, err = repo.UsernameExists(ctx, "Grace_H")
	require.NoError(t, err)
	require.False(t, exists)
}
