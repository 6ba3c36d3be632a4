package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/loopwar-api/internal/models"
)

func TestChatRepositoryRecentMessagesChronological(t *testing.T) {
	db := openTestDB(t, &models.ChatSession{}, &models.ChatMessage{})
	repo := NewChatRepository(db)
	ctx := context.Background()

	session := models.ChatSession{ID: "5f0c7c1e-6f0e-4f11-9d2b-3b2a1c0d9e8f", UserID: 3, Title: "Arrays"}
	require.NoError(t, repo.CreateSession(ctx, &session))

	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		msg := &models.ChatMessage{Role: models.ChatRoleUser, Content: fmt.Sprintf("m%d", i), CreatedAt: base.Add(time.Duration(i) * time.Second)}
		require.NoError(t, repo.AppendMessages(ctx, session.ID, msg))
	}

	recent, err := repo.RecentMessages(ctx, session.ID, 3)
	require.NoError(t, err)
	require.Len(t, recent, 3)
	require.Equal(t, "m2", recent[0].Content)
	require.Equal(t, "m4", recent[2].Content)

	sessions, err := repo.ListSessions(ctx, 3, 0)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
}
