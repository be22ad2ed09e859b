package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rescout-labs/rescout/internal/core/domain"
)

func TestSessionStoreSaveAndGet(t *testing.T) {
	store := NewSessionStore()
	ctx := context.Background()

	session := &domain.ChatSession{
		ID:        "sess-1",
		Namespace: "acme",
		Turns: []domain.ChatTurn{
			{Role: domain.RoleUser, Content: "who knows Go?"},
		},
		LastActive: time.Now().UTC(),
	}
	require.NoError(t, store.Save(ctx, session))

	got, err := store.Get(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, "acme", got.Namespace)
	require.Len(t, got.Turns, 1)
	assert.Equal(t, "who knows Go?", got.Turns[0].Content)

	_, err = store.Get(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.ErrorIs(t, store.Save(ctx, &domain.ChatSession{}), domain.ErrInvalidInput)
}

func TestSessionStoreIsolatesTurns(t *testing.T) {
	store := NewSessionStore()
	ctx := context.Background()

	session := &domain.ChatSession{
		ID:    "sess-1",
		Turns: []domain.ChatTurn{{Role: domain.RoleUser, Content: "original"}},
	}
	require.NoError(t, store.Save(ctx, session))

	// Mutating the caller's copy must not leak into the store.
	session.Turns[0].Content = "mutated"

	got, err := store.Get(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, "original", got.Turns[0].Content)

	// Mutating a retrieved copy must not leak either.
	got.Turns[0].Content = "mutated again"
	again, err := store.Get(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, "original", again.Turns[0].Content)
}

func TestSessionStoreDelete(t *testing.T) {
	store := NewSessionStore()
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, &domain.ChatSession{ID: "sess-1"}))
	require.NoError(t, store.Delete(ctx, "sess-1"))

	_, err := store.Get(ctx, "sess-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.NoError(t, store.Delete(ctx, "sess-1"))
}

func TestSessionStoreListIdle(t *testing.T) {
	store := NewSessionStore()
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, store.Save(ctx, &domain.ChatSession{ID: "old", LastActive: now.Add(-time.Hour)}))
	require.NoError(t, store.Save(ctx, &domain.ChatSession{ID: "fresh", LastActive: now}))

	ids, err := store.ListIdle(ctx, now.Add(-30*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, []string{"old"}, ids)

	ids, err = store.ListIdle(ctx, now.Add(-2*time.Hour))
	require.NoError(t, err)
	assert.Empty(t, ids)
}
