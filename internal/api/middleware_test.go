package api

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContextAccessors(t *testing.T) {
	t.Run("empty context", func(t *testing.T) {
		ctx := context.Background()
		assert.Empty(t, getUserID(ctx))
		assert.Empty(t, getEmail(ctx))
		assert.Empty(t, getSessionID(ctx))
		assert.False(t, isRoot(ctx))
	})

	t.Run("populated context", func(t *testing.T) {
		ctx := context.WithValue(context.Background(), contextKeyUserID, "user_1")
		ctx = context.WithValue(ctx, contextKeyEmail, "alice@example.com")
		ctx = context.WithValue(ctx, contextKeyIsRoot, true)
		ctx = context.WithValue(ctx, contextKeySessionID, "sess_1")

		assert.Equal(t, "user_1", getUserID(ctx))
		assert.Equal(t, "alice@example.com", getEmail(ctx))
		assert.Equal(t, "sess_1", getSessionID(ctx))
		assert.True(t, isRoot(ctx))
	})
}
