package session

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// exerciseStore runs the contract every Store implementation must satisfy.
func exerciseStore(t *testing.T, s Store) {
	ctx := context.Background()
	token := NewToken()

	_, ok, err := s.CartID(ctx, token)
	require.NoError(t, err)
	assert.False(t, ok, "fresh token should have no cart")

	cartID := uuid.New()
	require.NoError(t, s.SetCartID(ctx, token, cartID))

	got, ok, err := s.CartID(ctx, token)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, cartID, got)

	require.NoError(t, s.ClearCartID(ctx, token))
	_, ok, err = s.CartID(ctx, token)
	require.NoError(t, err)
	assert.False(t, ok, "cleared token should have no cart")

	// Clearing twice is harmless.
	require.NoError(t, s.ClearCartID(ctx, token))
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore(time.Hour))
}

func TestMemoryStoreExpiry(t *testing.T) {
	s := NewMemoryStore(time.Minute)
	now := time.Now()
	s.now = func() time.Time { return now }

	ctx := context.Background()
	require.NoError(t, s.SetCartID(ctx, "tok", uuid.New()))

	now = now.Add(2 * time.Minute)
	_, ok, err := s.CartID(ctx, "tok")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisStore(t *testing.T) {
	url := os.Getenv("TEST_REDIS_URL")
	if url == "" {
		t.Skip("TEST_REDIS_URL not set")
	}
	client, err := NewRedisClient(context.Background(), url)
	require.NoError(t, err)
	defer client.Close()

	exerciseStore(t, NewRedisStore(client, time.Minute))
}

func TestNewRedisClientBadURL(t *testing.T) {
	_, err := NewRedisClient(context.Background(), "not a url")
	assert.Error(t, err)
}

func TestValidToken(t *testing.T) {
	assert.True(t, ValidToken(NewToken()))
	assert.False(t, ValidToken(""))
	assert.False(t, ValidToken("../../etc/passwd"))
}
