package repository

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"CryptoChat/internal/domain/models"
	"CryptoChat/pkg/cache"
)

func TestCachePortfolioStore_Memory(t *testing.T) {
	mem := cache.NewMemoryCache()
	defer mem.Close()
	store := NewCachePortfolioStore(mem, "", 0)
	ctx := context.Background()

	p, err := store.Load(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, p.IsEmpty())

	want := models.Portfolio{}.With("ethereum", models.Holding{Amount: 2, Symbol: "ETH", Name: "Ethereum"})
	require.NoError(t, store.Save(ctx, "alice", want))

	got, err := store.Load(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, want, got)

	other, err := store.Load(ctx, "bob")
	require.NoError(t, err)
	assert.True(t, other.IsEmpty())

	require.NoError(t, store.Save(ctx, "alice", models.Portfolio{}))
	ok, err := mem.Exists(ctx, "portfolio:alice")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCachePortfolioStore_Redis(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	store := NewCachePortfolioStore(cache.NewRedisCacheFromClient(client, "cryptochat"), "portfolio", 0)
	ctx := context.Background()

	want := models.Portfolio{
		"bitcoin": {Amount: 0.5, Symbol: "BTC", Name: "Bitcoin"},
		"cardano": {Amount: 1000, Symbol: "ADA", Name: "Cardano"},
	}
	require.NoError(t, store.Save(ctx, "s1", want))
	assert.True(t, mr.Exists("cryptochat:portfolio:s1"))

	got, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, want, got)

	require.NoError(t, store.Clear(ctx, "s1"))
	assert.False(t, mr.Exists("cryptochat:portfolio:s1"))

	got, err = store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestCachePortfolioStore_LoadError(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer client.Close()
	store := NewCachePortfolioStore(cache.NewRedisCacheFromClient(client, ""), "portfolio", 0)

	mr.Close()
	_, err := store.Load(context.Background(), "s1")
	assert.Error(t, err)
}
