package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gamehub-points/internal/config"
	"github.com/gamehub-points/internal/domain"
)

func newLeaderboardFixture() (*LeaderboardService, *memStore, *memCache) {
	store := newMemStore()
	cache := newMemCache()
	cfg := &config.LeaderboardConfig{DefaultLimit: 10, MaxLimit: 100}
	svc := NewLeaderboardService(cache, store, cfg, testLogger())
	return svc, store, cache
}

func TestTopServedFromCache(t *testing.T) {
	svc, _, cache := newLeaderboardFixture()
	cache.balances["alice"] = 300
	cache.balances["bob"] = 200
	cache.balances["carol"] = 100

	entries, err := svc.Top(context.Background(), 2)

	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "alice", entries[0].PlayerID)
	assert.Equal(t, int64(1), entries[0].Rank)
	assert.Equal(t, "bob", entries[1].PlayerID)
}

func TestTopFallsBackToStore(t *testing.T) {
	svc, store, cache := newLeaderboardFixture()
	cache.failing = true
	store.addAccount("alice", 300)
	store.addAccount("bob", 200)

	entries, err := svc.Top(context.Background(), 10)

	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "alice", entries[0].PlayerID)
	assert.Equal(t, int64(300), entries[0].Balance)
}

func TestTopLimitClamping(t *testing.T) {
	svc, _, cache := newLeaderboardFixture()
	for i := 0; i < 26; i++ {
		cache.balances[playerName(i)] = int64(i)
	}

	entries, err := svc.Top(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, entries, 10, "non-positive limit uses the default")

	entries, err = svc.Top(context.Background(), 5000)
	require.NoError(t, err)
	assert.Len(t, entries, 26, "oversized limit is clamped, not an error")
}

func TestPlayerRankServedFromCache(t *testing.T) {
	svc, _, cache := newLeaderboardFixture()
	cache.balances["alice"] = 300
	cache.balances["bob"] = 200

	entry, err := svc.PlayerRank(context.Background(), "bob")

	require.NoError(t, err)
	assert.Equal(t, int64(2), entry.Rank)
	assert.Equal(t, int64(200), entry.Balance)
}

func TestPlayerRankFallsBackToStore(t *testing.T) {
	svc, store, cache := newLeaderboardFixture()
	cache.failing = true
	store.addAccount("alice", 300)

	entry, err := svc.PlayerRank(context.Background(), "alice")

	require.NoError(t, err)
	assert.Equal(t, int64(1), entry.Rank)
}

func TestPlayerRankUnknownPlayer(t *testing.T) {
	svc, _, _ := newLeaderboardFixture()

	_, err := svc.PlayerRank(context.Background(), "nobody")

	assert.ErrorIs(t, err, domain.ErrAccountNotFound)
}
