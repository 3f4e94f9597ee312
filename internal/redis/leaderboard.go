package redis

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/gamehub-points/internal/config"
	"github.com/gamehub-points/internal/domain"
)

const leaderboardKey = "points:leaderboard"

// Leaderboard caches the balance ranking in a Redis sorted set so reads never
// touch the durable store. It is a projection only: Postgres stays
// authoritative and the sync worker rebuilds this cache periodically.
type Leaderboard struct {
	client *redis.Client
	logger *slog.Logger
}

// NewLeaderboard creates a new Redis-backed leaderboard cache
func NewLeaderboard(cfg *config.RedisConfig, logger *slog.Logger) (*Leaderboard, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	// Test connection
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}

	return &Leaderboard{
		client: client,
		logger: logger,
	}, nil
}

// Close closes the Redis connection
func (l *Leaderboard) Close() error {
	return l.client.Close()
}

// Client returns the underlying Redis client
func (l *Leaderboard) Client() *redis.Client {
	return l.client
}

// playerInfoKey returns the Redis key for a player's cached display info
func (l *Leaderboard) playerInfoKey(playerID string) string {
	return fmt.Sprintf("player:%s:info", playerID)
}

// SetBalance sets a player's cached balance
func (l *Leaderboard) SetBalance(ctx context.Context, playerID string, balance int64) error {
	err := l.client.ZAdd(ctx, leaderboardKey, redis.Z{
		Score:  float64(balance),
		Member: playerID,
	}).Err()
	if err != nil {
		return fmt.Errorf("setting balance: %w", err)
	}
	return nil
}

// IncrBalance shifts a player's cached balance by the given delta and returns
// the new cached value. Drift against the store is corrected by the periodic
// rebuild.
func (l *Leaderboard) IncrBalance(ctx context.Context, playerID string, delta int64) (int64, error) {
	newBalance, err := l.client.ZIncrBy(ctx, leaderboardKey, float64(delta), playerID).Result()
	if err != nil {
		return 0, fmt.Errorf("incrementing balance: %w", err)
	}
	return int64(newBalance), nil
}

// TopN returns the top N players by cached balance, descending
func (l *Leaderboard) TopN(ctx context.Context, n int) ([]domain.LeaderboardEntry, error) {
	results, err := l.client.ZRevRangeWithScores(ctx, leaderboardKey, 0, int64(n-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("getting top n: %w", err)
	}

	entries := make([]domain.LeaderboardEntry, len(results))
	for i, result := range results {
		entries[i] = domain.LeaderboardEntry{
			Rank:     int64(i + 1),
			PlayerID: result.Member.(string),
			Balance:  int64(result.Score),
		}
	}
	l.fillDisplayNames(ctx, entries)
	return entries, nil
}

// fillDisplayNames resolves cached display names for entries in one pipeline.
// Missing names are left empty rather than failing the read.
func (l *Leaderboard) fillDisplayNames(ctx context.Context, entries []domain.LeaderboardEntry) {
	if len(entries) == 0 {
		return
	}

	pipe := l.client.Pipeline()
	cmds := make([]*redis.StringCmd, len(entries))
	for i, entry := range entries {
		cmds[i] = pipe.HGet(ctx, l.playerInfoKey(entry.PlayerID), "display_name")
	}
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		l.logger.Warn("failed to resolve display names", "error", err)
		return
	}

	for i, cmd := range cmds {
		if name, err := cmd.Result(); err == nil {
			entries[i].DisplayName = name
		}
	}
}

// PlayerRank returns a player's rank and cached balance
func (l *Leaderboard) PlayerRank(ctx context.Context, playerID string) (*domain.LeaderboardEntry, error) {
	// Use pipeline to get both rank and balance
	pipe := l.client.Pipeline()
	rankCmd := pipe.ZRevRank(ctx, leaderboardKey, playerID)
	balanceCmd := pipe.ZScore(ctx, leaderboardKey, playerID)
	_, err := pipe.Exec(ctx)

	if err != nil {
		if err == redis.Nil {
			return nil, domain.ErrAccountNotFound
		}
		return nil, fmt.Errorf("getting player rank: %w", err)
	}

	rank, err := rankCmd.Result()
	if err != nil {
		if err == redis.Nil {
			return nil, domain.ErrAccountNotFound
		}
		return nil, fmt.Errorf("getting rank result: %w", err)
	}

	balance, err := balanceCmd.Result()
	if err != nil {
		return nil, fmt.Errorf("getting balance result: %w", err)
	}

	entry := &domain.LeaderboardEntry{
		Rank:     rank + 1, // Convert 0-indexed to 1-indexed
		PlayerID: playerID,
		Balance:  int64(balance),
	}

	entries := []domain.LeaderboardEntry{*entry}
	l.fillDisplayNames(ctx, entries)
	return &entries[0], nil
}

// Count returns the number of players in the cached leaderboard
func (l *Leaderboard) Count(ctx context.Context) (int64, error) {
	count, err := l.client.ZCard(ctx, leaderboardKey).Result()
	if err != nil {
		return 0, fmt.Errorf("getting count: %w", err)
	}
	return count, nil
}

// SetPlayerInfo caches a player's display info
func (l *Leaderboard) SetPlayerInfo(ctx context.Context, playerID, displayName string) error {
	err := l.client.HSet(ctx, l.playerInfoKey(playerID), "display_name", displayName).Err()
	if err != nil {
		return fmt.Errorf("setting player info: %w", err)
	}
	return nil
}

// BatchSetBalances sets multiple cached balances and display names using
// pipelining. Used by the rebuild worker.
func (l *Leaderboard) BatchSetBalances(ctx context.Context, accounts []domain.Account) error {
	if len(accounts) == 0 {
		return nil
	}

	pipe := l.client.Pipeline()
	for _, account := range accounts {
		pipe.ZAdd(ctx, leaderboardKey, redis.Z{
			Score:  float64(account.Balance),
			Member: account.ID,
		})
		pipe.HSet(ctx, l.playerInfoKey(account.ID), "display_name", account.DisplayName)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("batch setting balances: %w", err)
	}
	return nil
}
