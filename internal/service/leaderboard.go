package service

import (
	"context"
	"log/slog"

	"github.com/gamehub-points/internal/config"
	"github.com/gamehub-points/internal/domain"
)

// LeaderboardService serves the read-only balance ranking. It prefers the
// cache and falls back to the store when the cache is empty or unavailable.
type LeaderboardService struct {
	cache  BalanceCache
	store  Store
	config *config.LeaderboardConfig
	logger *slog.Logger
}

// NewLeaderboardService creates a new leaderboard service
func NewLeaderboardService(cache BalanceCache, store Store, cfg *config.LeaderboardConfig, logger *slog.Logger) *LeaderboardService {
	return &LeaderboardService{
		cache:  cache,
		store:  store,
		config: cfg,
		logger: logger,
	}
}

// Top returns the top N players by balance
func (s *LeaderboardService) Top(ctx context.Context, n int) ([]domain.LeaderboardEntry, error) {
	// Validate limit
	if n <= 0 {
		n = s.config.DefaultLimit
	}
	if n > s.config.MaxLimit {
		n = s.config.MaxLimit
	}

	if s.cache != nil {
		entries, err := s.cache.TopN(ctx, n)
		if err == nil && len(entries) > 0 {
			return entries, nil
		}
		if err != nil {
			s.logger.Warn("leaderboard cache unavailable, falling back to store", "error", err)
		}
	}

	return s.store.TopAccounts(ctx, n)
}

// PlayerRank returns a single player's rank and balance
func (s *LeaderboardService) PlayerRank(ctx context.Context, playerID string) (*domain.LeaderboardEntry, error) {
	if s.cache != nil {
		entry, err := s.cache.PlayerRank(ctx, playerID)
		if err == nil {
			return entry, nil
		}
		if !domain.IsNotFound(err) {
			s.logger.Warn("leaderboard cache unavailable, falling back to store", "error", err)
		}
	}

	return s.store.AccountRank(ctx, playerID)
}
