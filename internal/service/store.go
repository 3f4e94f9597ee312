package service

import (
	"context"

	"github.com/gamehub-points/internal/domain"
)

// Store is the durable, transactional store behind the services. AwardPoints
// and RedeemGift are atomic units: each either applies all of its effects
// (record append plus balance/stock mutation) or none of them, and each
// enforces its own uniqueness and non-negativity guards under concurrency.
// Implemented by *postgres.Repository.
type Store interface {
	GetAccount(ctx context.Context, playerID string) (*domain.Account, error)
	GetGame(ctx context.Context, gameID string) (*domain.Game, error)

	AwardPoints(ctx context.Context, req domain.AwardRequest) (*domain.AwardRecord, error)
	ListAwards(ctx context.Context, playerID string) ([]domain.AwardRecord, error)

	CreateGift(ctx context.Context, gift domain.Gift) (*domain.Gift, error)
	GetGift(ctx context.Context, giftID string) (*domain.Gift, error)
	ListGifts(ctx context.Context) ([]domain.Gift, error)
	RedeemGift(ctx context.Context, playerID, giftID string) (*domain.RedemptionRecord, error)
	ListRedemptions(ctx context.Context, playerID string) ([]domain.RedemptionRecord, error)

	TopAccounts(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error)
	AccountRank(ctx context.Context, playerID string) (*domain.LeaderboardEntry, error)
}

// BalanceCache is the non-authoritative ranking projection. Failures here
// degrade reads, never correctness. Implemented by *redis.Leaderboard.
type BalanceCache interface {
	IncrBalance(ctx context.Context, playerID string, delta int64) (int64, error)
	TopN(ctx context.Context, n int) ([]domain.LeaderboardEntry, error)
	PlayerRank(ctx context.Context, playerID string) (*domain.LeaderboardEntry, error)
	Count(ctx context.Context) (int64, error)
}
