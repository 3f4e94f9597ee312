package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/gamehub-points/internal/domain"
	"github.com/gamehub-points/internal/websocket"
)

// GiftService provides business logic for the gift catalog and redemptions
type GiftService struct {
	store  Store
	cache  BalanceCache
	logger *slog.Logger
	hub    *websocket.Hub
}

// NewGiftService creates a new gift service
func NewGiftService(store Store, cache BalanceCache, logger *slog.Logger) *GiftService {
	return &GiftService{
		store:  store,
		cache:  cache,
		logger: logger,
	}
}

// SetHub attaches a WebSocket hub for live update broadcasts
func (s *GiftService) SetHub(hub *websocket.Hub) {
	s.hub = hub
}

// CreateGift adds a gift to the catalog
func (s *GiftService) CreateGift(ctx context.Context, req domain.CreateGiftRequest) (*domain.Gift, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	// Publisher must be a known account
	if _, err := s.store.GetAccount(ctx, req.PublisherID); err != nil {
		return nil, err
	}

	gift := domain.Gift{
		ID:          uuid.New().String(),
		Name:        req.Name,
		Description: req.Description,
		ImageURL:    req.ImageURL,
		PointCost:   req.PointCost,
		Stock:       req.Stock,
		PublisherID: req.PublisherID,
	}

	created, err := s.store.CreateGift(ctx, gift)
	if err != nil {
		return nil, err
	}

	s.logger.Info("gift created",
		"gift_id", created.ID,
		"point_cost", created.PointCost,
		"stock", created.Stock,
	)
	return created, nil
}

// GetGift returns a gift by ID
func (s *GiftService) GetGift(ctx context.Context, giftID string) (*domain.Gift, error) {
	return s.store.GetGift(ctx, giftID)
}

// ListGifts returns the gift catalog
func (s *GiftService) ListGifts(ctx context.Context) ([]domain.Gift, error) {
	return s.store.ListGifts(ctx)
}

// RedeemGift exchanges points for one unit of a gift. The store commits the
// balance decrement, stock decrement, and redemption record as one unit;
// a losing racer surfaces ErrOutOfStock or ErrInsufficientBalance with no
// partial effects.
func (s *GiftService) RedeemGift(ctx context.Context, playerID, giftID string) (*domain.RedemptionRecord, error) {
	record, err := s.store.RedeemGift(ctx, playerID, giftID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("gift redeemed",
		"redemption_id", record.ID,
		"player_id", record.PlayerID,
		"gift_id", record.GiftID,
		"points_spent", record.PointsSpent,
	)

	if s.cache != nil {
		if _, err := s.cache.IncrBalance(ctx, playerID, -record.PointsSpent); err != nil {
			s.logger.Warn("failed to update leaderboard cache", "player_id", playerID, "error", err)
		}
	}
	if s.hub != nil {
		s.hub.BroadcastRedemption(record)
		s.broadcastLeaderboard(ctx)
	}

	return record, nil
}

// broadcastLeaderboard pushes a fresh top-N snapshot to subscribers
func (s *GiftService) broadcastLeaderboard(ctx context.Context) {
	if s.hub == nil || s.cache == nil {
		return
	}

	entries, err := s.cache.TopN(ctx, broadcastLimit)
	if err != nil {
		s.logger.Warn("failed to load leaderboard for broadcast", "error", err)
		return
	}
	count, err := s.cache.Count(ctx)
	if err != nil {
		count = int64(len(entries))
	}

	s.hub.BroadcastLeaderboard(entries, count)
}

// ListRedemptions returns a player's redemption history, oldest first
func (s *GiftService) ListRedemptions(ctx context.Context, playerID string) ([]domain.RedemptionRecord, error) {
	return s.store.ListRedemptions(ctx, playerID)
}
