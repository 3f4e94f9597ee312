package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/gamehub-points/internal/config"
	"github.com/gamehub-points/internal/domain"
	"github.com/gamehub-points/internal/websocket"
)

// How many entries go out with each live leaderboard broadcast.
const broadcastLimit = 10

// PointsService provides business logic for the points ledger
type PointsService struct {
	store   Store
	cache   BalanceCache
	rewards *config.RewardsConfig
	logger  *slog.Logger
	hub     *websocket.Hub
}

// NewPointsService creates a new points service
func NewPointsService(store Store, cache BalanceCache, rewards *config.RewardsConfig, logger *slog.Logger) *PointsService {
	return &PointsService{
		store:   store,
		cache:   cache,
		rewards: rewards,
		logger:  logger,
	}
}

// SetHub attaches a WebSocket hub for live update broadcasts
func (s *PointsService) SetHub(hub *websocket.Hub) {
	s.hub = hub
}

// AwardPoints grants points for a player action. The store enforces the
// at-most-once rule per (player, game, action) triple; a duplicate surfaces
// as ErrAlreadyAwarded with no balance change, which callers may treat as
// "already done" rather than a failure.
func (s *PointsService) AwardPoints(ctx context.Context, req domain.AwardRequest) (*domain.AwardRecord, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	record, err := s.store.AwardPoints(ctx, req)
	if err != nil {
		return nil, err
	}

	s.logger.Info("points awarded",
		"player_id", record.PlayerID,
		"action", record.Action,
		"points", record.Points,
	)

	s.updateCache(ctx, record.PlayerID, record.Points)
	s.broadcastLeaderboard(ctx)

	return record, nil
}

// TrackDownload awards download points and resolves the game's APK URL so the
// caller can redirect the player to it. An earlier award for the same
// download does not block the download: the points are simply not re-granted
// and awarded is false.
func (s *PointsService) TrackDownload(ctx context.Context, playerID, gameID string) (apkURL string, awarded bool, err error) {
	game, err := s.store.GetGame(ctx, gameID)
	if err != nil {
		return "", false, err
	}

	req := domain.AwardRequest{
		PlayerID: playerID,
		GameID:   &gameID,
		Action:   domain.ActionDownloadGame,
		Points:   s.rewards.DownloadPoints,
	}
	_, err = s.AwardPoints(ctx, req)
	switch {
	case err == nil:
		awarded = true
	case errors.Is(err, domain.ErrAlreadyAwarded):
		s.logger.Info("download already rewarded, proceeding",
			"player_id", playerID,
			"game_id", gameID,
		)
	default:
		return "", false, err
	}

	if game.APKFileURL == "" {
		return "", awarded, fmt.Errorf("game %s has no file: %w", gameID, domain.ErrGameNotFound)
	}
	return game.APKFileURL, awarded, nil
}

// GetAccount returns a player's account
func (s *PointsService) GetAccount(ctx context.Context, playerID string) (*domain.Account, error) {
	return s.store.GetAccount(ctx, playerID)
}

// ListAwards returns a player's award history, newest first
func (s *PointsService) ListAwards(ctx context.Context, playerID string) ([]domain.AwardRecord, error) {
	if _, err := s.store.GetAccount(ctx, playerID); err != nil {
		return nil, err
	}
	return s.store.ListAwards(ctx, playerID)
}

// updateCache shifts the cached leaderboard balance. Cache failures degrade
// the projection only; the periodic rebuild corrects drift.
func (s *PointsService) updateCache(ctx context.Context, playerID string, delta int64) {
	if s.cache == nil {
		return
	}
	if _, err := s.cache.IncrBalance(ctx, playerID, delta); err != nil {
		s.logger.Warn("failed to update leaderboard cache", "player_id", playerID, "error", err)
	}
}

// broadcastLeaderboard pushes a fresh top-N snapshot to subscribers
func (s *PointsService) broadcastLeaderboard(ctx context.Context) {
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
