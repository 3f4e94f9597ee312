package domain

import (
	"strings"
	"time"
)

// ActionKind is the closed set of player actions that can grant points.
type ActionKind string

const (
	ActionDownloadGame ActionKind = "DOWNLOAD_GAME"
	ActionWriteReview  ActionKind = "WRITE_REVIEW"
)

// ParseActionKind validates a free-form action string against the known kinds.
func ParseActionKind(s string) (ActionKind, error) {
	switch ActionKind(strings.ToUpper(s)) {
	case ActionDownloadGame:
		return ActionDownloadGame, nil
	case ActionWriteReview:
		return ActionWriteReview, nil
	}
	return "", ErrInvalidActionKind
}

// AwardRecord is one immutable entry of the points ledger. For records with a
// non-nil GameID the (player, game, action) triple is unique; records without
// a game are not deduplicated.
type AwardRecord struct {
	ID        int64      `json:"id"`
	PlayerID  string     `json:"player_id"`
	GameID    *string    `json:"game_id,omitempty"`
	Action    ActionKind `json:"action"`
	Points    int64      `json:"points"`
	CreatedAt time.Time  `json:"created_at"`
}

// AwardRequest is a request to grant points for a player action.
type AwardRequest struct {
	PlayerID string     `json:"player_id"`
	GameID   *string    `json:"game_id,omitempty"`
	Action   ActionKind `json:"action"`
	Points   int64      `json:"points"`
}

// Validate checks the request before any store interaction.
func (r *AwardRequest) Validate() error {
	if r.PlayerID == "" {
		return ErrInvalidRequest
	}
	if _, err := ParseActionKind(string(r.Action)); err != nil {
		return err
	}
	if r.Points <= 0 {
		return ErrInvalidPoints
	}
	return nil
}

// RedemptionRecord is one immutable entry of the redemption log. PointsSpent
// captures the gift's cost at redemption time; later price changes do not
// rewrite history.
type RedemptionRecord struct {
	ID          string    `json:"id"`
	PlayerID    string    `json:"player_id"`
	GiftID      string    `json:"gift_id"`
	PointsSpent int64     `json:"points_spent"`
	CreatedAt   time.Time `json:"created_at"`
}
