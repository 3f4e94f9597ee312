package domain

import "time"

// Account is a player's durable balance record. Accounts are created by the
// platform's registration flow; this service only reads them and moves their
// balance through awards and redemptions.
type Account struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"display_name"`
	Balance     int64     `json:"balance"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Game is a published game that may grant points for player actions.
type Game struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	APKFileURL     string    `json:"apk_file_url,omitempty"`
	SupportsPoints bool      `json:"supports_points"`
	CreatedAt      time.Time `json:"created_at"`
}

// Gift is a redeemable catalog item with limited stock.
type Gift struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	ImageURL    string    `json:"image_url,omitempty"`
	PointCost   int64     `json:"point_cost"`
	Stock       int64     `json:"stock"`
	PublisherID string    `json:"publisher_id"`
	CreatedAt   time.Time `json:"created_at"`
}

// CreateGiftRequest is a request to add a gift to the catalog.
type CreateGiftRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	ImageURL    string `json:"image_url,omitempty"`
	PointCost   int64  `json:"point_cost"`
	Stock       int64  `json:"stock"`
	PublisherID string `json:"publisher_id"`
}

// Validate checks the request before any store interaction.
func (r *CreateGiftRequest) Validate() error {
	if r.Name == "" || r.PublisherID == "" {
		return ErrInvalidRequest
	}
	if r.PointCost <= 0 {
		return ErrInvalidPointCost
	}
	if r.Stock < 0 {
		return ErrInvalidStock
	}
	return nil
}

// LeaderboardEntry is a single row of the balance ranking.
type LeaderboardEntry struct {
	Rank        int64  `json:"rank"`
	PlayerID    string `json:"player_id"`
	DisplayName string `json:"display_name,omitempty"`
	Balance     int64  `json:"balance"`
}
