package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/gamehub-points/internal/domain"
)

// RedeemGift exchanges points for one unit of a gift as a single transaction:
// stock decrement, balance decrement, and the redemption record commit
// together or not at all. Both decrements are guarded in SQL ("stock > 0",
// "balance >= cost") so the store itself enforces non-negativity; the row
// locks taken by the updates serialize concurrent redemptions, and the loser
// re-evaluates the guard against committed state. Guards are always checked
// gift first, account second, so concurrent redemptions cannot deadlock.
func (r *Repository) RedeemGift(ctx context.Context, playerID, giftID string) (*domain.RedemptionRecord, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, storeFailure("beginning transaction", err)
	}
	defer tx.Rollback(ctx)

	var cost int64
	err = tx.QueryRow(ctx, `SELECT point_cost FROM gifts WHERE id = $1`, giftID).Scan(&cost)
	if err == pgx.ErrNoRows {
		return nil, fmt.Errorf("gift %s: %w", giftID, domain.ErrGiftNotFound)
	}
	if err != nil {
		return nil, storeFailure("getting gift cost", err)
	}

	var exists bool
	err = tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM accounts WHERE id = $1)`, playerID).Scan(&exists)
	if err != nil {
		return nil, storeFailure("checking account", err)
	}
	if !exists {
		return nil, fmt.Errorf("account %s: %w", playerID, domain.ErrAccountNotFound)
	}

	tag, err := tx.Exec(ctx, `
		UPDATE gifts
		SET stock = stock - 1
		WHERE id = $1 AND stock > 0
	`, giftID)
	if err != nil {
		return nil, storeFailure("decrementing stock", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, fmt.Errorf("gift %s: %w", giftID, domain.ErrOutOfStock)
	}

	tag, err = tx.Exec(ctx, `
		UPDATE accounts
		SET balance = balance - $2, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1 AND balance >= $2
	`, playerID, cost)
	if err != nil {
		return nil, storeFailure("decrementing balance", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, fmt.Errorf("account %s needs %d points: %w", playerID, cost, domain.ErrInsufficientBalance)
	}

	record := domain.RedemptionRecord{
		ID:          uuid.New().String(),
		PlayerID:    playerID,
		GiftID:      giftID,
		PointsSpent: cost,
	}
	err = tx.QueryRow(ctx, `
		INSERT INTO redemptions (id, player_id, gift_id, points_spent)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`, record.ID, record.PlayerID, record.GiftID, record.PointsSpent).Scan(&record.CreatedAt)
	if err != nil {
		return nil, storeFailure("inserting redemption record", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, storeFailure("committing redemption", err)
	}
	return &record, nil
}

// ListRedemptions retrieves a player's redemption records ordered by creation
// time ascending
func (r *Repository) ListRedemptions(ctx context.Context, playerID string) ([]domain.RedemptionRecord, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM accounts WHERE id = $1)`, playerID).Scan(&exists)
	if err != nil {
		return nil, storeFailure("checking account", err)
	}
	if !exists {
		return nil, fmt.Errorf("account %s: %w", playerID, domain.ErrAccountNotFound)
	}

	query := `
		SELECT id, player_id, gift_id, points_spent, created_at
		FROM redemptions
		WHERE player_id = $1
		ORDER BY created_at ASC
	`
	rows, err := r.pool.Query(ctx, query, playerID)
	if err != nil {
		return nil, storeFailure("listing redemptions", err)
	}
	defer rows.Close()

	var records []domain.RedemptionRecord
	for rows.Next() {
		var record domain.RedemptionRecord
		err := rows.Scan(
			&record.ID,
			&record.PlayerID,
			&record.GiftID,
			&record.PointsSpent,
			&record.CreatedAt,
		)
		if err != nil {
			return nil, storeFailure("scanning redemption record", err)
		}
		records = append(records, record)
	}
	return records, nil
}
