package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/gamehub-points/internal/domain"
)

// AwardPoints records one points grant and increments the player's balance as
// a single transaction. The unique index on (player_id, game_id, action_kind)
// is the authoritative duplicate signal: a conflicting insert returns zero
// rows and the whole transaction rolls back with ErrAlreadyAwarded, so two
// racing calls with the same triple can never both increment the balance.
func (r *Repository) AwardPoints(ctx context.Context, req domain.AwardRequest) (*domain.AwardRecord, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, storeFailure("beginning transaction", err)
	}
	defer tx.Rollback(ctx)

	var exists bool
	err = tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM accounts WHERE id = $1)`, req.PlayerID).Scan(&exists)
	if err != nil {
		return nil, storeFailure("checking account", err)
	}
	if !exists {
		return nil, fmt.Errorf("account %s: %w", req.PlayerID, domain.ErrAccountNotFound)
	}

	if req.GameID != nil {
		var supportsPoints bool
		err := tx.QueryRow(ctx, `SELECT supports_points FROM games WHERE id = $1`, *req.GameID).Scan(&supportsPoints)
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("game %s: %w", *req.GameID, domain.ErrGameNotFound)
		}
		if err != nil {
			return nil, storeFailure("checking game", err)
		}
		if !supportsPoints {
			return nil, fmt.Errorf("game %s: %w", *req.GameID, domain.ErrPointsNotSupported)
		}
	}

	record := domain.AwardRecord{
		PlayerID: req.PlayerID,
		GameID:   req.GameID,
		Action:   req.Action,
		Points:   req.Points,
	}
	err = tx.QueryRow(ctx, `
		INSERT INTO award_records (player_id, game_id, action_kind, points)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (player_id, game_id, action_kind) DO NOTHING
		RETURNING id, created_at
	`, req.PlayerID, req.GameID, string(req.Action), req.Points).Scan(&record.ID, &record.CreatedAt)
	if err == pgx.ErrNoRows {
		return nil, fmt.Errorf("player %s action %s: %w", req.PlayerID, req.Action, domain.ErrAlreadyAwarded)
	}
	if err != nil {
		return nil, storeFailure("inserting award record", err)
	}

	tag, err := tx.Exec(ctx, `
		UPDATE accounts
		SET balance = balance + $2, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1
	`, req.PlayerID, req.Points)
	if err != nil {
		return nil, storeFailure("incrementing balance", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, fmt.Errorf("account %s: %w", req.PlayerID, domain.ErrAccountNotFound)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, storeFailure("committing award", err)
	}
	return &record, nil
}

// ListAwards retrieves a player's award records, newest first
func (r *Repository) ListAwards(ctx context.Context, playerID string) ([]domain.AwardRecord, error) {
	query := `
		SELECT id, player_id, game_id, action_kind, points, created_at
		FROM award_records
		WHERE player_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.pool.Query(ctx, query, playerID)
	if err != nil {
		return nil, storeFailure("listing awards", err)
	}
	defer rows.Close()

	var records []domain.AwardRecord
	for rows.Next() {
		var record domain.AwardRecord
		err := rows.Scan(
			&record.ID,
			&record.PlayerID,
			&record.GameID,
			&record.Action,
			&record.Points,
			&record.CreatedAt,
		)
		if err != nil {
			return nil, storeFailure("scanning award record", err)
		}
		records = append(records, record)
	}
	return records, nil
}
