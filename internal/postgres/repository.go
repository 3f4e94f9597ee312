package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gamehub-points/internal/config"
	"github.com/gamehub-points/internal/domain"
)

// Repository provides PostgreSQL-based data access. It is the single source
// of truth for balances, stock, and both append-only logs.
type Repository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewRepository creates a new PostgreSQL repository
func NewRepository(cfg *config.PostgresConfig, logger *slog.Logger) (*Repository, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("parsing connection string: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxConnections)
	poolConfig.MinConns = int32(cfg.MinConnections)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	// Test connection
	if err := pool.Ping(context.Background()); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	return &Repository{
		pool:   pool,
		logger: logger,
	}, nil
}

// Close closes the database connection pool
func (r *Repository) Close() {
	r.pool.Close()
}

// Pool returns the underlying connection pool
func (r *Repository) Pool() *pgxpool.Pool {
	return r.pool
}

// storeFailure tags an infrastructure error so callers can tell it apart from
// business rejections while keeping the underlying cause in the chain.
func storeFailure(op string, err error) error {
	return fmt.Errorf("%s: %w", op, errors.Join(domain.ErrStoreFailure, err))
}

// RunMigrations executes database migrations
func (r *Repository) RunMigrations(ctx context.Context) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS accounts (
			id VARCHAR(64) PRIMARY KEY,
			display_name VARCHAR(255) NOT NULL DEFAULT '',
			balance BIGINT NOT NULL DEFAULT 0 CHECK (balance >= 0),
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS games (
			id VARCHAR(64) PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			apk_file_url TEXT,
			supports_points BOOLEAN NOT NULL DEFAULT false,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS gifts (
			id VARCHAR(64) PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			description TEXT,
			image_url TEXT,
			point_cost BIGINT NOT NULL CHECK (point_cost > 0),
			stock BIGINT NOT NULL CHECK (stock >= 0),
			publisher_id VARCHAR(64) NOT NULL REFERENCES accounts(id),
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS award_records (
			id BIGSERIAL PRIMARY KEY,
			player_id VARCHAR(64) NOT NULL REFERENCES accounts(id),
			game_id VARCHAR(64) REFERENCES games(id),
			action_kind VARCHAR(32) NOT NULL,
			points BIGINT NOT NULL CHECK (points > 0),
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS redemptions (
			id VARCHAR(64) PRIMARY KEY,
			player_id VARCHAR(64) NOT NULL REFERENCES accounts(id),
			gift_id VARCHAR(64) NOT NULL REFERENCES gifts(id),
			points_spent BIGINT NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		// Rows with a NULL game_id are deliberately not deduplicated: the
		// index treats NULLs as distinct.
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_award_records_triple
			ON award_records(player_id, game_id, action_kind)`,
		`CREATE INDEX IF NOT EXISTS idx_award_records_player ON award_records(player_id, created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_redemptions_player ON redemptions(player_id, created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_accounts_balance ON accounts(balance DESC)`,
	}

	for _, migration := range migrations {
		_, err := r.pool.Exec(ctx, migration)
		if err != nil {
			return fmt.Errorf("executing migration: %w", err)
		}
	}

	r.logger.Info("database migrations completed")
	return nil
}

// GetAccount retrieves an account by player ID
func (r *Repository) GetAccount(ctx context.Context, playerID string) (*domain.Account, error) {
	query := `
		SELECT id, display_name, balance, created_at, updated_at
		FROM accounts
		WHERE id = $1
	`
	var account domain.Account
	err := r.pool.QueryRow(ctx, query, playerID).Scan(
		&account.ID,
		&account.DisplayName,
		&account.Balance,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("account %s: %w", playerID, domain.ErrAccountNotFound)
		}
		return nil, storeFailure("getting account", err)
	}
	return &account, nil
}

// AllAccounts retrieves every account. Used by the leaderboard rebuild worker.
func (r *Repository) AllAccounts(ctx context.Context) ([]domain.Account, error) {
	query := `SELECT id, display_name, balance, created_at, updated_at FROM accounts`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, storeFailure("listing accounts", err)
	}
	defer rows.Close()

	var accounts []domain.Account
	for rows.Next() {
		var account domain.Account
		err := rows.Scan(
			&account.ID,
			&account.DisplayName,
			&account.Balance,
			&account.CreatedAt,
			&account.UpdatedAt,
		)
		if err != nil {
			return nil, storeFailure("scanning account", err)
		}
		accounts = append(accounts, account)
	}
	return accounts, nil
}

// GetGame retrieves a game by ID
func (r *Repository) GetGame(ctx context.Context, gameID string) (*domain.Game, error) {
	query := `
		SELECT id, name, COALESCE(apk_file_url, ''), supports_points, created_at
		FROM games
		WHERE id = $1
	`
	var game domain.Game
	err := r.pool.QueryRow(ctx, query, gameID).Scan(
		&game.ID,
		&game.Name,
		&game.APKFileURL,
		&game.SupportsPoints,
		&game.CreatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("game %s: %w", gameID, domain.ErrGameNotFound)
		}
		return nil, storeFailure("getting game", err)
	}
	return &game, nil
}

// CreateGift inserts a new gift into the catalog
func (r *Repository) CreateGift(ctx context.Context, gift domain.Gift) (*domain.Gift, error) {
	query := `
		INSERT INTO gifts (id, name, description, image_url, point_cost, stock, publisher_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`
	err := r.pool.QueryRow(ctx, query,
		gift.ID,
		gift.Name,
		gift.Description,
		gift.ImageURL,
		gift.PointCost,
		gift.Stock,
		gift.PublisherID,
	).Scan(&gift.CreatedAt)
	if err != nil {
		return nil, storeFailure("creating gift", err)
	}
	return &gift, nil
}

// GetGift retrieves a gift by ID
func (r *Repository) GetGift(ctx context.Context, giftID string) (*domain.Gift, error) {
	query := `
		SELECT id, name, COALESCE(description, ''), COALESCE(image_url, ''),
			   point_cost, stock, publisher_id, created_at
		FROM gifts
		WHERE id = $1
	`
	var gift domain.Gift
	err := r.pool.QueryRow(ctx, query, giftID).Scan(
		&gift.ID,
		&gift.Name,
		&gift.Description,
		&gift.ImageURL,
		&gift.PointCost,
		&gift.Stock,
		&gift.PublisherID,
		&gift.CreatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("gift %s: %w", giftID, domain.ErrGiftNotFound)
		}
		return nil, storeFailure("getting gift", err)
	}
	return &gift, nil
}

// ListGifts retrieves the whole gift catalog, newest first
func (r *Repository) ListGifts(ctx context.Context) ([]domain.Gift, error) {
	query := `
		SELECT id, name, COALESCE(description, ''), COALESCE(image_url, ''),
			   point_cost, stock, publisher_id, created_at
		FROM gifts
		ORDER BY created_at DESC
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, storeFailure("listing gifts", err)
	}
	defer rows.Close()

	var gifts []domain.Gift
	for rows.Next() {
		var gift domain.Gift
		err := rows.Scan(
			&gift.ID,
			&gift.Name,
			&gift.Description,
			&gift.ImageURL,
			&gift.PointCost,
			&gift.Stock,
			&gift.PublisherID,
			&gift.CreatedAt,
		)
		if err != nil {
			return nil, storeFailure("scanning gift", err)
		}
		gifts = append(gifts, gift)
	}
	return gifts, nil
}

// TopAccounts retrieves the top accounts by balance with 1-based ranks.
// Ties have no defined order beyond what the store returns.
func (r *Repository) TopAccounts(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	query := `
		SELECT id, display_name, balance,
			   ROW_NUMBER() OVER (ORDER BY balance DESC) as rank
		FROM accounts
		ORDER BY balance DESC
		LIMIT $1
	`
	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, storeFailure("getting top accounts", err)
	}
	defer rows.Close()

	var entries []domain.LeaderboardEntry
	for rows.Next() {
		var entry domain.LeaderboardEntry
		err := rows.Scan(&entry.PlayerID, &entry.DisplayName, &entry.Balance, &entry.Rank)
		if err != nil {
			return nil, storeFailure("scanning leaderboard entry", err)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// AccountRank retrieves a single player's rank and balance
func (r *Repository) AccountRank(ctx context.Context, playerID string) (*domain.LeaderboardEntry, error) {
	query := `
		WITH ranked AS (
			SELECT id, display_name, balance,
				   ROW_NUMBER() OVER (ORDER BY balance DESC) as rank
			FROM accounts
		)
		SELECT id, display_name, balance, rank
		FROM ranked
		WHERE id = $1
	`
	var entry domain.LeaderboardEntry
	err := r.pool.QueryRow(ctx, query, playerID).Scan(
		&entry.PlayerID,
		&entry.DisplayName,
		&entry.Balance,
		&entry.Rank,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("account %s: %w", playerID, domain.ErrAccountNotFound)
		}
		return nil, storeFailure("getting account rank", err)
	}
	return &entry, nil
}
