package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gamehub-points/internal/domain"
)

// memStore is an in-memory Store with the same guards the SQL store enforces:
// one award per (player, game, action) triple, non-negative balances and
// stock, all applied under a single lock so concurrent callers race the same
// way they would against the database.
type memStore struct {
	mu          sync.Mutex
	accounts    map[string]*domain.Account
	games       map[string]*domain.Game
	gifts       map[string]*domain.Gift
	awards      []domain.AwardRecord
	awardTriple map[string]bool
	redemptions []domain.RedemptionRecord
	nextAwardID int64
}

func newMemStore() *memStore {
	return &memStore{
		accounts:    make(map[string]*domain.Account),
		games:       make(map[string]*domain.Game),
		gifts:       make(map[string]*domain.Gift),
		awardTriple: make(map[string]bool),
	}
}

func (s *memStore) addAccount(id string, balance int64) {
	s.accounts[id] = &domain.Account{ID: id, DisplayName: id, Balance: balance}
}

func (s *memStore) addGame(id, apkURL string, supportsPoints bool) {
	s.games[id] = &domain.Game{ID: id, Name: id, APKFileURL: apkURL, SupportsPoints: supportsPoints}
}

func (s *memStore) addGift(id string, cost, stock int64) {
	s.gifts[id] = &domain.Gift{ID: id, Name: id, PointCost: cost, Stock: stock, PublisherID: "publisher"}
}

func (s *memStore) balance(playerID string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accounts[playerID].Balance
}

func (s *memStore) stock(giftID string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gifts[giftID].Stock
}

func (s *memStore) GetAccount(ctx context.Context, playerID string) (*domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	account, ok := s.accounts[playerID]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	copied := *account
	return &copied, nil
}

func (s *memStore) GetGame(ctx context.Context, gameID string) (*domain.Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	game, ok := s.games[gameID]
	if !ok {
		return nil, domain.ErrGameNotFound
	}
	copied := *game
	return &copied, nil
}

func (s *memStore) AwardPoints(ctx context.Context, req domain.AwardRequest) (*domain.AwardRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.accounts[req.PlayerID]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}

	if req.GameID != nil {
		game, ok := s.games[*req.GameID]
		if !ok {
			return nil, domain.ErrGameNotFound
		}
		if !game.SupportsPoints {
			return nil, domain.ErrPointsNotSupported
		}

		// Records without a game are never deduplicated
		triple := fmt.Sprintf("%s|%s|%s", req.PlayerID, *req.GameID, req.Action)
		if s.awardTriple[triple] {
			return nil, domain.ErrAlreadyAwarded
		}
		s.awardTriple[triple] = true
	}

	s.nextAwardID++
	record := domain.AwardRecord{
		ID:        s.nextAwardID,
		PlayerID:  req.PlayerID,
		GameID:    req.GameID,
		Action:    req.Action,
		Points:    req.Points,
		CreatedAt: time.Now(),
	}
	s.awards = append(s.awards, record)
	account.Balance += req.Points

	return &record, nil
}

func (s *memStore) ListAwards(ctx context.Context, playerID string) ([]domain.AwardRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var records []domain.AwardRecord
	for i := len(s.awards) - 1; i >= 0; i-- {
		if s.awards[i].PlayerID == playerID {
			records = append(records, s.awards[i])
		}
	}
	return records, nil
}

func (s *memStore) CreateGift(ctx context.Context, gift domain.Gift) (*domain.Gift, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	gift.CreatedAt = time.Now()
	s.gifts[gift.ID] = &gift
	copied := gift
	return &copied, nil
}

func (s *memStore) GetGift(ctx context.Context, giftID string) (*domain.Gift, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	gift, ok := s.gifts[giftID]
	if !ok {
		return nil, domain.ErrGiftNotFound
	}
	copied := *gift
	return &copied, nil
}

func (s *memStore) ListGifts(ctx context.Context) ([]domain.Gift, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	gifts := make([]domain.Gift, 0, len(s.gifts))
	for _, gift := range s.gifts {
		gifts = append(gifts, *gift)
	}
	return gifts, nil
}

func (s *memStore) RedeemGift(ctx context.Context, playerID, giftID string) (*domain.RedemptionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	gift, ok := s.gifts[giftID]
	if !ok {
		return nil, domain.ErrGiftNotFound
	}
	account, ok := s.accounts[playerID]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}

	if gift.Stock <= 0 {
		return nil, domain.ErrOutOfStock
	}
	if account.Balance < gift.PointCost {
		return nil, domain.ErrInsufficientBalance
	}

	gift.Stock--
	account.Balance -= gift.PointCost

	record := domain.RedemptionRecord{
		ID:          uuid.New().String(),
		PlayerID:    playerID,
		GiftID:      giftID,
		PointsSpent: gift.PointCost,
		CreatedAt:   time.Now(),
	}
	s.redemptions = append(s.redemptions, record)

	copied := record
	return &copied, nil
}

func (s *memStore) ListRedemptions(ctx context.Context, playerID string) ([]domain.RedemptionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[playerID]; !ok {
		return nil, domain.ErrAccountNotFound
	}
	var records []domain.RedemptionRecord
	for _, record := range s.redemptions {
		if record.PlayerID == playerID {
			records = append(records, record)
		}
	}
	return records, nil
}

func (s *memStore) TopAccounts(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	accounts := make([]*domain.Account, 0, len(s.accounts))
	for _, account := range s.accounts {
		accounts = append(accounts, account)
	}
	sort.Slice(accounts, func(i, j int) bool {
		return accounts[i].Balance > accounts[j].Balance
	})
	if limit > len(accounts) {
		limit = len(accounts)
	}
	entries := make([]domain.LeaderboardEntry, 0, limit)
	for i := 0; i < limit; i++ {
		entries = append(entries, domain.LeaderboardEntry{
			Rank:        int64(i + 1),
			PlayerID:    accounts[i].ID,
			DisplayName: accounts[i].DisplayName,
			Balance:     accounts[i].Balance,
		})
	}
	return entries, nil
}

func (s *memStore) AccountRank(ctx context.Context, playerID string) (*domain.LeaderboardEntry, error) {
	entries, err := s.TopAccounts(ctx, len(s.accounts))
	if err != nil {
		return nil, err
	}
	for _, entry := range entries {
		if entry.PlayerID == playerID {
			copied := entry
			return &copied, nil
		}
	}
	return nil, domain.ErrAccountNotFound
}

// memCache is an in-memory BalanceCache that records increments
type memCache struct {
	mu       sync.Mutex
	balances map[string]int64
	failing  bool
}

func newMemCache() *memCache {
	return &memCache{balances: make(map[string]int64)}
}

func (c *memCache) IncrBalance(ctx context.Context, playerID string, delta int64) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failing {
		return 0, fmt.Errorf("cache unavailable")
	}
	c.balances[playerID] += delta
	return c.balances[playerID], nil
}

func (c *memCache) TopN(ctx context.Context, n int) ([]domain.LeaderboardEntry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failing {
		return nil, fmt.Errorf("cache unavailable")
	}
	type pair struct {
		id      string
		balance int64
	}
	pairs := make([]pair, 0, len(c.balances))
	for id, balance := range c.balances {
		pairs = append(pairs, pair{id, balance})
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].balance > pairs[j].balance })
	if n > len(pairs) {
		n = len(pairs)
	}
	entries := make([]domain.LeaderboardEntry, 0, n)
	for i := 0; i < n; i++ {
		entries = append(entries, domain.LeaderboardEntry{
			Rank:     int64(i + 1),
			PlayerID: pairs[i].id,
			Balance:  pairs[i].balance,
		})
	}
	return entries, nil
}

func (c *memCache) PlayerRank(ctx context.Context, playerID string) (*domain.LeaderboardEntry, error) {
	entries, err := c.TopN(ctx, len(c.balances))
	if err != nil {
		return nil, err
	}
	for _, entry := range entries {
		if entry.PlayerID == playerID {
			copied := entry
			return &copied, nil
		}
	}
	return nil, domain.ErrAccountNotFound
}

func (c *memCache) Count(ctx context.Context) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failing {
		return 0, fmt.Errorf("cache unavailable")
	}
	return int64(len(c.balances)), nil
}

func (c *memCache) cachedBalance(playerID string) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.balances[playerID]
}
