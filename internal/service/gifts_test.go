package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gamehub-points/internal/domain"
)

func newGiftFixture() (*GiftService, *memStore, *memCache) {
	store := newMemStore()
	cache := newMemCache()
	svc := NewGiftService(store, cache, testLogger())
	return svc, store, cache
}

func TestCreateGift(t *testing.T) {
	svc, store, _ := newGiftFixture()
	store.addAccount("publisher", 0)

	gift, err := svc.CreateGift(context.Background(), domain.CreateGiftRequest{
		Name:        "Wireless Headset",
		Description: "Over-ear, 30h battery",
		PointCost:   500,
		Stock:       25,
		PublisherID: "publisher",
	})

	require.NoError(t, err)
	assert.NotEmpty(t, gift.ID)
	assert.Equal(t, int64(500), gift.PointCost)
	assert.Equal(t, int64(25), gift.Stock)
}

func TestCreateGiftValidation(t *testing.T) {
	svc, store, _ := newGiftFixture()
	store.addAccount("publisher", 0)

	tests := []struct {
		name    string
		req     domain.CreateGiftRequest
		wantErr error
	}{
		{
			name:    "missing name",
			req:     domain.CreateGiftRequest{PointCost: 100, Stock: 5, PublisherID: "publisher"},
			wantErr: domain.ErrInvalidRequest,
		},
		{
			name:    "zero cost",
			req:     domain.CreateGiftRequest{Name: "Mug", PointCost: 0, Stock: 5, PublisherID: "publisher"},
			wantErr: domain.ErrInvalidPointCost,
		},
		{
			name:    "negative cost",
			req:     domain.CreateGiftRequest{Name: "Mug", PointCost: -10, Stock: 5, PublisherID: "publisher"},
			wantErr: domain.ErrInvalidPointCost,
		},
		{
			name:    "negative stock",
			req:     domain.CreateGiftRequest{Name: "Mug", PointCost: 100, Stock: -1, PublisherID: "publisher"},
			wantErr: domain.ErrInvalidStock,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateGift(context.Background(), tt.req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestCreateGiftUnknownPublisher(t *testing.T) {
	svc, _, _ := newGiftFixture()

	_, err := svc.CreateGift(context.Background(), domain.CreateGiftRequest{
		Name:        "Mug",
		PointCost:   100,
		Stock:       5,
		PublisherID: "nobody",
	})

	assert.ErrorIs(t, err, domain.ErrAccountNotFound)
}

func TestGetGift(t *testing.T) {
	svc, store, _ := newGiftFixture()
	store.addGift("gift-1", 200, 3)

	gift, err := svc.GetGift(context.Background(), "gift-1")

	require.NoError(t, err)
	assert.Equal(t, int64(200), gift.PointCost)

	_, err = svc.GetGift(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrGiftNotFound)
}

func TestListGifts(t *testing.T) {
	svc, store, _ := newGiftFixture()
	store.addGift("gift-1", 200, 3)
	store.addGift("gift-2", 150, 1)

	gifts, err := svc.ListGifts(context.Background())

	require.NoError(t, err)
	assert.Len(t, gifts, 2)
}

func TestRedeemGift(t *testing.T) {
	svc, store, cache := newGiftFixture()
	store.addAccount("alice", 300)
	store.addGift("gift-1", 200, 3)

	record, err := svc.RedeemGift(context.Background(), "alice", "gift-1")

	require.NoError(t, err)
	assert.NotEmpty(t, record.ID)
	assert.Equal(t, "alice", record.PlayerID)
	assert.Equal(t, "gift-1", record.GiftID)
	assert.Equal(t, int64(200), record.PointsSpent)
	assert.Equal(t, int64(100), store.balance("alice"))
	assert.Equal(t, int64(2), store.stock("gift-1"))
	assert.Equal(t, int64(-200), cache.cachedBalance("alice"))
}

func TestRedeemGiftInsufficientBalance(t *testing.T) {
	svc, store, _ := newGiftFixture()
	store.addAccount("alice", 199)
	store.addGift("gift-1", 200, 3)

	_, err := svc.RedeemGift(context.Background(), "alice", "gift-1")

	assert.ErrorIs(t, err, domain.ErrInsufficientBalance)
	assert.Equal(t, int64(199), store.balance("alice"), "failed redemption must not change the balance")
	assert.Equal(t, int64(3), store.stock("gift-1"), "failed redemption must not change the stock")
}

func TestRedeemGiftOutOfStock(t *testing.T) {
	svc, store, _ := newGiftFixture()
	store.addAccount("alice", 1000)
	store.addGift("gift-1", 200, 0)

	_, err := svc.RedeemGift(context.Background(), "alice", "gift-1")

	assert.ErrorIs(t, err, domain.ErrOutOfStock)
	assert.Equal(t, int64(1000), store.balance("alice"))
}

func TestRedeemGiftUnknownGift(t *testing.T) {
	svc, store, _ := newGiftFixture()
	store.addAccount("alice", 1000)

	_, err := svc.RedeemGift(context.Background(), "alice", "missing")

	assert.ErrorIs(t, err, domain.ErrGiftNotFound)
}

func TestRedeemGiftUnknownAccount(t *testing.T) {
	svc, store, _ := newGiftFixture()
	store.addGift("gift-1", 200, 3)

	_, err := svc.RedeemGift(context.Background(), "nobody", "gift-1")

	assert.ErrorIs(t, err, domain.ErrAccountNotFound)
}

func TestRedeemGiftConcurrentLimitedStock(t *testing.T) {
	svc, store, _ := newGiftFixture()
	store.addGift("gift-1", 100, 5)

	const racers = 20
	for i := 0; i < racers; i++ {
		store.addAccount(playerName(i), 100)
	}

	var wg sync.WaitGroup
	results := make([]error, racers)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			_, results[idx] = svc.RedeemGift(context.Background(), playerName(idx), "gift-1")
		}(i)
	}
	wg.Wait()

	var successes, outOfStock int
	for _, err := range results {
		switch {
		case err == nil:
			successes++
		case domain.IsConflict(err):
			outOfStock++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}

	assert.Equal(t, 5, successes, "exactly as many redemptions as units in stock")
	assert.Equal(t, racers-5, outOfStock)
	assert.Equal(t, int64(0), store.stock("gift-1"))
}

func TestRedeemGiftConcurrentSamePlayer(t *testing.T) {
	svc, store, _ := newGiftFixture()
	store.addAccount("alice", 250)
	store.addGift("gift-1", 100, 50)

	const racers = 10
	var wg sync.WaitGroup
	results := make([]error, racers)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			_, results[idx] = svc.RedeemGift(context.Background(), "alice", "gift-1")
		}(i)
	}
	wg.Wait()

	var successes int
	for _, err := range results {
		if err == nil {
			successes++
		} else {
			assert.ErrorIs(t, err, domain.ErrInsufficientBalance)
		}
	}

	assert.Equal(t, 2, successes, "a 250 balance affords exactly two 100-point gifts")
	assert.Equal(t, int64(50), store.balance("alice"))
}

func TestListRedemptionsOldestFirst(t *testing.T) {
	svc, store, _ := newGiftFixture()
	store.addAccount("alice", 1000)
	store.addGift("gift-1", 100, 10)
	store.addGift("gift-2", 150, 10)

	first, err := svc.RedeemGift(context.Background(), "alice", "gift-1")
	require.NoError(t, err)
	second, err := svc.RedeemGift(context.Background(), "alice", "gift-2")
	require.NoError(t, err)

	records, err := svc.ListRedemptions(context.Background(), "alice")

	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, first.ID, records[0].ID)
	assert.Equal(t, second.ID, records[1].ID)
}

func TestListRedemptionsUnknownAccount(t *testing.T) {
	svc, _, _ := newGiftFixture()

	_, err := svc.ListRedemptions(context.Background(), "nobody")

	assert.ErrorIs(t, err, domain.ErrAccountNotFound)
}

func playerName(idx int) string {
	return string(rune('a'+idx%26)) + "-player"
}
