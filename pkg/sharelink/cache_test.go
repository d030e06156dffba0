package sharelink_test

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-sharelink/pkg/sharelink"
)

func int64Ptr(v int64) *int64 { return &v }

func newTicket(expiresAt time.Time, maxDownloads *int64) *sharelink.Ticket {
	return &sharelink.Ticket{
		ID:           uuid.New(),
		ObjectKey:    "reports/q1.pdf",
		ExpiresAt:    expiresAt,
		MaxDownloads: maxDownloads,
		CreatedAt:    expiresAt.Add(-time.Hour),
	}
}

func TestTicketCachePutGet(t *testing.T) {
	cache := sharelink.NewTicketCache()
	ticket := newTicket(time.Now().Add(time.Hour), nil)

	cache.Put(ticket)

	got, ok := cache.Get(ticket.ID)
	require.True(t, ok)
	assert.Equal(t, ticket.ID, got.ID)
	assert.Equal(t, "reports/q1.pdf", got.ObjectKey)

	// The cache stores copies; mutating the original must not leak in.
	ticket.ObjectKey = "changed"
	got, _ = cache.Get(ticket.ID)
	assert.Equal(t, "reports/q1.pdf", got.ObjectKey)
}

func TestTicketCacheGetMissing(t *testing.T) {
	cache := sharelink.NewTicketCache()

	_, ok := cache.Get(uuid.New())
	assert.False(t, ok)
}

func TestTicketCacheRedeem(t *testing.T) {
	now := time.Now()
	cache := sharelink.NewTicketCache()
	ticket := newTicket(now.Add(time.Hour), int64Ptr(2))
	cache.Put(ticket)

	first, err := cache.Redeem(ticket.ID, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), first.DownloadsServed)

	second, err := cache.Redeem(ticket.ID, now)
	require.NoError(t, err)
	assert.Equal(t, int64(2), second.DownloadsServed)

	_, err = cache.Redeem(ticket.ID, now)
	assert.ErrorIs(t, err, sharelink.ErrQuotaExceeded)
}

func TestTicketCacheRedeemUnknown(t *testing.T) {
	cache := sharelink.NewTicketCache()

	_, err := cache.Redeem(uuid.New(), time.Now())
	assert.ErrorIs(t, err, sharelink.ErrLinkNotFound)
}

func TestTicketCacheRedeemExpired(t *testing.T) {
	now := time.Now()
	cache := sharelink.NewTicketCache()
	ticket := newTicket(now.Add(-time.Minute), nil)
	cache.Put(ticket)

	_, err := cache.Redeem(ticket.ID, now)
	assert.ErrorIs(t, err, sharelink.ErrLinkExpired)

	// The ticket stays until a sweep removes it.
	_, ok := cache.Get(ticket.ID)
	assert.True(t, ok)
}

func TestTicketCacheRedeemAtExactExpiry(t *testing.T) {
	now := time.Now()
	cache := sharelink.NewTicketCache()
	ticket := newTicket(now, nil)
	cache.Put(ticket)

	// The expiry instant itself is still redeemable.
	_, err := cache.Redeem(ticket.ID, now)
	assert.NoError(t, err)
}

func TestTicketCacheConcurrentRedemptions(t *testing.T) {
	const quota = 10
	const attempts = 100

	now := time.Now()
	cache := sharelink.NewTicketCache()
	ticket := newTicket(now.Add(time.Hour), int64Ptr(quota))
	cache.Put(ticket)

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := cache.Redeem(ticket.ID, now); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, quota, succeeded)

	got, ok := cache.Get(ticket.ID)
	require.True(t, ok)
	assert.Equal(t, int64(quota), got.DownloadsServed)
}

func TestTicketCacheRemove(t *testing.T) {
	cache := sharelink.NewTicketCache()
	ticket := newTicket(time.Now().Add(time.Hour), nil)
	cache.Put(ticket)

	assert.True(t, cache.Remove(ticket.ID))
	assert.False(t, cache.Remove(ticket.ID))
	assert.Equal(t, 0, cache.Len())
}

func TestTicketCacheSweep(t *testing.T) {
	now := time.Now()
	cache := sharelink.NewTicketCache()

	live := newTicket(now.Add(time.Hour), nil)
	expired := newTicket(now.Add(-time.Minute), nil)
	exhausted := newTicket(now.Add(time.Hour), int64Ptr(1))
	exhausted.DownloadsServed = 1

	cache.Put(live)
	cache.Put(expired)
	cache.Put(exhausted)

	evicted := cache.Sweep(now)
	assert.Equal(t, 2, evicted)
	assert.Equal(t, 1, cache.Len())

	_, ok := cache.Get(live.ID)
	assert.True(t, ok)
}
