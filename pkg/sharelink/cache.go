package sharelink

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// TicketCache is the in-memory store of active tickets and the source of
// truth for redemption admission control. A single readers-writer lock
// guards the whole collection; every check-then-mutate sequence runs under
// the write lock so two concurrent redemptions can never both consume the
// last quota slot.
type TicketCache struct {
	mu      sync.RWMutex
	tickets map[uuid.UUID]*Ticket
}

// NewTicketCache creates an empty cache.
func NewTicketCache() *TicketCache {
	return &TicketCache{
		tickets: make(map[uuid.UUID]*Ticket),
	}
}

// Put inserts or replaces a ticket. The cache stores its own copy.
func (c *TicketCache) Put(t *Ticket) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ticketCopy := *t
	c.tickets[t.ID] = &ticketCopy
}

// Get returns a snapshot of the ticket for id.
func (c *TicketCache) Get(id uuid.UUID) (Ticket, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	t, ok := c.tickets[id]
	if !ok {
		return Ticket{}, false
	}
	return *t, true
}

// Redeem validates the ticket against time and quota and, if both pass,
// increments the served counter by exactly one. The whole sequence holds
// the write lock. On success the returned snapshot reflects the increment.
//
// The ticket is not removed on expiry here; eviction is the sweep's job.
func (c *TicketCache) Redeem(id uuid.UUID, now time.Time) (Ticket, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	t, ok := c.tickets[id]
	if !ok {
		return Ticket{}, ErrLinkNotFound
	}
	if now.After(t.ExpiresAt) {
		return Ticket{}, ErrLinkExpired
	}
	if t.QuotaExhausted() {
		return Ticket{}, ErrQuotaExceeded
	}

	t.DownloadsServed++
	return *t, nil
}

// Remove deletes the ticket for id and reports whether it was present.
func (c *TicketCache) Remove(id uuid.UUID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, ok := c.tickets[id]
	delete(c.tickets, id)
	return ok
}

// Sweep evicts every ticket that is expired or quota-exhausted at the given
// instant and returns how many were removed. The predicate is evaluated
// independently of the ledger's own cleanup.
func (c *TicketCache) Sweep(now time.Time) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	evicted := 0
	for id, t := range c.tickets {
		if t.Expired(now) {
			delete(c.tickets, id)
			evicted++
		}
	}
	return evicted
}

// Len returns the number of live tickets.
func (c *TicketCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.tickets)
}
