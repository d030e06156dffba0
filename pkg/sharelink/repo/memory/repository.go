// Package memory provides an in-memory ledger for tests and development.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tendant/simple-sharelink/pkg/sharelink"
)

// Repository implements sharelink.Ledger using in-memory storage.
type Repository struct {
	mu    sync.RWMutex
	links map[uuid.UUID]*sharelink.LinkRecord
}

// New creates a new in-memory ledger.
func New() *Repository {
	return &Repository{
		links: make(map[uuid.UUID]*sharelink.LinkRecord),
	}
}

func (r *Repository) CreateLink(ctx context.Context, record *sharelink.LinkRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Store a copy to avoid external modifications
	recordCopy := *record
	r.links[record.ID] = &recordCopy

	return nil
}

func (r *Repository) GetLink(ctx context.Context, id uuid.UUID) (*sharelink.LinkRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	record, exists := r.links[id]
	if !exists {
		return nil, sharelink.ErrLinkNotFound
	}

	recordCopy := *record
	return &recordCopy, nil
}

func (r *Repository) IncrementDownloads(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	record, exists := r.links[id]
	if !exists {
		return sharelink.ErrLinkNotFound
	}
	record.DownloadsServed++

	return nil
}

func (r *Repository) ListLinks(ctx context.Context, limit, offset int64) ([]*sharelink.LinkRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]*sharelink.LinkRecord, 0, len(r.links))
	for _, record := range r.links {
		recordCopy := *record
		all = append(all, &recordCopy)
	}

	// Sort by created_at descending
	sort.Slice(all, func(i, j int) bool {
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	if offset >= int64(len(all)) {
		return nil, nil
	}
	all = all[offset:]
	if limit < int64(len(all)) {
		all = all[:limit]
	}
	return all, nil
}

func (r *Repository) DeleteLink(ctx context.Context, id uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, exists := r.links[id]
	delete(r.links, id)
	return exists, nil
}

func (r *Repository) DeleteExpiredOrExhausted(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	var deleted int64
	for id, record := range r.links {
		if record.Expired(now) {
			delete(r.links, id)
			deleted++
		}
	}
	return deleted, nil
}
