package sharelink

import (
	"context"

	"github.com/google/uuid"
)

// Service defines the main interface for the sharelink library.
type Service interface {
	// IssueLink allocates a new ticket, records it durably, makes it
	// redeemable and returns the public redemption URL.
	IssueLink(ctx context.Context, req IssueLinkRequest) (*IssuedLink, error)

	// RedeemLink resolves a ticket id into a signed download URL, consuming
	// one quota slot. Fails with ErrLinkNotFound, ErrLinkExpired or
	// ErrQuotaExceeded per the ticket's state.
	RedeemLink(ctx context.Context, id uuid.UUID) (*SignedURL, error)

	// GetLink returns the ledger row for id with IsExpired recomputed.
	GetLink(ctx context.Context, id uuid.UUID) (*LinkRecord, error)

	// ListLinks returns ledger rows, newest first.
	ListLinks(ctx context.Context, req ListLinksRequest) ([]*LinkRecord, error)

	// DeleteLink removes the link from both the ledger and the cache,
	// reporting whether the ledger row existed.
	DeleteLink(ctx context.Context, id uuid.UUID) (bool, error)

	// CleanupLinks removes expired or exhausted rows from the ledger and
	// sweeps matching tickets from the cache.
	CleanupLinks(ctx context.Context) (*CleanupResult, error)

	// PublicURL returns the redemption URL for a ticket id.
	PublicURL(id uuid.UUID) string
}
