package sharelink

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Ledger defines the interface for durable persistence of issued links.
// Implementations are not required to be synchronously consistent with the
// TicketCache; eventual convergence is sufficient.
type Ledger interface {
	// CreateLink persists a new ledger row. Called before the ticket
	// becomes redeemable.
	CreateLink(ctx context.Context, record *LinkRecord) error

	// GetLink returns the row for id, or ErrLinkNotFound.
	GetLink(ctx context.Context, id uuid.UUID) (*LinkRecord, error)

	// IncrementDownloads adds one to the served counter for id.
	IncrementDownloads(ctx context.Context, id uuid.UUID) error

	// ListLinks returns rows ordered by creation time descending.
	ListLinks(ctx context.Context, limit, offset int64) ([]*LinkRecord, error)

	// DeleteLink removes the row for id and reports whether it existed.
	DeleteLink(ctx context.Context, id uuid.UUID) (bool, error)

	// DeleteExpiredOrExhausted removes rows whose expiry has passed or
	// whose quota is used up, returning the number removed.
	DeleteExpiredOrExhausted(ctx context.Context) (int64, error)
}

// SignURLRequest carries everything a signer needs to mint a download URL.
// Bucket and Endpoint are per-ticket overrides; when empty the signer falls
// back to its configured defaults.
type SignURLRequest struct {
	Bucket           string
	Endpoint         string
	ObjectKey        string
	DownloadFilename string
	ExpiresAt        time.Time
}

// URLSigner mints provider-signed GET URLs for objects.
type URLSigner interface {
	// SignDownloadURL returns a URL accepted by the storage provider until
	// req.ExpiresAt. Implementations must never log or persist the signing
	// secret or any intermediate key material.
	SignDownloadURL(ctx context.Context, req SignURLRequest) (*SignedURL, error)
}
