package sharelink

import (
	"time"
)

// IssueLinkRequest contains parameters for issuing a new download link.
type IssueLinkRequest struct {
	// ObjectKey is the target path inside the object store. Required.
	ObjectKey string

	// Bucket overrides the signer's default bucket for this link.
	Bucket string

	// Endpoint overrides the signer's default endpoint for this link.
	Endpoint string

	// ExpiresIn is the requested time-to-live. Non-positive values fall
	// back to the service's configured default.
	ExpiresIn time.Duration

	// MaxDownloads bounds successful redemptions. Nil means unlimited.
	MaxDownloads *int64

	// DownloadFilename overrides the Content-Disposition filename the
	// storage provider presents on download.
	DownloadFilename string
}

// IssuedLink is the result of issuing a link: the ticket metadata plus the
// public redemption URL.
type IssuedLink struct {
	Ticket Ticket `json:"ticket"`
	URL    string `json:"url"`
}

// ListLinksRequest contains pagination parameters for ledger listing.
type ListLinksRequest struct {
	Limit  int64
	Offset int64
}

// CleanupResult reports what a cleanup pass removed from each store.
type CleanupResult struct {
	LedgerDeleted int64 `json:"deleted_count"`
	CacheEvicted  int   `json:"cache_evicted"`
}
