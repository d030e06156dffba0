package sharelink

import (
	"time"

	"github.com/google/uuid"
)

// Ticket is the authoritative in-memory record of an issued download link.
// The id is the only externally visible part; it becomes the path segment
// of the public redemption URL.
type Ticket struct {
	ID               uuid.UUID `json:"id"`
	ObjectKey        string    `json:"object_key"`
	BucketOverride   string    `json:"bucket,omitempty"`
	EndpointOverride string    `json:"endpoint,omitempty"`
	DownloadFilename string    `json:"download_filename,omitempty"`
	ExpiresAt        time.Time `json:"expires_at"`
	MaxDownloads     *int64    `json:"max_downloads,omitempty"`
	DownloadsServed  int64     `json:"downloads_served"`
	CreatedAt        time.Time `json:"created_at"`
}

// Expired reports whether the ticket can no longer be redeemed at the given
// instant, either because its expiry has passed or its quota is exhausted.
// This is a derived property and is recomputed on every read.
func (t *Ticket) Expired(now time.Time) bool {
	return now.After(t.ExpiresAt) || t.QuotaExhausted()
}

// QuotaExhausted reports whether the download quota, when set, is used up.
func (t *Ticket) QuotaExhausted() bool {
	return t.MaxDownloads != nil && t.DownloadsServed >= *t.MaxDownloads
}

// LinkRecord is the durable ledger row for an issued link. It carries the
// same fields as Ticket plus the derived IsExpired flag populated on reads.
// The ledger is authoritative for historical listing only; the TicketCache
// is authoritative for redemption.
type LinkRecord struct {
	ID               uuid.UUID `json:"id"`
	ObjectKey        string    `json:"object_key"`
	Bucket           string    `json:"bucket,omitempty"`
	Endpoint         string    `json:"endpoint,omitempty"`
	DownloadFilename string    `json:"download_filename,omitempty"`
	ExpiresAt        time.Time `json:"expires_at"`
	MaxDownloads     *int64    `json:"max_downloads,omitempty"`
	DownloadsServed  int64     `json:"downloads_served"`
	CreatedAt        time.Time `json:"created_at"`
	IsExpired        bool      `json:"is_expired"`
}

// Expired mirrors Ticket.Expired for ledger rows.
func (r *LinkRecord) Expired(now time.Time) bool {
	if now.After(r.ExpiresAt) {
		return true
	}
	return r.MaxDownloads != nil && r.DownloadsServed >= *r.MaxDownloads
}

// Record converts the ticket into its ledger representation.
func (t *Ticket) Record() *LinkRecord {
	return &LinkRecord{
		ID:               t.ID,
		ObjectKey:        t.ObjectKey,
		Bucket:           t.BucketOverride,
		Endpoint:         t.EndpointOverride,
		DownloadFilename: t.DownloadFilename,
		ExpiresAt:        t.ExpiresAt,
		MaxDownloads:     t.MaxDownloads,
		DownloadsServed:  t.DownloadsServed,
		CreatedAt:        t.CreatedAt,
	}
}

// SignedURL is a provider-signed download URL and the instant it stops
// being accepted by the storage provider.
type SignedURL struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}
