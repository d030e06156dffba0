package sharelink

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Error types
var (
	// ErrEmptyObjectKey indicates link issuance was requested without an object key
	ErrEmptyObjectKey = errors.New("object key cannot be empty")

	// ErrLinkNotFound indicates no ticket exists for the requested id
	ErrLinkNotFound = errors.New("download link not found")

	// ErrLinkExpired indicates the ticket's expiry instant has passed
	ErrLinkExpired = errors.New("download link has expired")

	// ErrQuotaExceeded indicates the ticket's download quota is used up
	ErrQuotaExceeded = errors.New("download limit exceeded")

	// ErrMissingBucket indicates neither a per-ticket bucket override nor a
	// configured default bucket is available for signing
	ErrMissingBucket = errors.New("bucket name is required when no default bucket is configured")

	// ErrMissingEndpoint indicates neither a per-ticket endpoint override nor
	// a configured default endpoint is available
	ErrMissingEndpoint = errors.New("endpoint is required when no default endpoint is configured")

	// ErrSigningFailure indicates the HMAC primitive rejected the key
	// material. The message never carries the secret itself.
	ErrSigningFailure = errors.New("request signing failed")
)

// LinkError represents an error related to a single download link operation
type LinkError struct {
	LinkID uuid.UUID
	Op     string
	Err    error
}

func (e *LinkError) Error() string {
	return fmt.Sprintf("link operation %s failed for link %s: %v", e.Op, e.LinkID, e.Err)
}

func (e *LinkError) Unwrap() error {
	return e.Err
}

// LedgerError represents a durable-store failure. During issuance it aborts
// the operation; during redemption mirroring it is logged and swallowed.
type LedgerError struct {
	Op  string
	Err error
}

func (e *LedgerError) Error() string {
	return fmt.Sprintf("ledger operation %s failed: %v", e.Op, e.Err)
}

func (e *LedgerError) Unwrap() error {
	return e.Err
}
