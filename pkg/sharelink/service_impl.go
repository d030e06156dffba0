package sharelink

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	defaultExpiry         = time.Hour
	defaultListLimit      = 50
	defaultDownloadPrefix = "download"
)

// service implements the Service interface
type service struct {
	ledger         Ledger
	signer         URLSigner
	cache          *TicketCache
	publicBaseURL  string
	downloadPrefix string
	defaultExpiry  time.Duration
	now            func() time.Time
}

// Option represents a functional option for configuring the service
type Option func(*service)

// WithLedger sets the durable ledger for the service
func WithLedger(ledger Ledger) Option {
	return func(s *service) {
		s.ledger = ledger
	}
}

// WithSigner sets the URL signer used at redemption time
func WithSigner(signer URLSigner) Option {
	return func(s *service) {
		s.signer = signer
	}
}

// WithPublicBaseURL sets the base URL and path prefix of redemption links
func WithPublicBaseURL(baseURL, downloadPrefix string) Option {
	return func(s *service) {
		s.publicBaseURL = strings.TrimRight(baseURL, "/")
		if p := strings.Trim(downloadPrefix, "/"); p != "" {
			s.downloadPrefix = p
		}
	}
}

// WithDefaultExpiry sets the TTL applied when a request asks for none
func WithDefaultExpiry(d time.Duration) Option {
	return func(s *service) {
		if d > 0 {
			s.defaultExpiry = d
		}
	}
}

// WithClock overrides the time source. Used by tests.
func WithClock(now func() time.Time) Option {
	return func(s *service) {
		s.now = now
	}
}

// New creates a new service instance with the given options. A ledger and a
// signer are required.
func New(options ...Option) (Service, error) {
	s := &service{
		cache:          NewTicketCache(),
		downloadPrefix: defaultDownloadPrefix,
		defaultExpiry:  defaultExpiry,
		now:            func() time.Time { return time.Now().UTC() },
	}

	for _, option := range options {
		option(s)
	}

	if s.ledger == nil {
		return nil, errors.New("ledger is required")
	}
	if s.signer == nil {
		return nil, errors.New("url signer is required")
	}

	return s, nil
}

func (s *service) IssueLink(ctx context.Context, req IssueLinkRequest) (*IssuedLink, error) {
	if req.ObjectKey == "" {
		return nil, ErrEmptyObjectKey
	}

	expiresIn := req.ExpiresIn
	if expiresIn <= 0 {
		expiresIn = s.defaultExpiry
	}

	now := s.now()
	ticket := Ticket{
		ID:               uuid.New(),
		ObjectKey:        req.ObjectKey,
		BucketOverride:   req.Bucket,
		EndpointOverride: req.Endpoint,
		DownloadFilename: req.DownloadFilename,
		ExpiresAt:        now.Add(expiresIn),
		MaxDownloads:     req.MaxDownloads,
		CreatedAt:        now,
	}

	// The ledger row must exist before the ticket becomes redeemable, so a
	// crash mid-issuance never leaves a live but unrecorded ticket.
	if err := s.ledger.CreateLink(ctx, ticket.Record()); err != nil {
		return nil, &LedgerError{Op: "create", Err: err}
	}
	s.cache.Put(&ticket)

	return &IssuedLink{
		Ticket: ticket,
		URL:    s.PublicURL(ticket.ID),
	}, nil
}

func (s *service) RedeemLink(ctx context.Context, id uuid.UUID) (*SignedURL, error) {
	ticket, err := s.cache.Redeem(id, s.now())
	if err != nil {
		return nil, err
	}

	// Best-effort mirror; the cache stays authoritative for enforcement.
	if err := s.ledger.IncrementDownloads(ctx, id); err != nil {
		slog.Error("failed to mirror download count into ledger", "link_id", id, "err", err)
	}

	// The quota slot consumed above is not returned if signing fails.
	signed, err := s.signer.SignDownloadURL(ctx, SignURLRequest{
		Bucket:           ticket.BucketOverride,
		Endpoint:         ticket.EndpointOverride,
		ObjectKey:        ticket.ObjectKey,
		DownloadFilename: ticket.DownloadFilename,
		ExpiresAt:        ticket.ExpiresAt,
	})
	if err != nil {
		return nil, &LinkError{LinkID: id, Op: "sign", Err: err}
	}

	return signed, nil
}

func (s *service) GetLink(ctx context.Context, id uuid.UUID) (*LinkRecord, error) {
	record, err := s.ledger.GetLink(ctx, id)
	if err != nil {
		return nil, err
	}
	record.IsExpired = record.Expired(s.now())
	return record, nil
}

func (s *service) ListLinks(ctx context.Context, req ListLinksRequest) ([]*LinkRecord, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	offset := req.Offset
	if offset < 0 {
		offset = 0
	}

	records, err := s.ledger.ListLinks(ctx, limit, offset)
	if err != nil {
		return nil, &LedgerError{Op: "list", Err: err}
	}

	now := s.now()
	for _, record := range records {
		record.IsExpired = record.Expired(now)
	}
	return records, nil
}

func (s *service) DeleteLink(ctx context.Context, id uuid.UUID) (bool, error) {
	deleted, err := s.ledger.DeleteLink(ctx, id)
	if err != nil {
		return false, &LedgerError{Op: "delete", Err: err}
	}
	if deleted {
		s.cache.Remove(id)
	}
	return deleted, nil
}

func (s *service) CleanupLinks(ctx context.Context) (*CleanupResult, error) {
	deleted, err := s.ledger.DeleteExpiredOrExhausted(ctx)
	if err != nil {
		return nil, &LedgerError{Op: "cleanup", Err: err}
	}
	evicted := s.cache.Sweep(s.now())

	return &CleanupResult{
		LedgerDeleted: deleted,
		CacheEvicted:  evicted,
	}, nil
}

func (s *service) PublicURL(id uuid.UUID) string {
	return fmt.Sprintf("%s/%s/%s", s.publicBaseURL, s.downloadPrefix, id)
}
