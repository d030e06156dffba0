package sharelink_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-sharelink/pkg/sharelink"
	"github.com/tendant/simple-sharelink/pkg/sharelink/repo/memory"
)

// stubSigner returns a deterministic URL unless failWith is set.
type stubSigner struct {
	failWith error
	lastReq  sharelink.SignURLRequest
	calls    int
}

func (s *stubSigner) SignDownloadURL(ctx context.Context, req sharelink.SignURLRequest) (*sharelink.SignedURL, error) {
	s.calls++
	s.lastReq = req
	if s.failWith != nil {
		return nil, s.failWith
	}
	return &sharelink.SignedURL{
		URL:       fmt.Sprintf("https://bucket.example.com/%s?Signature=x", req.ObjectKey),
		ExpiresAt: req.ExpiresAt,
	}, nil
}

// failingLedger rejects every write.
type failingLedger struct {
	sharelink.Ledger
}

func (f *failingLedger) CreateLink(ctx context.Context, record *sharelink.LinkRecord) error {
	return errors.New("ledger unavailable")
}

// countingLedger wraps the memory repository and fails IncrementDownloads.
type countingLedger struct {
	sharelink.Ledger
	incrementErr error
}

func (c *countingLedger) IncrementDownloads(ctx context.Context, id uuid.UUID) error {
	if c.incrementErr != nil {
		return c.incrementErr
	}
	return c.Ledger.IncrementDownloads(ctx, id)
}

func newTestService(t *testing.T, opts ...sharelink.Option) (sharelink.Service, *stubSigner) {
	t.Helper()
	signer := &stubSigner{}
	base := []sharelink.Option{
		sharelink.WithLedger(memory.New()),
		sharelink.WithSigner(signer),
		sharelink.WithPublicBaseURL("https://share.example.com", "download"),
	}
	svc, err := sharelink.New(append(base, opts...)...)
	require.NoError(t, err)
	return svc, signer
}

func TestServiceCreation(t *testing.T) {
	tests := []struct {
		name        string
		options     []sharelink.Option
		expectError bool
	}{
		{
			name:        "no options should fail",
			options:     []sharelink.Option{},
			expectError: true,
		},
		{
			name: "ledger without signer should fail",
			options: []sharelink.Option{
				sharelink.WithLedger(memory.New()),
			},
			expectError: true,
		},
		{
			name: "ledger and signer should succeed",
			options: []sharelink.Option{
				sharelink.WithLedger(memory.New()),
				sharelink.WithSigner(&stubSigner{}),
			},
			expectError: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := sharelink.New(tt.options...)
			if tt.expectError {
				assert.Error(t, err)
				assert.Nil(t, svc)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, svc)
			}
		})
	}
}

func TestIssueLink(t *testing.T) {
	svc, _ := newTestService(t)

	issued, err := svc.IssueLink(context.Background(), sharelink.IssueLinkRequest{
		ObjectKey:    "reports/q1.pdf",
		ExpiresIn:    30 * time.Minute,
		MaxDownloads: int64Ptr(3),
	})
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, issued.Ticket.ID)
	assert.Equal(t, "reports/q1.pdf", issued.Ticket.ObjectKey)
	assert.Equal(t, int64(0), issued.Ticket.DownloadsServed)
	assert.Equal(t, "https://share.example.com/download/"+issued.Ticket.ID.String(), issued.URL)

	record, err := svc.GetLink(context.Background(), issued.Ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, "reports/q1.pdf", record.ObjectKey)
	assert.False(t, record.IsExpired)
}

func TestIssueLinkEmptyObjectKey(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.IssueLink(context.Background(), sharelink.IssueLinkRequest{})
	assert.ErrorIs(t, err, sharelink.ErrEmptyObjectKey)
}

func TestIssueLinkDefaultExpiry(t *testing.T) {
	base := time.Date(2023, 11, 14, 8, 30, 0, 0, time.UTC)
	svc, _ := newTestService(t,
		sharelink.WithDefaultExpiry(2*time.Hour),
		sharelink.WithClock(func() time.Time { return base }),
	)

	issued, err := svc.IssueLink(context.Background(), sharelink.IssueLinkRequest{
		ObjectKey: "a.txt",
	})
	require.NoError(t, err)
	assert.Equal(t, base.Add(2*time.Hour), issued.Ticket.ExpiresAt)
}

func TestIssueLinkLedgerFailureAborts(t *testing.T) {
	signer := &stubSigner{}
	svc, err := sharelink.New(
		sharelink.WithLedger(&failingLedger{Ledger: memory.New()}),
		sharelink.WithSigner(signer),
	)
	require.NoError(t, err)

	issued, err := svc.IssueLink(context.Background(), sharelink.IssueLinkRequest{
		ObjectKey: "a.txt",
	})
	assert.Nil(t, issued)

	var ledgerErr *sharelink.LedgerError
	require.ErrorAs(t, err, &ledgerErr)
	assert.Equal(t, "create", ledgerErr.Op)
}

func TestRedeemLink(t *testing.T) {
	svc, signer := newTestService(t)

	issued, err := svc.IssueLink(context.Background(), sharelink.IssueLinkRequest{
		ObjectKey:        "exports/2023 summary.pdf",
		DownloadFilename: "Summary.pdf",
		ExpiresIn:        time.Hour,
	})
	require.NoError(t, err)

	signed, err := svc.RedeemLink(context.Background(), issued.Ticket.ID)
	require.NoError(t, err)
	assert.Contains(t, signed.URL, "exports/2023 summary.pdf")

	// The signer receives the ticket's full parameters.
	assert.Equal(t, "Summary.pdf", signer.lastReq.DownloadFilename)
	assert.Equal(t, issued.Ticket.ExpiresAt, signer.lastReq.ExpiresAt)

	// The count is mirrored into the ledger.
	record, err := svc.GetLink(context.Background(), issued.Ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), record.DownloadsServed)
}

func TestRedeemLinkUnknown(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.RedeemLink(context.Background(), uuid.New())
	assert.ErrorIs(t, err, sharelink.ErrLinkNotFound)
}

func TestRedeemLinkExpired(t *testing.T) {
	base := time.Date(2023, 11, 14, 8, 30, 0, 0, time.UTC)
	current := base
	svc, _ := newTestService(t, sharelink.WithClock(func() time.Time { return current }))

	issued, err := svc.IssueLink(context.Background(), sharelink.IssueLinkRequest{
		ObjectKey: "a.txt",
		ExpiresIn: time.Minute,
	})
	require.NoError(t, err)

	current = base.Add(2 * time.Minute)
	_, err = svc.RedeemLink(context.Background(), issued.Ticket.ID)
	assert.ErrorIs(t, err, sharelink.ErrLinkExpired)
}

func TestRedeemLinkQuota(t *testing.T) {
	svc, _ := newTestService(t)

	issued, err := svc.IssueLink(context.Background(), sharelink.IssueLinkRequest{
		ObjectKey:    "a.txt",
		ExpiresIn:    time.Hour,
		MaxDownloads: int64Ptr(2),
	})
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		_, err := svc.RedeemLink(context.Background(), issued.Ticket.ID)
		require.NoError(t, err)
	}

	_, err = svc.RedeemLink(context.Background(), issued.Ticket.ID)
	assert.ErrorIs(t, err, sharelink.ErrQuotaExceeded)
}

func TestRedeemLinkSigningFailureConsumesQuota(t *testing.T) {
	signer := &stubSigner{failWith: sharelink.ErrSigningFailure}
	svc, err := sharelink.New(
		sharelink.WithLedger(memory.New()),
		sharelink.WithSigner(signer),
	)
	require.NoError(t, err)

	issued, err := svc.IssueLink(context.Background(), sharelink.IssueLinkRequest{
		ObjectKey:    "a.txt",
		ExpiresIn:    time.Hour,
		MaxDownloads: int64Ptr(1),
	})
	require.NoError(t, err)

	_, err = svc.RedeemLink(context.Background(), issued.Ticket.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, sharelink.ErrSigningFailure)

	// The failed attempt consumed the only slot; the next one is refused
	// on quota, not retried.
	_, err = svc.RedeemLink(context.Background(), issued.Ticket.ID)
	assert.ErrorIs(t, err, sharelink.ErrQuotaExceeded)
	assert.Equal(t, 1, signer.calls)
}

func TestRedeemLinkLedgerMirrorFailureTolerated(t *testing.T) {
	signer := &stubSigner{}
	svc, err := sharelink.New(
		sharelink.WithLedger(&countingLedger{Ledger: memory.New(), incrementErr: errors.New("down")}),
		sharelink.WithSigner(signer),
	)
	require.NoError(t, err)

	issued, err := svc.IssueLink(context.Background(), sharelink.IssueLinkRequest{
		ObjectKey: "a.txt",
		ExpiresIn: time.Hour,
	})
	require.NoError(t, err)

	// A failing ledger mirror must not block redemption.
	signed, err := svc.RedeemLink(context.Background(), issued.Ticket.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, signed.URL)
}

func TestListLinks(t *testing.T) {
	svc, _ := newTestService(t)

	for i := 0; i < 3; i++ {
		_, err := svc.IssueLink(context.Background(), sharelink.IssueLinkRequest{
			ObjectKey: fmt.Sprintf("file-%d.txt", i),
			ExpiresIn: time.Hour,
		})
		require.NoError(t, err)
	}

	records, err := svc.ListLinks(context.Background(), sharelink.ListLinksRequest{})
	require.NoError(t, err)
	assert.Len(t, records, 3)

	records, err = svc.ListLinks(context.Background(), sharelink.ListLinksRequest{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, records, 2)

	records, err = svc.ListLinks(context.Background(), sharelink.ListLinksRequest{Limit: 2, Offset: 2})
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestDeleteLink(t *testing.T) {
	svc, _ := newTestService(t)

	issued, err := svc.IssueLink(context.Background(), sharelink.IssueLinkRequest{
		ObjectKey: "a.txt",
		ExpiresIn: time.Hour,
	})
	require.NoError(t, err)

	deleted, err := svc.DeleteLink(context.Background(), issued.Ticket.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	// Gone from both stores.
	_, err = svc.GetLink(context.Background(), issued.Ticket.ID)
	assert.ErrorIs(t, err, sharelink.ErrLinkNotFound)
	_, err = svc.RedeemLink(context.Background(), issued.Ticket.ID)
	assert.ErrorIs(t, err, sharelink.ErrLinkNotFound)

	deleted, err = svc.DeleteLink(context.Background(), issued.Ticket.ID)
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestCleanupLinks(t *testing.T) {
	svc, _ := newTestService(t)

	spent, err := svc.IssueLink(context.Background(), sharelink.IssueLinkRequest{
		ObjectKey:    "short.txt",
		ExpiresIn:    time.Hour,
		MaxDownloads: int64Ptr(1),
	})
	require.NoError(t, err)
	keep, err := svc.IssueLink(context.Background(), sharelink.IssueLinkRequest{
		ObjectKey: "long.txt",
		ExpiresIn: time.Hour,
	})
	require.NoError(t, err)

	// Exhaust the first link's quota so cleanup reaps it from both stores.
	_, err = svc.RedeemLink(context.Background(), spent.Ticket.ID)
	require.NoError(t, err)

	result, err := svc.CleanupLinks(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), result.LedgerDeleted)
	assert.Equal(t, 1, result.CacheEvicted)

	records, err := svc.ListLinks(context.Background(), sharelink.ListLinksRequest{})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, keep.Ticket.ID, records[0].ID)
}
