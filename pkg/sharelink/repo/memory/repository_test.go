package memory_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-sharelink/pkg/sharelink"
	"github.com/tendant/simple-sharelink/pkg/sharelink/repo/memory"
)

func int64Ptr(v int64) *int64 { return &v }

func newRecord(objectKey string, createdAt time.Time) *sharelink.LinkRecord {
	return &sharelink.LinkRecord{
		ID:        uuid.New(),
		ObjectKey: objectKey,
		ExpiresAt: createdAt.Add(time.Hour),
		CreatedAt: createdAt,
	}
}

func TestCreateAndGetLink(t *testing.T) {
	repo := memory.New()
	ctx := context.Background()

	record := newRecord("reports/q1.pdf", time.Now().UTC())
	require.NoError(t, repo.CreateLink(ctx, record))

	got, err := repo.GetLink(ctx, record.ID)
	require.NoError(t, err)
	assert.Equal(t, record.ID, got.ID)
	assert.Equal(t, "reports/q1.pdf", got.ObjectKey)

	// Reads return copies.
	got.ObjectKey = "changed"
	again, err := repo.GetLink(ctx, record.ID)
	require.NoError(t, err)
	assert.Equal(t, "reports/q1.pdf", again.ObjectKey)
}

func TestGetLinkNotFound(t *testing.T) {
	repo := memory.New()

	_, err := repo.GetLink(context.Background(), uuid.New())
	assert.ErrorIs(t, err, sharelink.ErrLinkNotFound)
}

func TestIncrementDownloads(t *testing.T) {
	repo := memory.New()
	ctx := context.Background()

	record := newRecord("a.txt", time.Now().UTC())
	require.NoError(t, repo.CreateLink(ctx, record))

	require.NoError(t, repo.IncrementDownloads(ctx, record.ID))
	require.NoError(t, repo.IncrementDownloads(ctx, record.ID))

	got, err := repo.GetLink(ctx, record.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.DownloadsServed)

	err = repo.IncrementDownloads(ctx, uuid.New())
	assert.ErrorIs(t, err, sharelink.ErrLinkNotFound)
}

func TestListLinksOrderingAndPagination(t *testing.T) {
	repo := memory.New()
	ctx := context.Background()

	base := time.Now().UTC()
	for i := 0; i < 5; i++ {
		record := newRecord(fmt.Sprintf("file-%d.txt", i), base.Add(time.Duration(i)*time.Second))
		require.NoError(t, repo.CreateLink(ctx, record))
	}

	// Newest first.
	all, err := repo.ListLinks(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, all, 5)
	assert.Equal(t, "file-4.txt", all[0].ObjectKey)
	assert.Equal(t, "file-0.txt", all[4].ObjectKey)

	page, err := repo.ListLinks(ctx, 2, 2)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "file-2.txt", page[0].ObjectKey)

	empty, err := repo.ListLinks(ctx, 10, 100)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestDeleteLink(t *testing.T) {
	repo := memory.New()
	ctx := context.Background()

	record := newRecord("a.txt", time.Now().UTC())
	require.NoError(t, repo.CreateLink(ctx, record))

	deleted, err := repo.DeleteLink(ctx, record.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = repo.DeleteLink(ctx, record.ID)
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestDeleteExpiredOrExhausted(t *testing.T) {
	repo := memory.New()
	ctx := context.Background()
	now := time.Now().UTC()

	live := newRecord("live.txt", now)
	require.NoError(t, repo.CreateLink(ctx, live))

	expired := newRecord("expired.txt", now.Add(-2*time.Hour))
	expired.ExpiresAt = now.Add(-time.Hour)
	require.NoError(t, repo.CreateLink(ctx, expired))

	exhausted := newRecord("exhausted.txt", now)
	exhausted.MaxDownloads = int64Ptr(1)
	exhausted.DownloadsServed = 1
	require.NoError(t, repo.CreateLink(ctx, exhausted))

	deleted, err := repo.DeleteExpiredOrExhausted(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	remaining, err := repo.ListLinks(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, live.ID, remaining[0].ID)
}
