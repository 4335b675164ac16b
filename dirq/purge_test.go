package dirq

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPurgeRemovesStaleTemporaryFiles(t *testing.T) {
	q := newTestSimpleQueue(t)
	staleFile := filepath.Join(q.base.temporaryDir(), "stale")
	require.NoError(t, os.WriteFile(staleFile, []byte("x"), 0o644))
	old := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(staleFile, old, old))

	freshFile := filepath.Join(q.base.temporaryDir(), "fresh")
	require.NoError(t, os.WriteFile(freshFile, []byte("x"), 0o644))

	stats, err := q.Purge(context.Background(), time.Minute, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TempRemoved)

	_, err = os.Stat(staleFile)
	assert.True(t, isNotExist(err))
	_, err = os.Stat(freshFile)
	assert.NoError(t, err)
}

func TestPurgeLeavesQuiescentQueueClean(t *testing.T) {
	q := newTestSimpleQueue(t)
	ctx := context.Background()
	_, err := q.Add(ctx, []byte("x"))
	require.NoError(t, err)

	_, err = q.Purge(ctx, 0, time.Hour)
	require.NoError(t, err)

	names, err := listDir(q.base.temporaryDir())
	require.NoError(t, err)
	assert.Empty(t, names)

	obsolete, err := listDir(q.base.obsoleteDir())
	require.NoError(t, err)
	assert.Empty(t, obsolete)
}

func TestPurgeTwoPhaseObsoleteSweep(t *testing.T) {
	q := newTestSimpleQueue(t)
	ctx := context.Background()
	id, err := q.Add(ctx, []byte("x"))
	require.NoError(t, err)
	ok, err := q.Lock(ctx, id, false)
	require.NoError(t, err)
	require.True(t, ok)

	// First pass: lock is stale, gets moved to obsolete/ and the
	// element payload reclaimed, but the marker itself is not removed
	// yet (it just became obsolete this pass).
	stats, err := q.Purge(ctx, time.Hour, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.LocksObsoleted)
	assert.Equal(t, 1, stats.ElementsReclaimed)
	assert.Equal(t, 0, stats.LocksRemoved)

	obsolete, err := listDir(q.base.obsoleteDir())
	require.NoError(t, err)
	assert.Len(t, obsolete, 1)

	// Second pass with maxlock=0: the obsolete marker's mtime is older
	// than maxlock, so it is swept.
	stats, err = q.Purge(ctx, time.Hour, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.LocksRemoved)

	obsolete, err = listDir(q.base.obsoleteDir())
	require.NoError(t, err)
	assert.Empty(t, obsolete)
}

func TestPurgeDoesNotTouchFreshLocks(t *testing.T) {
	q := newTestSimpleQueue(t)
	ctx := context.Background()
	id, err := q.Add(ctx, []byte("x"))
	require.NoError(t, err)
	ok, err := q.Lock(ctx, id, false)
	require.NoError(t, err)
	require.True(t, ok)

	stats, err := q.Purge(ctx, time.Hour, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.LocksObsoleted)

	// The lock is still held: a second contender still can't acquire it.
	ok, err = q.Lock(ctx, id, false)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPurgeRemovesEmptyBuckets(t *testing.T) {
	q := newTestSimpleQueue(t)
	ctx := context.Background()
	id, err := q.Add(ctx, []byte("x"))
	require.NoError(t, err)
	ok, err := q.Lock(ctx, id, false)
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, q.Remove(ctx, id))

	bucket := filepath.Dir(id)
	stats, err := q.Purge(ctx, time.Hour, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.EmptyBucketsRemoved)

	_, err = os.Stat(filepath.Join(q.base.root, bucket))
	assert.True(t, isNotExist(err))
}

func TestPurgeConcurrentWithLegitimateUnlock(t *testing.T) {
	// A consumer holding a fresh lock can always unlock cleanly even
	// while purge is scanning, because purge only ever touches locks
	// older than maxLock.
	q := newTestSimpleQueue(t)
	ctx := context.Background()
	id, err := q.Add(ctx, []byte("x"))
	require.NoError(t, err)
	ok, err := q.Lock(ctx, id, false)
	require.NoError(t, err)
	require.True(t, ok)

	_, err = q.Purge(ctx, time.Hour, time.Hour)
	require.NoError(t, err)

	unlocked, err := q.Unlock(ctx, id, false)
	require.NoError(t, err)
	assert.True(t, unlocked)
}
