package dirq

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/cern-mig/dirq-go/dirq/dirqerrors"
	"github.com/cern-mig/dirq-go/dirq/dirqlog"
)

// purge implements spec.md §4.3's two-phase reclamation. It is safe
// to run concurrently with add/lock/remove: moving a stale lock
// marker into obsolete/ first changes its path, so a legitimate
// holder's concurrent unlock/remove simply fails benignly (ENOENT)
// rather than racing purge for the same path.
func (q *baseQueue) purge(ctx context.Context, maxTemp, maxLock time.Duration) (PurgeStats, error) {
	var stats PurgeStats
	if err := ctx.Err(); err != nil {
		return stats, err
	}

	if err := q.purgeTemporary(maxTemp, &stats); err != nil {
		return stats, err
	}
	if err := q.purgeObsolete(maxLock, &stats); err != nil {
		return stats, err
	}

	buckets, err := q.listBuckets()
	if err != nil {
		return stats, err
	}
	for _, b := range buckets {
		if err := q.purgeBucketLocks(b, maxLock, &stats); err != nil {
			return stats, err
		}
		if err := q.removeIfEmpty(q.bucketDir(b), &stats); err != nil {
			return stats, err
		}
	}

	dirqlog.Infof(nil, "purge complete: temp=%d obsoleted=%d removed=%d reclaimed=%d buckets=%d",
		stats.TempRemoved, stats.LocksObsoleted, stats.LocksRemoved, stats.ElementsReclaimed, stats.EmptyBucketsRemoved)
	return stats, nil
}

func (q *baseQueue) purgeTemporary(maxTemp time.Duration, stats *PurgeStats) error {
	names, err := listDir(q.temporaryDir())
	if err != nil {
		return err
	}
	now := time.Now()
	for _, n := range names {
		path := filepath.Join(q.temporaryDir(), n)
		info, err := os.Stat(path)
		if err != nil {
			if isNotExist(err) {
				continue
			}
			return dirqerrors.Wrap("stat", path, err)
		}
		if now.Sub(info.ModTime()) <= maxTemp {
			continue
		}
		if err := os.RemoveAll(path); err != nil && !isNotExist(err) {
			return dirqerrors.Wrap("remove", path, err)
		}
		stats.TempRemoved++
	}
	return nil
}

// purgeBucketLocks moves every stale lock marker in bucket b into
// obsolete/, reclaiming the underlying element payload if it is still
// present.
func (q *baseQueue) purgeBucketLocks(b string, maxLock time.Duration, stats *PurgeStats) error {
	names, err := listDir(q.bucketDir(b))
	if err != nil {
		return err
	}
	now := time.Now()
	for _, n := range names {
		if !isLockName(n) {
			continue
		}
		lockPath := filepath.Join(q.bucketDir(b), n)
		info, err := os.Stat(lockPath)
		if err != nil {
			if isNotExist(err) {
				continue // a consumer unlocked it between listing and stat
			}
			return dirqerrors.Wrap("stat", lockPath, err)
		}
		if now.Sub(info.ModTime()) <= maxLock {
			continue
		}

		elementName := n[:len(n)-len(lockSuffix)]
		elementID := filepath.Join(b, elementName)
		obsoletePath := filepath.Join(q.obsoleteDir(), b+"-"+elementName+lockSuffix)

		if err := renameAtomic(lockPath, obsoletePath); err != nil {
			if isNotExist(err) {
				continue // someone else's unlock won the race
			}
			return dirqerrors.Wrap("rename", lockPath, err)
		}
		stats.LocksObsoleted++
		dirqlog.Debugf(elementID, "lock marker moved to obsolete/")

		if err := q.ops.removePayload(q.elementPath(elementID)); err == nil {
			stats.ElementsReclaimed++
		} else if !isNotExist(err) {
			return dirqerrors.Wrap("remove", q.elementPath(elementID), err)
		}
	}
	return nil
}

// purgeObsolete removes any entry in obsolete/ whose mtime is older
// than maxLock, the second sweep of spec.md §4.3's two-phase design.
// The move into obsolete/ keeps a marker's mtime, so a marker that an
// earlier pass moved there is normally removed by the next pass.
func (q *baseQueue) purgeObsolete(maxLock time.Duration, stats *PurgeStats) error {
	names, err := listDir(q.obsoleteDir())
	if err != nil {
		return err
	}
	now := time.Now()
	for _, n := range names {
		path := filepath.Join(q.obsoleteDir(), n)
		info, err := os.Stat(path)
		if err != nil {
			if isNotExist(err) {
				continue
			}
			return dirqerrors.Wrap("stat", path, err)
		}
		if now.Sub(info.ModTime()) <= maxLock {
			continue
		}
		if err := os.RemoveAll(path); err != nil && !isNotExist(err) {
			return dirqerrors.Wrap("remove", path, err)
		}
		stats.LocksRemoved++
	}
	return nil
}

func (q *baseQueue) removeIfEmpty(dir string, stats *PurgeStats) error {
	if dir == q.root {
		return nil
	}
	err := os.Remove(dir)
	if err == nil {
		stats.EmptyBucketsRemoved++
		return nil
	}
	// ENOTEMPTY (or platform equivalent) just means the bucket is
	// still in use; that is expected, not an error.
	return nil
}
