package dirq

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/cern-mig/dirq-go/dirq/dirqerrors"
	"github.com/cern-mig/dirq-go/dirq/dirqlog"
)

const (
	temporaryDirName = "temporary"
	obsoleteDirName  = "obsolete"
	lockSuffix       = ".lck"
)

// PurgeStats summarizes one Purge pass, letting CLI or metrics callers
// see what a purge actually reclaimed (spec.md §4.3's two-phase
// algorithm).
type PurgeStats struct {
	TempRemoved         int // stale entries removed from temporary/
	LocksObsoleted      int // stale .lck markers moved into obsolete/ this pass
	LocksRemoved        int // entries of obsolete/ removed because their mtime is older than maxlock
	ElementsReclaimed   int // element payloads removed alongside a reclaimed lock
	EmptyBucketsRemoved int // bucket directories removed once empty
}

// Queue is the capability set shared by every flavor: typed, simple,
// null and queue-set dispatch all satisfy it (spec.md §9).
type Queue interface {
	Add(ctx context.Context, payload any) (string, error)
	Count(ctx context.Context) (int, error)
	Lock(ctx context.Context, id string, permissive bool) (bool, error)
	Unlock(ctx context.Context, id string, permissive bool) (bool, error)
	Get(ctx context.Context, id string) (any, error)
	Remove(ctx context.Context, id string) error
	Touch(ctx context.Context, id string) error
	First(ctx context.Context) (string, error)
	Next(ctx context.Context) (string, error)
	Purge(ctx context.Context, maxTemp, maxLock time.Duration) (PurgeStats, error)
}

// elementOps isolates the behavior that differs between the typed and
// simple flavors: how a staged payload is written and committed, how
// a lock marker is acquired/released, and how a payload is read back.
// baseQueue implements every flavor-independent part of spec.md §4.3
// in terms of this interface.
type elementOps interface {
	// writeStaging writes payload to the staging path (a file for
	// simple, a directory of field files for typed) and returns an
	// error if payload doesn't match what this flavor expects.
	writeStaging(stagingPath string, payload any) error
	// commit performs the atomic rename(s) from staging into the
	// bucket under the given element name.
	commit(stagingPath, finalPath string) error
	// readPayload loads the committed element's payload.
	readPayload(finalPath string) (any, error)
	// removePayload deletes the committed element (file or directory
	// tree).
	removePayload(finalPath string) error
	// payloadExists reports whether the element's payload still
	// exists, tolerating a concurrent remove.
	payloadExists(finalPath string) (bool, error)
	// acquireLock attempts the single atomic operation that marks an
	// element locked. err is nil and ok is true only on a genuine
	// acquisition; ok is false with err nil on contention (EEXIST).
	acquireLock(lockPath string, dirPerm, filePerm uint32, umask int) (ok bool, err error)
	// releaseLock removes a lock marker this flavor created.
	releaseLock(lockPath string) error
}

// baseQueue implements the shared lifecycle operations of spec.md
// §4.3: add/lock/unlock/remove/touch/get/count/iteration/purge. Typed
// and simple queues embed it and supply an elementOps.
type baseQueue struct {
	root string
	opts Options
	ids  *idState
	ops  elementOps

	cursor cursorState
}

type cursorState struct {
	buckets []string
	// bucketIdx is the index into buckets of the next bucket to load.
	bucketIdx int
	// loadedBucketIdx is the index of the bucket whose listing is
	// currently in elements, valid only once elements is non-nil.
	loadedBucketIdx int
	elements        []string
	elementIdx      int
	started         bool
}

func newBaseQueue(root string, opts Options, ops elementOps) (*baseQueue, error) {
	if root == "" {
		return nil, fmt.Errorf("%w: empty root path", dirqerrors.ErrInvalidConfiguration)
	}
	pid := currentPID()
	opts = opts.normalized(pid)

	for _, dir := range []string{root, filepath.Join(root, temporaryDirName), filepath.Join(root, obsoleteDirName)} {
		if err := mkdirAll(dir, os.FileMode(opts.DirPerm), opts.Umask); err != nil {
			return nil, dirqerrors.Wrap("mkdir", dir, err)
		}
	}

	return &baseQueue{
		root: root,
		opts: opts,
		ids:  newIDState(pid, opts.RndHex),
		ops:  ops,
	}, nil
}

func (q *baseQueue) temporaryDir() string { return filepath.Join(q.root, temporaryDirName) }
func (q *baseQueue) obsoleteDir() string  { return filepath.Join(q.root, obsoleteDirName) }
func (q *baseQueue) bucketDir(bucket string) string { return filepath.Join(q.root, bucket) }

func (q *baseQueue) elementPath(id string) string { return filepath.Join(q.root, id) }
func (q *baseQueue) lockPath(id string) string    { return q.elementPath(id) + lockSuffix }

// add runs spec.md §4.3's add algorithm generically over whatever
// elementOps the embedding flavor supplies.
func (q *baseQueue) add(ctx context.Context, payload any) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	stagingName := newTemporaryName()
	stagingPath := filepath.Join(q.temporaryDir(), stagingName)

	if err := q.ops.writeStaging(stagingPath, payload); err != nil {
		_ = q.ops.removePayload(stagingPath)
		return "", err
	}

	now := time.Now()
	bucket := newBucketName(now, q.opts.Granularity)
	bucketDir := q.bucketDir(bucket)
	if err := mkdirAll(bucketDir, os.FileMode(q.opts.DirPerm), q.opts.Umask); err != nil {
		_ = q.ops.removePayload(stagingPath)
		return "", dirqerrors.Wrap("mkdir", bucketDir, err)
	}

	for attempt := 0; attempt <= q.opts.MaxRetries; attempt++ {
		name, err := q.ids.newElementName(now)
		if err != nil {
			_ = q.ops.removePayload(stagingPath)
			return "", dirqerrors.Wrap("add", stagingPath, err)
		}
		id := filepath.Join(bucket, name)
		finalPath := q.elementPath(id)

		err = q.ops.commit(stagingPath, finalPath)
		if err == nil {
			dirqlog.Debugf(id, "committed element")
			return filepath.ToSlash(id), nil
		}
		if isExist(err) {
			dirqlog.Debugf(id, "name collision on commit, retrying (attempt %d)", attempt)
			continue
		}
		if isNotExist(err) && attempt < q.opts.MaxRetries {
			// A concurrent purge may have removed the bucket while it was
			// still empty; recreate it and retry.
			if exists, _ := q.ops.payloadExists(stagingPath); exists {
				if mkErr := mkdirAll(bucketDir, os.FileMode(q.opts.DirPerm), q.opts.Umask); mkErr == nil {
					continue
				}
			}
		}
		_ = q.ops.removePayload(stagingPath)
		return "", dirqerrors.Wrap("rename", finalPath, err)
	}

	_ = q.ops.removePayload(stagingPath)
	return "", fmt.Errorf("%w: after %d attempts", dirqerrors.ErrNameCollision, q.opts.MaxRetries+1)
}

// count traverses every bucket once, counting visible elements
// without retrying on concurrent mutation, per spec.md §4.3.
func (q *baseQueue) count(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	buckets, err := q.listBuckets()
	if err != nil {
		return 0, err
	}
	total := 0
	for _, b := range buckets {
		names, err := listDir(q.bucketDir(b))
		if err != nil {
			return 0, err
		}
		for _, n := range names {
			if isLockName(n) {
				continue
			}
			total++
		}
	}
	return total, nil
}

func (q *baseQueue) listBuckets() ([]string, error) {
	names, err := listDir(q.root)
	if err != nil {
		return nil, err
	}
	buckets := names[:0:0]
	for _, n := range names {
		if n == temporaryDirName || n == obsoleteDirName {
			continue
		}
		if len(n) != bucketWidth {
			continue
		}
		buckets = append(buckets, n)
	}
	sortStrings(buckets)
	return buckets, nil
}

func isLockName(name string) bool {
	return len(name) > len(lockSuffix) && name[len(name)-len(lockSuffix):] == lockSuffix
}
