package dirq

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/cern-mig/dirq-go/dirq/dirqerrors"
	"github.com/cern-mig/dirq-go/dirq/dirqlog"
)

// lock implements spec.md §4.3's lock operation: a single atomic
// filesystem call that succeeds for exactly one contender.
func (q *baseQueue) lock(ctx context.Context, id string, permissive bool) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	ok, err := q.ops.acquireLock(q.lockPath(id), q.opts.DirPerm, q.opts.FilePerm, q.opts.Umask)
	if err != nil {
		return false, dirqerrors.Wrap("lock", q.lockPath(id), err)
	}
	if !ok {
		dirqlog.Debugf(id, "lock contended")
		return false, nil
	}

	exists, err := q.ops.payloadExists(q.elementPath(id))
	if err != nil {
		_ = q.ops.releaseLock(q.lockPath(id))
		return false, dirqerrors.Wrap("lock", q.elementPath(id), err)
	}
	if !exists {
		_ = q.ops.releaseLock(q.lockPath(id))
		if permissive {
			dirqlog.Debugf(id, "lock acquired but payload vanished, permissive")
			return false, nil
		}
		return false, fmt.Errorf("%w: %s", dirqerrors.ErrMissingElement, id)
	}

	dirqlog.Debugf(id, "lock acquired")
	return true, nil
}

// unlock implements spec.md §4.3's unlock operation.
func (q *baseQueue) unlock(ctx context.Context, id string, permissive bool) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	err := q.ops.releaseLock(q.lockPath(id))
	if err == nil {
		dirqlog.Debugf(id, "unlocked")
		return true, nil
	}
	if isNotExist(err) && permissive {
		dirqlog.Debugf(id, "unlock found marker already gone, permissive")
		return false, nil
	}
	return false, dirqerrors.Wrap("unlock", q.lockPath(id), err)
}

// remove implements spec.md §4.3's remove operation. Payload first,
// lock marker last: a crash between the two leaves only a dangling
// lock marker, which purge reclaims.
func (q *baseQueue) remove(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := q.ops.removePayload(q.elementPath(id)); err != nil && !isNotExist(err) {
		return dirqerrors.Wrap("remove", q.elementPath(id), err)
	}
	if err := q.ops.releaseLock(q.lockPath(id)); err != nil && !isNotExist(err) {
		return dirqerrors.Wrap("remove", q.lockPath(id), err)
	}
	dirqlog.Infof(id, "removed")
	return nil
}

// touch implements spec.md §4.3's touch heartbeat: bump the lock
// marker's mtime so purge does not consider it stale.
func (q *baseQueue) touch(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	now := time.Now()
	if err := os.Chtimes(q.lockPath(id), now, now); err != nil {
		if isNotExist(err) {
			return fmt.Errorf("%w: %s", dirqerrors.ErrMissingElement, id)
		}
		return dirqerrors.Wrap("touch", q.lockPath(id), err)
	}
	return nil
}

// get implements spec.md §4.3's get operation. It is the caller's
// responsibility to hold the lock first; dirq does not enforce that
// beyond this documentation (spec.md §4.3).
func (q *baseQueue) get(ctx context.Context, id string) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	payload, err := q.ops.readPayload(q.elementPath(id))
	if err != nil {
		if isNotExist(err) {
			return nil, fmt.Errorf("%w: %s", dirqerrors.ErrMissingElement, id)
		}
		return nil, dirqerrors.Wrap("get", q.elementPath(id), err)
	}
	return payload, nil
}
