package dirq

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/cern-mig/dirq-go/dirq/dirqerrors"
)

// SimpleQueue stores a single opaque byte payload per element: one
// file per element, one rename per commit. Favored when throughput
// matters and no schema is needed (spec.md §4.5).
type SimpleQueue struct {
	base *baseQueue
}

// NewSimpleQueue opens (creating if necessary) a simple queue rooted
// at root.
func NewSimpleQueue(root string, opts Options) (*SimpleQueue, error) {
	q := &SimpleQueue{}
	base, err := newBaseQueue(root, opts, q)
	if err != nil {
		return nil, err
	}
	q.base = base
	return q, nil
}

// Add commits payload as a new element. Returns the element
// identifier. payload must be a []byte; this satisfies the Queue
// interface's any-typed signature while AddBytes gives byte-slice
// callers a concrete-typed entry point.
func (q *SimpleQueue) Add(ctx context.Context, payload any) (string, error) {
	data, ok := payload.([]byte)
	if !ok {
		return "", fmt.Errorf("%w: simple queue requires a []byte payload, got %T", dirqerrors.ErrInvalidConfiguration, payload)
	}
	return q.AddBytes(ctx, data)
}

// AddBytes is the concrete-typed form of Add.
func (q *SimpleQueue) AddBytes(ctx context.Context, payload []byte) (string, error) {
	return q.base.add(ctx, payload)
}

// Count returns the number of visible elements.
func (q *SimpleQueue) Count(ctx context.Context) (int, error) { return q.base.count(ctx) }

// Lock attempts to acquire the element's lock, an O_EXCL zero-byte
// file (spec.md §4.3).
func (q *SimpleQueue) Lock(ctx context.Context, id string, permissive bool) (bool, error) {
	return q.base.lock(ctx, id, permissive)
}

// Unlock releases a previously acquired lock.
func (q *SimpleQueue) Unlock(ctx context.Context, id string, permissive bool) (bool, error) {
	return q.base.unlock(ctx, id, permissive)
}

// Get reads back the payload stored at id, satisfying the Queue
// interface's any-typed signature. GetBytes gives byte-slice callers a
// concrete-typed entry point.
func (q *SimpleQueue) Get(ctx context.Context, id string) (any, error) {
	return q.base.get(ctx, id)
}

// GetBytes is the concrete-typed form of Get. The caller must hold the
// lock; dirq does not enforce this (spec.md §4.3).
func (q *SimpleQueue) GetBytes(ctx context.Context, id string) ([]byte, error) {
	payload, err := q.base.get(ctx, id)
	if err != nil {
		return nil, err
	}
	return payload.([]byte), nil
}

// Remove deletes the locked element.
func (q *SimpleQueue) Remove(ctx context.Context, id string) error { return q.base.remove(ctx, id) }

// Touch bumps the lock marker's mtime.
func (q *SimpleQueue) Touch(ctx context.Context, id string) error { return q.base.touch(ctx, id) }

// First begins a fresh iteration pass.
func (q *SimpleQueue) First(ctx context.Context) (string, error) { return q.base.first(ctx) }

// Next continues an iteration pass started by First.
func (q *SimpleQueue) Next(ctx context.Context) (string, error) { return q.base.next(ctx) }

// Purge reclaims stale staging files and lock markers.
func (q *SimpleQueue) Purge(ctx context.Context, maxTemp, maxLock time.Duration) (PurgeStats, error) {
	return q.base.purge(ctx, maxTemp, maxLock)
}

// --- elementOps ---

func (q *SimpleQueue) writeStaging(stagingPath string, payload any) error {
	data, ok := payload.([]byte)
	if !ok {
		return fmt.Errorf("%w: simple queue requires a []byte payload, got %T", dirqerrors.ErrInvalidConfiguration, payload)
	}
	return writeFilePlain(stagingPath, data, os.FileMode(q.base.opts.FilePerm), q.base.opts.Umask)
}

func (q *SimpleQueue) commit(stagingPath, finalPath string) error {
	return renameAtomic(stagingPath, finalPath)
}

func (q *SimpleQueue) readPayload(finalPath string) (any, error) {
	return os.ReadFile(finalPath)
}

func (q *SimpleQueue) removePayload(finalPath string) error {
	return os.Remove(finalPath)
}

func (q *SimpleQueue) payloadExists(finalPath string) (bool, error) {
	_, err := os.Stat(finalPath)
	if err == nil {
		return true, nil
	}
	if isNotExist(err) {
		return false, nil
	}
	return false, err
}

// acquireLock creates a zero-byte O_EXCL file as the lock marker, the
// simple flavor's choice from spec.md §3's "implementation-defined
// but must be single-syscall atomic" requirement.
func (q *SimpleQueue) acquireLock(lockPath string, _, filePerm uint32, umask int) (bool, error) {
	f, err := createExclusive(lockPath, os.FileMode(filePerm), umask)
	if err == nil {
		return true, f.Close()
	}
	if isExist(err) {
		return false, nil
	}
	return false, err
}

func (q *SimpleQueue) releaseLock(lockPath string) error {
	return os.Remove(lockPath)
}

var _ Queue = (*SimpleQueue)(nil)
