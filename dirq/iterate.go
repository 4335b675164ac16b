package dirq

import (
	"context"
	"io"
	"path/filepath"
)

// first snapshots the current bucket list and resets per-bucket
// listing state, per spec.md §4.3. Elements added after first() may
// or may not appear, by design.
func (q *baseQueue) first(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	buckets, err := q.listBuckets()
	if err != nil {
		return "", err
	}
	q.cursor = cursorState{buckets: buckets, started: true}
	return q.next(ctx)
}

// next yields the next visible element identifier across buckets, in
// bucket-then-element lexicographic order. Lock markers are never
// yielded. Returns io.EOF once exhausted.
func (q *baseQueue) next(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if !q.cursor.started {
		return q.first(ctx)
	}

	for {
		if q.cursor.elementIdx >= len(q.cursor.elements) {
			if !q.advanceBucket() {
				return "", io.EOF
			}
			continue
		}
		name := q.cursor.elements[q.cursor.elementIdx]
		q.cursor.elementIdx++
		if isLockName(name) {
			continue
		}
		bucket := q.cursor.buckets[q.cursor.loadedBucketIdx]
		return filepath.ToSlash(filepath.Join(bucket, name)), nil
	}
}

// advanceBucket loads the next bucket's element listing, re-listing
// on demand rather than holding a directory handle open across calls
// (spec.md §9's "do not hold directory handles across next() calls").
// Returns false once every bucket has been consumed.
func (q *baseQueue) advanceBucket() bool {
	for {
		if q.cursor.bucketIdx >= len(q.cursor.buckets) {
			return false
		}
		bucket := q.cursor.buckets[q.cursor.bucketIdx]
		q.cursor.loadedBucketIdx = q.cursor.bucketIdx
		q.cursor.bucketIdx++

		names, err := listDir(q.bucketDir(bucket))
		if err != nil {
			// A bucket that vanished mid-iteration (purge removed an
			// empty one) is simply skipped, never an iteration error.
			names = nil
		}
		sortStrings(names)
		q.cursor.elements = names
		q.cursor.elementIdx = 0
		if len(names) == 0 {
			continue
		}
		return true
	}
}
