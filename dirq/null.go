package dirq

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/cern-mig/dirq-go/dirq/dirqerrors"
)

// NullQueue satisfies the Queue contract but discards every write and
// reports itself permanently empty. It lets a caller be configured to
// dry-run without a conditional code path at every call site
// (spec.md §4.6).
type NullQueue struct{}

// NewNullQueue returns a ready-to-use null queue. There is no root
// path and nothing is created on disk.
func NewNullQueue() *NullQueue { return &NullQueue{} }

// Add discards payload and returns a synthetic identifier that is
// never visible to iteration or lockable.
func (NullQueue) Add(ctx context.Context, _ any) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return "00000000/" + newTemporaryName(), nil
}

// Count always reports zero.
func (NullQueue) Count(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return 0, nil
}

// Lock fails with ErrMissingElement, or returns false with no error
// when permissive is set.
func (NullQueue) Lock(ctx context.Context, id string, permissive bool) (bool, error) {
	return nullMiss(ctx, id, permissive)
}

// Unlock fails with ErrMissingElement, or returns false with no error
// when permissive is set.
func (NullQueue) Unlock(ctx context.Context, id string, permissive bool) (bool, error) {
	return nullMiss(ctx, id, permissive)
}

// Get always fails with ErrMissingElement.
func (NullQueue) Get(ctx context.Context, id string) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return nil, fmt.Errorf("%w: %s", dirqerrors.ErrMissingElement, id)
}

// Remove always fails with ErrMissingElement.
func (NullQueue) Remove(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return fmt.Errorf("%w: %s", dirqerrors.ErrMissingElement, id)
}

// Touch always fails with ErrMissingElement.
func (NullQueue) Touch(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return fmt.Errorf("%w: %s", dirqerrors.ErrMissingElement, id)
}

// First always reports an empty queue.
func (NullQueue) First(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}

// Next always reports an empty queue.
func (NullQueue) Next(ctx context.Context) (string, error) { return NullQueue{}.First(ctx) }

// Purge is a no-op that reports an empty PurgeStats.
func (NullQueue) Purge(ctx context.Context, _, _ time.Duration) (PurgeStats, error) {
	if err := ctx.Err(); err != nil {
		return PurgeStats{}, err
	}
	return PurgeStats{}, nil
}

func nullMiss(ctx context.Context, id string, permissive bool) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if permissive {
		return false, nil
	}
	return false, fmt.Errorf("%w: %s", dirqerrors.ErrMissingElement, id)
}

var _ Queue = NullQueue{}
