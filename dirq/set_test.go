package dirq

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/cern-mig/dirq-go/dirq/dirqerrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestQueueSetRoundRobin exercises spec.md §8 scenario 6: a set over
// two queues yields every element, each dispatchable back to its
// source queue.
func TestQueueSetRoundRobin(t *testing.T) {
	ctx := context.Background()
	q1 := newTestSimpleQueue(t)
	q2 := newTestSimpleQueue(t)

	x1, err := q1.Add(ctx, []byte("x1"))
	require.NoError(t, err)
	y1, err := q2.Add(ctx, []byte("y1"))
	require.NoError(t, err)
	y2, err := q2.Add(ctx, []byte("y2"))
	require.NoError(t, err)

	set := NewQueueSet(q1, q2)

	var seen []string
	id, err := set.First(ctx)
	for err == nil {
		seen = append(seen, id)
		id, err = set.Next(ctx)
	}
	require.ErrorIs(t, err, io.EOF)

	assert.Equal(t, []string{setID(0, x1), setID(1, y1), setID(1, y2)}, seen)

	count, err := set.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestQueueSetLockDispatchesToMemberQueue(t *testing.T) {
	ctx := context.Background()
	q1 := newTestSimpleQueue(t)
	q2 := newTestSimpleQueue(t)
	id2, err := q2.Add(ctx, []byte("y"))
	require.NoError(t, err)

	set := NewQueueSet(q1, q2)
	target := setID(1, id2)

	ok, err := set.Lock(ctx, target, false)
	require.NoError(t, err)
	require.True(t, ok)

	payload, err := set.Get(ctx, target)
	require.NoError(t, err)
	assert.Equal(t, []byte("y"), payload)

	require.NoError(t, set.Remove(ctx, target))
	count, err := q2.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestQueueSetAddUnsupported(t *testing.T) {
	set := NewQueueSet(newTestSimpleQueue(t))
	_, err := set.Add(context.Background(), []byte("x"))
	assert.True(t, errors.Is(err, dirqerrors.ErrInvalidConfiguration))
}

func TestQueueSetAddQueueExpandsMembership(t *testing.T) {
	set := NewQueueSet()
	assert.Empty(t, set.Queues())
	q := newTestSimpleQueue(t)
	set.AddQueue(q)
	assert.Len(t, set.Queues(), 1)
}

func TestQueueSetEmptyFirstIsEOF(t *testing.T) {
	set := NewQueueSet()
	_, err := set.First(context.Background())
	assert.ErrorIs(t, err, io.EOF)
}
