package queue

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrackerBooks(t *testing.T) {
	tr := NewTracker(1)

	require.NoError(t, tr.Acquire(KindHeader, 0))
	require.NoError(t, tr.Acquire(KindNode, 0))
	require.NoError(t, tr.Acquire(KindPayload, 5))
	assert.Equal(t, 3, tr.Live())
	assert.Equal(t, 1, tr.LiveOf(KindPayload))
	assert.Equal(t, 5, tr.LiveBytes())

	tr.Release(KindPayload, 5)
	tr.Release(KindNode, 0)
	tr.Release(KindHeader, 0)
	assert.Zero(t, tr.Live())
	assert.Zero(t, tr.LiveBytes())
	assert.Equal(t, 3, tr.Acquired())
	assert.Equal(t, 3, tr.Released())
	assert.NoError(t, tr.Err())
}

func TestTrackerBadRelease(t *testing.T) {
	logger, hook := test.NewNullLogger()
	tr := NewTracker(1)
	tr.Logger = logger

	tr.Release(KindNode, 0)
	assert.True(t, errors.Is(tr.Err(), ErrBadRelease))
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.ErrorLevel, hook.LastEntry().Level)
	assert.Equal(t, "node", hook.LastEntry().Data["kind"])

	require.NoError(t, tr.Acquire(KindPayload, 2))
	tr.Release(KindPayload, 3)
	assert.Equal(t, 1, tr.Live(), "oversized release must not be booked")
	assert.Len(t, hook.AllEntries(), 2)
}

func TestTrackerFailAfter(t *testing.T) {
	tr := NewTracker(1)
	tr.FailAfter = 2

	require.NoError(t, tr.Acquire(KindNode, 0))
	require.NoError(t, tr.Acquire(KindNode, 0))
	assert.Error(t, tr.Acquire(KindNode, 0))
	assert.Equal(t, 2, tr.Live())
	assert.Equal(t, 1, tr.Refused())

	tr.Allowed(false)
	assert.NoError(t, tr.Acquire(KindNode, 0))
	tr.Allowed(true)
	assert.Error(t, tr.Acquire(KindNode, 0))
}

func TestTrackerFailProbability(t *testing.T) {
	tr := NewTracker(3)
	tr.FailProbability = 0.5

	for i := 0; i < 200; i++ {
		tr.Acquire(KindNode, 0)
	}
	assert.Equal(t, 200, tr.Acquired()+tr.Refused())
	assert.InDelta(t, 100, tr.Refused(), 40)
}

func TestHeapAllocator(t *testing.T) {
	q, err := New()
	require.NoError(t, err)
	_, ok := q.alloc.(HeapAllocator)
	assert.True(t, ok)

	require.NoError(t, q.InsertTail("x"))
	q.Free()
	assert.Zero(t, q.Size())
}

func TestTrackerZeroValue(t *testing.T) {
	logger, hook := test.NewNullLogger()
	var tr Tracker
	tr.Logger = logger

	require.NoError(t, tr.Acquire(KindNode, 0))
	tr.Release(KindNode, 0)
	tr.Release(KindNode, 0)
	assert.True(t, errors.Is(tr.Err(), ErrBadRelease))
	assert.Len(t, hook.AllEntries(), 1)

	var bare Tracker
	assert.NotPanics(t, func() { bare.Release(KindHeader, 0) })
	assert.Error(t, bare.Err())

	random := &Tracker{FailProbability: 0.5}
	assert.NotPanics(t, func() {
		for i := 0; i < 20; i++ {
			random.Acquire(KindNode, 0)
		}
	})
	assert.Equal(t, 20, random.Acquired()+random.Refused())

	always := &Tracker{FailProbability: 1, Logger: logger}
	q, err := New(WithAllocator(always), WithLogger(logger))
	assert.Nil(t, q)
	assert.True(t, errors.Is(err, ErrAllocation))
	assert.Equal(t, 1, always.Refused())
}

func TestTrackerUnknownKind(t *testing.T) {
	logger, hook := test.NewNullLogger()
	tr := NewTracker(1)
	tr.Logger = logger

	assert.Error(t, tr.Acquire(Kind(7), 0))
	assert.Zero(t, tr.Live())
	assert.Zero(t, tr.LiveOf(Kind(7)))

	tr.Release(Kind(7), 0)
	assert.True(t, errors.Is(tr.Err(), ErrBadRelease))
	assert.Equal(t, "kind(7)", hook.LastEntry().Data["kind"])
}

func TestTrackerPayloadSizeMismatch(t *testing.T) {
	logger, _ := test.NewNullLogger()
	tr := NewTracker(1)
	tr.Logger = logger

	require.NoError(t, tr.Acquire(KindPayload, 5))
	require.NoError(t, tr.Acquire(KindPayload, 4))
	tr.Release(KindPayload, 3)
	assert.True(t, errors.Is(tr.Err(), ErrBadRelease))
	assert.Equal(t, 2, tr.LiveOf(KindPayload))
	assert.Equal(t, 9, tr.LiveBytes())

	tr.Release(KindPayload, 5)
	tr.Release(KindPayload, 4)
	assert.Zero(t, tr.Live())
	assert.Zero(t, tr.LiveBytes())
}
