package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/careerforge/internal/models"
	"github.com/bobmcallan/careerforge/internal/queue/memory"
)

func TestQueue_EnqueueDequeueAck(t *testing.T) {
	q := memory.New(time.Minute)
	ctx := context.Background()

	require.NoError(t, q.Enqueue(ctx, models.QueueMessage{JobID: "job-1"}))

	lease, err := q.Dequeue(ctx)
	require.NoError(t, err)
	require.NotNil(t, lease)
	assert.Equal(t, "job-1", lease.Message.JobID)

	require.NoError(t, q.Ack(ctx, lease.ID))

	lease, err = q.Dequeue(ctx)
	require.NoError(t, err)
	assert.Nil(t, lease)
}

func TestQueue_Dequeue_EmptyReturnsNilLeaseNoError(t *testing.T) {
	q := memory.New(time.Minute)

	lease, err := q.Dequeue(context.Background())
	require.NoError(t, err)
	assert.Nil(t, lease)
}

func TestQueue_FIFOOrdering(t *testing.T) {
	q := memory.New(time.Minute)
	ctx := context.Background()

	require.NoError(t, q.Enqueue(ctx, models.QueueMessage{JobID: "job-1"}))
	require.NoError(t, q.Enqueue(ctx, models.QueueMessage{JobID: "job-2"}))

	first, err := q.Dequeue(ctx)
	require.NoError(t, err)
	assert.Equal(t, "job-1", first.Message.JobID)

	second, err := q.Dequeue(ctx)
	require.NoError(t, err)
	assert.Equal(t, "job-2", second.Message.JobID)
}

func TestQueue_Nack_RedeliversImmediately(t *testing.T) {
	q := memory.New(time.Minute)
	ctx := context.Background()

	require.NoError(t, q.Enqueue(ctx, models.QueueMessage{JobID: "job-1"}))
	lease, err := q.Dequeue(ctx)
	require.NoError(t, err)

	require.NoError(t, q.Nack(ctx, lease.ID))

	redelivered, err := q.Dequeue(ctx)
	require.NoError(t, err)
	require.NotNil(t, redelivered)
	assert.Equal(t, "job-1", redelivered.Message.JobID)
}

func TestQueue_ExpiredLeaseIsRedelivered(t *testing.T) {
	q := memory.New(10 * time.Millisecond)
	ctx := context.Background()

	require.NoError(t, q.Enqueue(ctx, models.QueueMessage{JobID: "job-1"}))
	first, err := q.Dequeue(ctx)
	require.NoError(t, err)
	require.NotNil(t, first)

	time.Sleep(20 * time.Millisecond)

	second, err := q.Dequeue(ctx)
	require.NoError(t, err)
	require.NotNil(t, second)
	assert.Equal(t, "job-1", second.Message.JobID)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestQueue_AckUnknownLeaseIsNoOp(t *testing.T) {
	q := memory.New(time.Minute)
	assert.NoError(t, q.Ack(context.Background(), "no-such-lease"))
}
