// Package memory implements the Work Queue in-process, used for
// fast orchestrator tests that do not need a real Redis connection.
package memory

import (
	"container/list"
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bobmcallan/careerforge/internal/interfaces"
	"github.com/bobmcallan/careerforge/internal/models"
)

type inflightEntry struct {
	message  models.QueueMessage
	deadline time.Time
}

// Queue is a mutex-guarded, in-memory implementation of interfaces.WorkQueue.
type Queue struct {
	mu                sync.Mutex
	pending           *list.List // of models.QueueMessage
	inflight          map[string]inflightEntry
	visibilityTimeout time.Duration
}

// New constructs an empty Queue with the given visibility timeout.
func New(visibilityTimeout time.Duration) *Queue {
	return &Queue{
		pending:           list.New(),
		inflight:          make(map[string]inflightEntry),
		visibilityTimeout: visibilityTimeout,
	}
}

// Enqueue implements interfaces.WorkQueue.
func (q *Queue) Enqueue(_ context.Context, msg models.QueueMessage) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pending.PushBack(msg)
	return nil
}

// Dequeue implements interfaces.WorkQueue.
func (q *Queue) Dequeue(_ context.Context) (*interfaces.Lease, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.reclaimExpiredLocked()

	front := q.pending.Front()
	if front == nil {
		return nil, nil
	}
	q.pending.Remove(front)
	msg := front.Value.(models.QueueMessage)

	leaseID := uuid.New().String()
	q.inflight[leaseID] = inflightEntry{message: msg, deadline: time.Now().Add(q.visibilityTimeout)}

	return &interfaces.Lease{ID: leaseID, Message: msg}, nil
}

// Ack implements interfaces.WorkQueue.
func (q *Queue) Ack(_ context.Context, leaseID string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	delete(q.inflight, leaseID)
	return nil
}

// Nack implements interfaces.WorkQueue.
func (q *Queue) Nack(_ context.Context, leaseID string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	entry, ok := q.inflight[leaseID]
	if !ok {
		return nil
	}
	delete(q.inflight, leaseID)
	q.pending.PushBack(entry.message)
	return nil
}

// reclaimExpiredLocked moves every lease past its visibility deadline back
// onto pending. Callers must hold q.mu.
func (q *Queue) reclaimExpiredLocked() {
	now := time.Now()
	for leaseID, entry := range q.inflight {
		if now.After(entry.deadline) {
			delete(q.inflight, leaseID)
			q.pending.PushBack(entry.message)
		}
	}
}

var _ interfaces.WorkQueue = (*Queue)(nil)
