package interfaces

import (
	"context"

	"github.com/bobmcallan/careerforge/internal/models"
)

// Lease is one claimed delivery of a queue message, held until Ack/Nack or
// its visibility deadline expires and it becomes redeliverable.
type Lease struct {
	ID      string
	Message models.QueueMessage
}

// WorkQueue transports job identifiers from API to orchestrator with
// at-least-once delivery and a visibility lease.
type WorkQueue interface {
	// Enqueue accepts msg for delivery. Ordering across messages is not
	// guaranteed.
	Enqueue(ctx context.Context, msg models.QueueMessage) error

	// Dequeue claims one deliverable message, starting its visibility
	// lease. Returns a nil lease (no error) when the queue is empty.
	Dequeue(ctx context.Context) (*Lease, error)

	// Ack marks lease as delivered; it will not be redelivered.
	Ack(ctx context.Context, leaseID string) error

	// Nack releases lease immediately, making it deliverable again without
	// waiting out the remainder of its visibility window. The orchestrator
	// does not call it: poison messages are acked, and other failures are
	// left to lease expiry.
	Nack(ctx context.Context, leaseID string) error
}
