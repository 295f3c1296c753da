// Package redis implements the Work Queue against Redis, using a
// pending sorted set, an in-flight sorted set of lease deadlines and
// lease/message hashes to give at-least-once delivery with
// visibility-timeout leases.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/bobmcallan/careerforge/internal/common"
	"github.com/bobmcallan/careerforge/internal/interfaces"
	"github.com/bobmcallan/careerforge/internal/models"
)

const (
	pendingKey  = "careerforge:queue:pending"  // ZSET: message id -> enqueue time score
	messagesKey = "careerforge:queue:messages" // HASH: message id -> encoded models.QueueMessage
	inflightKey = "careerforge:queue:inflight" // ZSET: lease id -> visibility deadline score
	leaseKey    = "careerforge:queue:leases"   // HASH: lease id -> message id
)

// Queue implements interfaces.WorkQueue against Redis.
type Queue struct {
	client            *goredis.Client
	visibilityTimeout time.Duration
	logger            *common.Logger
}

// New connects to Redis per config.
func New(ctx context.Context, config *common.QueueConfig, logger *common.Logger) (*Queue, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     config.Address,
		Password: config.Password,
		DB:       config.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info().
		Str("address", config.Address).
		Str("visibility_timeout", config.GetVisibilityTimeout().String()).
		Msg("work queue connected")

	return &Queue{
		client:            client,
		visibilityTimeout: config.GetVisibilityTimeout(),
		logger:            logger,
	}, nil
}

// NewWithClient wraps an already-constructed client — used by tests against
// miniredis and by callers that need custom connection options.
func NewWithClient(client *goredis.Client, visibilityTimeout time.Duration, logger *common.Logger) *Queue {
	return &Queue{client: client, visibilityTimeout: visibilityTimeout, logger: logger}
}

// Close disconnects from Redis.
func (q *Queue) Close() error {
	return q.client.Close()
}

// Enqueue implements interfaces.WorkQueue.
func (q *Queue) Enqueue(ctx context.Context, msg models.QueueMessage) error {
	id := uuid.New().String()
	encoded, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal queue message: %w", err)
	}

	pipe := q.client.TxPipeline()
	pipe.HSet(ctx, messagesKey, id, encoded)
	pipe.ZAdd(ctx, pendingKey, goredis.Z{Score: float64(time.Now().UnixNano()), Member: id})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("enqueue message: %w", err)
	}
	return nil
}

// Dequeue implements interfaces.WorkQueue. It first reclaims any in-flight
// lease whose visibility deadline has passed, then claims the oldest
// pending message by moving its id from pending to in-flight under a fresh
// lease id.
func (q *Queue) Dequeue(ctx context.Context) (*interfaces.Lease, error) {
	if err := q.reclaimExpired(ctx); err != nil {
		return nil, err
	}

	ids, err := q.client.ZRangeWithScores(ctx, pendingKey, 0, 0).Result()
	if err != nil {
		return nil, fmt.Errorf("dequeue: scan pending: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	msgID := ids[0].Member.(string)
	removed, err := q.client.ZRem(ctx, pendingKey, msgID).Result()
	if err != nil {
		return nil, fmt.Errorf("dequeue: claim message: %w", err)
	}
	if removed == 0 {
		// Another dequeuer claimed it between the scan and the removal.
		return nil, nil
	}

	encoded, err := q.client.HGet(ctx, messagesKey, msgID).Result()
	if err != nil {
		return nil, fmt.Errorf("dequeue: load message %s: %w", msgID, err)
	}
	var msg models.QueueMessage
	if err := json.Unmarshal([]byte(encoded), &msg); err != nil {
		return nil, fmt.Errorf("dequeue: decode message %s: %w", msgID, err)
	}

	leaseID := uuid.New().String()
	deadline := time.Now().Add(q.visibilityTimeout)

	pipe := q.client.TxPipeline()
	pipe.HSet(ctx, leaseKey, leaseID, msgID)
	pipe.ZAdd(ctx, inflightKey, goredis.Z{Score: float64(deadline.UnixNano()), Member: leaseID})
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("dequeue: start lease: %w", err)
	}

	return &interfaces.Lease{ID: leaseID, Message: msg}, nil
}

// Ack implements interfaces.WorkQueue.
func (q *Queue) Ack(ctx context.Context, leaseID string) error {
	msgID, err := q.client.HGet(ctx, leaseKey, leaseID).Result()
	if err == goredis.Nil {
		return nil // already acked, or lease expired and message redelivered
	}
	if err != nil {
		return fmt.Errorf("ack: load lease %s: %w", leaseID, err)
	}

	pipe := q.client.TxPipeline()
	pipe.HDel(ctx, leaseKey, leaseID)
	pipe.ZRem(ctx, inflightKey, leaseID)
	pipe.HDel(ctx, messagesKey, msgID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("ack: clear lease %s: %w", leaseID, err)
	}
	return nil
}

// Nack implements interfaces.WorkQueue. It releases the lease and returns
// the message to pending immediately, without waiting out the remaining
// visibility window.
func (q *Queue) Nack(ctx context.Context, leaseID string) error {
	msgID, err := q.client.HGet(ctx, leaseKey, leaseID).Result()
	if err == goredis.Nil {
		return nil
	}
	if err != nil {
		return fmt.Errorf("nack: load lease %s: %w", leaseID, err)
	}

	pipe := q.client.TxPipeline()
	pipe.HDel(ctx, leaseKey, leaseID)
	pipe.ZRem(ctx, inflightKey, leaseID)
	pipe.ZAdd(ctx, pendingKey, goredis.Z{Score: float64(time.Now().UnixNano()), Member: msgID})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("nack: requeue message for lease %s: %w", leaseID, err)
	}
	return nil
}

// reclaimExpired moves every lease whose visibility deadline has passed
// back onto the pending set, making it deliverable again per the
// at-least-once redelivery guarantee.
func (q *Queue) reclaimExpired(ctx context.Context) error {
	now := float64(time.Now().UnixNano())
	expired, err := q.client.ZRangeByScore(ctx, inflightKey, &goredis.ZRangeBy{Min: "-inf", Max: fmt.Sprintf("%f", now)}).Result()
	if err != nil {
		return fmt.Errorf("reclaim expired leases: %w", err)
	}

	for _, leaseID := range expired {
		msgID, err := q.client.HGet(ctx, leaseKey, leaseID).Result()
		if err == goredis.Nil {
			q.client.ZRem(ctx, inflightKey, leaseID)
			continue
		}
		if err != nil {
			return fmt.Errorf("reclaim expired lease %s: %w", leaseID, err)
		}

		pipe := q.client.TxPipeline()
		pipe.HDel(ctx, leaseKey, leaseID)
		pipe.ZRem(ctx, inflightKey, leaseID)
		pipe.ZAdd(ctx, pendingKey, goredis.Z{Score: now, Member: msgID})
		if _, err := pipe.Exec(ctx); err != nil {
			return fmt.Errorf("reclaim expired lease %s: %w", leaseID, err)
		}

		q.logger.Warn().Str("lease_id", leaseID).Str("message_id", msgID).Msg("visibility timeout expired, message redelivered")
	}
	return nil
}

var _ interfaces.WorkQueue = (*Queue)(nil)
