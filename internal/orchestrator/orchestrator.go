package orchestrator

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/bobmcallan/careerforge/internal/common"
	"github.com/bobmcallan/careerforge/internal/interfaces"
	"github.com/bobmcallan/careerforge/internal/orchestrator/events"
	"github.com/bobmcallan/careerforge/internal/specialist"
)

// Orchestrator runs one or more worker loops that dequeue job ids and drive
// them through their plan to a terminal state, generalized from the
// teacher's JobManager.
type Orchestrator struct {
	store       interfaces.JobStore
	queue       interfaces.WorkQueue
	specialists interfaces.Specialists
	dispatcher  *specialist.Dispatcher
	sink        interfaces.Sink
	hub         *events.Hub
	logger      *common.Logger

	jobBudget    time.Duration
	pollInterval time.Duration

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New constructs an Orchestrator. hub may be nil — event broadcast is
// advisory only and never gates job processing.
func New(
	store interfaces.JobStore,
	queue interfaces.WorkQueue,
	specialists interfaces.Specialists,
	dispatcher *specialist.Dispatcher,
	sink interfaces.Sink,
	hub *events.Hub,
	jobBudget time.Duration,
	pollInterval time.Duration,
	logger *common.Logger,
) *Orchestrator {
	return &Orchestrator{
		store:        store,
		queue:        queue,
		specialists:  specialists,
		dispatcher:   dispatcher,
		sink:         sink,
		hub:          hub,
		jobBudget:    jobBudget,
		pollInterval: pollInterval,
		logger:       logger,
	}
}

// safeGo launches a goroutine with panic recovery and logging.
func (o *Orchestrator) safeGo(name string, fn func()) {
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				o.logger.Error().
					Str("goroutine", name).
					Str("panic", fmt.Sprintf("%v", r)).
					Str("stack", string(debug.Stack())).
					Msg("recovered from panic in orchestrator goroutine")
			}
		}()
		fn()
	}()
}

// Start launches workerCount independent worker loops plus the event hub,
// if configured. Safe to call multiple times — stops any existing loops
// first.
func (o *Orchestrator) Start(workerCount int) {
	if o.cancel != nil {
		o.Stop()
	}
	if workerCount <= 0 {
		workerCount = 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	o.cancel = cancel

	if o.hub != nil {
		o.safeGo("event-hub", func() { o.hub.Run() })
	}

	for i := 0; i < workerCount; i++ {
		name := fmt.Sprintf("worker-%d", i)
		o.safeGo(name, func() { o.Run(ctx) })
	}

	o.logger.Info().Int("workers", workerCount).Msg("orchestrator started")
}

// Stop cancels all worker loops and waits for them to exit.
func (o *Orchestrator) Stop() {
	if o.cancel != nil {
		o.cancel()
		o.cancel = nil
	}
	if o.hub != nil {
		o.hub.Stop()
	}
	o.wg.Wait()
	o.logger.Info().Msg("orchestrator stopped")
}

// Run is the main loop: continuously dequeue a message, process the
// job it names, and acknowledge the message only once processing reached a
// terminal state. It blocks until ctx is canceled.
func (o *Orchestrator) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		lease, err := o.queue.Dequeue(ctx)
		if err != nil {
			o.logger.Warn().Err(err).Msg("dequeue error")
			if !o.sleep(ctx) {
				return
			}
			continue
		}
		if lease == nil {
			if !o.sleep(ctx) {
				return
			}
			continue
		}

		ack, procErr := o.processJob(ctx, lease.Message.JobID)
		if procErr != nil {
			o.logger.Warn().Str("job_id", lease.Message.JobID).Err(procErr).Msg("job processing error")
		}

		if ack {
			if err := o.queue.Ack(ctx, lease.ID); err != nil {
				o.logger.Warn().Str("job_id", lease.Message.JobID).Err(err).Msg("failed to ack message")
			}
		}
		// Leaving the lease un-acked lets the visibility timeout expire and
		// redeliver the message — no explicit Nack here, since the failure
		// was in our own infrastructure (e.g. StoreUnavailable), not in the
		// message itself.
	}
}

// sleep waits pollInterval or until ctx is done, returning false if ctx
// ended the wait.
func (o *Orchestrator) sleep(ctx context.Context) bool {
	interval := o.pollInterval
	if interval <= 0 {
		interval = time.Second
	}
	select {
	case <-ctx.Done():
		return false
	case <-time.After(interval):
		return true
	}
}
