package worker

import (
	"context"
	"encoding/json"
	"time"

	"tillpos/internal/infra"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const QueueLedger = "jobs:ledger"

// Job is the generic envelope for all async tasks.
type Job struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// LedgerJob asks the ledger worker to post external bookkeeping entries for a
// committed sale. The worker re-reads the order, so the job only needs the
// references.
type LedgerJob struct {
	OrderID   uuid.UUID `json:"order_id"`
	SessionID uuid.UUID `json:"session_id"`
	Ticket    int       `json:"ticket"`
}

// Dispatcher enqueues async jobs into Redis lists.
// The worker pool dequeues them via BRPOP. Enqueues go through a circuit
// breaker so a dead Redis fast-fails instead of stalling checkout.
type Dispatcher struct {
	rdb *redis.Client
	cb  *infra.CircuitBreaker
}

func NewDispatcher(rdb *redis.Client) *Dispatcher {
	return &Dispatcher{
		rdb: rdb,
		cb:  infra.NewCircuitBreaker(infra.DefaultCBConfig()),
	}
}

// QueueState reports the circuit breaker state for the health endpoint.
func (d *Dispatcher) QueueState() string {
	return d.cb.State().String()
}

// EnqueueLedgerPosting pushes a ledger job to Redis.
func (d *Dispatcher) EnqueueLedgerPosting(ctx context.Context, payload LedgerJob) error {
	return d.enqueue(ctx, QueueLedger, "ledger", payload)
}

func (d *Dispatcher) enqueue(ctx context.Context, queue, jobType string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	job := Job{Type: jobType, Payload: data}
	encoded, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return d.cb.Execute(func() error {
		return d.rdb.LPush(ctx, queue, encoded).Err()
	})
}

// Handlers holds the concrete job processors, wired at the composition root.
type Handlers struct {
	Ledger *LedgerWorker
}

// StartPool launches numWorkers goroutines consuming the job queues.
// Each goroutine blocks on BRPOP — zero CPU when idle.
func StartPool(ctx context.Context, rdb *redis.Client, handlers *Handlers, numWorkers int) {
	for i := 0; i < numWorkers; i++ {
		go runWorker(ctx, rdb, handlers, i)
	}
	log.Info().Msgf("worker pool started with %d workers", numWorkers)
}

func runWorker(ctx context.Context, rdb *redis.Client, handlers *Handlers, id int) {
	queues := []string{QueueLedger}
	for {
		select {
		case <-ctx.Done():
			log.Info().Msgf("worker %d shutting down", id)
			return
		default:
			// Blocking pop — waits up to 5s then loops to check ctx
			result, err := rdb.BRPop(ctx, 5*time.Second, queues...).Result()
			if err != nil {
				continue // timeout or context cancelled
			}
			if len(result) < 2 {
				continue
			}
			processJob(ctx, rdb, handlers, result[0], result[1])
		}
	}
}

func processJob(ctx context.Context, rdb *redis.Client, handlers *Handlers, queue, raw string) {
	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		log.Error().Str("queue", queue).Err(err).Msg("failed to unmarshal job")
		return
	}

	switch job.Type {
	case "ledger":
		var payload LedgerJob
		if err := json.Unmarshal(job.Payload, &payload); err != nil {
			log.Error().Err(err).Msg("ledger job: bad payload")
			return
		}
		if err := handlers.Ledger.Process(ctx, payload); err != nil {
			log.Error().Err(err).Str("order_id", payload.OrderID.String()).Msg("ledger job failed")
			SendToDLQ(ctx, rdb, queue, job.Type, job.Payload, err.Error())
		}
	default:
		log.Warn().Str("type", job.Type).Str("queue", queue).Msg("unknown job type")
	}
}
