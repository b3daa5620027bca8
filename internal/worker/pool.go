package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	QueueEmail = "jobs:email"

	JobReportEmail = "report_email"

	// MaxJobAttempts is how many times a job runs before it is dead-lettered.
	MaxJobAttempts = 3
)

// ErrQueueUnavailable is returned when jobs are enqueued without Redis.
var ErrQueueUnavailable = errors.New("job queue unavailable")

// Job is the generic envelope for all async tasks.
type Job struct {
	Type     string          `json:"type"`
	Payload  json.RawMessage `json:"payload"`
	Attempts int             `json:"attempts"`
}

// Processor handles one job type. A returned error schedules a retry.
type Processor interface {
	Process(ctx context.Context, payload json.RawMessage) error
}

// Dispatcher enqueues async jobs into Redis lists.
// The worker pool dequeues them via BRPOP.
type Dispatcher struct {
	rdb *redis.Client
}

func NewDispatcher(rdb *redis.Client) *Dispatcher {
	return &Dispatcher{rdb: rdb}
}

// EnqueueReportEmail queues a daily report to be rendered and mailed.
func (d *Dispatcher) EnqueueReportEmail(ctx context.Context, payload ReportEmailPayload) error {
	return d.enqueue(ctx, QueueEmail, JobReportEmail, payload)
}

func (d *Dispatcher) enqueue(ctx context.Context, queue, jobType string, payload interface{}) error {
	if d == nil || d.rdb == nil {
		return ErrQueueUnavailable
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	encoded, err := json.Marshal(Job{Type: jobType, Payload: data})
	if err != nil {
		return err
	}
	return d.rdb.LPush(ctx, queue, encoded).Err()
}

// ── Pool ──────────────────────────────────────────────────────────────────────

// Pool consumes the job queues and routes each job to its Processor.
type Pool struct {
	rdb        *redis.Client
	processors map[string]Processor
	queues     []string
	// requeue and deadLetter default to Redis and are replaced in tests
	requeue    func(ctx context.Context, queue string, job Job) error
	deadLetter func(ctx context.Context, queue string, job Job, reason string)
}

func NewPool(rdb *redis.Client, processors map[string]Processor) *Pool {
	p := &Pool{rdb: rdb, processors: processors, queues: []string{QueueEmail}}
	p.requeue = func(ctx context.Context, queue string, job Job) error {
		encoded, err := json.Marshal(job)
		if err != nil {
			return err
		}
		return rdb.LPush(ctx, queue, encoded).Err()
	}
	p.deadLetter = func(ctx context.Context, queue string, job Job, reason string) {
		SendToDLQ(ctx, rdb, queue, job.Type, job.Payload, reason, job.Attempts)
	}
	return p
}

// Start launches numWorkers goroutines. Each blocks on BRPOP, so idle
// workers cost nothing; all of them exit when ctx is cancelled.
func (p *Pool) Start(ctx context.Context, numWorkers int) {
	if numWorkers < 1 {
		numWorkers = 1
	}
	for i := 0; i < numWorkers; i++ {
		go p.run(ctx, i)
	}
	log.Info().Msgf("worker pool started with %d workers", numWorkers)
}

func (p *Pool) run(ctx context.Context, id int) {
	for {
		select {
		case <-ctx.Done():
			log.Info().Msgf("worker %d shutting down", id)
			return
		default:
			// waits up to 5s then loops to check ctx
			result, err := p.rdb.BRPop(ctx, 5*time.Second, p.queues...).Result()
			if err != nil {
				if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
					log.Warn().Err(err).Int("worker", id).Msg("queue pop failed")
					time.Sleep(time.Second)
				}
				continue
			}
			if len(result) < 2 {
				continue
			}
			p.handle(ctx, result[0], result[1])
		}
	}
}

// handle runs one raw job. Failures are re-queued until MaxJobAttempts, then
// moved to the dead letter queue.
func (p *Pool) handle(ctx context.Context, queue, raw string) {
	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		log.Error().Str("queue", queue).Err(err).Msg("failed to unmarshal job")
		p.deadLetter(ctx, queue, Job{Type: "unknown", Payload: json.RawMessage(fmt.Sprintf("%q", raw))}, "malformed job")
		return
	}
	proc, ok := p.processors[job.Type]
	if !ok {
		p.deadLetter(ctx, queue, job, "no processor for job type")
		return
	}

	job.Attempts++
	err := proc.Process(ctx, job.Payload)
	if err == nil {
		log.Info().Str("type", job.Type).Int("attempt", job.Attempts).Msg("job done")
		return
	}
	if errors.Is(err, ErrPermanent) || job.Attempts >= MaxJobAttempts {
		p.deadLetter(ctx, queue, job, err.Error())
		return
	}
	log.Warn().Err(err).Str("type", job.Type).Int("attempt", job.Attempts).Msg("job failed, re-queued")
	if rerr := p.requeue(ctx, queue, job); rerr != nil {
		log.Error().Err(rerr).Str("type", job.Type).Msg("failed to re-queue job")
	}
}

// ErrPermanent marks a job failure that retrying cannot fix.
var ErrPermanent = errors.New("permanent job failure")
