package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/nexlearn/exam-engine/internal/config"
	"github.com/nexlearn/exam-engine/internal/metrics"
	"github.com/nexlearn/exam-engine/internal/model"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	ResultBatchSize    = 50
	ResultBatchTimeout = 2 * time.Second
	ResultPollTimeout  = 1 * time.Second
	// MaxResultRetries is how many failed inserts a payload survives before
	// it is parked on the dead-letter list.
	MaxResultRetries = 5
)

// AttemptStore persists attempts. *repository.AttemptRepository satisfies it.
type AttemptStore interface {
	BulkInsert(ctx context.Context, batch []*model.Attempt) error
	Insert(ctx context.Context, a *model.Attempt) error
}

// attemptQueue is the Redis side of the worker.
type attemptQueue interface {
	// Pop waits up to timeout for one payload. It returns redis.Nil when
	// nothing arrived.
	Pop(ctx context.Context, timeout time.Duration) ([]byte, error)
	Push(ctx context.Context, raw []byte) error
	DeadLetter(ctx context.Context, raw []byte) error
	// Invalidate drops cached result lists of the given candidates.
	Invalidate(ctx context.Context, candidateIDs []int64)
}

type redisQueue struct {
	rdb *redis.Client
}

func (q redisQueue) Pop(ctx context.Context, timeout time.Duration) ([]byte, error) {
	item, err := q.rdb.BLPop(ctx, timeout, config.WorkerKey.PersistAttemptsQueue).Result()
	if err != nil {
		return nil, err
	}
	if len(item) < 2 {
		return nil, redis.Nil
	}
	return []byte(item[1]), nil
}

func (q redisQueue) Push(ctx context.Context, raw []byte) error {
	return q.rdb.RPush(ctx, config.WorkerKey.PersistAttemptsQueue, raw).Err()
}

func (q redisQueue) DeadLetter(ctx context.Context, raw []byte) error {
	return q.rdb.RPush(ctx, config.WorkerKey.DeadAttemptsQueue, raw).Err()
}

func (q redisQueue) Invalidate(ctx context.Context, candidateIDs []int64) {
	pipe := q.rdb.Pipeline()
	for _, id := range candidateIDs {
		pipe.Del(ctx, config.CacheKey.CandidateAttemptsKey(id))
	}
	_, _ = pipe.Exec(ctx)
}

// ResultWorker drains submitted sessions from Redis into PostgreSQL.
type ResultWorker struct {
	store AttemptStore
	queue attemptQueue
	log   zerolog.Logger
}

func NewResultWorker(store AttemptStore, rdb *redis.Client, log zerolog.Logger) *ResultWorker {
	return &ResultWorker{
		store: store,
		queue: redisQueue{rdb: rdb},
		log:   log.With().Str("component", "result_worker").Logger(),
	}
}

// ----------------------------------------------------------------
// Worker loop with batching
// ----------------------------------------------------------------

func (w *ResultWorker) Start(ctx context.Context) {
	w.log.Info().Msg("ResultWorker started")

	batch := make([]pending, 0, ResultBatchSize)
	lastFlush := time.Now()

	for {
		if len(batch) > 0 &&
			(len(batch) >= ResultBatchSize || time.Since(lastFlush) >= ResultBatchTimeout) {

			w.flushSafe(ctx, batch)
			batch = batch[:0]
			lastFlush = time.Now()
		}

		select {
		case <-ctx.Done():
			w.log.Info().Int("pending", len(batch)).Msg("Shutdown requested. Flushing remaining batch...")
			w.flushSafe(context.Background(), batch)
			return

		default:
			raw, err := w.queue.Pop(ctx, ResultPollTimeout)
			if err != nil {
				if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
					w.log.Error().Err(err).Msg("BLPop error")
				}
				continue
			}

			p, err := decodePending(raw)
			if err != nil {
				w.log.Error().Err(err).Msg("Invalid attempt payload, dropping")
				continue
			}
			batch = append(batch, p)
		}
	}
}

// pending keeps the queued payload so a failed row can be pushed back with
// its retry count.
type pending struct {
	attempt *model.Attempt
	payload model.AttemptPayload
}

func decodePending(raw []byte) (pending, error) {
	var p model.AttemptPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return pending{}, err
	}
	a, err := p.ToAttempt()
	if err != nil {
		return pending{}, err
	}
	return pending{attempt: a, payload: p}, nil
}

// ----------------------------------------------------------------
// Bulk insert with per-row fallback
// ----------------------------------------------------------------

func (w *ResultWorker) flushSafe(ctx context.Context, batch []pending) {
	if len(batch) == 0 {
		return
	}

	rows := make([]*model.Attempt, len(batch))
	for i, p := range batch {
		rows[i] = p.attempt
	}

	err := w.store.BulkInsert(ctx, rows)
	if err == nil {
		metrics.AttemptsPersisted.WithLabelValues("bulk").Add(float64(len(rows)))
		w.queue.Invalidate(ctx, candidates(rows))
		return
	}
	w.log.Warn().Err(err).Int("size", len(rows)).Msg("Bulk attempt insert failed, using fallback")

	saved := make([]*model.Attempt, 0, len(batch))
	for _, p := range batch {
		if err := w.store.Insert(ctx, p.attempt); err != nil {
			w.retry(ctx, p, err)
			continue
		}
		saved = append(saved, p.attempt)
	}
	if len(saved) > 0 {
		metrics.AttemptsPersisted.WithLabelValues("single").Add(float64(len(saved)))
		w.queue.Invalidate(ctx, candidates(saved))
	}
}

// retry requeues a row that failed to insert, or parks it on the dead-letter
// list once it has failed MaxResultRetries times.
func (w *ResultWorker) retry(ctx context.Context, p pending, cause error) {
	p.payload.Retries++
	log := w.log.With().
		Str("attempt_id", p.attempt.ID.String()).
		Int("retries", p.payload.Retries).
		Logger()

	raw, err := json.Marshal(p.payload)
	if err != nil {
		log.Error().Err(err).Msg("Encode attempt failed, attempt lost")
		return
	}

	if p.payload.Retries >= MaxResultRetries {
		log.Error().Err(cause).Msg("Insert keeps failing, moving attempt to dead letter")
		metrics.AttemptsDeadLettered.Inc()
		if err := w.queue.DeadLetter(ctx, raw); err != nil {
			log.Error().Err(err).Msg("Dead letter failed, attempt lost")
		}
		return
	}

	log.Warn().Err(cause).Msg("Insert failed, requeueing")
	if err := w.queue.Push(ctx, raw); err != nil {
		log.Error().Err(err).Msg("Requeue failed, attempt lost")
	}
}

func candidates(batch []*model.Attempt) []int64 {
	seen := make(map[int64]struct{}, len(batch))
	ids := make([]int64, 0, len(batch))
	for _, a := range batch {
		if _, ok := seen[a.CandidateID]; ok {
			continue
		}
		seen[a.CandidateID] = struct{}{}
		ids = append(ids, a.CandidateID)
	}
	return ids
}
