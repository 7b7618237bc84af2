// Package learning consumes assistant learning jobs from pgmq and folds them
// into each user's learning data.
package learning

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"complianceai/internal/model"
	"complianceai/internal/pgmq"
	"complianceai/internal/repository"

	"github.com/rs/zerolog"
)

// visibilitySec keeps a read job hidden from other workers while it is
// processed. A job that is neither deleted nor dead-lettered reappears after
// it and is retried.
const visibilitySec = 60

// Queue is the subset of the pgmq client the worker uses.
type Queue interface {
	ReadWithPoll(ctx context.Context, queue string, visibilitySec, timeoutSec, maxMessages int) ([]*pgmq.Message, error)
	Delete(ctx context.Context, queue string, msgIDs []int64) error
}

// Applier applies one job. service.MemoryService satisfies it.
type Applier interface {
	ApplyLearning(ctx context.Context, job model.LearningJob) error
}

// Settings tune the worker.
type Settings struct {
	QueueName      string
	PollTimeoutSec int
	PollMaxMsg     int
	MaxRetries     int
}

type Worker struct {
	queue    Queue
	applier  Applier
	dlq      repository.DLQRepository
	settings Settings
	sleep    func(context.Context, time.Duration)
	logger   zerolog.Logger
}

func NewWorker(queue Queue, applier Applier, dlq repository.DLQRepository, settings Settings, logger zerolog.Logger) *Worker {
	if settings.PollMaxMsg <= 0 {
		settings.PollMaxMsg = 1
	}
	if settings.MaxRetries <= 0 {
		settings.MaxRetries = 1
	}
	return &Worker{
		queue:    queue,
		applier:  applier,
		dlq:      dlq,
		settings: settings,
		sleep:    sleepCtx,
		logger:   logger.With().Str("orchestrator", "learning").Str("queue", settings.QueueName).Logger(),
	}
}

// Run polls until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Info().Msg("Starting learning orchestrator")
	for {
		select {
		case <-ctx.Done():
			w.logger.Info().Msg("Shutting down learning orchestrator")
			return nil
		default:
		}

		if _, err := w.ProcessBatch(ctx); err != nil {
			if errors.Is(err, context.Canceled) {
				continue
			}
			w.logger.Error().Err(err).Msg("Error reading learning queue")
			w.sleep(ctx, time.Second)
		}
	}
}

// ProcessBatch reads one batch and handles every message in it. It returns
// how many jobs were applied.
func (w *Worker) ProcessBatch(ctx context.Context) (int, error) {
	msgs, err := w.queue.ReadWithPoll(ctx, w.settings.QueueName, visibilitySec, w.settings.PollTimeoutSec, w.settings.PollMaxMsg)
	if err != nil {
		return 0, err
	}
	applied := 0
	for _, msg := range msgs {
		if w.handle(ctx, msg) {
			applied++
		}
	}
	return applied, nil
}

func (w *Worker) handle(ctx context.Context, msg *pgmq.Message) bool {
	log := w.logger.With().Int64("msg_id", msg.ID).Int("read_count", msg.ReadCount).Logger()

	var job model.LearningJob
	if err := json.Unmarshal(msg.Data, &job); err != nil || job.UserID == "" {
		if err == nil {
			err = errors.New("job has no user_id")
		}
		log.Error().Err(err).Msg("Invalid learning payload; moving to DLQ")
		w.deadLetter(ctx, msg, err)
		return false
	}

	if err := w.applier.ApplyLearning(ctx, job); err != nil {
		if msg.ReadCount >= w.settings.MaxRetries {
			log.Warn().Err(err).Str("user_id", job.UserID).Int("attempts", msg.ReadCount).Msg("Exhausted learning retries; moving job to DLQ")
			w.deadLetter(ctx, msg, err)
			return false
		}
		log.Error().Err(err).Str("user_id", job.UserID).Msg("Failed to apply learning job; will retry")
		return false
	}

	w.ack(ctx, msg.ID)
	log.Debug().Str("user_id", job.UserID).Msg("Applied learning job")
	return true
}

// deadLetter parks msg and removes it from the queue. The message stays
// queued if it could not be parked.
func (w *Worker) deadLetter(ctx context.Context, msg *pgmq.Message, cause error) {
	payload := string(msg.Data)
	if !json.Valid(msg.Data) {
		raw, _ := json.Marshal(payload)
		payload = string(raw)
	}
	err := w.dlq.Create(ctx, &model.DeadLetterMessage{
		QueueName: w.settings.QueueName,
		MessageID: msg.ID,
		Payload:   payload,
		LastError: cause.Error(),
		ReadCount: msg.ReadCount,
	})
	if err != nil {
		w.logger.Error().Err(err).Int64("msg_id", msg.ID).Msg("Failed to store dead letter")
		return
	}
	w.ack(ctx, msg.ID)
}

func (w *Worker) ack(ctx context.Context, id int64) {
	if err := w.queue.Delete(ctx, w.settings.QueueName, []int64{id}); err != nil {
		w.logger.Error().Err(err).Int64("msg_id", id).Msg("Error deleting learning message")
	}
}

func sleepCtx(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
