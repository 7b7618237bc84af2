package service

import (
	"context"

	"complianceai/internal/model"
	"complianceai/internal/pgmq"
)

type pgmqLearningQueue struct {
	client *pgmq.Client
	queue  string
}

// NewPgmqLearningQueue enqueues learning jobs on a pgmq queue.
func NewPgmqLearningQueue(client *pgmq.Client, queue string) LearningQueue {
	return &pgmqLearningQueue{client: client, queue: queue}
}

func (q *pgmqLearningQueue) Enqueue(ctx context.Context, job model.LearningJob) error {
	return q.client.SendJSON(ctx, q.queue, job)
}
