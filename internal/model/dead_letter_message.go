package model

import "time"

// DeadLetterMessage is a queue job that kept failing and was parked for
// manual inspection.
type DeadLetterMessage struct {
	ID        string    `db:"id"`
	QueueName string    `db:"queue_name"`
	MessageID int64     `db:"message_id"`
	Payload   string    `db:"payload"` // raw JSON job
	LastError string    `db:"last_error"`
	ReadCount int       `db:"read_count"`
	CreatedAt time.Time `db:"created_at"`
}
