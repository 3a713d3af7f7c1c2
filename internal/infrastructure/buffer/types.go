package buffer

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Item is a task event waiting to be redelivered to the broker.
type Item struct {
	ID      string          `json:"id"`
	Event   string          `json:"event"`
	TaskID  int64           `json:"task_id"`
	Data    json.RawMessage `json:"data"`
	Retries int             `json:"retries"`

	// Timestamp orders the queue and moves forward on every requeue.
	Timestamp  time.Time `json:"timestamp"`
	// EnqueuedAt is set once, when the event is first parked.
	EnqueuedAt time.Time `json:"enqueued_at"`

	bucketKey []byte
}

func (i *Item) normalize() {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	if i.Timestamp.IsZero() {
		i.Timestamp = time.Now()
	}
	if i.EnqueuedAt.IsZero() {
		i.EnqueuedAt = i.Timestamp
	}
}
