package usecase

import (
	"context"

	"github.com/fastygo/taskboard/domain"
)

const (
	EventTaskCreated = "task.created"
	EventTaskUpdated = "task.updated"
	EventTaskDeleted = "task.deleted"
)

// EventPublisher abstracts the message broker so use cases stay transport-agnostic.
type EventPublisher interface {
	PublishTask(ctx context.Context, event string, task *domain.Task) error
}
