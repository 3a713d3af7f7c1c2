package task

import (
	"context"

	"go.uber.org/zap"

	"github.com/fastygo/taskboard/domain"
	"github.com/fastygo/taskboard/pkg/logger"
	"github.com/fastygo/taskboard/repository"
	"github.com/fastygo/taskboard/usecase"
)

type UseCase struct {
	tasks  repository.TaskRepository
	events usecase.EventPublisher
	logger *zap.Logger
}

// New builds the task use case. events may be nil.
func New(tasks repository.TaskRepository, events usecase.EventPublisher, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		tasks:  tasks,
		events: events,
		logger: logger,
	}
}

func (uc *UseCase) ListTasks(ctx context.Context) ([]domain.Task, error) {
	return uc.tasks.List(ctx)
}

func (uc *UseCase) GetTask(ctx context.Context, id int64) (*domain.Task, error) {
	return uc.tasks.GetByID(ctx, id)
}

// CreateTask validates the input, applies defaults and persists a new task.
func (uc *UseCase) CreateTask(ctx context.Context, in domain.TaskInput) (*domain.Task, error) {
	task, err := domain.NewTask(in)
	if err != nil {
		return nil, err
	}

	created, err := uc.tasks.Create(ctx, task)
	if err != nil {
		return nil, err
	}
	uc.publish(ctx, usecase.EventTaskCreated, created)
	return created, nil
}

// UpdateTask replaces the writable fields of an existing task.
func (uc *UseCase) UpdateTask(ctx context.Context, id int64, in domain.TaskInput) (*domain.Task, error) {
	task, err := uc.tasks.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := task.Replace(in); err != nil {
		return nil, err
	}
	return uc.save(ctx, task)
}

// PatchTask merges only the fields present in patch.
func (uc *UseCase) PatchTask(ctx context.Context, id int64, patch domain.TaskPatch) (*domain.Task, error) {
	task, err := uc.tasks.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if patch.Empty() {
		return task, nil
	}
	if err := patch.ApplyTo(task); err != nil {
		return nil, err
	}
	return uc.save(ctx, task)
}

func (uc *UseCase) DeleteTask(ctx context.Context, id int64) error {
	if err := uc.tasks.Delete(ctx, id); err != nil {
		return err
	}
	uc.publish(ctx, usecase.EventTaskDeleted, &domain.Task{ID: id})
	return nil
}

func (uc *UseCase) save(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	if err := uc.tasks.Update(ctx, task); err != nil {
		return nil, err
	}
	uc.publish(ctx, usecase.EventTaskUpdated, task)
	return task, nil
}

func (uc *UseCase) publish(ctx context.Context, event string, task *domain.Task) {
	if uc.events == nil {
		return
	}
	if err := uc.events.PublishTask(ctx, event, task); err != nil {
		logger.WithRequestID(ctx, uc.logger).Warn("failed to publish task event",
			zap.String("event", event),
			zap.Int64("task_id", task.ID),
			zap.Error(err))
	}
}
