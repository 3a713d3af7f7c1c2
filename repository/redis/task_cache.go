package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	redislib "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/fastygo/taskboard/domain"
	"github.com/fastygo/taskboard/repository"
)

type cachedTaskRepository struct {
	next   repository.TaskRepository
	client *redislib.Client
	prefix string
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedTaskRepository wraps next with a Redis read-through cache for
// single-task lookups. Writes go to next first and then evict the cached
// entry. Cache failures are logged and never surface to callers.
func NewCachedTaskRepository(next repository.TaskRepository, client *redislib.Client, ttl time.Duration, logger *zap.Logger) repository.TaskRepository {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &cachedTaskRepository{
		next:   next,
		client: client,
		prefix: "task:",
		ttl:    ttl,
		logger: logger,
	}
}

func (r *cachedTaskRepository) GetByID(ctx context.Context, id int64) (*domain.Task, error) {
	if task, ok := r.load(ctx, id); ok {
		return task, nil
	}

	task, err := r.next.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	r.store(ctx, task)
	return task, nil
}

func (r *cachedTaskRepository) List(ctx context.Context) ([]domain.Task, error) {
	return r.next.List(ctx)
}

func (r *cachedTaskRepository) Create(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	created, err := r.next.Create(ctx, task)
	if err != nil {
		return nil, err
	}
	r.store(ctx, created)
	return created, nil
}

func (r *cachedTaskRepository) Update(ctx context.Context, task *domain.Task) error {
	if err := r.next.Update(ctx, task); err != nil {
		return err
	}
	r.evict(ctx, task.ID)
	return nil
}

func (r *cachedTaskRepository) Delete(ctx context.Context, id int64) error {
	if err := r.next.Delete(ctx, id); err != nil {
		return err
	}
	r.evict(ctx, id)
	return nil
}

func (r *cachedTaskRepository) load(ctx context.Context, id int64) (*domain.Task, bool) {
	result, err := r.client.Get(ctx, r.key(id)).Result()
	if err != nil {
		if !errors.Is(err, redislib.Nil) {
			r.logger.Warn("task cache read failed", zap.Int64("task_id", id), zap.Error(err))
		}
		return nil, false
	}

	var task domain.Task
	if err := json.Unmarshal([]byte(result), &task); err != nil {
		r.logger.Warn("task cache entry corrupt", zap.Int64("task_id", id), zap.Error(err))
		r.evict(ctx, id)
		return nil, false
	}
	return &task, true
}

func (r *cachedTaskRepository) store(ctx context.Context, task *domain.Task) {
	payload, err := json.Marshal(task)
	if err != nil {
		return
	}
	if err := r.client.Set(ctx, r.key(task.ID), payload, r.ttl).Err(); err != nil {
		r.logger.Warn("task cache write failed", zap.Int64("task_id", task.ID), zap.Error(err))
	}
}

func (r *cachedTaskRepository) evict(ctx context.Context, id int64) {
	if err := r.client.Del(ctx, r.key(id)).Err(); err != nil {
		r.logger.Warn("task cache eviction failed", zap.Int64("task_id", id), zap.Error(err))
	}
}

func (r *cachedTaskRepository) key(id int64) string {
	return fmt.Sprintf("%s%d", r.prefix, id)
}
