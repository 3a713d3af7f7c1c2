package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/fastygo/taskboard/domain"
	"github.com/fastygo/taskboard/internal/infrastructure/buffer"
	"github.com/fastygo/taskboard/usecase"
)

// OutboxConfig controls how often parked events are retried.
type OutboxConfig struct {
	Interval   time.Duration
	BatchSize  int
	MaxRetries int
	MaxAge     time.Duration
}

// OutboxStore is the queue the outbox parks events in; *buffer.Store
// implements it.
type OutboxStore interface {
	Enqueue(item buffer.Item) error
	GetBatch(limit int) ([]buffer.Item, error)
	Remove(item buffer.Item) error
	Requeue(item buffer.Item) error
	Size() (int, error)
	Cleanup(olderThan time.Time) (int, error)
}

var _ OutboxStore = (*buffer.Store)(nil)

// Outbox publishes task events through next and parks the ones that fail in
// a buffer.Store. A cron job redelivers parked events while the broker is up.
type Outbox struct {
	next   usecase.EventPublisher
	store  OutboxStore
	online func() bool
	logger *zap.Logger
	cron   *cron.Cron
	cfg    OutboxConfig
}

// NewOutbox wires the outbox. online may be nil, meaning always try.
func NewOutbox(
	next usecase.EventPublisher,
	store OutboxStore,
	online func() bool,
	logger *zap.Logger,
	cfg OutboxConfig,
) *Outbox {
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 5
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	o := &Outbox{
		next:   next,
		store:  store,
		online: online,
		logger: logger,
		cfg:    cfg,
		cron:   cron.New(cron.WithSeconds()),
	}

	schedule := fmt.Sprintf("@every %ds", max(int(cfg.Interval.Seconds()), 1))
	_, _ = o.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Interval)
		defer cancel()
		if err := o.Drain(ctx); err != nil {
			o.logger.Error("outbox drain failed", zap.Error(err))
		}
	})

	return o
}

func (o *Outbox) Start() {
	if o == nil || o.cron == nil {
		return
	}
	o.cron.Start()
	o.logger.Info("event outbox started", zap.Int("pending", o.Size()))
}

func (o *Outbox) Stop(ctx context.Context) {
	if o == nil || o.cron == nil {
		return
	}
	stopCtx := o.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
	}
	o.logger.Info("event outbox stopped", zap.Int("pending", o.Size()))
}

// PublishTask delivers immediately when the broker looks healthy and parks
// the event otherwise. It only fails when the event cannot be parked either.
func (o *Outbox) PublishTask(ctx context.Context, event string, task *domain.Task) error {
	if task == nil {
		return domain.ErrInvalidPayload
	}

	if o.isOnline() {
		err := o.next.PublishTask(ctx, event, task)
		if err == nil {
			return nil
		}
		o.logger.Warn("event publish failed, parking in outbox",
			zap.String("event", event),
			zap.Int64("task_id", task.ID),
			zap.Error(err))
	}

	payload, err := json.Marshal(task)
	if err != nil {
		return err
	}
	return o.store.Enqueue(buffer.Item{
		Event:  event,
		TaskID: task.ID,
		Data:   payload,
	})
}

// Drain redelivers one batch of parked events in order.
func (o *Outbox) Drain(ctx context.Context) error {
	if o == nil || o.store == nil {
		return nil
	}
	if !o.isOnline() {
		o.logger.Debug("skipping outbox drain (broker offline)")
		return nil
	}

	if o.cfg.MaxAge > 0 {
		if removed, err := o.store.Cleanup(time.Now().Add(-o.cfg.MaxAge)); err != nil {
			o.logger.Warn("outbox cleanup failed", zap.Error(err))
		} else if removed > 0 {
			o.logger.Warn("dropped expired outbox events", zap.Int("count", removed))
		}
	}

	items, err := o.store.GetBatch(o.cfg.BatchSize)
	if err != nil {
		return err
	}

	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := o.deliver(ctx, item); err != nil {
			o.logger.Error("failed to redeliver event",
				zap.String("item_id", item.ID),
				zap.String("event", item.Event),
				zap.Error(err))

			item.Retries++
			if item.Retries >= o.cfg.MaxRetries {
				o.logger.Warn("dropping event (max retries reached)", zap.String("item_id", item.ID))
				if err := o.store.Remove(item); err != nil {
					o.logger.Error("failed to drop event", zap.String("item_id", item.ID), zap.Error(err))
				}
				continue
			}
			if err := o.store.Requeue(item); err != nil {
				o.logger.Error("failed to requeue event", zap.Error(err))
			}
			continue
		}

		if err := o.store.Remove(item); err != nil {
			o.logger.Warn("failed to purge delivered event", zap.Error(err))
		}
	}
	return nil
}

// Size returns the number of parked events.
func (o *Outbox) Size() int {
	if o == nil || o.store == nil {
		return 0
	}
	size, err := o.store.Size()
	if err != nil {
		return 0
	}
	return size
}

func (o *Outbox) deliver(ctx context.Context, item buffer.Item) error {
	var task domain.Task
	if err := json.Unmarshal(item.Data, &task); err != nil {
		return err
	}
	return o.next.PublishTask(ctx, item.Event, &task)
}

func (o *Outbox) isOnline() bool {
	return o.online == nil || o.online()
}

var _ usecase.EventPublisher = (*Outbox)(nil)
