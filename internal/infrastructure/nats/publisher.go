package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	natslib "github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/fastygo/taskboard/domain"
	"github.com/fastygo/taskboard/internal/config"
	"github.com/fastygo/taskboard/usecase"
)

// Conn is the part of *nats.Conn the publisher needs.
type Conn interface {
	Publish(subject string, data []byte) error
}

// TaskEvent is the message body published for every task change.
type TaskEvent struct {
	Event      string       `json:"event"`
	TaskID     int64        `json:"task_id"`
	Task       *domain.Task `json:"task,omitempty"`
	OccurredAt time.Time    `json:"occurred_at"`
}

// Publisher sends task events to <prefix>.<event>, e.g. taskboard.task.created.
type Publisher struct {
	conn   Conn
	prefix string
}

func NewPublisher(conn Conn, prefix string) *Publisher {
	return &Publisher{conn: conn, prefix: prefix}
}

// Connect dials NATS with reconnect logging.
func Connect(cfg config.NATSConfig, name string, logger *zap.Logger) (*natslib.Conn, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	return natslib.Connect(cfg.URL,
		natslib.Name(name),
		natslib.MaxReconnects(-1),
		natslib.DisconnectErrHandler(func(_ *natslib.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", zap.Error(err))
			}
		}),
		natslib.ReconnectHandler(func(c *natslib.Conn) {
			logger.Info("nats reconnected", zap.String("url", c.ConnectedUrl()))
		}),
	)
}

// Ping adapts the connection to a monitor check.
func Ping(conn *natslib.Conn) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		if !conn.IsConnected() {
			return natslib.ErrConnectionClosed
		}
		return nil
	}
}

func (p *Publisher) PublishTask(ctx context.Context, event string, task *domain.Task) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if task == nil {
		return domain.ErrInvalidPayload
	}

	msg := TaskEvent{Event: event, TaskID: task.ID, OccurredAt: time.Now().UTC()}
	if event != usecase.EventTaskDeleted {
		msg.Task = task
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return p.conn.Publish(p.subject(event), payload)
}

func (p *Publisher) subject(event string) string {
	if p.prefix == "" {
		return event
	}
	return fmt.Sprintf("%s.%s", p.prefix, event)
}

var _ usecase.EventPublisher = (*Publisher)(nil)
