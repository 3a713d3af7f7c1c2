package lifecycle

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_ShutdownReverseOrder(t *testing.T) {
	m := New(time.Second, nil)
	var order []string

	for _, name := range []string{"store", "cache", "http"} {
		name := name
		m.Register(name, func(ctx context.Context) error {
			order = append(order, name)
			return nil
		})
	}

	require.NoError(t, m.Shutdown(context.Background()))
	assert.Equal(t, []string{"http", "cache", "store"}, order)

	require.NoError(t, m.Shutdown(context.Background()))
	assert.Len(t, order, 3, "hooks run once")
}

func TestManager_ShutdownJoinsErrors(t *testing.T) {
	m := New(time.Second, nil)
	errA := errors.New("a failed")
	errB := errors.New("b failed")
	ran := false

	m.Register("a", func(ctx context.Context) error { return errA })
	m.Register("ok", func(ctx context.Context) error { ran = true; return nil })
	m.Register("b", func(ctx context.Context) error { return errB })

	err := m.Shutdown(context.Background())
	assert.ErrorIs(t, err, errA)
	assert.ErrorIs(t, err, errB)
	assert.True(t, ran)
}

func TestManager_ShutdownDeadline(t *testing.T) {
	m := New(20*time.Millisecond, nil)
	m.Register("slow", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	assert.ErrorIs(t, m.Shutdown(context.Background()), context.DeadlineExceeded)
}

func TestManager_RunFailureCancels(t *testing.T) {
	m := New(time.Second, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	m.Listen(cancel)

	boom := errors.New("listen failed")
	m.Run("http_server", func() error { return boom })

	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("context was not cancelled")
	}
	assert.ErrorIs(t, m.Err(), boom)
	assert.Contains(t, m.Err().Error(), "http_server")
}

func TestManager_RunCleanExit(t *testing.T) {
	m := New(time.Second, nil)
	done := make(chan struct{})
	m.Run("worker", func() error {
		close(done)
		return nil
	})
	<-done
	assert.NoError(t, m.Err())
}
