package tasks_test

import (
	"context"
	"net"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"

	apiHandler "github.com/fastygo/taskboard/api/handler"
	"github.com/fastygo/taskboard/api/transport"
	"github.com/fastygo/taskboard/client/taskform"
	"github.com/fastygo/taskboard/client/tasks"
	"github.com/fastygo/taskboard/domain"
	"github.com/fastygo/taskboard/internal/infrastructure/boltdb"
	"github.com/fastygo/taskboard/internal/router"
	"github.com/fastygo/taskboard/pkg/httpcontext"
	boltRepo "github.com/fastygo/taskboard/repository/bolt"
	taskUC "github.com/fastygo/taskboard/usecase/task"
)

func newClient(t *testing.T) *tasks.Client {
	t.Helper()

	db, err := boltdb.Open(filepath.Join(t.TempDir(), "tasks.db"), boltRepo.TasksBucket)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	adapter := httpcontext.NewAdapter(time.Second)
	handler := router.New(router.Handlers{
		Task: apiHandler.NewTaskHandler(taskUC.New(boltRepo.NewTaskRepository(db), nil, nil), adapter, nil),
	}, router.Options{})

	ln := fasthttputil.NewInmemoryListener()
	server := &fasthttp.Server{Handler: handler}
	go func() { _ = server.Serve(ln) }()
	t.Cleanup(func() {
		_ = server.Shutdown()
		_ = ln.Close()
	})

	httpClient := &fasthttp.Client{Dial: func(string) (net.Conn, error) { return ln.Dial() }}
	return tasks.New("http://taskboard/api/", tasks.WithHTTPClient(httpClient))
}

func TestClient_CRUD(t *testing.T) {
	c := newClient(t)
	ctx := context.Background()

	list, err := c.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	created, err := c.Create(ctx, transport.TaskRequest{Title: "Test Task", Description: "A test task", DueDate: "2025-09-30"})
	require.NoError(t, err)
	assert.Positive(t, created.ID)
	assert.Equal(t, domain.PriorityP3, created.Priority)
	assert.False(t, created.IsCompleted())

	got, err := c.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Test Task", got.Title)
	assert.Equal(t, "2025-09-30", got.DueDate)

	updated, err := c.Update(ctx, created.ID, transport.TaskRequest{Title: "Updated", Priority: domain.PriorityP1})
	require.NoError(t, err)
	assert.Equal(t, "Updated", updated.Title)
	assert.Empty(t, updated.Description)
	assert.Equal(t, domain.PriorityP1, updated.Priority)

	done := domain.Complete
	patched, err := c.Patch(ctx, created.ID, domain.TaskPatch{Completed: &done})
	require.NoError(t, err)
	assert.True(t, patched.IsCompleted())
	assert.Equal(t, "Updated", patched.Title)

	require.NoError(t, c.Delete(ctx, created.ID))

	_, err = c.Get(ctx, created.ID)
	assert.True(t, tasks.IsStatus(err, http.StatusNotFound))
}

func TestClient_APIErrors(t *testing.T) {
	c := newClient(t)
	ctx := context.Background()

	_, err := c.Create(ctx, transport.TaskRequest{})
	var apiErr *tasks.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "Title is required", apiErr.Message)

	_, err = c.Create(ctx, transport.TaskRequest{Title: "x", Priority: "P4"})
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Priority must be P1, P2, or P3", apiErr.Message)

	err = c.Delete(ctx, 404)
	assert.True(t, tasks.IsStatus(err, http.StatusNotFound))
}

func TestClient_CanceledContext(t *testing.T) {
	c := newClient(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.List(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFormSaver_CreateThenEdit(t *testing.T) {
	c := newClient(t)
	ctx := context.Background()

	saver := &tasks.FormSaver{Client: c}
	form := taskform.New(saver, nil)
	form.Title = "Test Task"
	form.Description = "A test task"
	form.DueDate = "2025-09-30"
	form.SetPriority(domain.PriorityP1)
	require.NoError(t, form.Submit(ctx))

	require.NotNil(t, saver.Saved)
	created := saver.Saved
	assert.Equal(t, domain.PriorityP1, created.Priority)

	edit := &tasks.FormSaver{Client: c, EditID: created.ID}
	form = taskform.New(edit, created)
	form.Title = "Renamed"
	require.NoError(t, form.Submit(ctx))

	list, err := c.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Renamed", list[0].Title)
	assert.Equal(t, "2025-09-30", list[0].DueDate)
	assert.Equal(t, domain.PriorityP1, list[0].Priority)
}

func TestFormSaver_ServerRejectionKeepsForm(t *testing.T) {
	c := newClient(t)

	form := taskform.New(&tasks.FormSaver{Client: c}, nil)
	form.Title = "bad date"
	form.DueDate = "not a date"

	err := form.Submit(context.Background())
	assert.True(t, tasks.IsStatus(err, http.StatusBadRequest))
	assert.Equal(t, "bad date", form.Title)
	assert.Equal(t, "not a date", form.DueDate)
}

func TestClient_Timeout(t *testing.T) {
	ln := fasthttputil.NewInmemoryListener()
	server := &fasthttp.Server{Handler: func(ctx *fasthttp.RequestCtx) {
		time.Sleep(300 * time.Millisecond)
		ctx.SetBodyString("[]")
	}}
	go func() { _ = server.Serve(ln) }()
	t.Cleanup(func() {
		_ = server.Shutdown()
		_ = ln.Close()
	})
	httpClient := &fasthttp.Client{Dial: func(string) (net.Conn, error) { return ln.Dial() }}

	fast := tasks.New("http://taskboard/api", tasks.WithHTTPClient(httpClient), tasks.WithTimeout(20*time.Millisecond))
	_, err := fast.List(context.Background())
	assert.ErrorIs(t, err, fasthttp.ErrTimeout)

	patient := tasks.New("http://taskboard/api", tasks.WithHTTPClient(httpClient), tasks.WithTimeout(0))
	list, err := patient.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)
}
