package handler_test

import (
	"context"
	"encoding/json"
	"net"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"

	apiHandler "github.com/fastygo/taskboard/api/handler"
	"github.com/fastygo/taskboard/internal/infrastructure/boltdb"
	"github.com/fastygo/taskboard/internal/infrastructure/monitor"
	"github.com/fastygo/taskboard/internal/router"
	"github.com/fastygo/taskboard/pkg/httpcontext"
	boltRepo "github.com/fastygo/taskboard/repository/bolt"
	taskUC "github.com/fastygo/taskboard/usecase/task"
)

type testServer struct {
	client *fasthttp.Client
	mon    *monitor.Monitor
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	db, err := boltdb.Open(filepath.Join(t.TempDir(), "tasks.db"), boltRepo.TasksBucket)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	adapter := httpcontext.NewAdapter(time.Second)
	mon := monitor.New("", time.Second, nil)
	mon.Register("bolt", func(ctx context.Context) error { return boltdb.Ping(db) })
	mon.Refresh()

	handler := router.New(router.Handlers{
		Task:   apiHandler.NewTaskHandler(taskUC.New(boltRepo.NewTaskRepository(db), nil, nil), adapter, nil),
		Health: apiHandler.NewHealthHandler(mon, adapter, nil),
	}, router.Options{})

	ln := fasthttputil.NewInmemoryListener()
	server := &fasthttp.Server{Handler: handler}
	go func() { _ = server.Serve(ln) }()
	t.Cleanup(func() {
		_ = server.Shutdown()
		_ = ln.Close()
	})

	return &testServer{
		client: &fasthttp.Client{Dial: func(string) (net.Conn, error) { return ln.Dial() }},
		mon:    mon,
	}
}

type response struct {
	status    int
	body      []byte
	requestID string
}

func (s *testServer) do(t *testing.T, method, path, body string) response {
	t.Helper()
	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	req.Header.SetMethod(method)
	req.SetRequestURI("http://taskboard" + path)
	if body != "" {
		req.Header.SetContentType("application/json")
		req.SetBodyString(body)
	}
	require.NoError(t, s.client.Do(req, resp))

	return response{
		status:    resp.StatusCode(),
		body:      append([]byte(nil), resp.Body()...),
		requestID: string(resp.Header.Peek("X-Request-ID")),
	}
}

func decodeMap(t *testing.T, body []byte) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &out), "body: %s", body)
	return out
}

func TestTasksAPI_Lifecycle(t *testing.T) {
	s := newTestServer(t)

	res := s.do(t, "POST", "/api/tasks", `{"title":"Test Task","description":"A test task","due_date":"2025-09-30"}`)
	require.Equal(t, 201, res.status, "body: %s", res.body)
	created := decodeMap(t, res.body)
	assert.Contains(t, created, "id")
	assert.Equal(t, "Test Task", created["title"])
	assert.Equal(t, "A test task", created["description"])
	assert.Equal(t, "2025-09-30", created["due_date"])
	assert.Equal(t, "P3", created["priority"])
	assert.Equal(t, float64(0), created["completed"])
	id := strconv.FormatInt(int64(created["id"].(float64)), 10)

	res = s.do(t, "GET", "/api/tasks", "")
	require.Equal(t, 200, res.status)
	var list []map[string]interface{}
	require.NoError(t, json.Unmarshal(res.body, &list))
	assert.NotEmpty(t, list)

	res = s.do(t, "GET", "/api/tasks/"+id, "")
	require.Equal(t, 200, res.status)
	assert.Equal(t, created["id"], decodeMap(t, res.body)["id"])

	res = s.do(t, "PUT", "/api/tasks/"+id, `{"title":"Updated Task","description":"Updated","due_date":"2025-10-01","priority":"P1"}`)
	require.Equal(t, 200, res.status, "body: %s", res.body)
	updated := decodeMap(t, res.body)
	assert.Equal(t, "Updated Task", updated["title"])
	assert.Equal(t, "Updated", updated["description"])
	assert.Equal(t, "2025-10-01", updated["due_date"])
	assert.Equal(t, "P1", updated["priority"])

	res = s.do(t, "PATCH", "/api/tasks/"+id, `{"completed":true}`)
	require.Equal(t, 200, res.status, "body: %s", res.body)
	patched := decodeMap(t, res.body)
	assert.Equal(t, float64(1), patched["completed"])
	assert.Equal(t, "Updated Task", patched["title"])
	assert.Equal(t, "P1", patched["priority"])
	assert.Equal(t, "2025-10-01", patched["due_date"])

	res = s.do(t, "DELETE", "/api/tasks/"+id, "")
	assert.Equal(t, 204, res.status)
	assert.Empty(t, res.body)

	res = s.do(t, "GET", "/api/tasks/"+id, "")
	assert.Equal(t, 404, res.status)
	assert.Equal(t, "task not found", decodeMap(t, res.body)["error"])
}

func TestTasksAPI_CustomPriority(t *testing.T) {
	s := newTestServer(t)

	res := s.do(t, "POST", "/api/tasks", `{"title":"Priority Task","description":"P1 task","priority":"P1"}`)
	require.Equal(t, 201, res.status)
	body := decodeMap(t, res.body)
	assert.Equal(t, "P1", body["priority"])
	assert.NotContains(t, body, "due_date")
}

func TestTasksAPI_Validation(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name    string
		method  string
		body    string
		wantErr string
	}{
		{"invalid priority", "POST", `{"title":"Invalid Priority","priority":"P4"}`, "Priority must be P1, P2, or P3"},
		{"missing title", "POST", `{"description":"no title"}`, "Title is required"},
		{"blank title", "POST", `{"title":"   "}`, "Title is required"},
		{"bad date", "POST", `{"title":"x","due_date":"not a date"}`, "Due date must be a valid date"},
		{"malformed json", "POST", `{"title":`, "invalid payload"},
		{"bad completed", "POST", `{"title":"x","completed":"maybe"}`, "Completed must be a boolean"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := s.do(t, tt.method, "/api/tasks", tt.body)
			assert.Equal(t, 400, res.status)
			assert.Equal(t, tt.wantErr, decodeMap(t, res.body)["error"])
		})
	}

	res := s.do(t, "GET", "/api/tasks", "")
	assert.JSONEq(t, `[]`, string(res.body), "rejected requests persist nothing")
}

func TestTasksAPI_UpdateAndPatchValidation(t *testing.T) {
	s := newTestServer(t)

	res := s.do(t, "POST", "/api/tasks", `{"title":"keep me","priority":"P2"}`)
	require.Equal(t, 201, res.status)
	id := strconv.FormatInt(int64(decodeMap(t, res.body)["id"].(float64)), 10)

	res = s.do(t, "PUT", "/api/tasks/"+id, `{"title":"x","priority":"P7"}`)
	assert.Equal(t, 400, res.status)
	assert.Equal(t, "Priority must be P1, P2, or P3", decodeMap(t, res.body)["error"])

	res = s.do(t, "PATCH", "/api/tasks/"+id, `{"priority":"P9"}`)
	assert.Equal(t, 400, res.status)

	res = s.do(t, "GET", "/api/tasks/"+id, "")
	stored := decodeMap(t, res.body)
	assert.Equal(t, "keep me", stored["title"])
	assert.Equal(t, "P2", stored["priority"])
}

func TestTasksAPI_PatchCoercesCompleted(t *testing.T) {
	s := newTestServer(t)

	res := s.do(t, "POST", "/api/tasks", `{"title":"toggle"}`)
	require.Equal(t, 201, res.status)
	id := strconv.FormatInt(int64(decodeMap(t, res.body)["id"].(float64)), 10)

	for _, tc := range []struct {
		body string
		want float64
	}{
		{`{"completed":true}`, 1},
		{`{"completed":false}`, 0},
		{`{"completed":1}`, 1},
		{`{"completed":"0"}`, 0},
		{`{"completed":"true"}`, 1},
	} {
		res := s.do(t, "PATCH", "/api/tasks/"+id, tc.body)
		require.Equal(t, 200, res.status, "body %s", tc.body)
		assert.Equal(t, tc.want, decodeMap(t, res.body)["completed"], "body %s", tc.body)
	}
}

func TestTasksAPI_MissingIDs(t *testing.T) {
	s := newTestServer(t)

	for _, tc := range []struct{ method, path, body string }{
		{"GET", "/api/tasks/999", ""},
		{"PUT", "/api/tasks/999", `{"title":"x"}`},
		{"PATCH", "/api/tasks/999", `{"completed":true}`},
		{"DELETE", "/api/tasks/999", ""},
		{"GET", "/api/tasks/abc", ""},
		{"DELETE", "/api/tasks/-1", ""},
	} {
		res := s.do(t, tc.method, tc.path, tc.body)
		assert.Equal(t, 404, res.status, "%s %s", tc.method, tc.path)
	}
}

func TestTasksAPI_IDsNotReused(t *testing.T) {
	s := newTestServer(t)

	res := s.do(t, "POST", "/api/tasks", `{"title":"first"}`)
	first := decodeMap(t, res.body)["id"].(float64)
	s.do(t, "DELETE", "/api/tasks/"+strconv.FormatInt(int64(first), 10), "")

	res = s.do(t, "POST", "/api/tasks", `{"title":"second"}`)
	second := decodeMap(t, res.body)["id"].(float64)
	assert.Greater(t, second, first)
}

func TestTasksAPI_RequestIDHeader(t *testing.T) {
	s := newTestServer(t)

	res := s.do(t, "GET", "/api/tasks", "")
	assert.NotEmpty(t, res.requestID)

	res = s.do(t, "GET", "/nowhere", "")
	assert.Equal(t, 404, res.status)
	assert.NotEmpty(t, res.requestID)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	res := s.do(t, "GET", "/health", "")
	require.Equal(t, 200, res.status)
	body := decodeMap(t, res.body)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, map[string]interface{}{"bolt": true}, body["services"])

	s.mon.Register("redis", func(ctx context.Context) error { return context.DeadlineExceeded })
	s.mon.Refresh()

	res = s.do(t, "GET", "/health", "")
	assert.Equal(t, 503, res.status)
	assert.Equal(t, "degraded", decodeMap(t, res.body)["status"])
}
