package router

import (
	"encoding/json"
	"net/http"

	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/pprofhandler"
	"go.uber.org/zap"

	apiHandler "github.com/fastygo/taskboard/api/handler"
	"github.com/fastygo/taskboard/api/transport"
	"github.com/fastygo/taskboard/internal/middleware"
)

// APIPrefix is the root every task route hangs off.
const APIPrefix = "/api"

type Handlers struct {
	Task   *apiHandler.TaskHandler
	Health *apiHandler.HealthHandler
}

// Options toggles the operational endpoints. A nil Metrics disables /metrics.
type Options struct {
	Metrics     *middleware.Metrics
	EnablePprof bool
	Logger      *zap.Logger
}

// New builds the routing table and wraps it with access logging.
func New(handlers Handlers, opts Options) fasthttp.RequestHandler {
	r := router.New()
	r.RedirectTrailingSlash = false
	r.NotFound = jsonError(http.StatusNotFound, "not found")
	r.MethodNotAllowed = jsonError(http.StatusMethodNotAllowed, "method not allowed")

	m := opts.Metrics

	if handlers.Health != nil {
		r.GET("/health", m.Instrument("health", handlers.Health.Check))
	}

	api := r.Group(APIPrefix)
	api.GET("/tasks", m.Instrument("tasks.list", handlers.Task.GetTasks))
	api.POST("/tasks", m.Instrument("tasks.create", handlers.Task.CreateTask))
	api.GET("/tasks/{id}", m.Instrument("tasks.get", handlers.Task.GetTask))
	api.PUT("/tasks/{id}", m.Instrument("tasks.update", handlers.Task.UpdateTask))
	api.PATCH("/tasks/{id}", m.Instrument("tasks.patch", handlers.Task.PatchTask))
	api.DELETE("/tasks/{id}", m.Instrument("tasks.delete", handlers.Task.DeleteTask))

	if m != nil {
		r.GET("/metrics", m.Handler())
	}
	if opts.EnablePprof {
		r.GET("/debug/pprof/{profile:*}", pprofhandler.PprofHandler)
	}

	return middleware.AccessLog(opts.Logger)(r.Handler)
}

func jsonError(status int, message string) fasthttp.RequestHandler {
	body, _ := json.Marshal(transport.NewError(message))
	return func(ctx *fasthttp.RequestCtx) {
		ctx.Response.Header.SetContentType("application/json")
		ctx.SetStatusCode(status)
		ctx.SetBody(body)
	}
}
