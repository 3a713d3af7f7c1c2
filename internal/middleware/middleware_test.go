package middleware

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestMetrics_Instrument(t *testing.T) {
	m := NewMetrics("taskboard")
	handler := m.Instrument("tasks.list", func(ctx *fasthttp.RequestCtx) {
		ctx.SetStatusCode(fasthttp.StatusOK)
	})

	var rc fasthttp.RequestCtx
	rc.Request.Header.SetMethod(fasthttp.MethodGet)
	handler(&rc)
	handler(&rc)

	count := testutil.ToFloat64(m.requests.WithLabelValues("tasks.list", "GET", "200"))
	assert.Equal(t, float64(2), count)
}

func TestMetrics_Handler(t *testing.T) {
	m := NewMetrics("taskboard")
	m.Instrument("health", func(ctx *fasthttp.RequestCtx) {})(&fasthttp.RequestCtx{})

	var rc fasthttp.RequestCtx
	rc.Request.SetRequestURI("/metrics")
	m.Handler()(&rc)

	assert.Equal(t, fasthttp.StatusOK, rc.Response.StatusCode())
	assert.True(t, strings.Contains(string(rc.Response.Body()), "taskboard_http_requests_total"))
}

func TestAccessLog(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	handler := AccessLog(zap.New(core))(func(ctx *fasthttp.RequestCtx) {
		ctx.SetStatusCode(fasthttp.StatusInternalServerError)
	})

	var rc fasthttp.RequestCtx
	rc.Request.Header.SetMethod(fasthttp.MethodPost)
	rc.Request.SetRequestURI("/api/tasks")
	handler(&rc)

	assert.NotEmpty(t, rc.Response.Header.Peek("X-Request-ID"))
	entries := logs.FilterMessage("request completed").All()
	if assert.Len(t, entries, 1) {
		assert.Equal(t, zap.WarnLevel, entries[0].Level)
		assert.Equal(t, int64(500), entries[0].ContextMap()["status"])
	}
}
