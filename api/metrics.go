package api

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	todosEventName   = "todos.request"
	todosEventDomain = "todos"
	todosSpanName    = "todos.request"
	tracerName       = "todos-api/api"

	metricsContextKey = "todos.metrics"
)

type requestMetrics struct {
	logger        *log.Logger
	span          trace.Span
	start         time.Time
	route         string
	method        string
	requestID     string
	todoID        string
	todosReturned int
	listed        bool
	errorStage    string
}

func newRequestMetrics(ctx context.Context, logger *log.Logger, method, route string) (*requestMetrics, context.Context) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, todosSpanName, trace.WithSpanKind(trace.SpanKindServer))
	return &requestMetrics{
		logger: logger,
		span:   span,
		start:  time.Now(),
		route:  route,
		method: method,
	}, ctx
}

// metricsFrom returns the metrics recorder attached by RequestMetrics. The
// nil recorder is valid and ignores every call.
func metricsFrom(c echo.Context) *requestMetrics {
	m, _ := c.Get(metricsContextKey).(*requestMetrics)
	return m
}

func (m *requestMetrics) SetTodoID(id string) {
	if m == nil {
		return
	}
	m.todoID = id
}

func (m *requestMetrics) SetTodosReturned(count int) {
	if m == nil {
		return
	}
	if count < 0 {
		count = 0
	}
	m.listed = true
	m.todosReturned = count
}

func (m *requestMetrics) SetErrorStage(stage string) {
	if m == nil || stage == "" {
		return
	}
	m.errorStage = stage
}

func (m *requestMetrics) attributes(status int, err error) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String("http.route", m.route),
		attribute.String("http.request.method", m.method),
		attribute.Int("http.status_code", status),
		attribute.Float64("todos.total_ms", durationToMillis(time.Since(m.start))),
	}
	if m.requestID != "" {
		attrs = append(attrs, attribute.String("http.request_id", m.requestID))
	}
	if m.todoID != "" {
		attrs = append(attrs, attribute.String("todos.todo_id", m.todoID))
	}
	if m.listed {
		attrs = append(attrs, attribute.Int("todos.todos_returned", m.todosReturned))
	}
	if m.errorStage != "" {
		attrs = append(attrs, attribute.String("todos.error_stage", m.errorStage))
	}
	if err != nil {
		attrs = append(attrs, attribute.String("error.message", err.Error()))
	}
	return attrs
}

// Log emits the request as an observability event on both the span and the
// logger, then ends the span.
func (m *requestMetrics) Log(status int, err error) {
	if m == nil {
		return
	}
	severityText, severityNumber := severityForStatus(status, err)
	attrs := m.attributes(status, err)

	if m.span != nil {
		eventAttrs := append([]attribute.KeyValue{
			attribute.String("event.name", todosEventName),
			attribute.String("event.domain", todosEventDomain),
			attribute.String("severity_text", severityText),
			attribute.Int("severity_number", severityNumber),
		}, attrs...)
		m.span.SetAttributes(attrs...)
		m.span.AddEvent("observability.event", trace.WithAttributes(eventAttrs...))
		if severityNumber >= severityError {
			desc := http.StatusText(status)
			if err != nil {
				desc = err.Error()
			}
			m.span.SetStatus(codes.Error, desc)
		} else {
			m.span.SetStatus(codes.Ok, "")
		}
		m.span.End()
	}

	if m.logger == nil {
		return
	}
	attrMap := make(map[string]any, len(attrs))
	for _, kv := range attrs {
		attrMap[string(kv.Key)] = kv.Value.AsInterface()
	}
	fields := log.Fields{
		"event.name":      todosEventName,
		"event.domain":    todosEventDomain,
		"severity_text":   severityText,
		"severity_number": severityNumber,
		"attributes":      attrMap,
	}
	if m.span != nil {
		if sc := m.span.SpanContext(); sc.IsValid() {
			fields["trace_id"] = sc.TraceID().String()
			fields["span_id"] = sc.SpanID().String()
		}
	}
	entry := m.logger.WithFields(fields)
	switch severityNumber {
	case severityError:
		entry.Error("observability.event")
	case severityWarn:
		entry.Warn("observability.event")
	default:
		entry.Info("observability.event")
	}
}

const (
	severityInfo  = 9
	severityWarn  = 13
	severityError = 17
)

func severityForStatus(status int, err error) (string, int) {
	switch {
	case err != nil || status >= http.StatusInternalServerError:
		return "ERROR", severityError
	case status >= http.StatusBadRequest:
		return "WARN", severityWarn
	default:
		return "INFO", severityInfo
	}
}

func durationToMillis(d time.Duration) float64 {
	if d <= 0 {
		return 0
	}
	return float64(d) / float64(time.Millisecond)
}

// RequestMetrics records one observability event per request. Errors
// returned by the rest of the chain are handed to the echo error handler
// first so the logged status is the one actually sent.
func RequestMetrics(logger *log.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			route := c.Path()
			if route == "" {
				route = req.URL.Path
			}
			m, ctx := newRequestMetrics(req.Context(), logger, req.Method, route)
			c.SetRequest(req.WithContext(ctx))
			c.Set(metricsContextKey, m)

			err := next(c)
			if err != nil {
				if m.errorStage == "" {
					m.SetErrorStage(errorStageFor(err))
				}
				c.Error(err)
			}
			m.requestID = c.Response().Header().Get(echo.HeaderXRequestID)
			m.Log(c.Response().Status, internalOnly(err))
			return nil
		}
	}
}

func errorStageFor(err error) string {
	if he, ok := err.(*echo.HTTPError); ok && he.Code < http.StatusInternalServerError {
		if he.Code == http.StatusNotFound || he.Code == http.StatusMethodNotAllowed {
			return "route"
		}
		return "request"
	}
	return "internal"
}

// internalOnly drops routing and client errors so they log at their
// response severity instead of as internal faults.
func internalOnly(err error) error {
	if he, ok := err.(*echo.HTTPError); ok && he.Code < http.StatusInternalServerError {
		return nil
	}
	return err
}
