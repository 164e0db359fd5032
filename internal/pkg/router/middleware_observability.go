package router

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/shandysiswandi/safex/internal/pkg/config"
	"github.com/shandysiswandi/safex/internal/pkg/instrument"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

// maxLoggedBody caps request and response bodies kept for logging. The
// handlers here only ever exchange small JSON documents.
const maxLoggedBody = 4 << 10

// matchedRoutePath returns the registered pattern, or the raw path when no
// route matched.
func matchedRoutePath(r *http.Request) string {
	if pattern := httprouter.ParamsFromContext(r.Context()).MatchedRoutePath(); pattern != "" {
		return pattern
	}
	return r.URL.Path
}

// responseRecorder captures the status, size and head of the body.
type responseRecorder struct {
	http.ResponseWriter
	status int
	size   int
	head   bytes.Buffer
	err    error
}

func (w *responseRecorder) WriteHeader(code int) {
	if w.status == 0 {
		w.status = code
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *responseRecorder) Write(p []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	if room := maxLoggedBody - w.head.Len(); room > 0 {
		w.head.Write(p[:min(room, len(p))])
	}
	n, err := w.ResponseWriter.Write(p)
	w.size += n
	return n, err
}

// SetError lets the endpoint adapter hand the handler error to the span.
func (w *responseRecorder) SetError(err error) { w.err = err }

func (w *responseRecorder) statusCode() int {
	if w.status == 0 {
		return http.StatusOK
	}
	return w.status
}

// peekBody returns the head of the request body and restores it for the handler.
func peekBody(r *http.Request) string {
	if r.Body == nil || r.Body == http.NoBody {
		return ""
	}
	head, _ := io.ReadAll(io.LimitReader(r.Body, maxLoggedBody)) //nolint:errcheck // logging only
	r.Body = io.NopCloser(io.MultiReader(bytes.NewReader(head), r.Body))
	return string(head)
}

// redactHeaders masks header values whose lower-cased name is listed in
// instrument.log_mask_fields. JSON bodies are masked by the slog handler.
func redactHeaders(h http.Header, cfg config.Config) http.Header {
	if cfg == nil {
		return h
	}
	out := h.Clone()
	for _, field := range cfg.GetArray("instrument.log_mask_fields") {
		if key := http.CanonicalHeaderKey(strings.TrimSpace(field)); out.Get(key) != "" {
			out.Set(key, "***")
		}
	}
	return out
}

func logLevelFor(status int) slog.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return slog.LevelError
	case status >= http.StatusBadRequest:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}

func middlewareObservability(cfg config.Config, ins instrument.Instrumentation) Middleware {
	tracer := ins.Tracer("http.server")
	meter := ins.Meter("http.server")

	requests, err := meter.Int64Counter("http.server.requests", metric.WithDescription("HTTP requests by route and status"))
	if err != nil {
		slog.Error("failed to create http request counter", "error", err)
	}
	duration, err := meter.Float64Histogram("http.server.duration", metric.WithDescription("HTTP request duration"), metric.WithUnit("ms"))
	if err != nil {
		slog.Error("failed to create http duration histogram", "error", err)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			route := matchedRoutePath(r)

			ctx, span := tracer.Start(r.Context(), r.Method+" "+route,
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(
					semconv.HTTPRequestMethodKey.String(r.Method),
					semconv.HTTPRouteKey.String(route),
					semconv.ServerAddressKey.String(r.Host),
					semconv.UserAgentOriginal(r.UserAgent()),
				),
			)
			defer span.End()

			slog.InfoContext(ctx, "request received",
				"method", r.Method,
				"path", route,
				"remote_ip", r.RemoteAddr,
				"headers", redactHeaders(r.Header, cfg),
				"body", peekBody(r),
			)

			rec := &responseRecorder{ResponseWriter: w}
			next.ServeHTTP(rec, r.WithContext(ctx))

			status := rec.statusCode()
			elapsed := time.Since(start)
			attrs := metric.WithAttributes(
				semconv.HTTPRequestMethodKey.String(r.Method),
				semconv.HTTPRouteKey.String(route),
				semconv.HTTPResponseStatusCodeKey.Int(status),
			)

			span.SetAttributes(
				semconv.HTTPResponseStatusCodeKey.Int(status),
				attribute.Int("http.response_content_length", rec.size),
			)
			if rec.err != nil {
				span.RecordError(rec.err)
			}
			if status >= http.StatusInternalServerError {
				span.SetStatus(codes.Error, http.StatusText(status))
			}

			if requests != nil {
				requests.Add(ctx, 1, attrs)
			}
			if duration != nil {
				duration.Record(ctx, float64(elapsed.Microseconds())/1000, attrs)
			}

			slog.Log(ctx, logLevelFor(status), "response sent",
				"method", r.Method,
				"path", route,
				"status", status,
				"bytes", rec.size,
				"latency_ms", elapsed.Milliseconds(),
				"body", rec.head.String(),
			)
		})
	}
}
