package instrument

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/samber/lo"
	"go.opentelemetry.io/contrib/bridges/otelslog"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

const masked = "***"

func parseLevel(level string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(level))); err != nil {
		return slog.LevelInfo
	}
	return l
}

// replaceAttr renames the builtin keys to ts/severity and shortens the
// source to "internal/<pkg>/<file>.go:<line>". Frames outside this module
// are dropped.
func replaceAttr(_ []string, a slog.Attr) slog.Attr {
	switch a.Key {
	case slog.TimeKey:
		a.Key = "ts"
	case slog.LevelKey:
		a.Key = "severity"
	case slog.SourceKey:
		src, ok := a.Value.Any().(*slog.Source)
		if !ok {
			return a
		}
		_, rel, found := strings.Cut(src.File, "/internal/")
		if !found {
			return slog.Attr{}
		}
		return slog.String("file", "internal/"+rel+":"+strconv.Itoa(src.Line))
	}
	return a
}

// initLogging installs the process logger: JSON on stdout, plus the OTLP
// bridge when lp is set, wrapped by masking and correlation handlers.
func initLogging(serviceName string, lp *sdklog.LoggerProvider, maskFields []string, level string) {
	var sink slog.Handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:       parseLevel(level),
		AddSource:   true,
		ReplaceAttr: replaceAttr,
	})
	if lp != nil {
		sink = fanout{sink, otelslog.NewHandler(serviceName, otelslog.WithLoggerProvider(lp))}
	}

	slog.SetDefault(slog.New(&contextHandler{
		Handler:     &maskHandler{next: sink, keys: buildMaskKeys(maskFields)},
		serviceName: serviceName,
	}))
}

// contextHandler stamps each record with the correlation id and service.
type contextHandler struct {
	slog.Handler
	serviceName string
}

func (h *contextHandler) Handle(ctx context.Context, r slog.Record) error {
	if cID := GetCorrelationID(ctx); cID != "" {
		r.AddAttrs(slog.String("_cID", cID))
	}
	r.AddAttrs(slog.String("service", h.serviceName))
	return h.Handler.Handle(ctx, r)
}

func (h *contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &contextHandler{Handler: h.Handler.WithAttrs(attrs), serviceName: h.serviceName}
}

func (h *contextHandler) WithGroup(name string) slog.Handler {
	return &contextHandler{Handler: h.Handler.WithGroup(name), serviceName: h.serviceName}
}

// fanout sends every record to each enabled handler.
type fanout []slog.Handler

func (f fanout) Enabled(ctx context.Context, level slog.Level) bool {
	return lo.SomeBy(f, func(h slog.Handler) bool { return h.Enabled(ctx, level) })
}

func (f fanout) Handle(ctx context.Context, r slog.Record) error {
	var first error
	for _, h := range f {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (f fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	return fanout(lo.Map(f, func(h slog.Handler, _ int) slog.Handler { return h.WithAttrs(attrs) }))
}

func (f fanout) WithGroup(name string) slog.Handler {
	return fanout(lo.Map(f, func(h slog.Handler, _ int) slog.Handler { return h.WithGroup(name) }))
}

// maskHandler replaces values of configured keys, including keys nested in
// maps and in JSON-encoded string attributes.
type maskHandler struct {
	next slog.Handler
	keys map[string]struct{}
}

func (h *maskHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *maskHandler) Handle(ctx context.Context, r slog.Record) error {
	if len(h.keys) == 0 {
		return h.next.Handle(ctx, r)
	}

	out := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)
	r.Attrs(func(a slog.Attr) bool {
		out.AddAttrs(maskAttr(a, h.keys))
		return true
	})
	return h.next.Handle(ctx, out)
}

func (h *maskHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(h.keys) > 0 {
		attrs = lo.Map(attrs, func(a slog.Attr, _ int) slog.Attr { return maskAttr(a, h.keys) })
	}
	return &maskHandler{next: h.next.WithAttrs(attrs), keys: h.keys}
}

func (h *maskHandler) WithGroup(name string) slog.Handler {
	return &maskHandler{next: h.next.WithGroup(name), keys: h.keys}
}

func buildMaskKeys(fields []string) map[string]struct{} {
	keys := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if f = strings.ToLower(strings.TrimSpace(f)); f != "" {
			keys[f] = struct{}{}
		}
	}
	return keys
}

func isMasked(key string, keys map[string]struct{}) bool {
	_, ok := keys[strings.ToLower(key)]
	return ok
}

func maskAttr(a slog.Attr, keys map[string]struct{}) slog.Attr {
	if isMasked(a.Key, keys) {
		return slog.String(a.Key, masked)
	}

	switch a.Value.Kind() {
	case slog.KindGroup:
		group := a.Value.Group()
		out := make([]slog.Attr, len(group))
		for i, ga := range group {
			out[i] = maskAttr(ga, keys)
		}
		a.Value = slog.GroupValue(out...)
	case slog.KindString:
		if s, ok := maskJSON(a.Value.String(), keys); ok {
			a.Value = slog.StringValue(s)
		}
	case slog.KindAny:
		switch v := a.Value.Any().(type) {
		case map[string]any, []any:
			a.Value = slog.AnyValue(maskValue(v, keys))
		case map[string]string:
			m := make(map[string]any, len(v))
			for k, s := range v {
				m[k] = s
			}
			a.Value = slog.AnyValue(maskValue(m, keys))
		case []byte:
			if s, ok := maskJSON(string(v), keys); ok {
				a.Value = slog.StringValue(s)
			}
		}
	}
	return a
}

// maskJSON masks s when it holds a JSON object or array.
func maskJSON(s string, keys map[string]struct{}) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" || (s[0] != '{' && s[0] != '[') {
		return "", false
	}
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return "", false
	}
	b, err := json.Marshal(maskValue(v, keys))
	if err != nil {
		return "", false
	}
	return string(b), true
}

func maskValue(v any, keys map[string]struct{}) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, inner := range val {
			if isMasked(k, keys) {
				out[k] = masked
				continue
			}
			out[k] = maskValue(inner, keys)
		}
		return out
	case []any:
		return lo.Map(val, func(inner any, _ int) any { return maskValue(inner, keys) })
	default:
		return v
	}
}
