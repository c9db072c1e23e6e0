package log

import (
	"context"
	"log/slog"

	"github.com/cockroachdb/errors"

	yerrors "github.com/YuminosukeSato/yieldengine/pkg/errors"
)

// ErrFmtHandler decorates records that carry an error under ErrAttrKey with
// the cockroachdb stacktrace and, for a ConfigurationError, the offending
// model and trial.
type ErrFmtHandler struct {
	handler slog.Handler
}

// WrapByErrFmtHandler wraps handler with ErrFmtHandler.
func WrapByErrFmtHandler(handler slog.Handler) slog.Handler {
	return &ErrFmtHandler{handler: handler}
}

func (eh *ErrFmtHandler) Enabled(ctx context.Context, l slog.Level) bool {
	return eh.handler.Enabled(ctx, l)
}

func (eh *ErrFmtHandler) Handle(ctx context.Context, r slog.Record) error {
	var extra []slog.Attr
	r.Attrs(func(attr slog.Attr) bool {
		if attr.Key != ErrAttrKey {
			return true
		}
		if err, ok := attr.Value.Any().(error); ok {
			extra = errorAttrs(err)
		}
		return false
	})
	if len(extra) > 0 {
		r.AddAttrs(extra...)
	}
	return eh.handler.Handle(ctx, r)
}

func (eh *ErrFmtHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ErrFmtHandler{handler: eh.handler.WithAttrs(attrs)}
}

func (eh *ErrFmtHandler) WithGroup(g string) slog.Handler {
	return &ErrFmtHandler{handler: eh.handler.WithGroup(g)}
}

func errorAttrs(err error) []slog.Attr {
	var attrs []slog.Attr
	if st := extractStacktrace(err); st != "" {
		attrs = append(attrs, slog.String(StacktraceAttrKey, st))
	}
	var ce *yerrors.ConfigurationError
	if errors.As(err, &ce) {
		if ce.Model != "" {
			attrs = append(attrs, slog.String(ModelNameKey, ce.Model))
		}
		if ce.Trial >= 0 {
			attrs = append(attrs, slog.Int(TrialKey, ce.Trial))
		}
	}
	return attrs
}

func extractStacktrace(err error) string {
	safeDetails := errors.GetSafeDetails(err).SafeDetails
	if len(safeDetails) > 0 {
		return safeDetails[0]
	}
	return ""
}
