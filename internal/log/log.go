package log

import (
	"context"
	"io"
	"log/slog"

	"github.com/go-logr/logr"
	"github.com/samber/lo"
)

var discardLogger = New(io.Discard)

func New(w io.Writer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			return lo.Ternary(a.Key == slog.TimeKey, slog.Attr{}, a)
		},
	}))
}

// NewContext stores logger so that both FromContextOrDiscard and
// logr.FromContextOrDiscard find it.
func NewContext(ctx context.Context, logger *slog.Logger) context.Context {
	return logr.NewContextWithSlogLogger(ctx, logger)
}

func FromContextOrDiscard(ctx context.Context) *slog.Logger {
	if v := logr.FromContextAsSlogLogger(ctx); v != nil {
		return v
	}
	return discardLogger
}
