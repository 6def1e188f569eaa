package extensions

import (
	"context"
	"log/slog"
	"time"

	jotai "github.com/dakom/jotai"
)

// LoggingExtension logs every store operation with its duration and outcome.
//
// Usage:
//
//	handler := slog.NewJSONHandler(os.Stdout, nil)
//	store := jotai.NewStore(jotai.WithExtension(extensions.NewLoggingExtension(handler)))
type LoggingExtension struct {
	jotai.BaseExtension
	logger *slog.Logger
}

// NewLoggingExtension creates a logging extension backed by the given
// slog.Handler. Use NewSilentHandler to suppress output in tests.
func NewLoggingExtension(handler slog.Handler) *LoggingExtension {
	return &LoggingExtension{
		BaseExtension: jotai.NewBaseExtension("logging"),
		logger:        slog.New(handler),
	}
}

func (e *LoggingExtension) Wrap(ctx context.Context, next func() (any, error), op *jotai.Operation) (any, error) {
	start := time.Now()
	result, err := next()
	duration := time.Since(start)

	attrs := []any{
		"operation", string(op.Kind),
		"atom", atomName(op.Atom),
		"duration", duration,
	}

	if err != nil {
		attrs = append(attrs, "error", err.Error())
		e.logger.ErrorContext(ctx, "operation failed", attrs...)
	} else {
		e.logger.DebugContext(ctx, "operation completed", attrs...)
	}

	return result, err
}

func (e *LoggingExtension) OnCleanupError(cleanupErr *jotai.CleanupError) bool {
	e.logger.Warn("cleanup failed",
		"atom", atomName(cleanupErr.Atom),
		"context", cleanupErr.Context,
		"error", cleanupErr.Err.Error(),
	)
	return false
}

func atomName(a jotai.AnyAtom) string {
	if name, ok := jotai.NameTag().Get(a); ok {
		return name
	}
	return "(unnamed)"
}

// SilentHandler is a slog.Handler that discards all log output
type SilentHandler struct{}

// NewSilentHandler creates a new silent log handler
func NewSilentHandler() *SilentHandler {
	return &SilentHandler{}
}

func (h *SilentHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return false
}

func (h *SilentHandler) Handle(ctx context.Context, record slog.Record) error {
	return nil
}

func (h *SilentHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return h
}

func (h *SilentHandler) WithGroup(name string) slog.Handler {
	return h
}
