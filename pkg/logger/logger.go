package logger

import (
	"context"
	"io"
	"os"
	"runtime/debug"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Options configures the structured logger.
type Options struct {
	ServiceName string
	// Level is a zerolog level name; blank or unknown means info.
	Level string
	// WarnStack attaches a stack trace to warn entries as well as errors.
	WarnStack bool
	// Console switches from JSON lines to zerolog's human readable writer.
	Console bool
	Output  io.Writer
}

// Logger writes JSON entries enriched with fields carried on the context.
type Logger struct {
	root      zerolog.Logger
	warnStack bool
}

type fieldsKey struct{}

func New(opts Options) *Logger {
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}
	if opts.Console {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen}
	}
	level := ParseLevel(opts.Level)

	zerolog.TimeFieldFormat = time.RFC3339Nano
	root := zerolog.New(out).Level(level).With().
		Timestamp().
		Str("service", opts.ServiceName).
		Logger()
	return &Logger{root: root, warnStack: opts.WarnStack}
}

// Nop discards everything.
func Nop() *Logger {
	return &Logger{root: zerolog.Nop()}
}

// ParseLevel falls back to info for blank or unknown values.
func ParseLevel(value string) zerolog.Level {
	switch v := strings.ToLower(strings.TrimSpace(value)); v {
	case "":
		return zerolog.InfoLevel
	case "warning":
		return zerolog.WarnLevel
	default:
		lvl, err := zerolog.ParseLevel(v)
		if err != nil || lvl == zerolog.NoLevel {
			return zerolog.InfoLevel
		}
		return lvl
	}
}

func (l *Logger) from(ctx context.Context) zerolog.Logger {
	if ctx != nil {
		if scoped, ok := ctx.Value(fieldsKey{}).(zerolog.Logger); ok {
			return scoped
		}
	}
	return l.root
}

// WithFields returns a context whose entries carry the given fields in
// addition to any already attached.
func (l *Logger) WithFields(ctx context.Context, fields map[string]any) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	scoped := l.from(ctx).With().Fields(fields).Logger()
	return context.WithValue(ctx, fieldsKey{}, scoped)
}

func (l *Logger) WithField(ctx context.Context, key string, value any) context.Context {
	return l.WithFields(ctx, map[string]any{key: value})
}

func (l *Logger) WithRequestID(ctx context.Context, requestID string) context.Context {
	return l.WithField(ctx, "request_id", requestID)
}

func (l *Logger) WithUserID(ctx context.Context, userID string) context.Context {
	return l.WithField(ctx, "user_id", userID)
}

func (l *Logger) WithStoreID(ctx context.Context, storeID string) context.Context {
	return l.WithField(ctx, "store_id", storeID)
}

func (l *Logger) WithOrderID(ctx context.Context, orderID string) context.Context {
	return l.WithField(ctx, "order_id", orderID)
}

// WithGateway tags entries with the payment gateway and its event id.
func (l *Logger) WithGateway(ctx context.Context, gateway, eventID string) context.Context {
	return l.WithFields(ctx, map[string]any{"gateway": gateway, "event_id": eventID})
}

func (l *Logger) Debug(ctx context.Context, msg string) {
	scoped := l.from(ctx)
	scoped.Debug().Msg(msg)
}

func (l *Logger) Info(ctx context.Context, msg string) {
	scoped := l.from(ctx)
	scoped.Info().Msg(msg)
}

func (l *Logger) Warn(ctx context.Context, msg string) {
	scoped := l.from(ctx)
	ev := scoped.Warn()
	if l.warnStack {
		ev = ev.Str("stack", stack())
	}
	ev.Msg(msg)
}

func (l *Logger) Error(ctx context.Context, msg string, err error) {
	scoped := l.from(ctx)
	scoped.Error().Err(err).Str("stack", stack()).Msg(msg)
}

func stack() string {
	return strings.TrimSpace(string(debug.Stack()))
}
