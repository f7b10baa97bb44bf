package logger

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime"
	"strings"
	"time"
)

// Value written instead of credentials that end up in log attributes
const redacted = "[REDACTED]"

// Attribute keys that may carry passwords, tokens or signing secrets
var sensitiveKeys = map[string]struct{}{
	"password":      {},
	"old_password":  {},
	"new_password":  {},
	"token":         {},
	"access_token":  {},
	"refresh_token": {},
	"secret":        {},
	"authorization": {},
	"cookie":        {},
}

type slogLogger struct {
	logger *slog.Logger
}

// log skips this method and the exported wrapper, so source points to the caller
func (l *slogLogger) log(level slog.Level, msg string, args ...any) {
	ctx := context.Background()
	if !l.logger.Enabled(ctx, level) {
		return
	}

	var pcs [1]uintptr
	runtime.Callers(3, pcs[:])

	record := slog.NewRecord(time.Now(), level, msg, pcs[0])
	record.Add(args...)
	_ = l.logger.Handler().Handle(ctx, record)
}

func (l *slogLogger) Debug(msg string, args ...any) { l.log(slog.LevelDebug, msg, args...) }
func (l *slogLogger) Info(msg string, args ...any)  { l.log(slog.LevelInfo, msg, args...) }
func (l *slogLogger) Warn(msg string, args ...any)  { l.log(slog.LevelWarn, msg, args...) }
func (l *slogLogger) Error(msg string, args ...any) { l.log(slog.LevelError, msg, args...) }

func (l *slogLogger) With(args ...any) Logger {
	return &slogLogger{logger: l.logger.With(args...)}
}

func (l *slogLogger) WithGroup(name string) Logger {
	return &slogLogger{logger: l.logger.WithGroup(name)}
}

// parseLevel reads LOG_LEVEL value, "warning" is accepted as an alias of "warn"
func parseLevel(value string) (slog.Level, error) {
	name := strings.ToLower(strings.TrimSpace(value))
	if name == "warning" {
		name = LevelWarn
	}

	var level slog.Level
	switch name {
	case LevelDebug, LevelInfo, LevelWarn, LevelError:
		if err := level.UnmarshalText([]byte(name)); err != nil {
			return slog.LevelInfo, err
		}
		return level, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q, expected one of: %s, %s, %s, %s",
			value, LevelDebug, LevelInfo, LevelWarn, LevelError)
	}
}

// replace trims source path to file name and hides credentials
func replace(_ []string, a slog.Attr) slog.Attr {
	if a.Key == slog.SourceKey {
		if source, ok := a.Value.Any().(*slog.Source); ok {
			source.File = filepath.Base(source.File)
		}
		return a
	}

	if _, ok := sensitiveKeys[strings.ToLower(a.Key)]; ok {
		return slog.String(a.Key, redacted)
	}
	return a
}
