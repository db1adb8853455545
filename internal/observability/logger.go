package observability

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

type Logger struct {
	log    *slog.Logger
	closer io.Closer
}

// NewLogger пишет в stderr и, если logPath задан, в ротируемый файл.
func NewLogger(logPath, logLevel string) *Logger {
	var w io.Writer = os.Stderr
	var closer io.Closer

	if logPath != "" {
		file := &lumberjack.Logger{
			Filename:   logPath,
			MaxSize:    10,
			MaxBackups: 3,
			MaxAge:     28,
			Compress:   true,
		}
		w = io.MultiWriter(os.Stderr, file)
		closer = file
	}

	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: ParseLevel(logLevel)})
	return &Logger{log: slog.New(handler), closer: closer}
}

// NewWriterLogger is used by tests and by callers that capture output.
func NewWriterLogger(w io.Writer, logLevel string) *Logger {
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: ParseLevel(logLevel)})
	return &Logger{log: slog.New(handler)}
}

// Nop discards everything.
func Nop() *Logger {
	return NewWriterLogger(io.Discard, "error")
}

func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (l *Logger) With(fields ...interface{}) *Logger {
	return &Logger{log: l.log.With(fields...), closer: l.closer}
}

func (l *Logger) Debug(msg string, fields ...interface{}) {
	l.log.Debug(msg, fields...)
}

func (l *Logger) Info(msg string, fields ...interface{}) {
	l.log.Info(msg, fields...)
}

func (l *Logger) Warn(msg string, fields ...interface{}) {
	l.log.Warn(msg, fields...)
}

func (l *Logger) Error(msg string, fields ...interface{}) {
	l.log.Error(msg, fields...)
}

// Slog отдаёт нижележащий *slog.Logger для библиотек, которые его принимают.
func (l *Logger) Slog() *slog.Logger {
	return l.log
}

func (l *Logger) Close() error {
	if l.closer != nil {
		return l.closer.Close()
	}
	return nil
}
