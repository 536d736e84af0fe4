// Package logging adapts logrus to the key/value Logger contract used by the
// registry service, with optional size-rotated file output.
package logging

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

// Config selects level, format and destination.
type Config struct {
	// Level is one of error, warn, info, debug, trace.
	Level string `mapstructure:"level"`
	// Format is text or json.
	Format string `mapstructure:"format"`
	// Output is stderr, stdout or file.
	Output     string     `mapstructure:"output"`
	TimeFormat string     `mapstructure:"time_format"`
	UTC        bool       `mapstructure:"utc"`
	File       FileConfig `mapstructure:"file"`
}

// FileConfig configures rotation when Output is file.
type FileConfig struct {
	Filename   string `mapstructure:"filename"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// Defaults apply to every zero field of a Config.
var Defaults = Config{
	Level:      "info",
	Format:     "text",
	Output:     "stderr",
	TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	UTC:        true,
	File: FileConfig{
		Filename:   "agritrace.log",
		MaxSizeMB:  100,
		MaxBackups: 2,
		MaxAgeDays: 1,
		Compress:   true,
	},
}

// Logger is a logrus entry with Debug/Info/Warn/Error taking alternating
// key/value pairs.
type Logger struct {
	entry  *logrus.Entry
	closer io.Closer
}

// New builds a logger from cfg. Close releases the log file, if any.
func New(cfg Config) *Logger {
	cfg = withDefaults(cfg)
	var (
		out    io.Writer = os.Stderr
		closer io.Closer
	)
	switch strings.ToLower(cfg.Output) {
	case "stdout":
		out = os.Stdout
	case "file":
		lj := &lumberjack.Logger{
			Filename:   cfg.File.Filename,
			MaxSize:    cfg.File.MaxSizeMB,
			MaxBackups: cfg.File.MaxBackups,
			MaxAge:     cfg.File.MaxAgeDays,
			Compress:   cfg.File.Compress,
		}
		out, closer = lj, lj
	}
	l := NewWithWriter(cfg, out)
	l.closer = closer
	return l
}

// NewWithWriter builds a logger that writes to w regardless of cfg.Output.
func NewWithWriter(cfg Config, w io.Writer) *Logger {
	cfg = withDefaults(cfg)
	base := logrus.New()
	base.SetOutput(w)
	base.SetLevel(ParseLevel(cfg.Level))
	base.SetFormatter(formatter(cfg))
	return &Logger{entry: logrus.NewEntry(base)}
}

// Discard returns a logger that drops everything.
func Discard() *Logger {
	return NewWithWriter(Config{Level: "error"}, io.Discard)
}

func withDefaults(cfg Config) Config {
	if cfg.Level == "" {
		cfg.Level = Defaults.Level
	}
	if cfg.Format == "" {
		cfg.Format = Defaults.Format
	}
	if cfg.Output == "" {
		cfg.Output = Defaults.Output
	}
	if cfg.TimeFormat == "" {
		cfg.TimeFormat = Defaults.TimeFormat
	}
	f := &cfg.File
	if f.Filename == "" {
		f.Filename = Defaults.File.Filename
	}
	if f.MaxSizeMB <= 0 {
		f.MaxSizeMB = Defaults.File.MaxSizeMB
	}
	if f.MaxBackups < 0 {
		f.MaxBackups = Defaults.File.MaxBackups
	}
	if f.MaxAgeDays <= 0 {
		f.MaxAgeDays = Defaults.File.MaxAgeDays
	}
	return cfg
}

// ParseLevel maps a level name to logrus, defaulting to info.
func ParseLevel(level string) logrus.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "error":
		return logrus.ErrorLevel
	case "warn", "warning":
		return logrus.WarnLevel
	case "debug":
		return logrus.DebugLevel
	case "trace":
		return logrus.TraceLevel
	default:
		return logrus.InfoLevel
	}
}

type utcFormat struct {
	f logrus.Formatter
}

func (u *utcFormat) Format(e *logrus.Entry) ([]byte, error) {
	e.Time = e.Time.UTC()
	return u.f.Format(e)
}

func formatter(cfg Config) logrus.Formatter {
	var f logrus.Formatter
	switch strings.ToLower(cfg.Format) {
	case "json":
		f = &logrus.JSONFormatter{
			TimestampFormat: cfg.TimeFormat,
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime: "@timestamp",
				logrus.FieldKeyMsg:  "message",
			},
		}
	default:
		f = &logrus.TextFormatter{
			DisableColors:   true,
			FullTimestamp:   true,
			TimestampFormat: cfg.TimeFormat,
		}
	}
	if cfg.UTC {
		f = &utcFormat{f: f}
	}
	return f
}

// Entry exposes the underlying logrus entry.
func (l *Logger) Entry() *logrus.Entry { return l.entry }

// Level reports the configured level name.
func (l *Logger) Level() string { return l.entry.Logger.GetLevel().String() }

// With returns a child logger carrying the given key/value pairs.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{entry: l.entry.WithFields(fields(args)), closer: l.closer}
}

func (l *Logger) Debug(msg string, args ...any) { l.log(logrus.DebugLevel, msg, args) }
func (l *Logger) Info(msg string, args ...any)  { l.log(logrus.InfoLevel, msg, args) }
func (l *Logger) Warn(msg string, args ...any)  { l.log(logrus.WarnLevel, msg, args) }
func (l *Logger) Error(msg string, args ...any) { l.log(logrus.ErrorLevel, msg, args) }

func (l *Logger) log(level logrus.Level, msg string, args []any) {
	if !l.entry.Logger.IsLevelEnabled(level) {
		return
	}
	l.entry.WithFields(fields(args)).Log(level, msg)
}

// Close releases the rotating log file. It is a no-op for stream output.
func (l *Logger) Close() error {
	if l.closer == nil {
		return nil
	}
	return l.closer.Close()
}

const badKey = "!BADKEY"

// fields pairs up args. A trailing value without a key is kept under
// !BADKEY.
func fields(args []any) logrus.Fields {
	out := make(logrus.Fields, (len(args)+1)/2)
	for i := 0; i < len(args); i += 2 {
		if i+1 == len(args) {
			out[badKey] = fieldValue(args[i])
			break
		}
		key, ok := args[i].(string)
		if !ok {
			key = fmt.Sprint(args[i])
		}
		out[key] = fieldValue(args[i+1])
	}
	return out
}

func fieldValue(v any) any {
	switch x := v.(type) {
	case error:
		return x.Error()
	case fmt.Stringer:
		return x.String()
	default:
		return v
	}
}

type ctxLogKey struct{}

// WithLogger stores logger on ctx.
func WithLogger(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, ctxLogKey{}, logger)
}

// WithLogField adds key=value to the context logger. Long values are cut
// at 61 characters.
func WithLogField(ctx context.Context, key, value string) context.Context {
	if len(value) > 61 {
		value = value[0:61] + "..."
	}
	return WithLogger(ctx, L(ctx).With(key, value))
}

var root = New(Config{})

// L returns the context logger, or the stderr root logger.
func L(ctx context.Context) *Logger {
	if l, ok := ctx.Value(ctxLogKey{}).(*Logger); ok && l != nil {
		return l
	}
	return root
}
