// Package logger wraps a process-wide charmbracelet logger. Calls made
// before Init are dropped.
package logger

import (
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/flowstate/flowstate/internal/constants"
)

// Logger is the process logger. Nil until Init runs.
var Logger *log.Logger

type Config struct {
	Debug bool
	// LogDir adds a rotating file at LogDir/logs/flowstate.log next to stderr.
	LogDir string
	// JSON emits one JSON object per line for log collectors.
	JSON bool
	// Output replaces stderr. Tests point it at a buffer.
	Output io.Writer
}

// rotation limits for the file sink
const (
	maxFileMB   = 10
	maxFiles    = 3
	maxFileDays = 28
	logFileName = constants.AppName + ".log"
	logSubdir   = "logs"
)

// New builds a logger writing to w without touching the global.
func New(w io.Writer, cfg Config) *log.Logger {
	opts := log.Options{
		Level:           log.InfoLevel,
		Prefix:          constants.AppName,
		ReportTimestamp: true,
		Formatter:       log.TextFormatter,
	}
	if cfg.Debug {
		opts.Level = log.DebugLevel
		opts.ReportCaller = true
	}
	if cfg.JSON {
		opts.Formatter = log.JSONFormatter
	}
	return log.NewWithOptions(w, opts)
}

// Init replaces the global logger.
func Init(cfg Config) error {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	if cfg.LogDir != "" {
		sink, err := fileSink(cfg.LogDir)
		if err != nil {
			return err
		}
		out = io.MultiWriter(out, sink)
	}
	Logger = New(out, cfg)
	return nil
}

func fileSink(root string) (io.Writer, error) {
	dir := filepath.Join(root, logSubdir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &lumberjack.Logger{
		Filename:   filepath.Join(dir, logFileName),
		MaxSize:    maxFileMB,
		MaxBackups: maxFiles,
		MaxAge:     maxFileDays,
		Compress:   true,
	}, nil
}

// With returns a child logger carrying keyvals on every line. Before Init
// it returns a logger that discards everything.
func With(keyvals ...interface{}) *log.Logger {
	if Logger == nil {
		return log.New(io.Discard)
	}
	return Logger.With(keyvals...)
}

func Debug(msg string, keyvals ...interface{}) {
	if Logger != nil {
		Logger.Debug(msg, keyvals...)
	}
}

func Info(msg string, keyvals ...interface{}) {
	if Logger != nil {
		Logger.Info(msg, keyvals...)
	}
}

func Warn(msg string, keyvals ...interface{}) {
	if Logger != nil {
		Logger.Warn(msg, keyvals...)
	}
}

func Error(msg string, keyvals ...interface{}) {
	if Logger != nil {
		Logger.Error(msg, keyvals...)
	}
}

// Fatal logs msg and exits with status 1.
func Fatal(msg string, keyvals ...interface{}) {
	Error(msg, keyvals...)
	os.Exit(1)
}
