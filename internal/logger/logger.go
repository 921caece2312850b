package logger

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

const logFileName = "moviedeck.log"

// Logger wraps zerolog for application logging.
type Logger struct {
	zerolog.Logger
	rotator     *lumberjack.Logger
	broadcaster *LogBroadcaster
	filePath    string
}

// Config holds logger configuration.
type Config struct {
	Level      string
	Format     string // "console" or "json"
	Path       string // directory for log files
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool

	// EnableStreaming keeps recent entries in memory and pushes them to a hub.
	EnableStreaming bool
	BufferSize      int

	// Output overrides stdout as the console destination.
	Output io.Writer
}

// IsDevBuild returns true if running via "go run".
func IsDevBuild() bool {
	exe, err := os.Executable()
	if err != nil {
		return false
	}
	return strings.Contains(exe, "go-build")
}

// New creates a new logger instance.
// Dev builds log at debug level unless trace is configured.
func New(cfg Config) *Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}

	var consoleOutput io.Writer
	if cfg.Format == "json" {
		consoleOutput = out
	} else {
		consoleOutput = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.RFC3339,
		}
	}

	level := parseLevel(cfg.Level)
	if IsDevBuild() && level > zerolog.DebugLevel {
		level = zerolog.DebugLevel
	}

	writers := []io.Writer{consoleOutput}
	l := &Logger{}

	if cfg.Path != "" {
		if err := os.MkdirAll(cfg.Path, 0o755); err == nil {
			l.filePath = filepath.Join(cfg.Path, logFileName)
			l.rotator = &lumberjack.Logger{
				Filename:   l.filePath,
				MaxSize:    withDefault(cfg.MaxSizeMB, 10),
				MaxBackups: withDefault(cfg.MaxBackups, 5),
				MaxAge:     withDefault(cfg.MaxAgeDays, 30),
				Compress:   cfg.Compress,
				LocalTime:  true,
			}
			writers = append(writers, l.rotator)
		}
	}

	if cfg.EnableStreaming {
		// zerolog hands each writer the raw JSON line; the broadcaster parses it.
		l.broadcaster = NewLogBroadcaster(nil, cfg.BufferSize)
		writers = append(writers, l.broadcaster)
	}

	var output io.Writer = consoleOutput
	if len(writers) > 1 {
		output = zerolog.MultiLevelWriter(writers...)
	}

	l.Logger = zerolog.New(output).
		Level(level).
		With().
		Timestamp().
		Logger()

	return l
}

func withDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

// Close closes the log file if one is open.
func (l *Logger) Close() error {
	if l.rotator != nil {
		return l.rotator.Close()
	}
	return nil
}

// SetBroadcastHub attaches the hub that receives streamed log entries.
func (l *Logger) SetBroadcastHub(hub Broadcaster) {
	if l.broadcaster != nil {
		l.broadcaster.SetHub(hub)
	}
}

// GetRecentLogs returns the buffered log entries, oldest first.
func (l *Logger) GetRecentLogs() []LogEntry {
	if l.broadcaster == nil {
		return []LogEntry{}
	}
	return l.broadcaster.GetRecentLogs()
}

// GetLogFilePath returns the active log file path, or "" when logging to console only.
func (l *Logger) GetLogFilePath() string {
	return l.filePath
}

// parseLevel converts string level to zerolog.Level
func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "fatal":
		return zerolog.FatalLevel
	default:
		return zerolog.InfoLevel
	}
}

// WithComponent returns a new logger with component field.
func (l *Logger) WithComponent(component string) zerolog.Logger {
	return l.Logger.With().Str("component", component).Logger()
}
