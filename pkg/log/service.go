package log

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	config "github.com/mwantia/photocat/internal/config/server"
	"gopkg.in/natefinch/lumberjack.v2"
)

type LoggerService interface {
	Debug(msg string, args ...any)

	Info(msg string, args ...any)

	Warn(msg string, args ...any)

	Error(msg string, args ...any)

	Fatal(msg string, args ...any)

	Named(name string) LoggerService
}

// LoggerServiceImpl writes printf-style log lines. Loggers derived through
// Named share the writer and its lock, so lines from concurrent scanners and
// reconcilers never interleave.
type LoggerServiceImpl struct {
	cfg   config.LogServerConfig
	name  string
	level LogLevel
	color bool
	out   *output
}

type output struct {
	mutex  sync.Mutex
	writer io.Writer
	exit   func(int)
}

type logEntry struct {
	Timestamp string `json:"timestamp"`
	Level     string `json:"level"`
	Service   string `json:"service,omitempty"`
	Message   string `json:"message"`
}

func NewLoggerService(name string, cfg config.LogServerConfig) LoggerService {
	var writers []io.Writer

	if !cfg.NoTerminal {
		writers = append(writers, os.Stdout)
	}

	if cfg.File != "" {
		writers = append(writers, &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.Rotation.MaxSize,
			MaxBackups: cfg.Rotation.MaxBackups,
			MaxAge:     cfg.Rotation.MaxAge,
			Compress:   cfg.Rotation.Compress,
		})
	}

	if len(writers) == 0 {
		writers = append(writers, os.Stdout)
	}

	// Escape codes would end up in the log file
	color := !cfg.NoTerminal && !cfg.NoColor && cfg.File == ""
	return newLogger(name, cfg, io.MultiWriter(writers...), color)
}

// NewLoggerServiceWithWriter creates a logger that writes only to w
func NewLoggerServiceWithWriter(name string, cfg config.LogServerConfig, w io.Writer) LoggerService {
	return newLogger(name, cfg, w, !cfg.NoColor && !cfg.JSON)
}

func newLogger(name string, cfg config.LogServerConfig, w io.Writer, color bool) *LoggerServiceImpl {
	if cfg.TimeFormat == "" {
		cfg.TimeFormat = time.RFC3339
	}

	return &LoggerServiceImpl{
		cfg:   cfg,
		name:  name,
		level: Parse(cfg.Level),
		color: color,
		out: &output{
			writer: w,
			exit:   os.Exit,
		},
	}
}

// Level returns the minimum level this logger emits
func (impl *LoggerServiceImpl) Level() LogLevel {
	return impl.level
}

func (impl *LoggerServiceImpl) log(level LogLevel, msg string, args ...any) {
	if level < impl.level {
		return
	}

	timestamp := time.Now().Format(impl.cfg.TimeFormat)
	message := fmt.Sprintf(msg, args...)

	var line string
	if impl.cfg.JSON {
		line = impl.formatJSON(timestamp, level, message)
	} else {
		line = impl.formatText(timestamp, level, message)
	}

	impl.out.mutex.Lock()
	fmt.Fprintln(impl.out.writer, line)
	impl.out.mutex.Unlock()

	if level == Fatal {
		impl.out.exit(1)
	}
}

func (impl *LoggerServiceImpl) formatJSON(timestamp string, level LogLevel, message string) string {
	data, err := json.Marshal(logEntry{
		Timestamp: timestamp,
		Level:     level.String(),
		Service:   impl.name,
		Message:   message,
	})
	if err != nil {
		return fmt.Sprintf(`{"level":"ERROR","message":%q}`, err.Error())
	}
	return string(data)
}

func (impl *LoggerServiceImpl) formatText(timestamp string, level LogLevel, message string) string {
	var sb strings.Builder

	if impl.color {
		sb.WriteString(Color(level))
	}
	fmt.Fprintf(&sb, "[%s] %-5s", timestamp, level)
	if impl.name != "" {
		fmt.Fprintf(&sb, " [%s]", impl.name)
	}
	sb.WriteString(" ")
	sb.WriteString(message)
	if impl.color {
		sb.WriteString("\033[0m")
	}

	return sb.String()
}

func (impl *LoggerServiceImpl) Debug(msg string, args ...any) {
	impl.log(Debug, msg, args...)
}

func (impl *LoggerServiceImpl) Info(msg string, args ...any) {
	impl.log(Info, msg, args...)
}

func (impl *LoggerServiceImpl) Warn(msg string, args ...any) {
	impl.log(Warn, msg, args...)
}

func (impl *LoggerServiceImpl) Error(msg string, args ...any) {
	impl.log(Error, msg, args...)
}

// Fatal logs and terminates the process
func (impl *LoggerServiceImpl) Fatal(msg string, args ...any) {
	impl.log(Fatal, msg, args...)
}

func (impl *LoggerServiceImpl) Named(name string) LoggerService {
	if impl.name != "" {
		name = impl.name + "/" + name
	}

	return &LoggerServiceImpl{
		cfg:   impl.cfg,
		name:  name,
		level: impl.level,
		color: impl.color,
		out:   impl.out,
	}
}
