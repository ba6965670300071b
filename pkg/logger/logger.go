// Package logger provides leveled, colorized logging for the server and tools
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
)

// LogLevel represents the severity of a log line
type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
	FATAL
)

// String returns the level name as printed in log lines
func (l LogLevel) String() string {
	switch l {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	case FATAL:
		return "FATAL"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel converts a level name to a LogLevel, defaulting to INFO
func ParseLevel(name string) LogLevel {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "DEBUG":
		return DEBUG
	case "WARN", "WARNING":
		return WARN
	case "ERROR":
		return ERROR
	case "FATAL":
		return FATAL
	default:
		return INFO
	}
}

var levelColors = map[LogLevel]*color.Color{
	DEBUG: color.New(color.FgWhite),
	INFO:  color.New(color.FgCyan),
	WARN:  color.New(color.FgYellow),
	ERROR: color.New(color.FgRed),
	FATAL: color.New(color.FgRed, color.Bold),
}

var (
	globalMu    sync.RWMutex
	globalLevel = INFO
	exit        = os.Exit
)

// Logger writes leveled lines for a single component
type Logger struct {
	component string
	console   io.Writer
	file      io.WriteCloser
	mu        sync.Mutex
}

// Component loggers
var (
	Server = New("SERVER")
	Game   = New("GAME")
	Client = New("CLIENT")
)

// New creates a logger for the given component writing to stdout
func New(component string) *Logger {
	return &Logger{
		component: component,
		console:   color.Output,
	}
}

// SetGlobalLogLevel sets the minimum level printed by every logger
func SetGlobalLogLevel(level LogLevel) {
	globalMu.Lock()
	globalLevel = level
	globalMu.Unlock()
}

// GetGlobalLogLevel returns the current minimum level
func GetGlobalLogLevel() LogLevel {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalLevel
}

// SetOutput replaces the console writer
func (l *Logger) SetOutput(w io.Writer) {
	l.mu.Lock()
	l.console = w
	l.mu.Unlock()
}

// SetFile mirrors log lines into the given file (appending)
func (l *Logger) SetFile(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}

	l.mu.Lock()
	old := l.file
	l.file = f
	l.mu.Unlock()

	if old != nil {
		old.Close()
	}
	return nil
}

// Close releases the mirrored log file, if any
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

// InitializeFileLogging mirrors every component logger into dir/<component>.log
func InitializeFileLogging(dir string) error {
	for _, l := range []*Logger{Server, Game, Client} {
		name := strings.ToLower(l.component) + ".log"
		if err := l.SetFile(filepath.Join(dir, name)); err != nil {
			return err
		}
	}
	return nil
}

func (l *Logger) Debug(format string, args ...interface{}) { l.log(DEBUG, format, args...) }
func (l *Logger) Info(format string, args ...interface{})  { l.log(INFO, format, args...) }
func (l *Logger) Warn(format string, args ...interface{})  { l.log(WARN, format, args...) }
func (l *Logger) Error(format string, args ...interface{}) { l.log(ERROR, format, args...) }

// Fatal logs the message and terminates the process
func (l *Logger) Fatal(format string, args ...interface{}) {
	l.log(FATAL, format, args...)
	exit(1)
}

func (l *Logger) log(level LogLevel, format string, args ...interface{}) {
	if level < GetGlobalLogLevel() {
		return
	}

	timestamp := time.Now().Format("2006-01-02 15:04:05")
	line := fmt.Sprintf("[%s] [%s] [%s] %s\n", timestamp, level, l.component, fmt.Sprintf(format, args...))

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.console != nil {
		levelColors[level].Fprint(l.console, line)
	}
	if l.file != nil {
		io.WriteString(l.file, line)
	}
}
