package logger

import (
	"fmt"
	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

var (
	mu       sync.RWMutex
	level    = "info"
	logsDir  string
	rotating *lumberjack.Logger
)

// Init sets the level and log directory used by every logger created afterwards.
// An empty dir keeps output on the console only.
func Init(lvl, dir string) error {
	mu.Lock()
	defer mu.Unlock()
	level = lvl
	logsDir = dir
	rotating = nil
	if dir == "" {
		return nil
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create logs directory: %w", err)
		}
	}
	rotating = &lumberjack.Logger{
		Filename: filepath.Join(dir, "porlarr.log"),
		MaxSize:  10,
		MaxAge:   15,
		Compress: true,
	}
	return nil
}

// GetLogPath returns the rotating log file, or "" when file logging is off.
func GetLogPath() string {
	mu.RLock()
	defer mu.RUnlock()
	if logsDir == "" {
		return ""
	}
	return filepath.Join(logsDir, "porlarr.log")
}

func writer(prefix string, out io.Writer, noColor bool) zerolog.ConsoleWriter {
	return zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: "2006-01-02 15:04:05",
		NoColor:    noColor,
		FormatLevel: func(i interface{}) string {
			return strings.ToUpper(fmt.Sprintf("| %-6s|", i))
		},
		FormatMessage: func(i interface{}) string {
			return fmt.Sprintf("[%s] %v", prefix, i)
		},
	}
}

func NewLogger(prefix string, lvl string, output io.Writer) zerolog.Logger {
	mu.RLock()
	file := rotating
	mu.RUnlock()

	var w io.Writer = writer(prefix, output, false)
	if file != nil {
		w = zerolog.MultiLevelWriter(writer(prefix, output, false), writer(prefix, file, true))
	}

	l := zerolog.New(w).
		With().
		Timestamp().
		Logger().
		Level(zerolog.InfoLevel)

	switch lvl {
	case "trace":
		l = l.Level(zerolog.TraceLevel)
	case "debug":
		l = l.Level(zerolog.DebugLevel)
	case "info":
		l = l.Level(zerolog.InfoLevel)
	case "warn":
		l = l.Level(zerolog.WarnLevel)
	case "error":
		l = l.Level(zerolog.ErrorLevel)
	}
	return l
}

// New returns a component logger using the level set by Init.
func New(prefix string) zerolog.Logger {
	mu.RLock()
	lvl := level
	mu.RUnlock()
	return NewLogger(prefix, lvl, os.Stdout)
}

func GetDefaultLogger() zerolog.Logger {
	return New("porlarr")
}
