package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

var (
	Logger *logrus.Logger // Main logger instance
	mu     sync.Mutex
)

// Options controls how Initialize configures the main logger
type Options struct {
	Level string // DEBUG, INFO, WARN, ERROR
	Dir   string // when set, application logs also go to <Dir>/os-assistant.log
}

// Initialize sets up the logger with proper configuration
func Initialize(opts Options) {
	mu.Lock()
	defer mu.Unlock()

	l := logrus.New()
	level := ParseLevel(opts.Level)
	l.SetLevel(level)
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
		DisableColors:   true,
	})

	var out io.Writer = os.Stdout
	logFile := ""
	if opts.Dir != "" {
		if err := os.MkdirAll(opts.Dir, 0755); err != nil {
			fmt.Printf("Failed to create logs directory: %v\n", err)
		} else {
			logFile = filepath.Join(opts.Dir, "os-assistant.log")
			f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
			if err != nil {
				fmt.Printf("Failed to open log file: %v\n", err)
				logFile = ""
			} else {
				out = io.MultiWriter(os.Stdout, f)
				l.SetReportCaller(true)
			}
		}
	}
	l.SetOutput(out)

	Logger = l

	Logger.WithFields(logrus.Fields{
		"log_level": level.String(),
		"log_file":  logFile,
	}).Info("Logging system initialized")
}

// ParseLevel maps LOG_LEVEL values to logrus levels, defaulting to info
func ParseLevel(s string) logrus.Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return logrus.DebugLevel
	case "INFO":
		return logrus.InfoLevel
	case "WARN", "WARNING":
		return logrus.WarnLevel
	case "ERROR":
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

// GetLogger returns the configured main logger instance.
// Without Initialize it falls back to a stderr logger at info level.
func GetLogger() *logrus.Logger {
	mu.Lock()
	defer mu.Unlock()
	if Logger == nil {
		Logger = logrus.New()
		Logger.SetOutput(os.Stderr)
		Logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, TimestampFormat: time.RFC3339})
	}
	return Logger
}

// WithContext creates a logger with additional context fields
func WithContext(fields map[string]interface{}) *logrus.Entry {
	return GetLogger().WithFields(fields)
}

// WithComponent creates a logger scoped to one component of the pipeline
func WithComponent(component string) *logrus.Entry {
	return GetLogger().WithField("component", component)
}

// WithCase creates a logger with case context
func WithCase(caseID uint) *logrus.Entry {
	return GetLogger().WithFields(logrus.Fields{
		"case_id":   caseID,
		"component": "knowledge_service",
	})
}

// WithError creates a logger with error context
func WithError(err error, component string) *logrus.Entry {
	fields := logrus.Fields{
		"error":     err.Error(),
		"component": component,
	}

	// Add stack trace for debug level
	if GetLogger().GetLevel() >= logrus.DebugLevel {
		fields["stack_trace"] = getStackTrace()
	}

	return GetLogger().WithFields(fields)
}

// getStackTrace returns a formatted stack trace
func getStackTrace() string {
	var stack []string
	for i := 2; i < 10; i++ {
		if pc, file, line, ok := runtime.Caller(i); ok {
			fn := runtime.FuncForPC(pc)
			stack = append(stack, fmt.Sprintf("%s:%d %s", file, line, fn.Name()))
		}
	}
	return strings.Join(stack, "\n")
}

// Log levels convenience functions (with fields)
func Debug(msg string, fields map[string]interface{}) {
	GetLogger().WithFields(fields).Debug(msg)
}

func Info(msg string, fields map[string]interface{}) {
	GetLogger().WithFields(fields).Info(msg)
}

func Warn(msg string, fields map[string]interface{}) {
	GetLogger().WithFields(fields).Warn(msg)
}

func Error(msg string, fields map[string]interface{}) {
	GetLogger().WithFields(fields).Error(msg)
}

func Fatal(msg string, fields map[string]interface{}) {
	GetLogger().WithFields(fields).Fatal(msg)
}
