package observability

import (
	"fmt"
	"log"
	"os"
	"time"
)

// LogLevel represents logging levels.
type LogLevel int

const (
	LogLevelDebug LogLevel = iota
	LogLevelInfo
	LogLevelWarn
	LogLevelError
)

var (
	currentLogLevel = LogLevelInfo
	debugEnabled    = false
)

func init() {
	if os.Getenv("DEBUG") != "" || os.Getenv("RULEENGINE_DEBUG") != "" {
		currentLogLevel = LogLevelDebug
		debugEnabled = true
		log.Println("debug logging enabled")
	}
}

// Debug logs debug-level messages (only if DEBUG/RULEENGINE_DEBUG is set).
func Debug(format string, args ...interface{}) {
	if currentLogLevel <= LogLevelDebug {
		logAt("DEBUG", format, args...)
	}
}

// Info logs info-level messages.
func Info(format string, args ...interface{}) {
	if currentLogLevel <= LogLevelInfo {
		logAt("INFO", format, args...)
	}
}

// Warn logs warning-level messages.
func Warn(format string, args ...interface{}) {
	if currentLogLevel <= LogLevelWarn {
		logAt("WARN", format, args...)
	}
}

// Error logs error-level messages.
func Error(format string, args ...interface{}) {
	if currentLogLevel <= LogLevelError {
		logAt("ERROR", format, args...)
	}
}

func logAt(level, format string, args ...interface{}) {
	timestamp := time.Now().Format("2006/01/02 15:04:05.000")
	message := fmt.Sprintf(format, args...)
	log.Printf("%s [%s] %s", timestamp, level, message)
}

// IsDebugEnabled reports whether debug logging is active.
func IsDebugEnabled() bool {
	return debugEnabled
}
