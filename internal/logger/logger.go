package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	mu sync.Mutex

	isDevelopment = false // human-readable console output

	logFile *os.File = nil

	loggers = map[string]zerolog.Logger{}
)

func init() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
}

// GetLogger returns a logger tagged with the given service name. Loggers
// are cached per service so repeated calls are cheap.
func GetLogger(serviceName string) zerolog.Logger {
	mu.Lock()
	defer mu.Unlock()

	if l, ok := loggers[serviceName]; ok {
		return l
	}

	l := newLogger(serviceName)
	loggers[serviceName] = l
	return l
}

func newLogger(serviceName string) zerolog.Logger {
	if !isDevelopment {
		return zerolog.New(os.Stderr).With().Timestamp().Str("service", serviceName).Logger()
	}

	// Development mode: human-readable console output, optionally teed
	// into the configured log file.
	consoleWriter := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339,
		FormatLevel: func(i any) string {
			return strings.ToUpper(fmt.Sprintf("[%5s]", i))
		},
		FormatMessage: func(i any) string {
			return fmt.Sprintf("| %s |", i)
		},
		FormatCaller: func(i any) string {
			return filepath.Base(fmt.Sprintf("%s", i))
		},
		PartsExclude: []string{
			zerolog.TimestampFieldName,
		}}

	var w zerolog.LevelWriter
	if logFile != nil {
		w = zerolog.MultiLevelWriter(consoleWriter, logFile)
	} else {
		w = zerolog.MultiLevelWriter(consoleWriter)
	}
	return zerolog.New(w).Level(zerolog.TraceLevel).With().Timestamp().Str("service", serviceName).Caller().Logger()
}

// SetDevelopment switches subsequently created loggers to human-readable
// console output.
func SetDevelopment(value bool) {
	mu.Lock()
	defer mu.Unlock()
	isDevelopment = value
}

// SetLogFile tees development-mode output into the given file.
func SetLogFile(file *os.File) {
	mu.Lock()
	defer mu.Unlock()
	logFile = file
}
