package cli

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/natefinch/lumberjack"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
)

// SetupLogging creates and configures a logger with the specified level.
// When logFile is set, log lines also go to a rotating file alongside
// stderr. Returns the configured logger for dependency injection.
func SetupLogging(level, logFile string, pretty bool) zerolog.Logger {
	var w io.Writer = os.Stderr
	if pretty {
		w = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}
	}

	if logFile != "" {
		rotor := &lumberjack.Logger{
			Filename:   logFile,
			MaxSize:    100,
			MaxBackups: 3,
			MaxAge:     7,
			Compress:   true,
		}
		w = zerolog.MultiLevelWriter(w, rotor)
	}

	var lvl zerolog.Level
	switch strings.ToLower(level) {
	case "trace":
		lvl = zerolog.TraceLevel
	case "debug":
		lvl = zerolog.DebugLevel
	case "warn", "warning":
		lvl = zerolog.WarnLevel
	case "error":
		lvl = zerolog.ErrorLevel
	default:
		lvl = zerolog.InfoLevel
	}

	logger := zerolog.New(w).Level(lvl).With().Timestamp().Logger()

	// Set as default logger for global access if needed
	zlog.Logger = logger
	zerolog.DefaultContextLogger = &logger

	return logger
}
