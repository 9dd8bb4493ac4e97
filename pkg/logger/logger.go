package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	maxSize = 10
	maxBack = 5
	maxAge  = 30
)

// NewLogger writes to the console and, when filePath is set, to a rotating file.
func NewLogger(filePath, serviceName string) zerolog.Logger {
	return newLogger(os.Stdout, filePath, serviceName)
}

func newLogger(console io.Writer, filePath, serviceName string) zerolog.Logger {
	writers := []io.Writer{
		zerolog.ConsoleWriter{
			Out:        console,
			TimeFormat: time.RFC3339,
		},
	}

	if filePath != "" {
		writers = append(writers, &lumberjack.Logger{
			Filename:   filePath,
			MaxSize:    maxSize, // megabytes before rotation
			MaxBackups: maxBack,
			MaxAge:     maxAge, // days
			Compress:   true,
		})
	}

	logger := zerolog.New(zerolog.MultiLevelWriter(writers...)).With().
		Timestamp().
		Caller().
		Str("service", serviceName).
		Logger().
		Level(zerolog.DebugLevel)

	logger.Info().
		Str("logsFilePath", filePath).
		Str("serviceName", serviceName).
		Msg("Logger initialized")

	return logger
}
