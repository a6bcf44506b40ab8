package logger

import (
	"os"
	"time"

	"github.com/natefinch/lumberjack"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Configure sets up the global zerolog logger: console output plus a rotating
// log file. Call once at startup.
func Configure(level zerolog.Level, logFile string) {
	zerolog.TimeFieldFormat = time.DateTime

	console := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.DateTime,
	}

	var writer zerolog.LevelWriter
	if logFile != "" {
		file := &lumberjack.Logger{
			Filename:   logFile,
			MaxSize:    10,
			MaxBackups: 3,
			MaxAge:     28,
			Compress:   true,
		}
		writer = zerolog.MultiLevelWriter(console, file)
	} else {
		writer = zerolog.MultiLevelWriter(console)
	}

	log.Logger = zerolog.New(writer).
		With().
		Timestamp().
		Logger().
		Level(level)
}
