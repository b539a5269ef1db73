// Package staticLog holds the process-wide logger used by the engine.
//
// The engine itself only emits debug summaries and leniency warnings; the
// caller decides where they go through Init.
package staticLog

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Log is safe for concurrent use; Init replaces its level, format and output.
var Log = newDefault()

type Options struct {
	Level  string // logrus level name, default "warn"
	Format string // "text" or "json"
	// File enables rotating file output through lumberjack when non-empty.
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

func newDefault() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetLevel(logrus.WarnLevel)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return l
}

// Init configures Log. The returned closer releases the log file, if any.
func Init(opt Options) (io.Closer, error) {
	lvl := logrus.WarnLevel
	if s := strings.TrimSpace(opt.Level); s != "" {
		parsed, err := logrus.ParseLevel(s)
		if err != nil {
			return nil, err
		}
		lvl = parsed
	}
	Log.SetLevel(lvl)

	switch strings.ToLower(strings.TrimSpace(opt.Format)) {
	case "json":
		Log.SetFormatter(&logrus.JSONFormatter{})
	default:
		Log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	if opt.File == "" {
		Log.SetOutput(os.Stderr)
		return nopCloser{}, nil
	}
	logFile := &lumberjack.Logger{
		Filename:   opt.File,
		MaxSize:    orDefault(opt.MaxSizeMB, 50),
		MaxBackups: orDefault(opt.MaxBackups, 3),
		MaxAge:     orDefault(opt.MaxAgeDays, 28),
		Compress:   opt.Compress,
		LocalTime:  true,
	}
	Log.SetOutput(logFile)
	return logFile, nil
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
