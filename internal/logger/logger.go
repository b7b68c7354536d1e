// Package logger holds the process-wide zerolog logger.
//
// Call Init once from main; until then L writes JSON to stderr so packages can
// log from tests without any setup.
package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

var L = zerolog.New(os.Stderr).With().Timestamp().Logger()

// Init configures L. format is "console" or "json"; level is any zerolog level
// name and falls back to info.
func Init(level, format string) {
	L = New(os.Stderr, level, format)
}

// New builds a logger without touching the global one.
func New(w io.Writer, level, format string) zerolog.Logger {
	if strings.EqualFold(format, "console") {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger()
}

func Infof(f string, v ...interface{})  { L.Info().Msgf(f, v...) }
func Warnf(f string, v ...interface{})  { L.Warn().Msgf(f, v...) }
func Errorf(f string, v ...interface{}) { L.Error().Msgf(f, v...) }
func Debugf(f string, v ...interface{}) { L.Debug().Msgf(f, v...) }
