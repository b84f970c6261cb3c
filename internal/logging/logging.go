// Package logging builds the process logger used by the staffguard service.
package logging

import (
	"io"
	"log"
	"os"

	"github.com/natefinch/lumberjack"
	"github.com/sirupsen/logrus"
)

// Options controls logger construction.
type Options struct {
	// Level is a logrus level name; empty means info.
	Level string
	// File enables rotating file output in addition to stdout.
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
	NoColor    bool
}

// New returns a configured logger and routes the standard library logger
// through it.
func New(opts Options) (*logrus.Logger, error) {
	l := logrus.New()

	formatter := &logrus.TextFormatter{
		TimestampFormat: "2006-01-02 15:04:05",
		FullTimestamp:   true,
	}
	if opts.NoColor || os.Getenv("NO_COLOR") != "" {
		formatter.DisableColors = true
	} else {
		formatter.EnvironmentOverrideColors = true
	}
	l.SetFormatter(formatter)

	level := logrus.InfoLevel
	if opts.Level != "" {
		parsed, err := logrus.ParseLevel(opts.Level)
		if err != nil {
			return nil, err
		}
		level = parsed
	}
	l.SetLevel(level)
	l.SetReportCaller(level >= logrus.DebugLevel)

	var w io.Writer = os.Stdout
	if opts.File != "" {
		w = io.MultiWriter(os.Stdout, &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    withDefault(opts.MaxSizeMB, 50), // megabytes
			MaxBackups: withDefault(opts.MaxBackups, 5),
			MaxAge:     withDefault(opts.MaxAgeDays, 28), // days
			Compress:   opts.Compress,
		})
	}
	l.SetOutput(w)
	log.SetOutput(l.Writer())
	return l, nil
}

func withDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
