// Package logger hands out named logrus loggers that share one
// configuration. Each name gets its own rotated file when file output is on.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"mountain-sentinel/config"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	loggers   = make(map[string]*logrus.Logger)
	loggersMu sync.Mutex
	cfg       *config.LogConfig
)

// Init sets the configuration for loggers created afterwards and drops any
// logger created before it.
func Init(c config.LogConfig) error {
	loggersMu.Lock()
	defer loggersMu.Unlock()

	if c.Output == "file" || c.Output == "both" {
		if err := os.MkdirAll(c.Path, 0755); err != nil {
			return fmt.Errorf("create log directory: %w", err)
		}
	}
	cfg = &c
	loggers = make(map[string]*logrus.Logger)
	return nil
}

// Get returns the logger registered under name, creating it on first use.
func Get(name string) *logrus.Logger {
	loggersMu.Lock()
	defer loggersMu.Unlock()

	if l, ok := loggers[name]; ok {
		return l
	}
	if cfg == nil {
		c := config.Default().Log
		cfg = &c
	}
	l := newLogger(name, cfg)
	loggers[name] = l
	return l
}

// Component is shorthand for Get("app") tagged with a component field.
func Component(name string) *logrus.Entry {
	return Get("app").WithField("component", name)
}

func newLogger(name string, c *config.LogConfig) *logrus.Logger {
	l := logrus.New()

	level, err := logrus.ParseLevel(c.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	l.SetLevel(level)

	if strings.ToLower(c.Format) == "json" {
		l.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02 15:04:05.000",
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime:  "timestamp",
				logrus.FieldKeyLevel: "level",
				logrus.FieldKeyMsg:   "message",
			},
		})
	} else {
		l.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05.000",
		})
	}

	var writers []io.Writer
	if c.Output == "file" || c.Output == "both" {
		writers = append(writers, &lumberjack.Logger{
			Filename:   filepath.Join(c.Path, name+".log"),
			MaxSize:    c.MaxSize,
			MaxBackups: c.MaxBackups,
			MaxAge:     c.MaxAge,
			Compress:   c.Compress,
		})
	}
	if c.Output != "file" {
		writers = append(writers, os.Stdout)
	}
	if len(writers) == 1 {
		l.SetOutput(writers[0])
	} else {
		l.SetOutput(io.MultiWriter(writers...))
	}

	return l
}
