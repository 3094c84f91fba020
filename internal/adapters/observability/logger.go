package observability

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// LoggerOptions selects the level and optional file output of the process logger.
type LoggerOptions struct {
	Level   string
	File    string
	Service string
	JSON    bool
}

// NewLogger builds the process logger. The returned close function releases the log
// file, if any.
func NewLogger(opts LoggerOptions) (*logrus.Logger, func() error, error) {
	logger := logrus.New()

	level := opts.Level
	if level == "" {
		level = "info"
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, nil, fmt.Errorf("log level: %w", err)
	}
	logger.SetLevel(lvl)

	if opts.JSON {
		logger.SetFormatter(&logrus.JSONFormatter{TimestampFormat: logTimeLayout})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, TimestampFormat: logTimeLayout})
	}

	closeFn := func() error { return nil }
	if opts.File != "" {
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		logger.SetOutput(io.MultiWriter(os.Stderr, f))
		closeFn = f.Close
	}

	if opts.Service != "" {
		logger.AddHook(serviceHook(opts.Service))
	}
	return logger, closeFn, nil
}

type serviceHook string

func (serviceHook) Levels() []logrus.Level { return logrus.AllLevels }

func (s serviceHook) Fire(e *logrus.Entry) error {
	if _, ok := e.Data["service"]; !ok {
		e.Data["service"] = string(s)
	}
	return nil
}
