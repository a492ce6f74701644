package logging

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Options controls logger construction
type Options struct {
	Level logrus.Level
	// File receives a copy of every entry, appended. Empty disables file output.
	File    string
	Console io.Writer
	Hooks   []logrus.Hook
}

// New - creates the process logger writing to the console and optionally a file.
// The returned closer releases the file.
func New(opts Options) (*logrus.Logger, io.Closer, error) {
	logger := logrus.New()
	logger.SetLevel(opts.Level)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	console := opts.Console
	if console == nil {
		console = os.Stdout
	}

	var closer io.Closer = nopCloser{}
	if opts.File != "" {
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file: %w", err)
		}
		logger.SetOutput(io.MultiWriter(console, f))
		closer = f
	} else {
		logger.SetOutput(console)
	}

	for _, h := range opts.Hooks {
		logger.AddHook(h)
	}
	return logger, closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
