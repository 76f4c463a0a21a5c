// Package logging sets up the run logger: a log file at the configured level
// and a console sink that always logs at INFO.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/afero"
)

// ConsoleLevel is the fixed level of the console sink.
const ConsoleLevel = hclog.Info

// Options configures New.
type Options struct {
	// Name of the root logger.
	Name string

	// Level is the level of the file logger.
	Level hclog.Level

	// File is the path of the log file. It is opened for append and created
	// when missing.
	File string

	// Fs is the filesystem the log file lives on. Nil means the OS
	// filesystem.
	Fs afero.Fs

	// Console receives the INFO level sink. Nil means os.Stderr.
	Console io.Writer
}

// ParseLevel maps a level name to an hclog level. WARNING maps to Warn and
// CRITICAL to Error, the most severe hclog level.
func ParseLevel(name string) (hclog.Level, error) {
	switch strings.ToUpper(name) {
	case "DEBUG":
		return hclog.Debug, nil
	case "INFO":
		return hclog.Info, nil
	case "WARNING", "WARN":
		return hclog.Warn, nil
	case "ERROR":
		return hclog.Error, nil
	case "CRITICAL":
		return hclog.Error, nil
	default:
		return hclog.NoLevel, fmt.Errorf("unknown log level %q", name)
	}
}

// New returns the run logger and a function that closes the log file.
func New(opts Options) (hclog.InterceptLogger, func() error, error) {
	fs := opts.Fs
	if fs == nil {
		fs = afero.NewOsFs()
	}
	console := opts.Console
	if console == nil {
		console = os.Stderr
	}

	f, err := fs.OpenFile(opts.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file %s: %w", opts.File, err)
	}

	logger := hclog.NewInterceptLogger(&hclog.LoggerOptions{
		Name:   opts.Name,
		Level:  opts.Level,
		Output: f,
	})

	logger.RegisterSink(hclog.NewSinkAdapter(&hclog.LoggerOptions{
		Name:   opts.Name,
		Level:  ConsoleLevel,
		Output: console,
	}))

	return logger, f.Close, nil
}
