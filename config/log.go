package config

import (
	"io"
	"os"
	"time"

	"emperror.dev/errors"
	"github.com/rs/zerolog"
)

type LogConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// Logger creates a logger writing human readable lines to console and, if
// File is set, JSON lines to that file. console may be nil. The returned
// closer closes the file.
func (c LogConfig) Logger(console io.Writer) (zerolog.Logger, io.Closer, error) {
	level := zerolog.InfoLevel
	if c.Level != "" {
		var err error
		if level, err = zerolog.ParseLevel(c.Level); err != nil {
			return zerolog.Logger{}, nil, errors.Wrapf(err, "invalid log level %s", c.Level)
		}
	}
	writers := []io.Writer{}
	if console != nil {
		writers = append(writers, zerolog.ConsoleWriter{Out: console, TimeFormat: time.RFC3339})
	}
	var closer io.Closer = io.NopCloser(nil)
	if c.File != "" {
		f, err := os.OpenFile(c.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return zerolog.Logger{}, nil, errors.Wrapf(err, "cannot open log file %s", c.File)
		}
		writers = append(writers, f)
		closer = f
	}
	return zerolog.New(zerolog.MultiLevelWriter(writers...)).Level(level).With().Timestamp().Logger(), closer, nil
}
