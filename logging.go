// logging.go - Host logger setup

package main

import (
	"io"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// newLogger builds the host logger. Engine and bus entries hang off it with
// their own component field.
func newLogger(level string, w io.Writer) (*logrus.Logger, error) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, errors.Wrapf(err, "log level %q", level)
	}
	log := logrus.New()
	log.SetOutput(w)
	log.SetLevel(lvl)
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "15:04:05.000",
	})
	return log, nil
}
