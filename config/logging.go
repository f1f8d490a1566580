package config

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

func parseLevel(level string) (logrus.Level, error) {
	l, err := logrus.ParseLevel(strings.ToLower(level))
	if err != nil {
		return 0, errors.Wrapf(err, "invalid logging.level %q", level)
	}
	return l, nil
}

// NewLogger builds a logger from the logging section.
func (l LoggingConfig) NewLogger() (*logrus.Logger, error) {
	level, err := parseLevel(l.Level)
	if err != nil {
		return nil, err
	}

	logger := logrus.New()
	logger.SetLevel(level)
	if strings.ToLower(l.Format) == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return logger, nil
}
