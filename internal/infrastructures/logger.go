package infrastructures

import (
	"github.com/sirupsen/logrus"
)

var logger *logrus.Logger

func init() {
	logger = logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
}

// GetLogger returns the global logger instance
func GetLogger() *logrus.Logger {
	return logger
}

// NewLogger applies the configured level to the global logger and the
// standard logrus logger used by the errors package.
func NewLogger(config *AppConfig) *logrus.Logger {
	level, err := logrus.ParseLevel(config.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
	logrus.SetFormatter(&logrus.JSONFormatter{})
	logrus.SetLevel(level)
	return logger
}
