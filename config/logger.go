package config

import (
	"os"

	"github.com/sirupsen/logrus"
)

var logg *logrus.Logger

func Logger() *logrus.Logger {
	return logg
}

func init() {
	logg = logrus.New()
	logg.SetFormatter(&logrus.JSONFormatter{})
	logg.SetOutput(os.Stdout)
	if os.Getenv("LOG_DEBUG") != "" {
		logg.SetLevel(logrus.DebugLevel)
	} else {
		logg.SetLevel(logrus.InfoLevel)
	}
}

// LogError records a failure with enough context to trace it back to the
// module and operation that produced it.
func LogError(module, funcName string, data any, err error) {
	fields := logrus.Fields{
		"module":   module,
		"funcName": funcName,
	}
	if data != nil {
		fields["data"] = data
	}
	logg.WithFields(fields).Error(err.Error())
}
