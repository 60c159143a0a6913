package logger

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

var log = logrus.New()

// Init configures the process-wide logger. level is a logrus level name
// ("debug", "info", ...); format "text" switches away from JSON output.
func Init(level string, format string) {
	log.SetOutput(os.Stdout)

	if strings.EqualFold(format, "text") {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		log.SetFormatter(&logrus.JSONFormatter{})
	}

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	log.SetLevel(lvl)

	log.Debug("logger initialized")
}

// Logger exposes the underlying logrus instance, e.g. for gin's writer.
func Logger() *logrus.Logger {
	return log
}

func Debug(msg string, fields map[string]any) {
	log.WithFields(fields).Debug(msg)
}

func Info(msg string, fields map[string]any) {
	log.WithFields(fields).Info(msg)
}

func Warn(msg string, fields map[string]any) {
	log.WithFields(fields).Warn(msg)
}

func Error(msg string, fields map[string]any) {
	log.WithFields(fields).Error(msg)
}

func Fatal(msg string, fields map[string]any) {
	log.WithFields(fields).Fatal(msg)
}
