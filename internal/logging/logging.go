// Package logging provides the shared logrus logger and its gin middleware.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Logger is the process-wide logger. Packages log through it rather than
// creating their own so level and format are configured in one place.
var Logger = logrus.New()

// Init configures Logger. Unknown levels fall back to info with a warning;
// format "json" selects the JSON formatter, anything else the text one.
func Init(level, format string) {
	InitWithOutput(os.Stdout, level, format)
}

// InitWithOutput is Init with an explicit writer.
func InitWithOutput(w io.Writer, level, format string) {
	Logger.SetOutput(w)

	levelStr := strings.ToLower(strings.TrimSpace(level))
	if levelStr == "" {
		levelStr = "info"
	}
	lvl, err := logrus.ParseLevel(levelStr)
	if err != nil {
		Logger.Warnf("Invalid log level '%s', defaulting to INFO", level)
		lvl = logrus.InfoLevel
	}
	Logger.SetLevel(lvl)

	if strings.EqualFold(format, "json") {
		Logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		Logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
}
