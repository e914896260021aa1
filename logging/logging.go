// Package logging configures the process-wide logrus logger.
package logging

import (
	"io"
	"os"

	log "github.com/sirupsen/logrus"
)

// Setup applies the level and output format. An unknown level falls back
// to info.
func Setup(level string, json bool) {
	SetupWithOutput(os.Stderr, level, json)
}

// SetupWithOutput is Setup with an explicit destination
func SetupWithOutput(w io.Writer, level string, json bool) {
	log.SetOutput(w)

	if json {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}

	parsed, err := log.ParseLevel(level)
	if err != nil {
		parsed = log.InfoLevel
	}
	log.SetLevel(parsed)
}
