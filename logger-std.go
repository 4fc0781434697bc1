//go:build !tinygo

package telenode

import (
	"log"
)

// StdLogger returns a Logger that writes through the standard library log
// package. Host programs install it with SetLogger.
func StdLogger() Logger {
	return &stdLogger{}
}

// stdLogger uses the standard library log package.
type stdLogger struct{}

func (l *stdLogger) Debug(msg string) {
	log.Print("[DEBUG] " + msg)
}

func (l *stdLogger) Info(msg string) {
	log.Print("[INFO]  " + msg)
}

func (l *stdLogger) Warn(msg string) {
	log.Print("[WARN]  " + msg)
}

func (l *stdLogger) Error(msg string) {
	log.Print("[ERROR] " + msg)
}
