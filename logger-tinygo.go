//go:build tinygo

package telenode

import (
	"machine"
)

// SerialLogger returns a Logger that writes to the USB/UART console.
// Keep it off on battery builds: the console keeps the USB stack awake.
func SerialLogger() Logger {
	return &serialLogger{}
}

// serialLogger uses machine.Serial directly to avoid the memory overhead of
// the fmt package.
type serialLogger struct{}

func (l *serialLogger) log(level, msg string) {
	machine.Serial.Write([]byte(level))
	machine.Serial.Write([]byte(msg))
	machine.Serial.Write([]byte("\r\n"))
}

func (l *serialLogger) Debug(msg string) { l.log("[DEBUG] ", msg) }
func (l *serialLogger) Info(msg string)  { l.log("[INFO]  ", msg) }
func (l *serialLogger) Warn(msg string)  { l.log("[WARN]  ", msg) }
func (l *serialLogger) Error(msg string) { l.log("[ERROR] ", msg) }
