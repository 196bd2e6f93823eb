package monitoring

import (
	"fmt"
	"log"
)

// Logf is the package-level diagnostic logger. It defaults to log.Printf but may
// be replaced by SetLogger. Tests or production code can redirect or mute it.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the package logger. Passing nil will set a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// PlayerLogf logs through Logf with a "[player N] " prefix so that lines from
// several bots sharing a process can be told apart.
func PlayerLogf(playerIndex int, format string, v ...interface{}) {
	Logf("[player %d] %s", playerIndex, fmt.Sprintf(format, v...))
}
