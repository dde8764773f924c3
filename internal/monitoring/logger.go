package monitoring

import "log"

// Logf is the package-level diagnostic logger for the risk engine and its
// surrounding tooling. It defaults to log.Printf but may be replaced by
// SetLogger; tests and batch runs can redirect or mute it.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the package logger. Passing nil installs a no-op.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}
