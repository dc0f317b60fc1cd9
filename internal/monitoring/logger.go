// Package monitoring holds the process-wide diagnostic logger.
package monitoring

import "log"

// Logf is the package-level progress and diagnostic logger. It defaults
// to log.Printf; callers may swap it with SetLogger to redirect or mute
// pipeline progress messages.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the package logger. A nil argument installs a
// no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}
