// Package logging provides the small structured-enough logger the mixing
// core uses for non-fatal diagnostics. It follows the same plain
// log.Logger-with-a-component-prefix idiom the rest of the ecosystem
// examples use for CLI tooling: no external logging framework, just a
// thin wrapper so call sites read "[component] message" consistently.
package logging

import (
	"log"
	"os"
)

// Logger writes prefixed diagnostic lines. The zero value is not usable;
// use New.
type Logger struct {
	component string
	out       *log.Logger
}

// New returns a Logger that prefixes every line with "[component] ".
func New(component string) *Logger {
	return &Logger{
		component: component,
		out:       log.New(os.Stderr, "", log.LstdFlags),
	}
}

// Printf logs a formatted diagnostic line.
func (l *Logger) Printf(format string, args ...any) {
	l.out.Printf("[%s] "+format, append([]any{l.component}, args...)...)
}

// Println logs a single diagnostic line.
func (l *Logger) Println(args ...any) {
	l.out.Println(append([]any{"[" + l.component + "]"}, args...)...)
}
