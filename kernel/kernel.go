// Package kernel provides the ambient logging and fatal-error
// conventions shared by the virtual memory subsystem. It stands in
// for the teacher's "kernel" directory (previously a one-off ELF
// build tool, dropped — see DESIGN.md) as the new home for the
// logging/panic plumbing every other VM package calls into.
package kernel

import (
	"os"

	"duskos/caller"

	"github.com/sirupsen/logrus"
)

// Log is the structured logger used throughout the VM subsystem.
// Tests may swap its output or level; production wiring (cmd/duskvm)
// configures it from flags.
var Log = newLogger()

func newLogger() *logrus.Logger {
	l := logrus.New()
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	l.SetOutput(os.Stderr)
	l.SetLevel(logrus.InfoLevel)
	return l
}

// Panic reports a kernel invariant violation (OutOfMemory, OutOfSwap,
// or any other condition spec.md §7 marks as fatal) and halts the
// calling goroutine. err may be nil for conditions that carry no
// underlying cause.
func Panic(reason string, err error) {
	entry := Log.WithField("component", "kernel")
	if err != nil {
		entry = entry.WithError(err)
	}
	entry.Error(reason)
	entry.Error(caller.Dump(2))
	panic(reason)
}
