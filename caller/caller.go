// Package caller formats Go call stacks for kernel panic diagnostics.
package caller

import (
	"fmt"
	"runtime"
)

// Dump renders the call stack starting at the given skip depth as a
// multi-line string, used by kernel.Panic to attach context to fatal
// VM-subsystem errors.
func Dump(start int) string {
	s := ""
	for i := start; ; i++ {
		_, f, l, ok := runtime.Caller(i)
		if !ok {
			break
		}
		if s == "" {
			s = fmt.Sprintf("%s:%d", f, l)
		} else {
			s += fmt.Sprintf("\n\t<-%s:%d", f, l)
		}
	}
	return s
}
