package core

import (
	"fmt"
	"runtime"
	"strings"
)

// ErrPanic is a panic recovered from a sink or hook, reported as the
// consumption's error. Stack lists the frames that led to the panic, minus
// readall's own and the runtime's.
type ErrPanic struct {
	Value any
	Stack string
}

func (e ErrPanic) Error() string {
	if e.Stack == "" {
		return fmt.Sprintf("panic: %v", e.Value)
	}
	return fmt.Sprintf("panic: %v\n%s", e.Value, e.Stack)
}

// NewPanicError wraps a value returned by recover. Call it from the
// deferred function that recovered.
func NewPanicError(recovered any) ErrPanic {
	var pcs [32]uintptr
	n := runtime.Callers(2, pcs[:])
	return ErrPanic{Value: recovered, Stack: userStack(pcs[:n])}
}

const modulePath = "github.com/lguimbarda/readall/"

func userStack(pcs []uintptr) string {
	if len(pcs) == 0 {
		return ""
	}
	var sb strings.Builder
	frames := runtime.CallersFrames(pcs)
	for {
		frame, more := frames.Next()
		if isUserFrame(frame.Function) {
			if sb.Len() > 0 {
				sb.WriteByte('\n')
			}
			fmt.Fprintf(&sb, "%s\n\t%s:%d", frame.Function, frame.File, frame.Line)
		}
		if !more {
			return sb.String()
		}
	}
}

func isUserFrame(function string) bool {
	return function != "" &&
		!strings.HasPrefix(function, modulePath) &&
		!strings.HasPrefix(function, "runtime.")
}
