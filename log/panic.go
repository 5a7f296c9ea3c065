package log

import (
	"bytes"
	"runtime/debug"

	"github.com/rs/zerolog"
)

// Panic renders a recovered panic value and the stack of the panicking
// goroutine, starting at the frame that panicked.
func Panic(thing any) func(e *zerolog.Event) {
	return func(e *zerolog.Event) {
		dict := zerolog.Dict().Any("content", thing)
		stack := debug.Stack()
		if i := bytes.Index(stack, []byte("\npanic(")); i >= 0 {
			stack = stack[i+1:]
		}
		dict.Bytes("stack_traces", stack)
		e.Dict("panic", dict)
	}
}
