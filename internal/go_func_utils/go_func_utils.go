package go_func_utils

import (
	"log"
	"runtime/debug"
)

// SafeGo runs fn on a new goroutine.
func SafeGo(logger *log.Logger, fn func()) {
	go func() {
		defer recoverAndLog(logger)
		fn()
	}()
}

// SafeGoDone is SafeGo with a channel that is closed once fn has returned.
func SafeGoDone(logger *log.Logger, fn func()) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		defer recoverAndLog(logger)
		fn()
	}()
	return done
}

// the curses UI swallows stderr, so the panic and its stack go to our log
// file before crashing out again
func recoverAndLog(logger *log.Logger) {
	if r := recover(); r != nil {
		logger.Printf("PANIC: %v\n%s", r, debug.Stack())
		panic(r)
	}
}
