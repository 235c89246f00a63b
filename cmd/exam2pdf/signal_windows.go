//go:build windows

package main

import (
	"context"
	"os"
	"os/signal"
)

// notifyContext cancels the fetch and render on an interrupt.
// syscall.SIGTERM is not available on Windows.
func notifyContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt)
}
