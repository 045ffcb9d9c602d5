// Package signal turns termination signals into context cancellation.
package signal

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// NotifyContext returns a copy of parent that is cancelled on SIGINT,
// SIGTERM or SIGHUP. In raw mode ctrl+c arrives as a key, so in practice
// this fires when the terminal goes away or the process is killed.
// The returned stop function should be called to release resources.
func NotifyContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
}
