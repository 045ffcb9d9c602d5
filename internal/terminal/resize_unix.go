//go:build !windows

package terminal

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// WatchResize delivers a value whenever the terminal window changes size.
// The channel is closed when ctx is done.
func WatchResize(ctx context.Context) <-chan struct{} {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGWINCH)
	out := make(chan struct{}, 1)
	go func() {
		defer close(out)
		defer signal.Stop(sig)
		for {
			select {
			case <-ctx.Done():
				return
			case <-sig:
				select {
				case out <- struct{}{}:
				default:
				}
			}
		}
	}()
	return out
}
