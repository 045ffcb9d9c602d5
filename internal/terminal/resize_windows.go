//go:build windows

package terminal

import "context"

// WatchResize is not supported on Windows; the session re-probes the size
// on every frame instead.
func WatchResize(ctx context.Context) <-chan struct{} {
	out := make(chan struct{})
	go func() {
		<-ctx.Done()
		close(out)
	}()
	return out
}
