package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
)

// CreateContextWithShutdown returns a context derived from parent that is cancelled when SIGINT or
// SIGTERM is received, or when the returned cancel function is called.
func CreateContextWithShutdown(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		defer signal.Stop(c)
		select {
		case sig := <-c:
			log.Warnf("received %s, stopping after the current tile", sig)
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}
