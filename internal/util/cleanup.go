package util

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

// SetupInterruptHandler returns a context that is cancelled on the first
// interrupt so running walks and scans stop after the current request. A
// second interrupt exits immediately.
func SetupInterruptHandler(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	sig := make(chan os.Signal, 2)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sig)

		select {
		case <-sig:
			fmt.Fprintln(os.Stderr, "\nInterrupt received. Stopping...")
			cancel()
		case <-ctx.Done():
			return
		}

		select {
		case <-sig:
			fmt.Fprintln(os.Stderr, "\nExiting due to interrupt.")
			os.Exit(1)
		case <-parent.Done():
		}
	}()

	return ctx, cancel
}
