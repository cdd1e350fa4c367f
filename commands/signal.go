package commands

import (
	"context"
	"os"
	"os/signal"
)

// interruptContext is cancelled on an interrupt from the os or when the
// returned done function is called
func interruptContext() (context.Context, func()) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)

	doneCh := make(chan struct{})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		select {
		case <-sigCh:
		case <-doneCh:
		}
		signal.Stop(sigCh)
		cancel()
	}()
	return ctx, func() { close(doneCh) }
}
