package signalx

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sync"
)

var exit = os.Exit

// Context returns a context that is cancelled when any of the given signals are received, or when parent is done.
// The returned stop function stops signal delivery and cancels the context, and should always be called.
func Context(parent context.Context, signals ...os.Signal) (ctx context.Context, stop context.CancelFunc) {
	return notify(parent, nil, false, signals)
}

// ExitContext is the same as [Context], but a second signal calls [os.Exit] with a non-zero exit code.
// This lets a user force a program to stop when a graceful shutdown is taking too long.
// Received signals are logged with log if it's not nil.
func ExitContext(parent context.Context, log *slog.Logger, signals ...os.Signal) (ctx context.Context, stop context.CancelFunc) {
	return notify(parent, log, true, signals)
}

func notify(parent context.Context, log *slog.Logger, exitOnSecond bool, signals []os.Signal) (context.Context, context.CancelFunc) {
	if len(signals) == 0 {
		panic("no signals passed to signalx")
	}
	ctx, cancel := context.WithCancel(parent)
	stopped := make(chan struct{})
	stop := sync.OnceFunc(func() {
		close(stopped)
		cancel()
	})
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, signals...)
	go func() {
		defer signal.Stop(sigs)
		select {
		case sig := <-sigs:
			if log != nil {
				log.Info("Received signal, stopping", "signal", sig.String())
			}
			cancel()
		case <-ctx.Done():
			return
		}
		if !exitOnSecond {
			return
		}
		select {
		case sig := <-sigs:
			if log != nil {
				log.Warn("Received second signal, exiting immediately", "signal", sig.String())
			}
			exit(1)
		case <-stopped:
		case <-parent.Done():
		}
	}()
	return ctx, stop
}
