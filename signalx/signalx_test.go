//go:build unix

package signalx

import (
	"context"
	"log/slog"
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/saylorsolutions/busx/slogx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContext(t *testing.T) {
	ctx, stop := Context(context.Background(), syscall.SIGUSR1)
	defer stop()
	require.NoError(t, ctx.Err())

	require.NoError(t, syscall.Kill(os.Getpid(), syscall.SIGUSR1))
	select {
	case <-ctx.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("Context should be cancelled by the signal")
	}
	assert.ErrorIs(t, ctx.Err(), context.Canceled)
}

func TestContext_Stop(t *testing.T) {
	parent, cancelParent := context.WithCancel(context.Background())
	ctx, stop := Context(parent, syscall.SIGUSR2)
	defer stop()
	cancelParent()
	<-ctx.Done()

	stopped, stop2 := Context(context.Background(), syscall.SIGUSR2)
	stop2()
	stop2()
	assert.Error(t, stopped.Err())
}

func TestExitContext(t *testing.T) {
	exited := make(chan int, 1)
	exit = func(code int) {
		exited <- code
	}
	t.Cleanup(func() {
		exit = os.Exit
	})
	abs := slogx.NewAbsorber(slog.LevelInfo)
	ctx, stop := ExitContext(context.Background(), slog.New(abs), syscall.SIGUSR1)
	defer stop()

	require.NoError(t, syscall.Kill(os.Getpid(), syscall.SIGUSR1))
	<-ctx.Done()
	require.NoError(t, syscall.Kill(os.Getpid(), syscall.SIGUSR1))
	select {
	case code := <-exited:
		assert.Equal(t, 1, code)
	case <-time.After(5 * time.Second):
		t.Fatal("A second signal should exit")
	}
	assert.Equal(t, 1, abs.Count(slog.LevelInfo))
	assert.Equal(t, 1, abs.Count(slog.LevelWarn))
}
