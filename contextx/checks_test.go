package contextx

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsDone(t *testing.T) {
	assert.False(t, IsDone(nil))
	assert.False(t, IsDone(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	assert.False(t, IsDone(ctx))
	cancel()
	assert.True(t, IsDone(ctx))
}

func TestCause(t *testing.T) {
	stopped := errors.New("stopped")
	ctx, cancel := context.WithCancelCause(context.Background())
	assert.NoError(t, Cause(ctx))
	assert.NoError(t, Cause(nil))

	cancel(stopped)
	assert.ErrorIs(t, Cause(ctx), stopped)

	plain, cancelPlain := context.WithCancel(context.Background())
	cancelPlain()
	assert.ErrorIs(t, Cause(plain), context.Canceled)
}
