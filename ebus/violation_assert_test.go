//go:build !noassert

package ebus

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// assertViolation expects fn to panic, since assertions are enabled in this build.
func assertViolation(t *testing.T, fn func()) {
	t.Helper()
	assert.Panics(t, fn)
}
