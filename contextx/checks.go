package contextx

import "context"

// IsDone reports whether ctx is done without blocking.
// A nil context is never done.
func IsDone(ctx context.Context) bool {
	if ctx == nil {
		// Returning false in this case so the caller doesn't attempt to extract the context error.
		return false
	}
	select {
	case <-ctx.Done():
		return true
	default:
		return false
	}
}

// Cause returns the cause of ctx being done, or nil if it isn't done yet.
// This is the same as [context.Cause], except that it never blocks and accepts a nil context.
func Cause(ctx context.Context) error {
	if !IsDone(ctx) {
		return nil
	}
	return context.Cause(ctx)
}
