package utils

import "context"

// GracefulShutdown runs the cleanup hook once the context is cancelled.
func GracefulShutdown(ctx context.Context, cleanup func()) {
	<-ctx.Done()
	cleanup()
}
