package testutil

import (
	"log"
	"os"
	"testing"
	"time"
)

func TestLogger(t *testing.T) *log.Logger {
	logger := log.New(os.Stdout, "[test] ", log.LstdFlags)
	t.Cleanup(func() {
		logger.SetOutput(os.Stderr)
	})
	return logger
}

// ReceiveTimeout reads one value from ch or fails the test after d.
func ReceiveTimeout[T any](t *testing.T, ch <-chan T, d time.Duration) T {
	t.Helper()

	select {
	case v := <-ch:
		return v
	case <-time.After(d):
		t.Fatalf("timed out after %s waiting for value", d)
		panic("unreachable")
	}
}
